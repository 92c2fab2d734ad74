package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// Error codes, grouped by concern. Startup-phase codes (config, network,
// proxy) abort the process; steady-state codes (compile in watch mode,
// watch) are reported and the session keeps serving.
const (
	CodeConfigInvalid    = "E100"
	CodeConfigUnknownKey = "E101"
	CodeConfigBadPort    = "E102"
	CodeProjectNotFound  = "E103"

	CodePortExhaustion = "E200"
	CodeBindFailed     = "E201"

	CodeProxyBadTarget = "E300"
	CodeProxyBadValue  = "E301"

	CodeCompileFailed   = "E400"
	CodeBundlerNotFound = "E401"

	CodeWatchPermission = "E500"
	CodeWatchInit       = "E501"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration (E100-E199)
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid autofe.json",
		Detail:   "The autofe.json configuration file is malformed.",
	},
	CodeConfigUnknownKey: {
		Category: CategoryConfig,
		Message:  "Unknown configuration key",
		Detail:   "autofe.json contains a key this version does not recognize. Unknown keys are rejected rather than silently ignored.",
	},
	CodeConfigBadPort: {
		Category: CategoryConfig,
		Message:  "Invalid port number",
		Detail:   "The configured port number is outside the valid range.",
	},
	CodeProjectNotFound: {
		Category: CategoryCLI,
		Message:  "Not an autofe project",
		Detail:   "The current directory is not an autofe project. Run this command from a directory with autofe.json.",
	},

	// Network (E200-E299)
	CodePortExhaustion: {
		Category: CategoryNetwork,
		Message:  "No free port available",
		Detail:   "Every port in the scanned range is already in use.",
	},
	CodeBindFailed: {
		Category: CategoryNetwork,
		Message:  "Failed to bind listener",
		Detail:   "The resolved host and port could not be bound. Another process may have taken the port after it was probed.",
	},

	// Proxy (E300-E399)
	CodeProxyBadTarget: {
		Category: CategoryProxy,
		Message:  "Invalid proxy target",
		Detail:   "A proxy rule target is missing its scheme or host.",
	},
	CodeProxyBadValue: {
		Category: CategoryProxy,
		Message:  "Invalid proxy configuration",
		Detail:   "The proxy value must be a target URL string, a path-to-target mapping, or an array of rules.",
	},

	// Compile (E400-E499)
	CodeCompileFailed: {
		Category: CategoryCompile,
		Message:  "Compile failed",
		Detail:   "The bundler reported a build error. Check the output for details.",
	},
	CodeBundlerNotFound: {
		Category: CategoryCompile,
		Message:  "Bundler not found",
		Detail:   "The configured bundler command is not installed or not in PATH.",
	},

	// Watch (E500-E599)
	CodeWatchPermission: {
		Category: CategoryWatch,
		Message:  "Watch permission denied",
		Detail:   "The filesystem watch lacks permission on a path. The watch for that path is disabled and the session continues.",
	},
	CodeWatchInit: {
		Category: CategoryWatch,
		Message:  "Failed to start filesystem watcher",
		Detail:   "The operating system watch facility could not be initialized.",
	},
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
