package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/saiuns/create-autofe-app/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "autofe.json"

	// DefaultPort is the base development server port.
	DefaultPort = 8000

	// DefaultHost is the default development server host.
	DefaultHost = "0.0.0.0"

	// DefaultOutput is the default compiled output directory.
	DefaultOutput = "build"

	// DefaultPublicDir is the default static asset directory served
	// verbatim, outside the compile pipeline.
	DefaultPublicDir = "public"

	// DefaultPublicPath is the URL prefix under which compiled assets
	// are served.
	DefaultPublicPath = "/"
)

// Config represents the complete autofe.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Bundler configures the external module bundler, including any
	// dev-server settings embedded in the bundler configuration.
	Bundler BundlerConfig `json:"bundler,omitempty"`

	// DevServer contains project-level dev-server settings. These take
	// priority over bundler-embedded settings, which take priority over
	// built-in defaults.
	DevServer DevServerConfig `json:"devServer,omitempty"`

	// Static contains static asset directory configuration.
	Static StaticConfig `json:"static,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// BundlerConfig configures the external bundler pipeline.
type BundlerConfig struct {
	// Command is the bundler executable to run.
	Command string `json:"command,omitempty"`

	// Args are extra arguments passed to the bundler.
	Args []string `json:"args,omitempty"`

	// Output is the compiled output directory.
	Output string `json:"output,omitempty"`

	// PublicPath is the URL prefix for compiled assets.
	PublicPath string `json:"publicPath,omitempty"`

	// Sources are the directories the bundler tracks for rebuilds.
	Sources []string `json:"sources,omitempty"`

	// DevServer holds dev-server settings embedded in the bundler
	// configuration (lower priority than the project-level block).
	DevServer DevServerConfig `json:"devServer,omitempty"`
}

// DevServerConfig is one layer of dev-server settings. Boolean fields are
// pointers so an unset field can be distinguished from an explicit false
// when layers are merged.
type DevServerConfig struct {
	// Host is the address to bind to.
	Host string `json:"host,omitempty"`

	// Port is the base port; the first free port at or above it is used.
	Port int `json:"port,omitempty"`

	// HTTPS selects the https protocol for resolved URLs.
	HTTPS *bool `json:"https,omitempty"`

	// Open launches the browser after the first successful compile.
	Open *bool `json:"open,omitempty"`

	// OpenPage is the page opened in the browser, relative to the root URL.
	OpenPage string `json:"openPage,omitempty"`

	// PublicURL, when set to an absolute URL, overrides the
	// browser-facing URL (never the terminal-displayed local URL).
	PublicURL string `json:"publicUrl,omitempty"`

	// Proxy is the raw proxy specification: a target URL string, a
	// path-to-target mapping, or an array of rules. Normalized at
	// session start.
	Proxy json.RawMessage `json:"proxy,omitempty"`

	// Hot enables hot-update client injection.
	Hot *bool `json:"hot,omitempty"`

	// Compress enables response compression.
	Compress *bool `json:"compress,omitempty"`

	// WatchOptions tunes the filesystem watches.
	WatchOptions WatchOptions `json:"watchOptions,omitempty"`
}

// WatchOptions tunes filesystem watching.
type WatchOptions struct {
	// Ignore contains patterns excluded from watching.
	Ignore []string `json:"ignore,omitempty"`

	// DebounceMs is the rebuild debounce interval in milliseconds.
	DebounceMs int `json:"debounceMs,omitempty"`
}

// StaticConfig contains static asset serving configuration.
type StaticConfig struct {
	// Dir is the directory of assets served verbatim.
	Dir string `json:"dir,omitempty"`
}

// Session is the resolved, immutable dev-server configuration, produced by
// merging, in priority order (lowest to highest): built-in defaults,
// bundler-embedded dev-server settings, project-level dev-server settings.
type Session struct {
	Host         string
	Port         int
	HTTPS        bool
	Protocol     string
	Open         bool
	OpenPage     string
	PublicURL    string
	PublicPath   string
	Proxy        json.RawMessage
	Hot          bool
	Compress     bool
	WatchOptions WatchOptions
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Bundler: BundlerConfig{
			Command:    "webpack",
			Output:     DefaultOutput,
			PublicPath: DefaultPublicPath,
			Sources:    []string{"src"},
		},
		Static: StaticConfig{
			Dir: DefaultPublicDir,
		},
	}
}

// Load reads configuration from the specified directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path. Unknown keys
// are rejected rather than silently accepted.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeProjectNotFound).
				WithDetail("No autofe.json found in " + filepath.Dir(path)).
				WithSuggestion("Create autofe.json at the project root")
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	cfg := New()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		if key, ok := unknownFieldName(err); ok {
			return nil, errors.New(errors.CodeConfigUnknownKey).
				WithDetailf("autofe.json contains unknown key %q", key).
				WithSuggestion("Remove the key or check its spelling against the documented schema")
		}
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse autofe.json: " + err.Error()).
			WithSuggestion("Check that autofe.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromWorkingDir loads configuration from the nearest project root at
// or above the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

// unknownFieldName extracts the field name from an encoding/json
// DisallowUnknownFields error.
func unknownFieldName(err error) (string, bool) {
	const marker = "unknown field "
	msg := err.Error()
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return "", false
	}
	name := strings.Trim(msg[idx+len(marker):], `"`)
	return name, name != ""
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Bundler.Command == "" {
		c.Bundler.Command = "webpack"
	}
	if c.Bundler.Output == "" {
		c.Bundler.Output = DefaultOutput
	}
	if c.Bundler.PublicPath == "" {
		c.Bundler.PublicPath = DefaultPublicPath
	}
	if len(c.Bundler.Sources) == 0 {
		c.Bundler.Sources = []string{"src"}
	}
	if c.Static.Dir == "" {
		c.Static.Dir = DefaultPublicDir
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	for _, port := range []int{c.Bundler.DevServer.Port, c.DevServer.Port} {
		if port < 0 || port > 65535 {
			return errors.New(errors.CodeConfigBadPort).
				WithDetailf("Port %d must be between 0 and 65535", port)
		}
	}
	return nil
}

// Session resolves the dev-server configuration by merging the three
// layers. The result is immutable for the session's lifetime.
func (c *Config) Session() Session {
	s := Session{
		Host:       DefaultHost,
		Port:       DefaultPort,
		Hot:        true,
		Compress:   true,
		PublicPath: c.Bundler.PublicPath,
	}

	for _, layer := range []DevServerConfig{c.Bundler.DevServer, c.DevServer} {
		if layer.Host != "" {
			s.Host = layer.Host
		}
		if layer.Port != 0 {
			s.Port = layer.Port
		}
		if layer.HTTPS != nil {
			s.HTTPS = *layer.HTTPS
		}
		if layer.Open != nil {
			s.Open = *layer.Open
		}
		if layer.OpenPage != "" {
			s.OpenPage = layer.OpenPage
		}
		if layer.PublicURL != "" {
			s.PublicURL = layer.PublicURL
		}
		if layer.Proxy != nil {
			s.Proxy = layer.Proxy
		}
		if layer.Hot != nil {
			s.Hot = *layer.Hot
		}
		if layer.Compress != nil {
			s.Compress = *layer.Compress
		}
		if len(layer.WatchOptions.Ignore) > 0 {
			s.WatchOptions.Ignore = layer.WatchOptions.Ignore
		}
		if layer.WatchOptions.DebounceMs != 0 {
			s.WatchOptions.DebounceMs = layer.WatchOptions.DebounceMs
		}
	}

	s.Protocol = "http"
	if s.HTTPS {
		s.Protocol = "https"
	}

	return s
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// OutputPath returns the absolute path to the compiled output directory.
func (c *Config) OutputPath() string {
	return c.resolve(c.Bundler.Output)
}

// PublicDirPath returns the absolute path to the static asset directory.
func (c *Config) PublicDirPath() string {
	return c.resolve(c.Static.Dir)
}

// SourcePaths returns the absolute paths of the bundler's tracked sources.
func (c *Config) SourcePaths() []string {
	paths := make([]string, 0, len(c.Bundler.Sources))
	for _, src := range c.Bundler.Sources {
		if src == "" {
			continue
		}
		paths = append(paths, c.resolve(src))
	}
	return paths
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Address returns host:port for the given resolved port.
func (s Session) Address(port int) string {
	return s.Host + ":" + strconv.Itoa(port)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing autofe.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeProjectNotFound).
				WithDetail("No autofe.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
