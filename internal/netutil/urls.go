package netutil

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// URLs holds the user-facing URLs for one session, derived once from the
// resolved configuration and port. Immutable for the session's lifetime.
type URLs struct {
	// LocalURLForTerminal is printed as the "Local" address.
	LocalURLForTerminal string

	// LocalURLForBrowser is the address passed to the browser opener.
	// A configured absolute public URL overrides this one, never the
	// terminal form.
	LocalURLForBrowser string

	// LanURLForTerminal is printed as the "Network" address.
	LanURLForTerminal string

	// LanURLForBrowser is the LAN-reachable browser address.
	LanURLForBrowser string
}

// ResolveURLs computes the session's URL set. When host is a wildcard
// (binds-all) address, the local forms use localhost and the LAN forms
// substitute a discovered interface address; otherwise the LAN forms equal
// the local forms. publicURL, when absolute, overrides the browser-facing
// URL only. basePath is percent-normalized; only the browser forms are
// guaranteed a single trailing slash.
func ResolveURLs(protocol, host string, port int, publicURL, basePath string) URLs {
	terminalPath := normalizePath(basePath)
	browserPath := ensureTrailingSlash(terminalPath)

	localHost := host
	lanHost := host
	if isWildcard(host) {
		localHost = "localhost"
		if lan := lanAddress(); lan != "" {
			lanHost = lan
		} else {
			lanHost = "localhost"
		}
	}

	local := formatURL(protocol, localHost, port, terminalPath)
	lan := formatURL(protocol, lanHost, port, terminalPath)

	urls := URLs{
		LocalURLForTerminal: local,
		LocalURLForBrowser:  formatURL(protocol, localHost, port, browserPath),
		LanURLForTerminal:   lan,
		LanURLForBrowser:    formatURL(protocol, lanHost, port, browserPath),
	}

	if isAbsoluteURL(publicURL) {
		urls.LocalURLForBrowser = publicURL
		urls.LanURLForBrowser = publicURL
	}

	return urls
}

func formatURL(protocol, host string, port int, path string) string {
	return protocol + "://" + net.JoinHostPort(host, strconv.Itoa(port)) + path
}

// isWildcard reports whether host is a binds-all address.
func isWildcard(host string) bool {
	if host == "" || host == "::" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsUnspecified()
}

// lanAddress returns the first non-loopback IPv4 address of a local
// interface, or "" if none is found.
func lanAddress() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		return ip.String()
	}
	return ""
}

// normalizePath percent-normalizes a URL base path and guarantees a
// leading slash. An empty path stays empty.
func normalizePath(basePath string) string {
	if basePath == "" {
		return ""
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	u := url.URL{Path: basePath}
	return u.EscapedPath()
}

// ensureTrailingSlash guarantees exactly one trailing separator.
func ensureTrailingSlash(path string) string {
	if path == "" {
		return "/"
	}
	return strings.TrimRight(path, "/") + "/"
}

// isAbsoluteURL reports whether raw is an absolute URL with a scheme and
// host.
func isAbsoluteURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
