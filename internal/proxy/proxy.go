package proxy

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/saiuns/create-autofe-app/internal/errors"
	"github.com/saiuns/create-autofe-app/internal/logging"
)

// Rule forwards requests whose path matches a prefix to a target URL.
// Rules are ordered; the first matching rule wins.
type Rule struct {
	// Path is the URL path prefix to match.
	Path string `json:"path"`

	// Target is the upstream base URL.
	Target string `json:"target"`

	// ChangeOrigin rewrites the Host header to the target's host.
	ChangeOrigin bool `json:"changeOrigin,omitempty"`

	target  *url.URL
	handler *httputil.ReverseProxy
}

// Table is the canonical ordered proxy rule list plus the static fallback
// for requests outside the bundle's public path.
type Table struct {
	rules    []*Rule
	fallback http.Handler
}

// Build normalizes a raw proxy specification into a Table. Accepted forms:
//
//   - a single target URL string (implies a match-all rule)
//   - a mapping of path prefix to target-or-options, in document order
//   - an array of rules, passed through unchanged
//
// fallbackStaticDir serves requests that match no rule and fall outside
// the bundle's public path; directory listing is disabled. A malformed
// target fails here, at session start, never per-request.
func Build(raw json.RawMessage, fallbackStaticDir string) (*Table, error) {
	rules, err := parseRules(raw)
	if err != nil {
		return nil, err
	}

	for _, rule := range rules {
		if err := rule.compile(); err != nil {
			return nil, err
		}
	}

	return &Table{
		rules:    rules,
		fallback: NoIndexFileServer(fallbackStaticDir),
	}, nil
}

// parseRules dispatches on the JSON shape of the raw proxy value.
func parseRules(raw json.RawMessage) ([]*Rule, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '"':
		var target string
		if err := json.Unmarshal(trimmed, &target); err != nil {
			return nil, errors.New(errors.CodeProxyBadValue).Wrap(err)
		}
		return []*Rule{{Path: "/", Target: target}}, nil

	case '{':
		return parseMapping(trimmed)

	case '[':
		var rules []*Rule
		if err := json.Unmarshal(trimmed, &rules); err != nil {
			return nil, errors.New(errors.CodeProxyBadValue).Wrap(err)
		}
		return rules, nil
	}

	return nil, errors.New(errors.CodeProxyBadValue).
		WithDetailf("proxy value starts with %q", string(trimmed[0]))
}

// parseMapping decodes a path-to-target object, preserving the relative
// order of the document's keys. encoding/json maps lose that order, so the
// object is walked token by token.
func parseMapping(raw []byte) ([]*Rule, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, errors.New(errors.CodeProxyBadValue).Wrap(err)
	}

	var rules []*Rule
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, errors.New(errors.CodeProxyBadValue).Wrap(err)
		}
		key := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, errors.New(errors.CodeProxyBadValue).Wrap(err)
		}

		rule := &Rule{Path: key}
		trimmed := bytes.TrimSpace(value)
		if len(trimmed) > 0 && trimmed[0] == '"' {
			if err := json.Unmarshal(trimmed, &rule.Target); err != nil {
				return nil, errors.New(errors.CodeProxyBadValue).Wrap(err)
			}
		} else {
			if err := json.Unmarshal(trimmed, rule); err != nil {
				return nil, errors.New(errors.CodeProxyBadValue).Wrap(err)
			}
			rule.Path = key
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

// compile validates the rule target and prepares its reverse proxy.
func (r *Rule) compile() error {
	u, err := url.Parse(r.Target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New(errors.CodeProxyBadTarget).
			WithDetailf("Rule %q has target %q, which is missing a scheme or host", r.Path, r.Target)
	}
	r.target = u

	rp := httputil.NewSingleHostReverseProxy(u)
	if r.ChangeOrigin {
		director := rp.Director
		rp.Director = func(req *http.Request) {
			director(req)
			req.Host = u.Host
		}
	}
	rp.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
		logging.Warn().
			Str("path", req.URL.Path).
			Str("target", r.Target).
			Err(err).
			Msg("proxy upstream error")
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
	}
	r.handler = rp

	return nil
}

// Match returns the first rule whose path prefix matches, or nil.
// Insertion order is preserved; first match wins.
func (t *Table) Match(requestPath string) *Rule {
	if t == nil {
		return nil
	}
	for _, rule := range t.rules {
		if strings.HasPrefix(requestPath, rule.Path) {
			return rule
		}
	}
	return nil
}

// Rules returns the ordered rule list.
func (t *Table) Rules() []*Rule {
	if t == nil {
		return nil
	}
	return t.rules
}

// ServeHTTP forwards the request through the rule's reverse proxy.
func (r *Rule) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Middleware routes matching requests to their proxy rule and defers
// requests outside publicPath to the static fallback. Everything else
// continues to the asset server.
func (t *Table) Middleware(publicPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if rule := t.Match(req.URL.Path); rule != nil {
				rule.ServeHTTP(w, req)
				return
			}
			if t != nil && publicPath != "/" && !strings.HasPrefix(req.URL.Path, publicPath) {
				t.fallback.ServeHTTP(w, req)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// NoIndexFileServer serves files from root with directory listing
// disabled: a request resolving to a directory yields 404, not an
// auto-generated index.
func NoIndexFileServer(root string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		clean := path.Clean("/" + req.URL.Path)
		full := filepath.Join(root, filepath.FromSlash(clean))

		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			http.NotFound(w, req)
			return
		}

		http.ServeFile(w, req, full)
	})
}
