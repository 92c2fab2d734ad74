package netutil

import (
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePort_ReturnsBindablePort(t *testing.T) {
	port, err := ResolvePort(42000)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, 42000)

	// The returned port must be bindable at the moment of return.
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	require.NoError(t, err)
	ln.Close()
}

func TestResolvePort_SkipsOccupiedPort(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	base := ln.Addr().(*net.TCPAddr).Port
	port, err := ResolvePort(base)
	require.NoError(t, err)
	assert.Greater(t, port, base, "the held base port must be skipped")
}

func TestResolveURLs_WildcardHost(t *testing.T) {
	urls := ResolveURLs("http", "0.0.0.0", 8000, "", "/")

	assert.Equal(t, "http://localhost:8000/", urls.LocalURLForTerminal)
	assert.Equal(t, "http://localhost:8000/", urls.LocalURLForBrowser)
	assert.NotContains(t, urls.LanURLForTerminal, "0.0.0.0")
}

func TestResolveURLs_ExplicitHost(t *testing.T) {
	urls := ResolveURLs("https", "127.0.0.1", 8443, "", "")

	assert.Equal(t, "https://127.0.0.1:8443", urls.LocalURLForTerminal)
	assert.Equal(t, urls.LocalURLForTerminal+"/", urls.LanURLForBrowser,
		"LAN URLs equal local URLs for a non-wildcard host")
	assert.Equal(t, urls.LanURLForTerminal, urls.LocalURLForTerminal)
}

func TestResolveURLs_BasePathTrailingSlash(t *testing.T) {
	urls := ResolveURLs("http", "localhost", 8000, "", "/app")

	// Browser URL gets exactly one trailing separator; the terminal URL
	// keeps the path as given.
	assert.Equal(t, "http://localhost:8000/app/", urls.LocalURLForBrowser)
	assert.Equal(t, "http://localhost:8000/app", urls.LocalURLForTerminal)

	urls = ResolveURLs("http", "localhost", 8000, "", "/app//")
	assert.Equal(t, "http://localhost:8000/app/", urls.LocalURLForBrowser)
}

func TestResolveURLs_BasePathPercentNormalized(t *testing.T) {
	urls := ResolveURLs("http", "localhost", 8000, "", "/my app")
	assert.Equal(t, "http://localhost:8000/my%20app/", urls.LocalURLForBrowser)
}

func TestResolveURLs_PublicURLOverridesBrowserOnly(t *testing.T) {
	urls := ResolveURLs("http", "0.0.0.0", 8000, "https://cdn.example.com/app/", "/")

	assert.Equal(t, "https://cdn.example.com/app/", urls.LocalURLForBrowser)
	assert.Equal(t, "https://cdn.example.com/app/", urls.LanURLForBrowser)
	assert.Equal(t, "http://localhost:8000/", urls.LocalURLForTerminal,
		"terminal URL is never overridden by publicUrl")
}

func TestResolveURLs_RelativePublicURLIgnored(t *testing.T) {
	urls := ResolveURLs("http", "localhost", 8000, "/cdn/", "/")
	assert.Equal(t, "http://localhost:8000/", urls.LocalURLForBrowser)
}

func TestIsWildcard(t *testing.T) {
	assert.True(t, isWildcard("0.0.0.0"))
	assert.True(t, isWildcard("::"))
	assert.True(t, isWildcard(""))
	assert.False(t, isWildcard("127.0.0.1"))
	assert.False(t, isWildcard("localhost"))
}
