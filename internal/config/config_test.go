package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiuns/create-autofe-app/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := writeConfig(t, `{"name": "demo"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Name)
	assert.Equal(t, "webpack", cfg.Bundler.Command)
	assert.Equal(t, DefaultOutput, cfg.Bundler.Output)
	assert.Equal(t, DefaultPublicDir, cfg.Static.Dir)

	s := cfg.Session()
	assert.Equal(t, DefaultHost, s.Host)
	assert.Equal(t, DefaultPort, s.Port)
	assert.Equal(t, "http", s.Protocol)
	assert.True(t, s.Hot)
	assert.True(t, s.Compress)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeProjectNotFound))
}

func TestLoad_MalformedJSON(t *testing.T) {
	dir := writeConfig(t, `{"name": `)

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConfigInvalid))
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	dir := writeConfig(t, `{"devserver": {"port": 9000}}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConfigUnknownKey))

	ae := err.(*errors.AutofeError)
	assert.Contains(t, ae.Detail, "devserver")
}

func TestLoad_InvalidPort(t *testing.T) {
	dir := writeConfig(t, `{"devServer": {"port": 70000}}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeConfigBadPort))
}

func TestSession_MergeOrder(t *testing.T) {
	dir := writeConfig(t, `{
		"bundler": {
			"publicPath": "/app/",
			"devServer": {"port": 9000, "host": "127.0.0.1", "https": true}
		},
		"devServer": {"port": 9100, "open": true}
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	s := cfg.Session()

	// Project-level beats bundler-embedded.
	assert.Equal(t, 9100, s.Port)
	// Bundler-embedded beats defaults when project level is silent.
	assert.Equal(t, "127.0.0.1", s.Host)
	assert.True(t, s.HTTPS)
	assert.Equal(t, "https", s.Protocol)
	assert.True(t, s.Open)
	assert.Equal(t, "/app/", s.PublicPath)
}

func TestSession_ExplicitFalseOverrides(t *testing.T) {
	dir := writeConfig(t, `{
		"bundler": {"devServer": {"hot": true}},
		"devServer": {"hot": false, "compress": false}
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	s := cfg.Session()
	assert.False(t, s.Hot, "explicit false must override a lower layer's true")
	assert.False(t, s.Compress)
}

func TestSession_ProxyRawPreserved(t *testing.T) {
	dir := writeConfig(t, `{"devServer": {"proxy": {"/api": "http://localhost:3000"}}}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	s := cfg.Session()
	assert.JSONEq(t, `{"/api": "http://localhost:3000"}`, string(s.Proxy))
}

func TestPaths(t *testing.T) {
	dir := writeConfig(t, `{
		"bundler": {"output": "dist", "sources": ["src", "lib"]},
		"static": {"dir": "assets"}
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "dist"), cfg.OutputPath())
	assert.Equal(t, filepath.Join(dir, "assets"), cfg.PublicDirPath())
	assert.Equal(t, []string{
		filepath.Join(dir, "src"),
		filepath.Join(dir, "lib"),
	}, cfg.SourcePaths())
}

func TestFindProjectRoot(t *testing.T) {
	root := writeConfig(t, `{}`)
	nested := filepath.Join(root, "src", "components")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)

	_, err = FindProjectRoot(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeProjectNotFound))
}
