package dev

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEvent(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		kind EventKind
		ok   bool
	}{
		{fsnotify.Create, EventAdded, true},
		{fsnotify.Write, EventChanged, true},
		{fsnotify.Remove, EventRemoved, true},
		{fsnotify.Rename, EventRemoved, true},
		{fsnotify.Chmod, "", false},
	}

	for _, tt := range tests {
		kind, ok := normalizeEvent(tt.op)
		assert.Equal(t, tt.ok, ok, tt.op.String())
		assert.Equal(t, tt.kind, kind, tt.op.String())
	}
}

func newTestBridge(t *testing.T, outputDir, publicDir string) (*Bridge, *Metrics) {
	t.Helper()

	m := NewMetrics()
	b := NewBridge(NewReloadServer(m), outputDir, publicDir)
	t.Cleanup(b.Stop)
	return b, m
}

func TestBridge_PublicChangeBroadcasts(t *testing.T) {
	pub := t.TempDir()
	b, m := newTestBridge(t, "", pub)
	b.Start()

	require.NoError(t, os.WriteFile(filepath.Join(pub, "logo.svg"), []byte("<svg/>"), 0644))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.BroadcastsTotal) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBridge_NestedPublicChangeBroadcasts(t *testing.T) {
	pub := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(pub, "img", "icons"), 0755))

	b, m := newTestBridge(t, "", pub)
	b.Start()

	require.NoError(t, os.WriteFile(filepath.Join(pub, "img", "icons", "logo.png"), []byte("png"), 0644))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.BroadcastsTotal) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBridge_DirCreatedAfterStartIsWatched(t *testing.T) {
	pub := t.TempDir()
	b, m := newTestBridge(t, "", pub)
	b.Start()

	sub := filepath.Join(pub, "fonts")
	require.NoError(t, os.Mkdir(sub, 0755))

	// The mkdir itself broadcasts; wait for the new directory to be
	// tracked, then verify a write inside it is seen too.
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.BroadcastsTotal) >= 1
	}, 2*time.Second, 10*time.Millisecond)
	before := testutil.ToFloat64(m.BroadcastsTotal)

	require.Eventually(t, func() bool {
		name := filepath.Join(sub, "sans.woff2")
		if err := os.WriteFile(name, []byte("woff"), 0644); err != nil {
			return false
		}
		return testutil.ToFloat64(m.BroadcastsTotal) > before
	}, 2*time.Second, 50*time.Millisecond)
}

func TestBridge_NestedOutputChangeFiresGate(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "static", "js"), 0755))

	b, m := newTestBridge(t, out, "")
	b.Start()

	b.MarkExternalBuildComplete()
	require.NoError(t, os.WriteFile(filepath.Join(out, "static", "js", "main.js"), []byte("x"), 0644))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.BroadcastsTotal) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBridge_OutputWatchGatedByExternalBuild(t *testing.T) {
	out := t.TempDir()
	b, m := newTestBridge(t, out, "")
	b.Start()

	// Without an announced external build, output writes are silent.
	require.NoError(t, os.WriteFile(filepath.Join(out, "bundle.js"), []byte("x"), 0644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.BroadcastsTotal))

	b.MarkExternalBuildComplete()
	require.NoError(t, os.WriteFile(filepath.Join(out, "bundle.js"), []byte("xy"), 0644))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.BroadcastsTotal) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBridge_OneExternalBuildOneBroadcast(t *testing.T) {
	out := t.TempDir()
	b, m := newTestBridge(t, out, "")
	b.Start()

	b.MarkExternalBuildComplete()
	require.NoError(t, os.WriteFile(filepath.Join(out, "a.js"), []byte("x"), 0644))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.BroadcastsTotal) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// The mark was consumed; later writes stay silent until the next one.
	require.NoError(t, os.WriteFile(filepath.Join(out, "b.js"), []byte("y"), 0644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BroadcastsTotal))
}

func TestBridge_MissingDirsSkipped(t *testing.T) {
	b, _ := newTestBridge(t,
		filepath.Join(t.TempDir(), "no-output"),
		filepath.Join(t.TempDir(), "no-public"),
	)

	// Missing directories disable the watches without failing.
	b.Start()
	b.Stop()
}

func TestBridge_StopIdempotent(t *testing.T) {
	b, _ := newTestBridge(t, t.TempDir(), t.TempDir())
	b.Start()

	b.Stop()
	b.Stop()
}
