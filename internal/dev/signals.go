package dev

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/saiuns/create-autofe-app/internal/logging"
)

// ShutdownCoordinator turns termination signals into one graceful session
// close. The first SIGINT or SIGTERM closes the session and exits;
// further signals during the close are ignored.
type ShutdownCoordinator struct {
	session *Session

	// signals and exit are replaceable for tests.
	signals chan os.Signal
	exit    func(code int)

	once sync.Once
}

// NewShutdownCoordinator creates a coordinator for the given session.
func NewShutdownCoordinator(session *Session) *ShutdownCoordinator {
	return &ShutdownCoordinator{
		session: session,
		signals: make(chan os.Signal, 1),
		exit:    os.Exit,
	}
}

// Listen subscribes to SIGINT and SIGTERM and blocks until one arrives,
// then closes the session and exits with status 0.
func (c *ShutdownCoordinator) Listen() {
	signal.Notify(c.signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c.signals
	c.handle(sig)
}

func (c *ShutdownCoordinator) handle(sig os.Signal) {
	c.once.Do(func() {
		logging.Info().Str("signal", sig.String()).Msg("shutting down")
		c.session.Close()
		c.exit(0)
	})
}
