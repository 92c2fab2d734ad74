package netutil

import (
	"net"
	"strconv"

	"github.com/saiuns/create-autofe-app/internal/errors"
)

// maxPortProbes is the number of consecutive ports scanned, starting at
// the base port, before giving up.
const maxPortProbes = 100

// ResolvePort finds the first available TCP port at or above basePort.
// It probes basePort through basePort+maxPortProbes-1 and returns
// E200 PortExhaustionError if every port in the range is taken.
//
// The returned port is not held: a race exists between resolution and the
// session's actual bind. Callers treat a later bind failure as fatal
// rather than retrying here.
func ResolvePort(basePort int) (int, error) {
	for port := basePort; port < basePort+maxPortProbes; port++ {
		ln, err := net.Listen("tcp", ":"+strconv.Itoa(port))
		if err != nil {
			continue
		}
		ln.Close()
		return port, nil
	}

	return 0, errors.New(errors.CodePortExhaustion).
		WithDetailf("No free port between %d and %d", basePort, basePort+maxPortProbes-1).
		WithSuggestion("Stop the process holding the ports or configure a different base port")
}
