package bootstrap

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
)

// ErrInvalidPort is returned for negative port numbers.
var ErrInvalidPort = errors.New("invalid port")

// NormalizePort accepts a port number or a named pipe / unix socket path.
// Numbers are returned in canonical form, anything non-numeric verbatim.
func NormalizePort(val string) (string, error) {
	port, err := strconv.Atoi(val)
	if err != nil {
		return val, nil
	}
	if port < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	return strconv.Itoa(port), nil
}

// Listen opens a TCP listener on host:port, or a unix socket when port is
// a path. A stale socket file left by a previous run is removed.
func Listen(host, port string) (net.Listener, error) {
	p, err := NormalizePort(port)
	if err != nil {
		return nil, err
	}
	if _, err := strconv.Atoi(p); err == nil {
		return net.Listen("tcp", net.JoinHostPort(host, p))
	}

	if fi, err := os.Stat(p); err == nil && fi.Mode()&os.ModeSocket != 0 {
		if err := os.Remove(p); err != nil {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}
	return net.Listen("unix", p)
}
