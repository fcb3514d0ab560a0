package netutil

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
)

var (
	ErrAddrInUse  = errors.New("console bind address in use")
	ErrNoBindAddr = errors.New("no available console bind addresses")
)

// SelectBindAddr returns the first address the console can listen on:
// preferred, then the candidates in order when autoFallback is set. A
// malformed address is an error, not a busy one.
func SelectBindAddr(preferred string, candidates []string, autoFallback bool) (string, error) {
	var tried []string
	free := func(addr string) (bool, error) {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return false, fmt.Errorf("bind address %q: %w", addr, err)
		}
		tried = append(tried, addr)
		return listenable(addr)
	}

	if preferred != "" {
		ok, err := free(preferred)
		if err != nil {
			return "", err
		}
		if ok {
			return preferred, nil
		}
		if !autoFallback {
			return "", fmt.Errorf("%w: %s", ErrAddrInUse, preferred)
		}
		slog.Warn("console bind address in use, trying fallbacks", "preferred", preferred, "candidates", candidates)
	}

	for _, addr := range candidates {
		if addr == preferred {
			continue
		}
		ok, err := free(addr)
		if err != nil {
			return "", err
		}
		if ok {
			slog.Info("console bind address fallback selected", "addr", addr)
			return addr, nil
		}
	}
	return "", fmt.Errorf("%w (tried %s)", ErrNoBindAddr, strings.Join(tried, ", "))
}

// listenable opens and closes a listener on addr.
func listenable(addr string) (bool, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false, nil
	}
	return true, ln.Close()
}
