package console

import (
	"errors"

	"github.com/dgnsrekt/kite_console/internal/backend"
)

var (
	ErrNoWatchlistSelected = errors.New("no watchlist selected")
	ErrEmptyRoleSet        = errors.New("empty role set")
	ErrUnknownPanel        = errors.New("unknown panel")
)

func validation(msg string, sentinel error) error {
	return backend.ValidationError(msg, sentinel)
}
