package route

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("route not found")
	ErrPermissionDenied = errors.New("permission denied to modify this route")
	ErrUnauthenticated  = errors.New("user must be authenticated")
	ErrConflict         = errors.New("route was modified by someone else")
	ErrUnavailable      = errors.New("could not complete operation")
	ErrInvalidLink      = errors.New("google maps link must start with " + MapsLinkPrefix)
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
