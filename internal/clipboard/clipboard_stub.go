//go:build !windows && !linux && !freebsd && !openbsd && !netbsd && !dragonfly && !(darwin && cgo)

package clipboard

import "errors"

func openBackend() (backend, error) {
	return nil, errors.New("clipboard image operations are not supported on this platform")
}
