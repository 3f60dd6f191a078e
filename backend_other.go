//go:build !windows && !linux && !freebsd && !netbsd && !openbsd && !dragonfly

package nativekeymap

import (
	"fmt"
	"runtime"
)

type unsupportedBackend struct{}

func newPlatformBackend() backend { return unsupportedBackend{} }

func (unsupportedBackend) err() error {
	return fmt.Errorf("%w: no backend for %s", ErrUnavailable, runtime.GOOS)
}

func (b unsupportedBackend) keyMap(Options) ([]KeyMapping, error) { return nil, b.err() }

func (b unsupportedBackend) currentLayout(Options) (*LayoutInfo, error) { return nil, b.err() }

func (unsupportedBackend) isISO(Options) ISOState { return ISOUnknown }

func (b unsupportedBackend) watch(Options, func()) (func() error, error) { return nil, b.err() }
