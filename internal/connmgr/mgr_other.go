//go:build !linux

package connmgr

import (
	"context"

	"github.com/pkg/errors"
)

var errUnsupported = errors.New("connmgr: bluetooth discovery requires BlueZ (linux)")

// New returns a manager whose operations fail: BlueZ is Linux only.
func New() Mgr {
	return unsupported{}
}

type unsupported struct{}

func (unsupported) Scan(context.Context) ([]Device, error) { return nil, errUnsupported }

func (unsupported) Services(context.Context, Device) ([]ServiceRecord, error) {
	return nil, errUnsupported
}

func (unsupported) Close() error { return nil }
