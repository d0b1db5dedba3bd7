package mocks

import (
	"context"

	"obex-browser/internal/connmgr"

	"github.com/pkg/errors"
)

type Discovery struct {
	MockScan     func(ctx context.Context) ([]connmgr.Device, error)
	MockServices func(ctx context.Context, dev connmgr.Device) ([]connmgr.ServiceRecord, error)
	MockClose    func() error
}

func (d *Discovery) Scan(ctx context.Context) ([]connmgr.Device, error) {
	if d.MockScan != nil {
		return d.MockScan(ctx)
	}
	return nil, errors.New("MockScan was not configured")
}

func (d *Discovery) Services(ctx context.Context, dev connmgr.Device) ([]connmgr.ServiceRecord, error) {
	if d.MockServices != nil {
		return d.MockServices(ctx, dev)
	}
	return nil, errors.New("MockServices was not configured")
}

func (d *Discovery) Close() error {
	if d.MockClose != nil {
		return d.MockClose()
	}
	return nil
}
