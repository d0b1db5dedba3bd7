package cli

import (
	"context"

	"obex-browser/internal/connmgr"
	"obex-browser/internal/obex"
)

type Discovery interface {
	Scan(ctx context.Context) ([]connmgr.Device, error)
	Services(ctx context.Context, dev connmgr.Device) ([]connmgr.ServiceRecord, error)
}

var _ Discovery = connmgr.Mgr(nil)

// Session is the OBEX session a browse runs over.
type Session = obex.Session
