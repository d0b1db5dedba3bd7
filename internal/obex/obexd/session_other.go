//go:build !linux

package obexd

import (
	"context"

	"obex-browser/internal/obex"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var errUnsupported = errors.New("obexd: OBEX sessions require BlueZ obexd (linux)")

var _ obex.Session = (*Session)(nil)

// Session is unavailable outside Linux; every call fails.
type Session struct{}

func New(string, uint8, *zap.Logger) *Session { return &Session{} }

func (*Session) Connect(context.Context) error { return errUnsupported }

func (*Session) ListDirectory(context.Context, string) ([]byte, error) { return nil, errUnsupported }

func (*Session) GetFile(context.Context, string) ([]byte, error) { return nil, errUnsupported }

func (*Session) Disconnect() error { return nil }
