package mocks

import (
	"context"

	"obex-browser/internal/obex"

	"github.com/pkg/errors"
)

var _ obex.Session = (*Session)(nil)

type Session struct {
	MockConnect       func(ctx context.Context) error
	MockListDirectory func(ctx context.Context, path string) ([]byte, error)
	MockGetFile       func(ctx context.Context, path string) ([]byte, error)
	MockDisconnect    func() error

	Listed       []string
	Fetched      []string
	Disconnected int
}

func (s *Session) Connect(ctx context.Context) error {
	if s.MockConnect != nil {
		return s.MockConnect(ctx)
	}
	return nil
}

func (s *Session) ListDirectory(ctx context.Context, path string) ([]byte, error) {
	s.Listed = append(s.Listed, path)
	if s.MockListDirectory != nil {
		return s.MockListDirectory(ctx, path)
	}
	return nil, errors.New("MockListDirectory was not configured")
}

func (s *Session) GetFile(ctx context.Context, path string) ([]byte, error) {
	s.Fetched = append(s.Fetched, path)
	if s.MockGetFile != nil {
		return s.MockGetFile(ctx, path)
	}
	return nil, errors.New("MockGetFile was not configured")
}

func (s *Session) Disconnect() error {
	s.Disconnected++
	if s.MockDisconnect != nil {
		return s.MockDisconnect()
	}
	return nil
}
