package cli

import (
	"bufio"
	"io"

	"obex-browser/internal/storage"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SessionOpener builds an OBEX session for the device at address, served on
// the given RFCOMM channel.
type SessionOpener func(address string, channel uint8) Session

type Config struct {
	Discovery   Discovery
	OpenSession SessionOpener
	Sink        storage.Sink
	Stdin       io.Reader
	Stdout      io.Writer
	StdoutIsTTY bool
	Stderr      io.Writer
	Logger      *zap.Logger
}

func (c Config) Validate() error {
	if c.Sink == nil {
		return errors.New("missing storage sink")
	}
	if c.Stdin == nil {
		return errors.New("missing stdin")
	}
	if c.Stdout == nil {
		return errors.New("missing stdout")
	}
	if c.Stderr == nil {
		return errors.New("missing stderr")
	}
	return nil
}

// Service is the main interface for interacting with obexbrowse.
type Service struct {
	Config
	stdin *bufio.Reader
	log   *zap.Logger
}

// NewService initializes a new service. Discovery and OpenSession may be nil
// when only Browse is used.
func NewService(cfg Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return Service{}, errors.Wrap(err, "validation failed")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	// Device selection and the navigator read from one buffer so neither
	// swallows lines meant for the other.
	return Service{Config: cfg, stdin: bufio.NewReader(cfg.Stdin), log: log}, nil
}
