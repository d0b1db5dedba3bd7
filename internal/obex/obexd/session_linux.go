//go:build linux

package obexd

import (
	"context"
	"os"
	"path"
	"strings"
	"sync"

	"obex-browser/internal/listing"
	"obex-browser/internal/obex"

	dbus "github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var _ obex.Session = (*Session)(nil)

// Session is an OBEX File Transfer session held by obexd.
type Session struct {
	address string
	channel uint8
	log     *zap.Logger

	mu      sync.Mutex
	bus     *dbus.Conn
	session dbus.ObjectPath
	cwd     string
}

// New prepares a session to the device at address. A zero channel lets
// obexd find the File Transfer channel through SDP.
func New(address string, channel uint8, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{address: address, channel: channel, log: log.Named("obexd")}
}

func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != "" {
		return errors.New("obexd: already connected")
	}
	if s.bus == nil {
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return errors.Wrap(err, "obexd: connect session bus")
		}
		s.bus = bus
	}

	args := map[string]dbus.Variant{
		"Target": dbus.MakeVariant(targetFileTransfer),
	}
	if s.channel != 0 {
		args["Channel"] = dbus.MakeVariant(s.channel)
	}
	var session dbus.ObjectPath
	call := s.bus.Object(obexService, obexPath).CallWithContext(ctx, clientIface+".CreateSession", 0, s.address, args)
	if call.Err != nil {
		return errors.Wrapf(call.Err, "obexd: CreateSession(%s)", s.address)
	}
	if err := call.Store(&session); err != nil {
		return errors.Wrap(err, "obexd: decode CreateSession")
	}
	s.session = session
	s.cwd = ""
	s.log.Debug("session created", zap.String("address", s.address), zap.String("session", string(session)))
	return nil
}

func (s *Session) ListDirectory(ctx context.Context, p string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.changeFolderLocked(ctx, p); err != nil {
		return nil, err
	}
	var records []map[string]dbus.Variant
	call := s.fileTransfer().CallWithContext(ctx, fileTransferIface+".ListFolder", 0)
	if call.Err != nil {
		return nil, errors.Wrapf(call.Err, "obexd: ListFolder(/%s)", p)
	}
	if err := call.Store(&records); err != nil {
		return nil, errors.Wrap(err, "obexd: decode ListFolder")
	}
	return listing.Encode(entriesFromRecords(records))
}

func (s *Session) GetFile(ctx context.Context, p string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, name := path.Split(p)
	if err := s.changeFolderLocked(ctx, dir); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "obexd-get-*")
	if err != nil {
		return nil, errors.Wrap(err, "obexd: create temp file")
	}
	target := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(target) }()

	// Subscribe before starting the transfer so a fast completion is not missed.
	sigCh := make(chan *dbus.Signal, 16)
	s.bus.Signal(sigCh)
	defer s.bus.RemoveSignal(sigCh)
	match := []dbus.MatchOption{
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember(propertiesChanged),
		dbus.WithMatchArg(0, transferIface),
	}
	if err := s.bus.AddMatchSignal(match...); err != nil {
		return nil, errors.Wrap(err, "obexd: AddMatchSignal")
	}
	defer func() { _ = s.bus.RemoveMatchSignal(match...) }()

	var transfer dbus.ObjectPath
	var props map[string]dbus.Variant
	call := s.fileTransfer().CallWithContext(ctx, fileTransferIface+".GetFile", 0, target, name)
	if call.Err != nil {
		return nil, errors.Wrapf(call.Err, "obexd: GetFile(/%s)", p)
	}
	if err := call.Store(&transfer, &props); err != nil {
		return nil, errors.Wrap(err, "obexd: decode GetFile")
	}
	if err := s.waitTransfer(ctx, transfer, sigCh); err != nil {
		return nil, errors.Wrapf(err, "obexd: GetFile(/%s)", p)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, errors.Wrap(err, "obexd: read transferred file")
	}
	return data, nil
}

// Disconnect removes the obexd session and closes the bus. It is a no-op
// when nothing is open.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.session != "" {
		call := s.bus.Object(obexService, obexPath).Call(clientIface+".RemoveSession", 0, s.session)
		if call.Err != nil {
			err = errors.Wrap(call.Err, "obexd: RemoveSession")
		}
		s.session = ""
	}
	if s.bus != nil {
		_ = s.bus.Close()
		s.bus = nil
	}
	return err
}

func (s *Session) fileTransfer() dbus.BusObject {
	return s.bus.Object(obexService, s.session)
}

// changeFolderLocked walks from the folder obexd is in to p. On failure the
// remote position is unknown, so the next call starts from the root.
func (s *Session) changeFolderLocked(ctx context.Context, p string) error {
	if s.session == "" {
		return errors.New("obexd: not connected")
	}
	target := strings.Trim(path.Clean("/"+p), "/")
	for _, step := range folderRoute(s.cwd, target) {
		call := s.fileTransfer().CallWithContext(ctx, fileTransferIface+".ChangeFolder", 0, step)
		if call.Err != nil {
			s.resetFolderLocked(ctx)
			return errors.Wrapf(call.Err, "obexd: ChangeFolder(%s) towards /%s", step, target)
		}
	}
	s.cwd = target
	return nil
}

// resetFolderLocked climbs back to the root on a best-effort basis.
func (s *Session) resetFolderLocked(ctx context.Context) {
	for range splitPath(s.cwd) {
		_ = s.fileTransfer().CallWithContext(ctx, fileTransferIface+".ChangeFolder", 0, "..").Err
	}
	s.cwd = ""
}

// waitTransfer blocks until the transfer object reports complete or error.
func (s *Session) waitTransfer(ctx context.Context, transfer dbus.ObjectPath, sigCh <-chan *dbus.Signal) error {
	// The transfer may have finished before the first signal arrives.
	var v dbus.Variant
	if call := s.bus.Object(obexService, transfer).Call(propsIface+".Get", 0, transferIface, "Status"); call.Err == nil {
		if err := call.Store(&v); err == nil {
			if done, err := transferDone(v); done {
				return err
			}
		}
	}
	for {
		select {
		case <-ctx.Done():
			_ = s.bus.Object(obexService, transfer).Call(transferIface+".Cancel", 0).Err
			return ctx.Err()
		case sig, ok := <-sigCh:
			if !ok {
				return errors.New("signal channel closed")
			}
			if sig == nil || sig.Path != transfer || len(sig.Body) < 2 {
				continue
			}
			changed, _ := sig.Body[1].(map[string]dbus.Variant)
			status, ok := changed["Status"]
			if !ok {
				continue
			}
			s.log.Debug("transfer status", zap.String("transfer", string(transfer)), zap.Any("status", status.Value()))
			if done, err := transferDone(status); done {
				return err
			}
		}
	}
}
