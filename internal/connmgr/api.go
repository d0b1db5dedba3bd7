// Package connmgr discovers nearby Bluetooth devices and the services they
// advertise, via BlueZ over the system D-Bus.
//
// It stops at discovery: OBEX sessions, including the RFCOMM connection that
// carries them, are established by obexd (see package obexd) using the
// device address and service record returned here.
//
// Thread-safety: Scan and Services may be called from one goroutine at a time.
// Close is safe to call concurrently and is idempotent.
package connmgr

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Device represents the minimum information needed to display and select a
// device.
//
// Path is required (BlueZ Device1 object path as string). Other fields are
// optional and may be empty depending on discovery results.
type Device struct {
	Path  string      // required: D-Bus object path of the device (e.g. /org/bluez/hci0/dev_XX_XX_XX_XX_XX_XX)
	MAC   string      // optional: Bluetooth device address
	Name  string      // optional: Device1.Name
	Alias string      // optional: Device1.Alias
	UUIDs []uuid.UUID // optional: Device1.UUIDs, the service classes BlueZ resolved through SDP
}

// DisplayName is the label shown to users.
func (d Device) DisplayName() string {
	switch {
	case d.Alias != "" && d.Alias != strings.ReplaceAll(d.MAC, ":", "-"):
		return d.Alias
	case d.Name != "":
		return d.Name
	default:
		return "Unknown"
	}
}

// ServiceRecord is one service advertised by a device.
//
// Channel is the RFCOMM channel when known; 0 lets obexd resolve it through
// SDP when the session is created.
type ServiceRecord struct {
	Name     string
	Protocol string
	Channel  uint8
	UUID     uuid.UUID
}

// Mgr is the single public interface for discovery.
type Mgr interface {
	// Scan discovers nearby devices and returns a snapshot list sorted by
	// display name. Every adapter is put into discovery mode until ctx is done;
	// use context.WithTimeout to bound the scan.
	// Contract:
	//   - Each returned Device has a non-empty Path.
	//   - After Close, returns an error.
	Scan(ctx context.Context) ([]Device, error)

	// Services returns the service records of dev, as currently known to
	// BlueZ. The device must have been seen by a previous Scan, or be
	// otherwise known (paired) to BlueZ.
	Services(ctx context.Context, dev Device) ([]ServiceRecord, error)

	// Close releases resources held by the manager (e.g. the bus connection).
	// Contract:
	//   - Safe for concurrent use; redundant calls are allowed (idempotent).
	//   - After Close, all other methods return an error.
	Close() error
}
