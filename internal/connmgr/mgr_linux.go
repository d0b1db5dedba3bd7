//go:build linux

package connmgr

import (
	"context"
	"sync"

	dbus "github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

type managedObjectMap = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// New returns a manager backed by BlueZ on the system bus. The bus is
// connected lazily by the first Scan or Services call.
func New() Mgr {
	return &mgr{}
}

type mgr struct {
	mu      sync.Mutex
	closed  bool
	bus     *dbus.Conn
	release []func() // run in reverse by Close
}

func (m *mgr) conn() (*dbus.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.New("connmgr: closed")
	}
	if m.bus == nil {
		bus, err := dbus.SystemBus()
		if err != nil {
			return nil, errors.Wrap(err, "connmgr: connect system bus")
		}
		m.bus = bus
		m.release = append(m.release, func() { _ = bus.Close() })
	}
	return m.bus, nil
}

func (m *mgr) Scan(ctx context.Context) ([]Device, error) {
	bus, err := m.conn()
	if err != nil {
		return nil, err
	}

	objs, err := managedObjects(bus)
	if err != nil {
		return nil, err
	}
	adapters := adapterPaths(objs)
	if len(adapters) == 0 {
		return nil, errors.New("connmgr: no bluetooth adapter")
	}

	// Subscribe before discovery starts so no announcement slips between
	// the snapshot and the watch.
	added, unsubscribe, err := subscribeAdded(bus)
	if err != nil {
		return nil, err
	}
	defer unsubscribe()

	stop := startDiscovery(bus, adapters)
	defer stop()

	found := devicesIn(objs)
	for {
		select {
		case <-ctx.Done():
			out := make([]Device, 0, len(found))
			for _, d := range found {
				out = append(out, d)
			}
			sortDevices(out)
			return out, nil
		case sig := <-added:
			if dev, ok := deviceFromSignal(sig); ok {
				found[dev.Path] = dev
			}
		}
	}
}

func (m *mgr) Services(ctx context.Context, dev Device) ([]ServiceRecord, error) {
	if dev.Path == "" {
		return nil, errors.New("connmgr: device path required")
	}
	bus, err := m.conn()
	if err != nil {
		return nil, err
	}

	// UUIDs fill in as SDP completes, possibly after the scan snapshot.
	var uuids dbus.Variant
	call := bus.Object(bluezService, dbus.ObjectPath(dev.Path)).
		CallWithContext(ctx, propsIface+".Get", 0, deviceIface, "UUIDs")
	if call.Err != nil {
		return nil, errors.Wrapf(call.Err, "connmgr: read UUIDs of %s", dev.Path)
	}
	if err := call.Store(&uuids); err != nil {
		return nil, errors.Wrap(err, "connmgr: decode UUIDs")
	}
	raw, _ := uuids.Value().([]string)
	return ServicesFromUUIDs(parseUUIDs(raw)), nil
}

// Close releases the bus. Repeated and concurrent calls are safe.
func (m *mgr) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	release := m.release
	m.release = nil
	m.mu.Unlock()

	for i := len(release) - 1; i >= 0; i-- {
		release[i]()
	}
	return nil
}

func managedObjects(bus *dbus.Conn) (managedObjectMap, error) {
	var objs managedObjectMap
	call := bus.Object(bluezService, "/").Call(objManagerIface+".GetManagedObjects", 0)
	if call.Err != nil {
		return nil, errors.Wrap(call.Err, "connmgr: GetManagedObjects")
	}
	if err := call.Store(&objs); err != nil {
		return nil, errors.Wrap(err, "connmgr: decode GetManagedObjects")
	}
	return objs, nil
}

func adapterPaths(objs managedObjectMap) []dbus.ObjectPath {
	var out []dbus.ObjectPath
	for p, ifaces := range objs {
		if _, ok := ifaces[adapterIface]; ok {
			out = append(out, p)
		}
	}
	return out
}

func devicesIn(objs managedObjectMap) map[string]Device {
	out := make(map[string]Device)
	for p, ifaces := range objs {
		if dev, ok := deviceFromIfaces(p, ifaces); ok {
			out[dev.Path] = dev
		}
	}
	return out
}

// startDiscovery turns on inquiry on every adapter. Failures are ignored: an
// adapter that is already discovering still reports devices.
func startDiscovery(bus *dbus.Conn, adapters []dbus.ObjectPath) (stop func()) {
	for _, a := range adapters {
		_ = bus.Object(bluezService, a).Call(adapterIface+".StartDiscovery", 0).Err
	}
	return func() {
		for _, a := range adapters {
			_ = bus.Object(bluezService, a).Call(adapterIface+".StopDiscovery", 0).Err
		}
	}
}

func subscribeAdded(bus *dbus.Conn) (<-chan *dbus.Signal, func(), error) {
	match := []dbus.MatchOption{
		dbus.WithMatchInterface(objManagerIface),
		dbus.WithMatchMember("InterfacesAdded"),
	}
	if err := bus.AddMatchSignal(match...); err != nil {
		return nil, nil, errors.Wrap(err, "connmgr: watch InterfacesAdded")
	}
	ch := make(chan *dbus.Signal, 16)
	bus.Signal(ch)
	return ch, func() {
		bus.RemoveSignal(ch)
		_ = bus.RemoveMatchSignal(match...)
	}, nil
}
