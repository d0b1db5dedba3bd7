package connmgr

import (
	"sort"
	"strings"

	dbus "github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

const (
	ProtocolRFCOMM = "RFCOMM"
	ProtocolL2CAP  = "L2CAP"
)

const (
	bluezService    = "org.bluez"
	deviceIface     = "org.bluez.Device1"
	adapterIface    = "org.bluez.Adapter1"
	objManagerIface = "org.freedesktop.DBus.ObjectManager"
	propsIface      = "org.freedesktop.DBus.Properties"
)

// Well-known service class UUIDs (Bluetooth base UUID with a 16-bit alias).
var (
	SPPUUID          = uuid.MustParse("00001101-0000-1000-8000-00805f9b34fb")
	OBEXPushUUID     = uuid.MustParse("00001105-0000-1000-8000-00805f9b34fb")
	OBEXFileUUID     = uuid.MustParse("00001106-0000-1000-8000-00805f9b34fb")
	HeadsetUUID      = uuid.MustParse("00001108-0000-1000-8000-00805f9b34fb")
	A2DPSinkUUID     = uuid.MustParse("0000110b-0000-1000-8000-00805f9b34fb")
	AVRCPUUID        = uuid.MustParse("0000110e-0000-1000-8000-00805f9b34fb")
	HandsFreeUUID    = uuid.MustParse("0000111e-0000-1000-8000-00805f9b34fb")
	PANUUID          = uuid.MustParse("00001115-0000-1000-8000-00805f9b34fb")
	HIDUUID          = uuid.MustParse("00001124-0000-1000-8000-00805f9b34fb")
	PBAPServerUUID   = uuid.MustParse("0000112f-0000-1000-8000-00805f9b34fb")
	MAPServerUUID    = uuid.MustParse("00001132-0000-1000-8000-00805f9b34fb")
	PnPInfoUUID      = uuid.MustParse("00001200-0000-1000-8000-00805f9b34fb")
	GenericAudioUUID = uuid.MustParse("00001203-0000-1000-8000-00805f9b34fb")
)

type profile struct {
	name     string
	protocol string
}

var profiles = map[uuid.UUID]profile{
	SPPUUID:          {"Serial Port", ProtocolRFCOMM},
	OBEXPushUUID:     {"OBEX Object Push", ProtocolRFCOMM},
	OBEXFileUUID:     {"OBEX File Transfer", ProtocolRFCOMM},
	HeadsetUUID:      {"Headset", ProtocolRFCOMM},
	A2DPSinkUUID:     {"Audio Sink", ProtocolL2CAP},
	AVRCPUUID:        {"AV Remote Control", ProtocolL2CAP},
	HandsFreeUUID:    {"Hands-Free", ProtocolRFCOMM},
	PANUUID:          {"PAN User", ProtocolL2CAP},
	HIDUUID:          {"Human Interface Device", ProtocolL2CAP},
	PBAPServerUUID:   {"Phonebook Access Server", ProtocolRFCOMM},
	MAPServerUUID:    {"Message Access Server", ProtocolRFCOMM},
	PnPInfoUUID:      {"PnP Information", ProtocolL2CAP},
	GenericAudioUUID: {"Generic Audio", ProtocolL2CAP},
}

// obexFileTransferNames are the service names an OBEX FTP server is known to
// advertise, compared after normalizeServiceName.
var obexFileTransferNames = []string{"obex file transfer", "obex ftp"}

// ServicesFromUUIDs maps service class UUIDs to records. Unknown UUIDs are
// kept with an empty name so callers can still list them.
func ServicesFromUUIDs(uuids []uuid.UUID) []ServiceRecord {
	out := make([]ServiceRecord, 0, len(uuids))
	for _, u := range uuids {
		rec := ServiceRecord{UUID: u, Protocol: ProtocolL2CAP}
		if p, ok := profiles[u]; ok {
			rec.Name = p.name
			rec.Protocol = p.protocol
		}
		out = append(out, rec)
	}
	return out
}

// FindOBEXService returns the first RFCOMM record whose name identifies an
// OBEX File Transfer server.
func FindOBEXService(records []ServiceRecord) (ServiceRecord, bool) {
	for _, rec := range records {
		if !strings.EqualFold(rec.Protocol, ProtocolRFCOMM) {
			continue
		}
		name := normalizeServiceName(rec.Name)
		for _, want := range obexFileTransferNames {
			if name == want {
				return rec, true
			}
		}
	}
	return ServiceRecord{}, false
}

// normalizeServiceName folds the ways SDP ServiceName strings arrive (raw
// bytes with a trailing NUL, padded, differently cased) into one form.
func normalizeServiceName(s string) string {
	s = strings.Trim(s, "\x00 \t\r\n")
	return strings.ToLower(s)
}

func parseUUIDs(raw []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		u, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		out = append(out, u)
	}
	return out
}

func deviceFromIfaces(path dbus.ObjectPath, ifaces map[string]map[string]dbus.Variant) (Device, bool) {
	props, ok := ifaces[deviceIface]
	if !ok {
		return Device{}, false
	}
	var mac, name, alias string
	var uuids []string
	if v, ok := props["Address"]; ok {
		mac, _ = v.Value().(string)
	}
	if v, ok := props["Name"]; ok {
		name, _ = v.Value().(string)
	}
	if v, ok := props["Alias"]; ok {
		alias, _ = v.Value().(string)
	}
	if v, ok := props["UUIDs"]; ok {
		uuids, _ = v.Value().([]string)
	}
	if mac == "" {
		mac = macFromPath(path)
	}
	return Device{
		Path:  string(path),
		MAC:   mac,
		Name:  name,
		Alias: alias,
		UUIDs: parseUUIDs(uuids),
	}, true
}

// deviceFromSignal decodes an ObjectManager.InterfacesAdded signal.
func deviceFromSignal(sig *dbus.Signal) (Device, bool) {
	if sig == nil || sig.Name != objManagerIface+".InterfacesAdded" || len(sig.Body) < 2 {
		return Device{}, false
	}
	p, _ := sig.Body[0].(dbus.ObjectPath)
	ifaces, _ := sig.Body[1].(map[string]map[string]dbus.Variant)
	if ifaces == nil {
		return Device{}, false
	}
	return deviceFromIfaces(p, ifaces)
}

func macFromPath(p dbus.ObjectPath) string {
	s := string(p)
	// Expect .../dev_XX_XX_XX_XX_XX_XX
	idx := strings.LastIndex(s, "/dev_")
	if idx < 0 {
		return ""
	}
	mac := s[idx+5:]
	mac = strings.ReplaceAll(mac, "_", ":")
	return mac
}

func sortDevices(devs []Device) {
	sort.SliceStable(devs, func(i, j int) bool {
		a, b := devs[i].DisplayName(), devs[j].DisplayName()
		if a != b {
			return a < b
		}
		return devs[i].MAC < devs[j].MAC
	})
}
