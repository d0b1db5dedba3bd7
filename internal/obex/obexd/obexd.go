// Package obexd implements obex.Session on top of BlueZ's obexd daemon,
// reached over the session D-Bus.
//
// obexd owns the RFCOMM connection and the OBEX request/response exchange;
// this package only sequences its Client1, FileTransfer1 and Transfer1 calls.
// FileTransfer1.ListFolder hands back decoded records, which are re-encoded as
// a folder-listing document so callers parse one format for every backend.
package obexd

import (
	"strings"

	"obex-browser/internal/listing"

	dbus "github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

const (
	obexService        = "org.bluez.obex"
	obexPath           = dbus.ObjectPath("/org/bluez/obex")
	clientIface        = "org.bluez.obex.Client1"
	fileTransferIface  = "org.bluez.obex.FileTransfer1"
	transferIface      = "org.bluez.obex.Transfer1"
	propsIface         = "org.freedesktop.DBus.Properties"
	propertiesChanged  = "PropertiesChanged"
	targetFileTransfer = "ftp"
)

// Transfer1.Status values.
const (
	statusQueued    = "queued"
	statusActive    = "active"
	statusSuspended = "suspended"
	statusComplete  = "complete"
	statusError     = "error"
)

// entriesFromRecords converts ListFolder results. obexd names the keys after
// the folder-listing attributes ("Name", "Size", "Modified", "User-perm") and
// stores the element name under "Type".
func entriesFromRecords(records []map[string]dbus.Variant) []listing.Entry {
	out := make([]listing.Entry, 0, len(records))
	for _, rec := range records {
		e := listing.Entry{Kind: listing.File}
		if lookupString(rec, "Type") == "folder" {
			e.Kind = listing.Folder
		}
		e.Name = lookupString(rec, "Name")
		e.Modified = lookupString(rec, "Modified")
		e.Permissions = lookupString(rec, "User-perm")
		if v, ok := lookup(rec, "Size"); ok {
			e.Size = toUint64(v.Value())
		}
		out = append(out, e)
	}
	return out
}

func lookup(rec map[string]dbus.Variant, key string) (dbus.Variant, bool) {
	if v, ok := rec[key]; ok {
		return v, true
	}
	for k, v := range rec {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return dbus.Variant{}, false
}

func lookupString(rec map[string]dbus.Variant, key string) string {
	v, ok := lookup(rec, key)
	if !ok {
		return ""
	}
	s, _ := v.Value().(string)
	return s
}

func toUint64(v interface{}) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case uint32:
		return uint64(n)
	case uint16:
		return uint64(n)
	case byte:
		return uint64(n)
	case int64:
		if n > 0 {
			return uint64(n)
		}
	case int32:
		if n > 0 {
			return uint64(n)
		}
	}
	return 0
}

// folderRoute returns the ChangeFolder arguments that move from the folder
// from to the folder to. Both are slash-separated paths relative to the root.
func folderRoute(from, to string) []string {
	a, b := splitPath(from), splitPath(to)
	common := 0
	for common < len(a) && common < len(b) && a[common] == b[common] {
		common++
	}
	route := make([]string, 0, len(a)-common+len(b)-common)
	for i := common; i < len(a); i++ {
		route = append(route, "..")
	}
	return append(route, b[common:]...)
}

func splitPath(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}

func transferDone(status dbus.Variant) (bool, error) {
	switch st, _ := status.Value().(string); st {
	case statusComplete:
		return true, nil
	case statusError:
		return true, errors.New("transfer failed")
	default:
		return false, nil
	}
}
