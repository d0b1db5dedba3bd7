package obexd

import (
	"testing"

	"obex-browser/internal/listing"

	dbus "github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntriesFromRecords(t *testing.T) {
	records := []map[string]dbus.Variant{
		{
			"Type":      dbus.MakeVariant("folder"),
			"Name":      dbus.MakeVariant("Photos"),
			"User-perm": dbus.MakeVariant("RWD"),
		},
		{
			"Type":     dbus.MakeVariant("file"),
			"Name":     dbus.MakeVariant("notes.txt"),
			"Size":     dbus.MakeVariant(uint64(2097152)),
			"Modified": dbus.MakeVariant("20240106T080000Z"),
		},
		{
			"type": dbus.MakeVariant("file"),
			"name": dbus.MakeVariant("small.bin"),
			"size": dbus.MakeVariant(uint32(12)),
		},
	}

	entries := entriesFromRecords(records)

	assert.Equal(t, []listing.Entry{
		{Kind: listing.Folder, Name: "Photos", Permissions: "RWD"},
		{Kind: listing.File, Name: "notes.txt", Size: 2097152, Modified: "20240106T080000Z"},
		{Kind: listing.File, Name: "small.bin", Size: 12},
	}, entries)
}

func TestEntriesFromRecordsRoundTrip(t *testing.T) {
	records := []map[string]dbus.Variant{
		{"Type": dbus.MakeVariant("folder"), "Name": dbus.MakeVariant("DCIM")},
		{"Type": dbus.MakeVariant("file"), "Name": dbus.MakeVariant("a.txt"), "Size": dbus.MakeVariant(uint64(5))},
		{"Type": dbus.MakeVariant("file"), "Size": dbus.MakeVariant(uint64(1))},
	}

	payload, err := listing.Encode(entriesFromRecords(records))
	require.NoError(t, err)

	res, err := listing.Parse(payload)
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "DCIM", res.Entries[0].Name)
	assert.Equal(t, listing.Folder, res.Entries[0].Kind)
	assert.Equal(t, uint64(5), res.Entries[1].Size)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "missing name", res.Rejected[0].Reason)
}

func TestToUint64(t *testing.T) {
	assert.Equal(t, uint64(7), toUint64(uint64(7)))
	assert.Equal(t, uint64(7), toUint64(uint32(7)))
	assert.Equal(t, uint64(7), toUint64(int64(7)))
	assert.Equal(t, uint64(0), toUint64(int64(-7)))
	assert.Equal(t, uint64(0), toUint64("7"))
}

func TestFolderRoute(t *testing.T) {
	cases := []struct {
		from, to string
		want     []string
	}{
		{"", "", []string{}},
		{"", "Photos", []string{"Photos"}},
		{"", "a/b/c", []string{"a", "b", "c"}},
		{"a/b", "", []string{"..", ".."}},
		{"a/b", "a", []string{".."}},
		{"a/b", "a/c/d", []string{"..", "c", "d"}},
		{"a/b/", "/a/b", []string{}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, folderRoute(c.from, c.to), "%q -> %q", c.from, c.to)
	}
}

func TestTransferDone(t *testing.T) {
	done, err := transferDone(dbus.MakeVariant(statusComplete))
	assert.True(t, done)
	assert.NoError(t, err)

	done, err = transferDone(dbus.MakeVariant(statusError))
	assert.True(t, done)
	assert.Error(t, err)

	for _, st := range []string{statusQueued, statusActive, statusSuspended} {
		done, _ = transferDone(dbus.MakeVariant(st))
		assert.False(t, done, st)
	}
}
