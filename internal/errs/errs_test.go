package errs_test

import (
	"fmt"
	"testing"

	"obex-browser/internal/errs"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestE(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, errs.E(errs.KindListing, "list", nil))
	})

	t.Run("wraps cause and keeps it reachable", func(t *testing.T) {
		cause := errors.New("boom")
		err := errs.E(errs.KindDownload, "get notes.txt", cause)

		require.Error(t, err)
		assert.True(t, errors.Is(err, cause))
		assert.Equal(t, "download error: get notes.txt: boom", err.Error())
	})

	t.Run("sentinel survives wrapping", func(t *testing.T) {
		err := errs.E(errs.KindDiscovery, "scan", errs.ErrNoDevices)
		wrapped := fmt.Errorf("outer: %w", err)

		assert.True(t, errors.Is(wrapped, errs.ErrNoDevices))
		assert.Equal(t, errs.KindDiscovery, errs.KindOf(wrapped))
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, errs.KindUnknown, errs.KindOf(nil))
	assert.Equal(t, errs.KindUnknown, errs.KindOf(errors.New("plain")))
	assert.True(t, errs.Is(errs.E(errs.KindInput, "", errors.New("bad")), errs.KindInput))
	assert.False(t, errs.Is(nil, errs.KindInput))
}

func TestExitCode(t *testing.T) {
	cause := errors.New("x")
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errs.E(errs.KindDiscovery, "scan", errs.ErrNoDevices), 1},
		{errs.E(errs.KindConnect, "connect", cause), 2},
		{errs.E(errs.KindListing, "list", cause), 3},
		{errs.E(errs.KindDownload, "get", cause), 3},
		{cause, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, errs.ExitCode(c.err), "%v", c.err)
	}
}

func TestErrorFormatWithStack(t *testing.T) {
	err := errs.E(errs.KindListing, "list", errors.New("bad xml"))
	out := fmt.Sprintf("%+v", err)

	assert.Contains(t, out, "listing error: list: bad xml")
	assert.Contains(t, out, "errs_test.go")
}
