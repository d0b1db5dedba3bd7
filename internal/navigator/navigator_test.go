package navigator_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"obex-browser/internal/errs"
	"obex-browser/internal/listing"
	"obex-browser/internal/mocks"
	"obex-browser/internal/navigator"
	"obex-browser/internal/storage"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const rootListing = `<?xml version="1.0"?>
<folder-listing version="1.0">
  <folder name="Photos"/>
  <file name="notes.txt" size="2097152"/>
</folder-listing>`

const photosListing = `<?xml version="1.0"?>
<folder-listing version="1.0">
  <parent-folder/>
  <file name="beach.jpg" size="1048576"/>
</folder-listing>`

type testSetup struct {
	session *mocks.Session
	fs      afero.Fs
	stdout  *strings.Builder
	logs    *observer.ObservedLogs
}

func setupTest(t *testing.T) *testSetup {
	t.Helper()
	setup := &testSetup{
		session: new(mocks.Session),
		fs:      afero.NewMemMapFs(),
		stdout:  &strings.Builder{},
	}
	setup.session.MockListDirectory = func(_ context.Context, path string) ([]byte, error) {
		switch path {
		case "":
			return []byte(rootListing), nil
		case "Photos":
			return []byte(photosListing), nil
		}
		return nil, errors.Errorf("not found: %s", path)
	}
	setup.session.MockGetFile = func(_ context.Context, path string) ([]byte, error) {
		return []byte("content of " + path), nil
	}
	return setup
}

func (s *testSetup) navigator(t *testing.T, input string) *navigator.Navigator {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	s.logs = logs
	nav, err := navigator.New(navigator.Config{
		Browser: s.session,
		Sink:    storage.NewLocal(s.fs, storage.DefaultDir),
		Stdin:   strings.NewReader(input),
		Stdout:  s.stdout,
		Logger:  zap.New(core),
	})
	require.NoError(t, err)
	return nav
}

func TestNew(t *testing.T) {
	_, err := navigator.New(navigator.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestRun_Quit(t *testing.T) {
	setup := setupTest(t)
	nav := setup.navigator(t, "exit\n")

	res, err := nav.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, navigator.Quitted, res.Outcome)
	assert.Equal(t, []string{""}, setup.session.Listed)
	assert.Contains(t, setup.stdout.String(), "=== Listing: / ===\n"+
		"  1) Photos/\n"+
		"  2) notes.txt (f2.00 mb)\n"+
		"  ..) Up one\n"+
		"  exit) Quit\n"+
		"Your choice: ")
}

func TestRun_EndOfInputQuits(t *testing.T) {
	setup := setupTest(t)
	nav := setup.navigator(t, "")

	res, err := nav.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, navigator.Quitted, res.Outcome)
}

func TestRun_InvalidChoiceReprompts(t *testing.T) {
	setup := setupTest(t)
	nav := setup.navigator(t, "3\nfoo\nexit\n")

	res, err := nav.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, navigator.Quitted, res.Outcome)
	assert.Equal(t, []string{""}, setup.session.Listed, "invalid input must not refresh or move")
	assert.Equal(t, navigator.State{}, nav.State())
	assert.Equal(t, 2, strings.Count(setup.stdout.String(), "Invalid choice"))
	assert.Equal(t, 3, strings.Count(setup.stdout.String(), "Your choice: "))
}

func TestRun_DescendAndGoUp(t *testing.T) {
	setup := setupTest(t)
	nav := setup.navigator(t, "1\n..\n..\nexit\n")

	_, err := nav.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"", "Photos", "", ""}, setup.session.Listed)
	assert.Contains(t, setup.stdout.String(), "=== Listing: /Photos ===\n  1) beach.jpg (f1.00 mb)\n")
	assert.Equal(t, navigator.State{}, nav.State())

	rejected := setup.logs.FilterMessage("skipping unusable listing entry").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, "parent folder marker", rejected[0].ContextMap()["reason"])
}

func TestRun_DownloadTerminates(t *testing.T) {
	setup := setupTest(t)
	nav := setup.navigator(t, "2\nexit\n")

	res, err := nav.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, navigator.Result{
		Outcome:    navigator.Downloaded,
		RemotePath: "notes.txt",
		SavedPath:  filepath.Join("downloaded", "notes.txt"),
	}, res)
	assert.Equal(t, []string{"notes.txt"}, setup.session.Fetched)
	assert.Equal(t, []string{""}, setup.session.Listed, "download is terminal")

	data, err := afero.ReadFile(setup.fs, res.SavedPath)
	require.NoError(t, err)
	assert.Equal(t, "content of notes.txt", string(data))
}

func TestRun_DownloadFromSubfolder(t *testing.T) {
	setup := setupTest(t)
	nav := setup.navigator(t, "1\n1\n")

	res, err := nav.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Photos/beach.jpg", res.RemotePath)
	assert.Equal(t, filepath.Join("downloaded", "beach.jpg"), res.SavedPath)
	assert.Contains(t, setup.stdout.String(), "[+] Downloading '/Photos/beach.jpg' ...")
}

func TestRun_DownloadFailureTerminates(t *testing.T) {
	setup := setupTest(t)
	setup.session.MockGetFile = func(context.Context, string) ([]byte, error) {
		return nil, errors.New("obex: forbidden")
	}
	nav := setup.navigator(t, "2\nexit\n")

	_, err := nav.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindDownload))
	assert.Contains(t, err.Error(), "obex: forbidden")

	exists, statErr := afero.Exists(setup.fs, filepath.Join("downloaded", "notes.txt"))
	require.NoError(t, statErr)
	assert.False(t, exists)
}

func TestRun_LocalWriteFailureTerminates(t *testing.T) {
	setup := setupTest(t)
	setup.fs = afero.NewReadOnlyFs(afero.NewMemMapFs())
	nav := setup.navigator(t, "2\n")

	_, err := nav.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindDownload))
}

func TestRun_ListingTransportFailure(t *testing.T) {
	for _, path := range []string{"", "Photos"} {
		t.Run("at /"+path, func(t *testing.T) {
			setup := setupTest(t)
			inner := setup.session.MockListDirectory
			setup.session.MockListDirectory = func(ctx context.Context, p string) ([]byte, error) {
				if p == path {
					return nil, errors.New("connection reset by peer")
				}
				return inner(ctx, p)
			}
			nav := setup.navigator(t, "1\nexit\n")

			_, err := nav.Run(context.Background())

			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindListing))
			assert.Contains(t, err.Error(), "list /"+path)
		})
	}
}

func TestRun_MalformedListing(t *testing.T) {
	setup := setupTest(t)
	setup.session.MockListDirectory = func(context.Context, string) ([]byte, error) {
		return []byte("<folder-listing><file"), nil
	}
	nav := setup.navigator(t, "exit\n")

	_, err := nav.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindListing))
}

func TestRefreshListing(t *testing.T) {
	setup := setupTest(t)

	res, err := navigator.RefreshListing(context.Background(), setup.session, "Photos")

	require.NoError(t, err)
	assert.Equal(t, []listing.Entry{{Kind: listing.File, Name: "beach.jpg", Size: 1048576}}, res.Entries)
	require.Len(t, res.Rejected, 1)
}

func TestDownload(t *testing.T) {
	setup := setupTest(t)
	sink := storage.NewLocal(setup.fs, "out")

	saved, err := navigator.Download(context.Background(), setup.session, sink, "notes.txt")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "notes.txt"), saved)
	assert.Equal(t, []string{"notes.txt"}, setup.session.Fetched)
}
