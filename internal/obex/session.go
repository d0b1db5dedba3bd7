// Package obex defines the OBEX file-transfer session consumed by the
// navigator. The wire protocol is not implemented here; concrete sessions
// delegate to obexd (see package obexd) or to a local directory (see package
// dirsession).
//
// A Session is used by one goroutine at a time. Paths are slash-separated and
// relative to the remote root; the root is the empty string.
package obex

import (
	"context"
)

// FolderListingType is the OBEX type header value for folder listings.
const FolderListingType = "x-obex/folder-listing"

// Session is an OBEX File Transfer client session.
type Session interface {
	// Connect establishes the OBEX session. A failure here is fatal for the
	// browse session.
	Connect(ctx context.Context) error

	// ListDirectory returns the raw folder-listing payload for path.
	// Non-success OBEX responses are reported as errors.
	ListDirectory(ctx context.Context, path string) ([]byte, error)

	// GetFile returns the full content of the object at path.
	GetFile(ctx context.Context, path string) ([]byte, error)

	// Disconnect tears the session down. It is safe to call more than once
	// and after a failed Connect; callers treat its error as advisory.
	Disconnect() error
}
