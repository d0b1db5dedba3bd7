// Package listing decodes and encodes OBEX folder-listing documents
// (x-obex/folder-listing).
//
// Parsing is total: every child of the root element either becomes an Entry
// or is reported as Rejected with a reason, so an unusable record never
// reaches a caller that expects a name it can join onto a path.
package listing

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/ianaindex"
)

// Kind is the type of a listed object.
type Kind int

const (
	File Kind = iota
	Folder
)

func (k Kind) String() string {
	if k == Folder {
		return "folder"
	}
	return "file"
}

const (
	folderTag       = "folder"
	fileTag         = "file"
	parentFolderTag = "parent-folder"
)

// Entry is one object in a remote folder.
//
// Size is only meaningful for files; it is still recorded for folders when the
// source carries it. Modified and Permissions are kept as the opaque strings
// the device sent.
type Entry struct {
	Kind        Kind
	Name        string
	Size        uint64
	Modified    string
	Permissions string
}

func (e Entry) IsDir() bool { return e.Kind == Folder }

// Rejected describes a child element that could not become an Entry.
type Rejected struct {
	Tag    string
	Name   string
	Reason string
}

// Result is the outcome of parsing one payload.
type Result struct {
	Entries  []Entry
	Rejected []Rejected
}

// Parse decodes a folder-listing payload. It fails only when the document
// itself is unusable: not well-formed, or without a root element.
func Parse(payload []byte) (Result, error) {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	dec.CharsetReader = charsetReader

	var res Result
	seen := make(map[string]struct{})
	depth := 0
	rooted := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, errors.Wrap(err, "listing: malformed payload")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				rooted = true
				continue
			}
			if depth != 2 {
				continue
			}
			entry, rej := parseElement(t, seen)
			if rej != nil {
				res.Rejected = append(res.Rejected, *rej)
				continue
			}
			seen[entry.Name] = struct{}{}
			res.Entries = append(res.Entries, entry)
		case xml.EndElement:
			depth--
		}
	}
	if !rooted {
		return Result{}, errors.New("listing: payload has no root element")
	}
	return res, nil
}

func parseElement(el xml.StartElement, seen map[string]struct{}) (Entry, *Rejected) {
	tag := el.Name.Local
	name, hasName := attr(el, "name")
	reject := func(reason string) (Entry, *Rejected) {
		return Entry{}, &Rejected{Tag: tag, Name: name, Reason: reason}
	}

	if tag == parentFolderTag {
		return reject("parent folder marker")
	}
	switch {
	case !hasName || name == "":
		return reject("missing name")
	case name == "." || name == "..":
		return reject("reserved name")
	case strings.ContainsAny(name, "/\x00"):
		return reject("name contains a path separator")
	}
	if _, dup := seen[name]; dup {
		return reject("duplicate name")
	}

	e := Entry{Kind: File, Name: name}
	if tag == folderTag {
		e.Kind = Folder
	}
	if s, ok := attr(el, "size"); ok {
		// Non-numeric sizes fall back to zero.
		if n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64); err == nil {
			e.Size = n
		}
	}
	e.Modified, _ = attr(el, "modified")
	e.Permissions, _ = attr(el, "user-perm")
	return e, nil
}

func attr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// charsetReader lets devices that declare e.g. ISO-8859-1 listings through.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("listing: unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("listing: unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
