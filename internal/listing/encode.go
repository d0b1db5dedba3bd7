package listing

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/pkg/errors"
)

const doctype = `<!DOCTYPE folder-listing SYSTEM "obex-folder-listing.dtd">`

// Encode renders entries as a folder-listing document, the same shape an OBEX
// FTP server returns for a GET of type x-obex/folder-listing. Folders are
// written as <folder>, everything else as <file>.
func Encode(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(doctype)
	buf.WriteByte('\n')

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	root := xml.StartElement{
		Name: xml.Name{Local: "folder-listing"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "version"}, Value: "1.0"}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, errors.Wrap(err, "listing: encode")
	}
	for _, e := range entries {
		tag := fileTag
		if e.Kind == Folder {
			tag = folderTag
		}
		el := xml.StartElement{
			Name: xml.Name{Local: tag},
			Attr: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: e.Name}},
		}
		if e.Kind == File || e.Size > 0 {
			el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: "size"}, Value: strconv.FormatUint(e.Size, 10)})
		}
		if e.Modified != "" {
			el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: "modified"}, Value: e.Modified})
		}
		if e.Permissions != "" {
			el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: "user-perm"}, Value: e.Permissions})
		}
		if err := enc.EncodeToken(el); err != nil {
			return nil, errors.Wrapf(err, "listing: encode %q", e.Name)
		}
		if err := enc.EncodeToken(el.End()); err != nil {
			return nil, errors.Wrapf(err, "listing: encode %q", e.Name)
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, errors.Wrap(err, "listing: encode")
	}
	if err := enc.Flush(); err != nil {
		return nil, errors.Wrap(err, "listing: encode")
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
