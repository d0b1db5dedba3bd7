package navigator

import (
	"fmt"
	"strings"

	"obex-browser/internal/listing"
)

const mebibyte = 1024 * 1024

// Render formats a listing as the numbered menu shown to the user. The two
// navigation lines are always present, even for an empty folder.
func Render(entries []listing.Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if e.IsDir() {
			fmt.Fprintf(&b, "  %d) %s/\n", i+1, e.Name)
			continue
		}
		fmt.Fprintf(&b, "  %d) %s (f%s mb)\n", i+1, e.Name, SizeMiB(e.Size))
	}
	b.WriteString("  ..) Up one\n")
	b.WriteString("  exit) Quit\n")
	return b.String()
}

// SizeMiB formats size in mebibytes with two decimals.
func SizeMiB(size uint64) string {
	return fmt.Sprintf("%.2f", float64(size)/mebibyte)
}
