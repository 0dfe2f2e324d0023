package archive

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/junhee/namecard-go/internal/util"
)

// Entry is one contact card destined for the batch archive.
type Entry struct {
	Name    string
	Content string
}

// BuildVcfZip bundles VCF documents into a ZIP archive. Entry names are
// sanitized contact names with a .vcf extension; a nameless contact becomes
// "contact". Colliding names get a numeric suffix (_2, _3, ...) instead of
// overwriting each other.
func BuildVcfZip(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	used := make(map[string]int, len(entries))
	for _, entry := range entries {
		name := util.SanitizeFileName(entry.Name)
		if name == "" {
			name = "contact"
		}

		base := name
		used[base]++
		if n := used[base]; n > 1 {
			// The suffixed name may itself be taken by a contact literally
			// named that way; keep counting until it is free.
			for {
				name = fmt.Sprintf("%s_%d", base, n)
				if used[name] == 0 {
					break
				}
				used[base]++
				n = used[base]
			}
			used[name]++
		}

		f, err := w.Create(name + ".vcf")
		if err != nil {
			w.Close()
			return nil, err
		}
		if _, err := f.Write([]byte(entry.Content)); err != nil {
			w.Close()
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
