package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Entry is one file of an archive.
type Entry struct {
	Name     string
	Data     []byte
	Modified time.Time
}

// Archive writes entries into an in-memory zip. Names must be relative and
// unique.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
			_ = zw.Close()
			return nil, fmt.Errorf("zip: invalid entry name %q", e.Name)
		}
		if _, dup := seen[name]; dup {
			_ = zw.Close()
			return nil, fmt.Errorf("zip: duplicate entry %q", name)
		}
		seen[name] = struct{}{}
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: e.Modified}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("zip: create %s: %w", name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("zip: write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: finalize: %w", err)
	}
	return buf.Bytes(), nil
}
