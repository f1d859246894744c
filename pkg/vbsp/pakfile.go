package vbsp

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// Pakfile is the zip archive embedded in a map, usually holding custom
// materials, models and cubemap textures.
type Pakfile struct {
	zr *zip.Reader
}

func openPakfile(data []byte) (*Pakfile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pakfile: %w", err)
	}
	return &Pakfile{zr: zr}, nil
}

// Files lists the archive entries, directories excluded.
func (p *Pakfile) Files() []string {
	names := make([]string, 0, len(p.zr.File))
	for _, f := range p.zr.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	return names
}

// Open reads one entry. Names match case-insensitively and accept either
// slash direction.
func (p *Pakfile) Open(name string) ([]byte, error) {
	want := strings.ReplaceAll(name, "\\", "/")
	for _, f := range p.zr.File {
		if !strings.EqualFold(strings.ReplaceAll(f.Name, "\\", "/"), want) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("pakfile %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("pakfile %s: %w", name, fs.ErrNotExist)
}
