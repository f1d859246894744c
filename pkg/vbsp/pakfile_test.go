package vbsp

import (
	"archive/zip"
	"bytes"
	"errors"
	"io/fs"
	"slices"
	"testing"
)

func createTestPakfile(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestPakfile(t *testing.T) {
	pak, err := openPakfile(createTestPakfile(t, map[string]string{
		"materials/maps/test/cubemapdefault.vtf": "vtf",
		"materials/Custom/Wall.vmt":              "vmt",
	}))
	if err != nil {
		t.Fatalf("openPakfile: %v", err)
	}

	files := pak.Files()
	if len(files) != 2 || files[0] != "materials/Custom/Wall.vmt" {
		t.Errorf("Files() = %v", files)
	}

	tests := []struct {
		name string
		want string
	}{
		{"materials/Custom/Wall.vmt", "vmt"},
		{"MATERIALS/custom/wall.VMT", "vmt"},
		{`materials\maps\test\cubemapdefault.vtf`, "vtf"},
	}
	for _, tt := range tests {
		got, err := pak.Open(tt.name)
		if err != nil {
			t.Errorf("Open(%q): %v", tt.name, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("Open(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := pak.Open("materials/missing.vmt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestOpenPakfileInvalid(t *testing.T) {
	if _, err := openPakfile([]byte("not a zip archive")); err == nil {
		t.Error("expected error for invalid archive")
	}
}

func TestParsePakfileOption(t *testing.T) {
	w := &testWorld{
		textures: []testTexture{{name: "floor"}},
		quads:    []testQuad{quad(0, 0, 64, 0)},
		extra: func(m *testMap) {
			m.set(LumpPakfile, 0, createTestPakfile(t, map[string]string{"readme.txt": "hi"}))
		},
	}
	data := w.build(t)

	f, err := Parse(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Pakfile == nil {
		t.Fatal("pakfile not loaded")
	}
	if got, _ := f.Pakfile.Open("README.TXT"); string(got) != "hi" {
		t.Errorf("readme = %q", got)
	}

	opts := DefaultOptions()
	opts.LoadPakfile = false
	if f, err = Parse(data, opts); err != nil || f.Pakfile != nil {
		t.Errorf("pakfile loaded while disabled: %v", err)
	}
}
