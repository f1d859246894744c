package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Loader.HDR {
		t.Error("expected hdr to be false by default")
	}
	if cfg.Loader.LightmapPageWidth != 2048 || cfg.Loader.LightmapPageHeight != 2048 {
		t.Errorf("expected 2048x2048 pages, got %dx%d", cfg.Loader.LightmapPageWidth, cfg.Loader.LightmapPageHeight)
	}
	if !cfg.Loader.LoadGameLumps || !cfg.Loader.LoadPakfile {
		t.Error("expected game lumps and pakfile loading by default")
	}
	if cfg.Export.OutputDir != "." {
		t.Errorf("expected output dir '.', got %s", cfg.Export.OutputDir)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	yamlContent := `
loader:
  hdr: true
  lightmap_page_width: 1024
  load_pakfile: false

export:
  output_dir: "out"

logging:
  level: "debug"
  log_file: "vbsptool.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Loader.HDR {
		t.Error("expected hdr to be true")
	}
	if cfg.Loader.LightmapPageWidth != 1024 {
		t.Errorf("expected page width 1024, got %d", cfg.Loader.LightmapPageWidth)
	}
	if cfg.Loader.LightmapPageHeight != 2048 {
		t.Errorf("expected page height to keep default 2048, got %d", cfg.Loader.LightmapPageHeight)
	}
	if cfg.Loader.LoadPakfile {
		t.Error("expected load_pakfile to be false")
	}
	if !cfg.Loader.LoadGameLumps {
		t.Error("expected load_game_lumps to keep default true")
	}
	if cfg.Export.OutputDir != "out" {
		t.Errorf("expected output dir 'out', got %s", cfg.Export.OutputDir)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "vbsptool.log" {
		t.Errorf("unexpected logging section: %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidYAML := `
loader:
  lightmap_page_width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/vbsptool.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestLoadExplicitPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(configPath, []byte("loader:\n  hdr: true\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(&Overrides{ConfigPath: configPath, PageSize: 512})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Loader.HDR {
		t.Error("expected hdr from file")
	}
	if cfg.Loader.LightmapPageWidth != 512 || cfg.Loader.LightmapPageHeight != 512 {
		t.Errorf("expected override page size 512, got %dx%d", cfg.Loader.LightmapPageWidth, cfg.Loader.LightmapPageHeight)
	}

	if _, err := Load(&Overrides{ConfigPath: configPath + ".missing"}); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte("loader:\n  hdr: true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != FileName {
		t.Errorf("expected to find %s in current directory, got %q", FileName, path)
	}
}

func TestOverrides(t *testing.T) {
	tests := []struct {
		name   string
		o      Overrides
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug",
			o:    Overrides{Debug: true},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "hdr",
			o:    Overrides{HDR: true},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Loader.HDR {
					t.Error("expected hdr to be enabled")
				}
			},
		},
		{
			name: "log file",
			o:    Overrides{LogFile: "run.log"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "run.log" {
					t.Errorf("expected log file run.log, got %s", cfg.Logging.LogFile)
				}
			},
		},
		{
			name: "page size",
			o:    Overrides{PageSize: 256},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Loader.LightmapPageWidth != 256 || cfg.Loader.LightmapPageHeight != 256 {
					t.Errorf("expected 256x256, got %dx%d", cfg.Loader.LightmapPageWidth, cfg.Loader.LightmapPageHeight)
				}
			},
		},
		{
			name: "output dir",
			o:    Overrides{OutputDir: "pages"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.OutputDir != "pages" {
					t.Errorf("expected output dir pages, got %s", cfg.Export.OutputDir)
				}
			},
		},
		{
			name: "zero values",
			o:    Overrides{},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "info" || cfg.Loader.LightmapPageWidth != 2048 || cfg.Export.OutputDir != "." {
					t.Errorf("zero overrides changed config: %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.o.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoaderOptions(t *testing.T) {
	cfg := Default()
	cfg.Loader.HDR = true
	cfg.Loader.LightmapPageWidth = 0
	cfg.Loader.LightmapPageHeight = 1024
	cfg.Loader.LoadGameLumps = false

	opts := cfg.LoaderOptions()
	if !opts.UseHDR {
		t.Error("expected UseHDR")
	}
	if opts.LightmapPageWidth != 2048 {
		t.Errorf("expected zero width to fall back to 2048, got %d", opts.LightmapPageWidth)
	}
	if opts.LightmapPageHeight != 1024 {
		t.Errorf("expected height 1024, got %d", opts.LightmapPageHeight)
	}
	if opts.LoadGameLumps || !opts.LoadPakfile {
		t.Errorf("unexpected lump options: %+v", opts)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := Default()
	cfg.Loader.HDR = true
	cfg.Export.OutputDir = "pages"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !loaded.Loader.HDR || loaded.Export.OutputDir != "pages" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}
