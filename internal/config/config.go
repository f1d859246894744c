// Package config handles vbsptool configuration loading and management.
package config

import "github.com/Faultbox/vbsp/pkg/vbsp"

// FileName is the config file looked up in the working and config directories.
const FileName = "vbsptool.yaml"

// Config holds all tool settings.
type Config struct {
	Loader  LoaderConfig  `yaml:"loader"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoaderConfig holds map loading settings.
type LoaderConfig struct {
	HDR                bool `yaml:"hdr"`
	LightmapPageWidth  int  `yaml:"lightmap_page_width"`
	LightmapPageHeight int  `yaml:"lightmap_page_height"`
	LoadGameLumps      bool `yaml:"load_game_lumps"`
	LoadPakfile        bool `yaml:"load_pakfile"`
}

// ExportConfig holds output settings for commands that write files.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the loader defaults.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			LightmapPageWidth:  vbsp.DefaultLightmapPageSize,
			LightmapPageHeight: vbsp.DefaultLightmapPageSize,
			LoadGameLumps:      true,
			LoadPakfile:        true,
		},
		Export: ExportConfig{
			OutputDir: ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoaderOptions converts the loader section to vbsp options. The logger is
// left for the caller to set.
func (c *Config) LoaderOptions() vbsp.Options {
	opts := vbsp.DefaultOptions()
	opts.UseHDR = c.Loader.HDR
	if c.Loader.LightmapPageWidth > 0 {
		opts.LightmapPageWidth = c.Loader.LightmapPageWidth
	}
	if c.Loader.LightmapPageHeight > 0 {
		opts.LightmapPageHeight = c.Loader.LightmapPageHeight
	}
	opts.LoadGameLumps = c.Loader.LoadGameLumps
	opts.LoadPakfile = c.Loader.LoadPakfile
	return opts
}
