package config

// Overrides carries command-line values that take priority over the file.
// Zero values leave the loaded setting untouched.
type Overrides struct {
	ConfigPath string
	Debug      bool
	HDR        bool
	LogFile    string
	PageSize   int
	OutputDir  string
}

// apply applies CLI overrides to the config.
func (o *Overrides) apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.HDR {
		cfg.Loader.HDR = true
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.PageSize > 0 {
		cfg.Loader.LightmapPageWidth = o.PageSize
		cfg.Loader.LightmapPageHeight = o.PageSize
	}
	if o.OutputDir != "" {
		cfg.Export.OutputDir = o.OutputDir
	}
}
