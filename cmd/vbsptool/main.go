// vbsptool inspects Source engine VBSP maps.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/vbsp/internal/config"
	"github.com/Faultbox/vbsp/internal/logger"
	"github.com/Faultbox/vbsp/pkg/vbsp"
)

var (
	overrides config.Overrides
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vbsptool",
	Short: "Inspect Source engine VBSP maps",
	Long: `vbsptool loads a Source engine .bsp map the way a renderer would and
reports on its lumps, BSP tree, visibility, lightmaps, entities and props.`,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(&overrides); err != nil {
			return err
		}
		return logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&overrides.ConfigPath, "config", "", "path to config file")
	f.BoolVar(&overrides.Debug, "debug", false, "enable debug logging")
	f.BoolVar(&overrides.HDR, "hdr", false, "prefer HDR lighting lumps")
	f.StringVar(&overrides.LogFile, "log-file", "", "also log to a rotating file")
	f.IntVar(&overrides.PageSize, "page-size", 0, "lightmap page width and height")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadMap reads and parses a map with the configured loader options.
func loadMap(path string) (*vbsp.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts := cfg.LoaderOptions()
	opts.Logger = logger.Named("vbsp").With(zap.String("map", path))
	f, err := vbsp.Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func parseFloats(args []string) ([]float32, error) {
	out := make([]float32, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", a)
		}
		out[i] = float32(v)
	}
	return out, nil
}
