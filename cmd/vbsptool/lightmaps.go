package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/vbsp/internal/logger"
	"github.com/Faultbox/vbsp/pkg/lightmap"
	"github.com/Faultbox/vbsp/pkg/vbsp"
)

var lightmapsCmd = &cobra.Command{
	Use:   "lightmaps <map.bsp>",
	Short: "Write each composed lightmap page as page_N.qoi",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadMap(args[0])
		if err != nil {
			return err
		}
		paths, err := writeLightmapPages(f, cfg.Export.OutputDir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

// writeLightmapPages composes the lightmap pages of f and writes them into
// dir, returning the written paths.
func writeLightmapPages(f *vbsp.File, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	atlas := lightmap.BuildAtlas(f.Lightmaps, f.LightmapSources())
	paths := make([]string, 0, len(atlas.Pages))
	for i := range atlas.Pages {
		path := filepath.Join(dir, fmt.Sprintf("page_%d.qoi", i))
		if err := writePage(atlas, i, path); err != nil {
			return paths, err
		}
		logger.Debug("wrote lightmap page", zap.String("path", path),
			zap.Int("width", atlas.Pages[i].Rect.Dx()), zap.Int("height", atlas.Pages[i].Rect.Dy()))
		paths = append(paths, path)
	}
	return paths, nil
}

func writePage(atlas *lightmap.Atlas, i int, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	if err := atlas.WriteQOI(w, i); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return out.Close()
}

func init() {
	lightmapsCmd.Flags().StringVarP(&overrides.OutputDir, "output", "o", "", "output directory (default from config)")
	rootCmd.AddCommand(lightmapsCmd)
}
