package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Faultbox/vbsp/pkg/vbsp"
)

var infoCmd = &cobra.Command{
	Use:   "info <map.bsp>",
	Short: "Show header, lump and geometry statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadMap(args[0])
		if err != nil {
			return err
		}
		printInfo(cmd, args[0], f)
		return nil
	},
}

func printInfo(cmd *cobra.Command, path string, f *vbsp.File) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Map:       %s\n", path)
	fmt.Fprintf(out, "Version:   %d (revision %d)\n", f.Header.Version, f.Header.Revision)
	fmt.Fprintf(out, "Models:    %d\n", len(f.Models))
	fmt.Fprintf(out, "Nodes:     %d\n", len(f.Tree.Nodes))
	fmt.Fprintf(out, "Leaves:    %d\n", len(f.Tree.Leaves))
	fmt.Fprintf(out, "Clusters:  %d\n", f.Visibility.NumClusters)
	fmt.Fprintf(out, "Surfaces:  %d\n", len(f.Surfaces))
	fmt.Fprintf(out, "Vertices:  %d\n", f.VertexCount())
	fmt.Fprintf(out, "Indices:   %d\n", len(f.IndexData))
	fmt.Fprintf(out, "Entities:  %d\n", len(f.Entities))
	fmt.Fprintf(out, "Lights:    %d\n", len(f.WorldLights))
	fmt.Fprintf(out, "Cubemaps:  %d\n", len(f.Cubemaps))

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Lightmap pages:")
	for i := range f.Lightmaps.Pages {
		w, h := f.Lightmaps.PageSize(i)
		fmt.Fprintf(out, "  %-3d %dx%d\n", i, w, h)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Lumps:")
	for i, l := range f.Header.Lumps {
		if l.Size == 0 {
			continue
		}
		compressed := ""
		if l.UncompressedSize != 0 {
			compressed = fmt.Sprintf(" (lzma, %d unpacked)", l.UncompressedSize)
		}
		fmt.Fprintf(out, "  %-28s v%-2d %10d bytes%s\n", vbsp.LumpType(i), l.Version, l.Size, compressed)
	}
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
