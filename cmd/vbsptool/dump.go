package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var entitiesCmd = &cobra.Command{
	Use:   "entities <map.bsp> [classname]",
	Short: "Print entities, optionally filtered by classname",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadMap(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		shown := 0
		for _, e := range f.Entities {
			if len(args) == 2 && !strings.EqualFold(e.ClassName(), args[1]) {
				continue
			}
			fmt.Fprintln(out, "{")
			for _, k := range e.Keys {
				v, _ := e.Get(k)
				fmt.Fprintf(out, "  %q %q\n", k, v)
			}
			fmt.Fprintln(out, "}")
			shown++
		}
		fmt.Fprintf(out, "%d of %d entities\n", shown, len(f.Entities))
		return nil
	},
}

var propsCmd = &cobra.Command{
	Use:   "props <map.bsp>",
	Short: "List static props and detail object counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadMap(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, g := range f.GameLumps {
			fmt.Fprintf(out, "game lump %s v%d, %d bytes, compressed=%t\n", g.ID, g.Version, g.Length, g.Compressed())
		}
		if sp := f.StaticProps; sp != nil {
			fmt.Fprintf(out, "Static props (v%d): %d props, %d models\n", sp.Version, len(sp.Props), len(sp.Models))
			for i, p := range sp.Props {
				fmt.Fprintf(out, "  %-5d %-48s origin=(%g %g %g) angles=(%g %g %g) solid=%d\n",
					i, p.Model, p.Origin.X, p.Origin.Y, p.Origin.Z, p.Angles.X, p.Angles.Y, p.Angles.Z, p.Solid)
			}
		}
		if d := f.DetailObjects; d != nil {
			fmt.Fprintf(out, "Detail objects: %d objects, %d models, %d sprites\n", len(d.Objects), len(d.Models), len(d.Sprites))
		}
		return nil
	},
}

var pakCmd = &cobra.Command{
	Use:   "pak <map.bsp> [file]",
	Short: "List the embedded pakfile, or print one of its files",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadMap(args[0])
		if err != nil {
			return err
		}
		if f.Pakfile == nil {
			return fmt.Errorf("%s has no pakfile", args[0])
		}

		out := cmd.OutOrStdout()
		if len(args) == 2 {
			data, err := f.Pakfile.Open(args[1])
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}

		files := f.Pakfile.Files()
		slices.Sort(files)
		for _, name := range files {
			fmt.Fprintln(out, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(entitiesCmd, propsCmd, pakCmd)
}
