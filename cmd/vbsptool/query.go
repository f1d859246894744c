package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	qmath "github.com/Faultbox/vbsp/pkg/math"
)

var leafCmd = &cobra.Command{
	Use:   "leaf <map.bsp> <x> <y> <z>",
	Short: "Find the leaf and water volume containing a point",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseFloats(args[1:])
		if err != nil {
			return err
		}
		f, err := loadMap(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		p := qmath.Vec3{X: v[0], Y: v[1], Z: v[2]}
		idx := f.FindLeafForPoint(p)
		if idx < 0 {
			fmt.Fprintln(out, "map has no leaves")
			return nil
		}
		leaf := &f.Tree.Leaves[idx]
		fmt.Fprintf(out, "Leaf:      %d\n", idx)
		fmt.Fprintf(out, "Cluster:   %d\n", leaf.Cluster)
		fmt.Fprintf(out, "Area:      %d\n", leaf.Area)
		fmt.Fprintf(out, "Contents:  %#x\n", leaf.Contents)
		fmt.Fprintf(out, "Surfaces:  %d\n", len(leaf.Surfaces))
		if w := f.FindLeafWaterForPoint(p); w != nil {
			fmt.Fprintf(out, "Water:     surface z=%g min z=%g texinfo=%d\n", w.SurfaceZ, w.MinZ, w.SurfaceTexInfo)
		}
		return nil
	},
}

var pvsCmd = &cobra.Command{
	Use:   "pvs <map.bsp> <cluster>",
	Short: "List the clusters potentially visible from a cluster",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cluster, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid cluster %q", args[1])
		}
		f, err := loadMap(args[0])
		if err != nil {
			return err
		}
		if cluster < 0 || cluster >= f.Visibility.NumClusters {
			return fmt.Errorf("cluster %d out of range (%d clusters)", cluster, f.Visibility.NumClusters)
		}

		visible := f.Visibility.VisibleClusters(cluster)
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d clusters visible: %v\n", len(visible), f.Visibility.NumClusters, visible)
		return nil
	},
}

var clustersCmd = &cobra.Command{
	Use:   "clusters <map.bsp> <minx> <miny> <minz> <maxx> <maxy> <maxz>",
	Short: "List the clusters a bounding box touches",
	Args:  cobra.ExactArgs(7),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseFloats(args[1:])
		if err != nil {
			return err
		}
		f, err := loadMap(args[0])
		if err != nil {
			return err
		}

		box := qmath.NewAABB(qmath.Vec3{X: v[0], Y: v[1], Z: v[2]}, qmath.Vec3{X: v[3], Y: v[4], Z: v[5]})
		clusters := f.MarkClusterSet(nil, box)
		fmt.Fprintf(cmd.OutOrStdout(), "%d clusters: %v\n", len(clusters), clusters)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(leafCmd, pvsCmd, clustersCmd)
}
