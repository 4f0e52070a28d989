package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wscullen/landsat-downloader/internal/grid"
	"github.com/wscullen/landsat-downloader/internal/lookup"
)

var intersectCmd = &cobra.Command{
	Use:   "intersect",
	Short: "Find WRS path/rows intersecting an area of interest",
	Long: `Loads an area-of-interest shapefile, merges its features into one footprint
and reports every WRS-2 path/row tile that intersects it. Results are written
as CSV; --tiles-out additionally writes the intersecting tiles as a polygon
shapefile with PR, PATH and ROW attributes.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		shpPath, _ := cmd.Flags().GetString("shapefile")
		if shpPath == "" {
			return eris.New("intersect: --shapefile is required")
		}

		log := zap.L().With(zap.String("command", "intersect"))

		wrsPath, _ := cmd.Flags().GetString("wrs")
		if wrsPath == "" {
			wrsPath = cfg.Grids.WRSShapefile
		}
		wrs, err := grid.ReadGrid(wrsPath, cfg.Grids.WRSIDField, "wrs")
		if err != nil {
			return eris.Wrap(err, "intersect: load WRS grid")
		}

		aoi, aoiCRS, err := grid.ReadFootprint(shpPath)
		if err != nil {
			return eris.Wrap(err, "intersect: read area of interest")
		}
		if err := grid.CheckCRS("aoi", aoiCRS, wrs.Name, wrs.CRS); err != nil {
			return err
		}

		policyStr, _ := cmd.Flags().GetString("boundary")
		if policyStr == "" {
			policyStr = cfg.Intersect.BoundaryPolicy
		}
		policy, err := grid.ParseBoundaryPolicy(policyStr)
		if err != nil {
			return err
		}

		hits := grid.NewGrid("wrs_intersecting", wrs.CRS)
		for i := range wrs.Tiles {
			t := &wrs.Tiles[i]
			if grid.Intersects(t.Geom, aoi, policy) {
				if err := hits.Add(*t); err != nil {
					return err
				}
			}
		}
		log.Info("intersection complete",
			zap.Int("wrs_tiles", wrs.Len()),
			zap.Int("intersecting", hits.Len()),
		)

		ids := make([]string, 0, hits.Len())
		for _, t := range hits.Tiles {
			ids = append(ids, t.ID)
		}
		sort.Strings(ids)

		outPath, _ := cmd.Flags().GetString("out")
		f, err := os.Create(outPath)
		if err != nil {
			return eris.Wrapf(err, "intersect: create %s", outPath)
		}
		defer func() { _ = f.Close() }()
		if err := lookup.WritePathRowsCSV(f, ids); err != nil {
			return err
		}

		if tilesOut, _ := cmd.Flags().GetString("tiles-out"); tilesOut != "" {
			if err := grid.WriteWRSTiles(tilesOut, hits); err != nil {
				return err
			}
		}

		fmt.Printf("%d of %d WRS tiles intersect %s\n", hits.Len(), wrs.Len(), shpPath)
		return nil
	},
}

func init() {
	intersectCmd.Flags().String("shapefile", "", "area-of-interest shapefile (required)")
	intersectCmd.Flags().String("wrs", "", "WRS-2 grid shapefile (default: from config)")
	intersectCmd.Flags().String("out", "intersecting_wrs.csv", "output CSV path")
	intersectCmd.Flags().String("tiles-out", "", "optional output shapefile of intersecting WRS tiles")
	intersectCmd.Flags().String("boundary", "", "boundary policy: inclusive or exclusive (default: from config)")
	rootCmd.AddCommand(intersectCmd)
}
