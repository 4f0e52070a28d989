package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/wscullen/landsat-downloader/internal/grid"
	"github.com/wscullen/landsat-downloader/internal/intersect"
	"github.com/wscullen/landsat-downloader/internal/lookup"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Build the WRS to MGRS lookup table",
	Long: `Computes, for every WRS-2 path/row tile, the set of MGRS 100km tiles whose
geometry overlaps it, and writes the result as a lookup table.

Both grids must already be in the same coordinate reference system; the .prj
sidecars are compared and a mismatch aborts before computation. A reference
shapefile (e.g. a national boundary) restricts the WRS grid to tiles that
intersect it.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "lookup"))

		wrs, mgrs, err := loadGrids(cmd)
		if err != nil {
			return err
		}

		var ref *geom.MultiPolygon
		if refPath, _ := cmd.Flags().GetString("reference"); refPath != "" {
			var refCRS string
			ref, refCRS, err = grid.ReadFootprint(refPath)
			if err != nil {
				return eris.Wrap(err, "lookup: read reference shapefile")
			}
			if err := grid.CheckCRS("reference", refCRS, wrs.Name, wrs.CRS); err != nil {
				return err
			}
		}

		mapper, err := newMapper(cmd)
		if err != nil {
			return err
		}

		mapping, err := mapper.Compute(ctx, wrs, mgrs, ref)
		if err != nil {
			return eris.Wrap(err, "lookup")
		}

		outPath, _ := cmd.Flags().GetString("out")
		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "csv":
			f, err := os.Create(outPath)
			if err != nil {
				return eris.Wrapf(err, "lookup: create %s", outPath)
			}
			defer func() { _ = f.Close() }()
			if err := lookup.WriteCSV(f, mapping); err != nil {
				return err
			}
		case "xlsx":
			if err := lookup.WriteXLSX(outPath, mapping); err != nil {
				return err
			}
		default:
			return eris.Errorf("lookup: unknown format %q", format)
		}

		if save, _ := cmd.Flags().GetBool("save"); save {
			store, err := lookup.NewStore(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			build, err := store.SaveBuild(ctx, wrs.Name, mgrs.Name, mapping)
			if err != nil {
				return err
			}
			log.Info("lookup table saved",
				zap.String("build_id", build.ID),
				zap.String("db", cfg.Store.Path),
			)
		}

		fmt.Printf("Wrote lookup table for %d path/rows to %s\n", len(mapping), outPath)
		return nil
	},
}

func init() {
	lookupCmd.Flags().String("wrs", "", "WRS-2 grid shapefile (default: from config)")
	lookupCmd.Flags().String("mgrs", "", "MGRS 100km grid shapefile (default: from config)")
	lookupCmd.Flags().String("reference", "", "reference shapefile restricting the WRS grid")
	lookupCmd.Flags().String("out", "wrs_to_mgrs.csv", "output file path")
	lookupCmd.Flags().String("format", "csv", "output format: csv or xlsx")
	lookupCmd.Flags().Bool("save", false, "also persist the table into the SQLite store")
	lookupCmd.Flags().String("boundary", "", "boundary policy: inclusive or exclusive (default: from config)")
	lookupCmd.Flags().Int("workers", 0, "parallel chunks (default: from config)")
	rootCmd.AddCommand(lookupCmd)
}

// loadGrids reads the WRS and MGRS grids, honoring flag overrides over
// config paths.
func loadGrids(cmd *cobra.Command) (*grid.Grid, *grid.Grid, error) {
	wrsPath, _ := cmd.Flags().GetString("wrs")
	if wrsPath == "" {
		wrsPath = cfg.Grids.WRSShapefile
	}
	mgrsPath, _ := cmd.Flags().GetString("mgrs")
	if mgrsPath == "" {
		mgrsPath = cfg.Grids.MGRSShapefile
	}

	wrs, err := grid.ReadGrid(wrsPath, cfg.Grids.WRSIDField, "wrs")
	if err != nil {
		return nil, nil, eris.Wrap(err, "load WRS grid")
	}
	mgrs, err := grid.ReadGrid(mgrsPath, cfg.Grids.MGRSIDField, "mgrs")
	if err != nil {
		return nil, nil, eris.Wrap(err, "load MGRS grid")
	}
	return wrs, mgrs, nil
}

// newMapper builds a Mapper from config with flag overrides.
func newMapper(cmd *cobra.Command) (*intersect.Mapper, error) {
	policyStr, _ := cmd.Flags().GetString("boundary")
	if policyStr == "" {
		policyStr = cfg.Intersect.BoundaryPolicy
	}
	policy, err := grid.ParseBoundaryPolicy(policyStr)
	if err != nil {
		return nil, err
	}

	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = cfg.Intersect.Workers
	}

	return intersect.NewMapper(intersect.Options{Policy: policy, Workers: workers}), nil
}
