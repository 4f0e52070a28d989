package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/wscullen/landsat-downloader/internal/grid"
)

var footprintCmd = &cobra.Command{
	Use:   "footprint",
	Short: "Print the WKT footprint of a single grid tile",
	Long: `Looks up one tile by ID in the WRS or MGRS grid shapefile and prints its
footprint as WKT. Exactly one of --pathrow or --mgrs must be given.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pathrow, _ := cmd.Flags().GetString("pathrow")
		mgrsID, _ := cmd.Flags().GetString("mgrs")
		if (pathrow == "") == (mgrsID == "") {
			return eris.New("footprint: exactly one of --pathrow or --mgrs is required")
		}

		var shpPath, idField, name, id string
		if pathrow != "" {
			shpPath, idField, name, id = cfg.Grids.WRSShapefile, cfg.Grids.WRSIDField, "wrs", pathrow
		} else {
			shpPath, idField, name, id = cfg.Grids.MGRSShapefile, cfg.Grids.MGRSIDField, "mgrs", mgrsID
		}

		g, err := grid.ReadGrid(shpPath, idField, name)
		if err != nil {
			return eris.Wrap(err, "footprint: load grid")
		}

		tile := g.Tile(id)
		if tile == nil {
			return eris.Errorf("footprint: tile %s not found in %s grid", id, name)
		}

		out, err := wkt.Marshal(tile.Geom)
		if err != nil {
			return eris.Wrapf(err, "footprint: encode tile %s", id)
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	footprintCmd.Flags().String("pathrow", "", "WRS path/row ID, e.g. 014031")
	footprintCmd.Flags().String("mgrs", "", "MGRS 100km tile ID, e.g. 18TUR")
	rootCmd.AddCommand(footprintCmd)
}
