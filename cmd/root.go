package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wscullen/landsat-downloader/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "landsat-grid",
	Short: "WRS-2 / MGRS tiling grid utilities",
	Long: `Utilities for the Landsat WRS-2 path/row grid and the Sentinel-2 MGRS
100km grid: intersect an area of interest against the WRS grid, build the
WRS to MGRS lookup table, query tile footprints, and serve lookups over HTTP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
