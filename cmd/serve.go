package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/wscullen/landsat-downloader/internal/grid"
	"github.com/wscullen/landsat-downloader/internal/lookup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lookup store over HTTP",
	Long: `Starts an HTTP server over a previously built lookup store.

  GET /health
  GET /builds
  GET /lookup/{pathrow}           MGRS tiles for a path/row (latest build)
  GET /footprint/{grid}/{id}      tile geometry as GeoJSON (grid: wrs|mgrs)`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := lookup.NewStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := store.Migrate(ctx); err != nil {
			return err
		}

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /builds", func(w http.ResponseWriter, r *http.Request) {
			builds, err := store.ListBuilds(r.Context(), 100)
			if err != nil {
				zap.L().Error("list builds failed", zap.Error(err))
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, builds)
		})

		mux.HandleFunc("GET /lookup/{pathrow}", func(w http.ResponseWriter, r *http.Request) {
			pathrow := r.PathValue("pathrow")
			mgrs, err := store.Lookup(r.Context(), "", pathrow)
			if err != nil {
				zap.L().Error("lookup failed", zap.String("pathrow", pathrow), zap.Error(err))
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			if mgrs == nil {
				http.Error(w, `{"error":"pathrow not found"}`, http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"pathrow": pathrow, "mgrs": mgrs})
		})

		mux.HandleFunc("GET /footprint/{grid}/{id}", footprintHandler())

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("lookup server listening", zap.Int("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return eris.Wrap(err, "serve")
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "serve: shutdown")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// footprintHandler serves tile geometries as GeoJSON, loading each grid
// once on first use.
func footprintHandler() http.HandlerFunc {
	var mu sync.Mutex
	grids := map[string]*grid.Grid{}

	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("grid")
		id := r.PathValue("id")

		mu.Lock()
		g, ok := grids[name]
		mu.Unlock()
		if !ok {
			var shpPath, idField string
			switch name {
			case "wrs":
				shpPath, idField = cfg.Grids.WRSShapefile, cfg.Grids.WRSIDField
			case "mgrs":
				shpPath, idField = cfg.Grids.MGRSShapefile, cfg.Grids.MGRSIDField
			default:
				http.Error(w, `{"error":"grid must be wrs or mgrs"}`, http.StatusBadRequest)
				return
			}
			var err error
			g, err = grid.ReadGrid(shpPath, idField, name)
			if err != nil {
				zap.L().Error("grid load failed", zap.String("grid", name), zap.Error(err))
				http.Error(w, `{"error":"grid unavailable"}`, http.StatusInternalServerError)
				return
			}
			mu.Lock()
			grids[name] = g
			mu.Unlock()
		}

		tile := g.Tile(id)
		if tile == nil {
			http.Error(w, `{"error":"tile not found"}`, http.StatusNotFound)
			return
		}

		data, err := geojson.Marshal(tile.Geom)
		if err != nil {
			zap.L().Error("geojson encode failed", zap.String("id", id), zap.Error(err))
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
