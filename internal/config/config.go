// Package config loads application configuration from config.yaml and the
// environment, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Grids     GridsConfig     `yaml:"grids" mapstructure:"grids"`
	Intersect IntersectConfig `yaml:"intersect" mapstructure:"intersect"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// GridsConfig locates the grid shapefiles and their ID attributes.
type GridsConfig struct {
	WRSShapefile  string `yaml:"wrs_shapefile" mapstructure:"wrs_shapefile"`
	WRSIDField    string `yaml:"wrs_id_field" mapstructure:"wrs_id_field"`
	MGRSShapefile string `yaml:"mgrs_shapefile" mapstructure:"mgrs_shapefile"`
	MGRSIDField   string `yaml:"mgrs_id_field" mapstructure:"mgrs_id_field"`
}

// IntersectConfig configures the spatial join.
type IntersectConfig struct {
	// BoundaryPolicy is "inclusive" (border touch counts, the default) or
	// "exclusive" (interiors must overlap).
	BoundaryPolicy string `yaml:"boundary_policy" mapstructure:"boundary_policy"`
	Workers        int    `yaml:"workers" mapstructure:"workers"`
}

// StoreConfig configures the SQLite lookup store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the lookup HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LANDSAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("grids.wrs_shapefile", "grid_files/WRS2_descending/WRS2_descending.shp")
	v.SetDefault("grids.wrs_id_field", "PR")
	v.SetDefault("grids.mgrs_shapefile", "grid_files/MGRS_100kmSQ_ID/mgrs_100km.shp")
	v.SetDefault("grids.mgrs_id_field", "MGRS")
	v.SetDefault("intersect.boundary_policy", "inclusive")
	v.SetDefault("intersect.workers", 4)
	v.SetDefault("store.path", "wrs_to_mgrs.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
