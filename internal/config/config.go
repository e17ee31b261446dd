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
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Geo    GeoConfig    `yaml:"geo" mapstructure:"geo"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the tabular dataset and the block group boundary files.
type DataConfig struct {
	Dir              string   `yaml:"dir" mapstructure:"dir"`
	CSVFile          string   `yaml:"csv_file" mapstructure:"csv_file"`
	SQLiteTable      string   `yaml:"sqlite_table" mapstructure:"sqlite_table"`
	ShapefileDir     string   `yaml:"shapefile_dir" mapstructure:"shapefile_dir"`
	ShapefilePattern string   `yaml:"shapefile_pattern" mapstructure:"shapefile_pattern"`
	ValidYears       []string `yaml:"valid_years" mapstructure:"valid_years"`
	CityColumn       string   `yaml:"city_column" mapstructure:"city_column"`
}

// GeoConfig tunes boundary loading for geography requests.
type GeoConfig struct {
	CacheEntries    int `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTLMinutes int `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
	LoadConcurrency int `yaml:"load_concurrency" mapstructure:"load_concurrency"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
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
	v.SetEnvPrefix("MISSING_MIDDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.csv_file", "data/nhgis.csv")
	v.SetDefault("data.sqlite_table", "block_groups")
	v.SetDefault("data.shapefile_dir", "data/geojsons")
	v.SetDefault("data.shapefile_pattern", "tl_2020_{fips}_bg20.shp")
	v.SetDefault("data.valid_years", []string{"1990", "2000", "2010", "2020"})
	v.SetDefault("data.city_column", "TOWN")
	v.SetDefault("geo.cache_entries", 32)
	v.SetDefault("geo.cache_ttl_minutes", 60)
	v.SetDefault("geo.load_concurrency", 4)
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)
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

// Validate reports every setting that would prevent the service from
// answering queries.
func (c *Config) Validate() error {
	var problems []string

	if c.Data.CSVFile == "" {
		problems = append(problems, "data.csv_file is required")
	}
	if len(c.Data.ValidYears) == 0 {
		problems = append(problems, "data.valid_years must not be empty")
	}
	if !strings.Contains(c.Data.ShapefilePattern, "{fips}") {
		problems = append(problems, "data.shapefile_pattern must contain {fips}")
	}
	if c.Data.CityColumn == "" {
		problems = append(problems, "data.city_column is required")
	}
	if c.Server.Port <= 0 {
		problems = append(problems, "server.port must be positive")
	}
	if c.Geo.LoadConcurrency <= 0 {
		problems = append(problems, "geo.load_concurrency must be positive")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
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
