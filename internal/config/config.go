package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Dealership DealershipConfig `yaml:"dealership" mapstructure:"dealership"`
	Engine     EngineConfig     `yaml:"engine" mapstructure:"engine"`
	Comps      CompsConfig      `yaml:"comps" mapstructure:"comps"`
	Waterfall  WaterfallConfig  `yaml:"waterfall" mapstructure:"waterfall"`
	Alarm      AlarmConfig      `yaml:"alarm" mapstructure:"alarm"`
	VPIC       VPICConfig       `yaml:"vpic" mapstructure:"vpic"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// DealershipConfig identifies the rooftop used when a request does not name one.
type DealershipConfig struct {
	DefaultID string `yaml:"default_id" mapstructure:"default_id"`
}

// EngineConfig holds the constants of the sale-probability and pricing model.
type EngineConfig struct {
	DefaultMedianDaysToSale float64 `yaml:"default_median_days_to_sale" mapstructure:"default_median_days_to_sale"`
	DefaultDemandScore      float64 `yaml:"default_demand_score" mapstructure:"default_demand_score"`
	DefaultFloorplanAPR     float64 `yaml:"default_floorplan_apr" mapstructure:"default_floorplan_apr"`
	DefaultMinMargin        float64 `yaml:"default_min_margin" mapstructure:"default_min_margin"`
	BaseLambda              float64 `yaml:"base_lambda" mapstructure:"base_lambda"`
	PriceSensitivity        float64 `yaml:"price_sensitivity" mapstructure:"price_sensitivity"`
	InflectionHorizonDays   int     `yaml:"inflection_horizon_days" mapstructure:"inflection_horizon_days"`
	CurveDays               int     `yaml:"curve_days" mapstructure:"curve_days"`
}

// CompsConfig configures the automated comp source.
type CompsConfig struct {
	Provider        string  `yaml:"provider" mapstructure:"provider"`
	MinCount        int     `yaml:"min_count" mapstructure:"min_count"`
	MaxCount        int     `yaml:"max_count" mapstructure:"max_count"`
	DefaultPrice    float64 `yaml:"default_price" mapstructure:"default_price"`
	DefaultMileage  int     `yaml:"default_mileage" mapstructure:"default_mileage"`
	DefaultYear     int     `yaml:"default_year" mapstructure:"default_year"`
	SoldProbability float64 `yaml:"sold_probability" mapstructure:"sold_probability"`
}

// WaterfallRuleConfig is one scheduled price cut.
type WaterfallRuleConfig struct {
	TriggerDay     int     `yaml:"trigger_day" mapstructure:"trigger_day"`
	ReductionPct   float64 `yaml:"reduction_pct" mapstructure:"reduction_pct"`
	MinMarginFloor float64 `yaml:"min_margin_floor" mapstructure:"min_margin_floor"`
}

// WaterfallConfig holds the rules used when a dealership has no saved settings.
type WaterfallConfig struct {
	DefaultRules     []WaterfallRuleConfig `yaml:"default_rules" mapstructure:"default_rules"`
	PriceFloorPolicy string                `yaml:"price_floor_policy" mapstructure:"price_floor_policy"`
}

// AlarmConfig configures the daily floorplan alarm.
type AlarmConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Thresholds []int  `yaml:"thresholds" mapstructure:"thresholds"`
	Hour       int    `yaml:"hour" mapstructure:"hour"`
	Timezone   string `yaml:"timezone" mapstructure:"timezone"`
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// VPICConfig holds NHTSA vPIC API settings.
type VPICConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// BatchConfig configures fleet-wide batch operations.
type BatchConfig struct {
	MaxConcurrentVehicles int `yaml:"max_concurrent_vehicles" mapstructure:"max_concurrent_vehicles"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	TimeoutSecs    int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
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
	v.SetEnvPrefix("INVENTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "inventory.db")
	v.SetDefault("dealership.default_id", "1")
	v.SetDefault("engine.default_median_days_to_sale", 45.0)
	v.SetDefault("engine.default_demand_score", 50.0)
	v.SetDefault("engine.default_floorplan_apr", 6.5)
	v.SetDefault("engine.default_min_margin", 500.0)
	v.SetDefault("engine.base_lambda", 0.035)
	v.SetDefault("engine.price_sensitivity", 0.0015)
	v.SetDefault("engine.inflection_horizon_days", 180)
	v.SetDefault("engine.curve_days", 90)
	v.SetDefault("comps.provider", "mock")
	v.SetDefault("comps.min_count", 8)
	v.SetDefault("comps.max_count", 18)
	v.SetDefault("comps.default_price", 25000.0)
	v.SetDefault("comps.default_mileage", 40000)
	v.SetDefault("comps.default_year", 2022)
	v.SetDefault("comps.sold_probability", 0.4)
	v.SetDefault("waterfall.default_rules", []map[string]any{
		{"trigger_day": 15, "reduction_pct": 3.0, "min_margin_floor": 1500.0},
		{"trigger_day": 30, "reduction_pct": 5.0, "min_margin_floor": 1000.0},
		{"trigger_day": 45, "reduction_pct": 8.0, "min_margin_floor": 500.0},
		{"trigger_day": 60, "reduction_pct": 12.0, "min_margin_floor": 0.0},
	})
	v.SetDefault("waterfall.price_floor_policy", "total_cost")
	v.SetDefault("alarm.enabled", true)
	v.SetDefault("alarm.thresholds", []int{30, 45, 60, 75})
	v.SetDefault("alarm.hour", 6)
	v.SetDefault("alarm.timezone", "America/Chicago")
	v.SetDefault("vpic.base_url", "https://vpic.nhtsa.dot.gov/api/vehicles")
	v.SetDefault("vpic.timeout_secs", 10)
	v.SetDefault("vpic.rate_limit", 5.0)
	v.SetDefault("vpic.max_retries", 3)
	v.SetDefault("batch.max_concurrent_vehicles", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.timeout_secs", 60)
	v.SetDefault("metrics.namespace", "inventory")
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}

	if c.Engine.DefaultMedianDaysToSale <= 0 {
		errs = append(errs, "engine.default_median_days_to_sale must be > 0")
	}
	if c.Engine.DefaultDemandScore < 0 || c.Engine.DefaultDemandScore > 100 {
		errs = append(errs, "engine.default_demand_score must be between 0 and 100")
	}
	if c.Engine.DefaultFloorplanAPR < 0 {
		errs = append(errs, "engine.default_floorplan_apr must be >= 0")
	}
	if c.Engine.InflectionHorizonDays < 1 {
		errs = append(errs, "engine.inflection_horizon_days must be >= 1")
	}
	if c.Engine.CurveDays < 1 {
		errs = append(errs, "engine.curve_days must be >= 1")
	}

	if c.Comps.MinCount < 0 || c.Comps.MaxCount < c.Comps.MinCount {
		errs = append(errs, "comps.max_count must be >= comps.min_count >= 0")
	}

	switch c.Waterfall.PriceFloorPolicy {
	case "total_cost", "wholesale":
	default:
		errs = append(errs, fmt.Sprintf("waterfall.price_floor_policy must be total_cost or wholesale, got %q", c.Waterfall.PriceFloorPolicy))
	}

	if c.Alarm.Hour < 0 || c.Alarm.Hour > 23 {
		errs = append(errs, "alarm.hour must be between 0 and 23")
	}
	for _, t := range c.Alarm.Thresholds {
		if t < 0 {
			errs = append(errs, "alarm.thresholds must be >= 0")
			break
		}
	}

	if c.Batch.MaxConcurrentVehicles < 1 {
		errs = append(errs, "batch.max_concurrent_vehicles must be >= 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
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
