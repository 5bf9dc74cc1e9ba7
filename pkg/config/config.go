package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"stockshield"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		TradesTopic  string   `yaml:"trades_topic" default:"venue.trades"`
		EventsTopic  string   `yaml:"events_topic" default:"stockshield.risk_events"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"stockshield-control-plane"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"1000"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"10000"`
			MaxBytes   int           `yaml:"max_bytes" default:"10000000"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"stockshield"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Oracle struct {
		Enabled        bool          `yaml:"enabled"`
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		SnapshotURL    string        `yaml:"snapshot_url"`
		Pairs          []string      `yaml:"pairs"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"15s"`
		SnapshotEvery  time.Duration `yaml:"snapshot_every" default:"30s"`
		MaxRPS         int           `yaml:"max_rps" default:"50"`
		BufferSize     int           `yaml:"buffer_size" default:"2000"`
	} `yaml:"oracle"`
	Market  MarketConfig  `yaml:"market"`
	Fees    FeeConfig     `yaml:"fees"`
	Breaker BreakerConfig `yaml:"breaker"`
	Auction AuctionConfig `yaml:"auction"`
}

// MarketConfig pins the reference market's session calendar. Windows are
// minutes-of-day in the market's local timezone, half-open [start, end).
type MarketConfig struct {
	Timezone string `yaml:"timezone" default:"America/New_York"`
	Sessions struct {
		PreMarketStart  string `yaml:"pre_market_start" default:"04:00"`
		SoftOpenStart   string `yaml:"soft_open_start" default:"09:30"`
		CoreStart       string `yaml:"core_start" default:"09:45"`
		AfterHoursStart string `yaml:"after_hours_start" default:"16:00"`
		OvernightStart  string `yaml:"overnight_start" default:"20:00"`
	} `yaml:"sessions"`
	// Holidays are full-day market closures, "2006-01-02" in market local time.
	Holidays []string `yaml:"holidays"`
}

// FeeConfig holds the dynamic fee tables. Per-regime values must be
// monotonically non-decreasing in session risk; Validate enforces the
// CORE ≤ WEEKEND relation the pricing model depends on.
type FeeConfig struct {
	Alpha float64 `yaml:"alpha" default:"1.0"`
	Beta  float64 `yaml:"beta" default:"1.0"`
	Gamma float64 `yaml:"gamma" default:"0.5"`
	Delta float64 `yaml:"delta" default:"0.5"`

	BaseFeeBps       map[string]float64 `yaml:"base_fee_bps"`
	RegimeMultiplier map[string]float64 `yaml:"regime_multiplier"`
	CapBps           map[string]float64 `yaml:"cap_bps"`
}

// BreakerConfig holds circuit-breaker thresholds and per-level effects.
type BreakerConfig struct {
	OracleStaleAfter  time.Duration `yaml:"oracle_stale_after" default:"60s"`
	MaxPriceDeviation float64       `yaml:"max_price_deviation" default:"0.02"`
	MaxToxicity       float64       `yaml:"max_toxicity" default:"0.7"`
	MaxImbalance      float64       `yaml:"max_imbalance" default:"0.4"`

	// MinDwell keeps a pair at level >=3 for at least this long once entered.
	// Zero (the default) means pure per-evaluation recomputation.
	MinDwell time.Duration `yaml:"min_dwell"`

	// SpreadWidenPct / DepthFactor indexed by level 0..4.
	SpreadWidenPct []float64 `yaml:"spread_widen_pct"`
	DepthFactor    []float64 `yaml:"depth_factor"`
}

// AuctionConfig holds gap-auction protocol constants.
type AuctionConfig struct {
	MinGapThreshold float64       `yaml:"min_gap_threshold" default:"0.005"`
	CommitWindow    time.Duration `yaml:"commit_window" default:"30s"`
	RevealWindow    time.Duration `yaml:"reveal_window" default:"30s"`
	LPCaptureRate   float64       `yaml:"lp_capture_rate" default:"0.70"`
	DecayRatePerMin float64       `yaml:"decay_rate_per_min" default:"0.04"`
	LPPoolShare     float64       `yaml:"lp_pool_share" default:"0.10"`

	// Commit submissions per bidder: token bucket capacity and refill rate.
	CommitBurst  float64 `yaml:"commit_burst" default:"5"`
	CommitPerSec float64 `yaml:"commit_per_sec" default:"1"`
}

// Load reads and parses a YAML configuration file, applying defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	c.applyFeeTableDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ORACLE_API_KEY"); v != "" {
		c.Oracle.APIKey = v
	}
	if v := os.Getenv("ORACLE_PAIRS"); v != "" {
		c.Oracle.Pairs = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		if ok {
			c.Redis.Host = host
			fmt.Sscanf(port, "%d", &c.Redis.Port)
		} else {
			c.Redis.Host = v
		}
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}

	return c, nil
}

var regimeKeys = []string{
	"CORE_SESSION", "SOFT_OPEN", "PRE_MARKET", "AFTER_HOURS",
	"OVERNIGHT", "WEEKEND", "HOLIDAY",
}

// applyFeeTableDefaults fills any fee table the YAML left empty with the
// reference tables.
func (c *Config) applyFeeTableDefaults() {
	if len(c.Fees.BaseFeeBps) == 0 {
		c.Fees.BaseFeeBps = map[string]float64{
			"CORE_SESSION": 10, "SOFT_OPEN": 15, "PRE_MARKET": 20,
			"AFTER_HOURS": 25, "OVERNIGHT": 35, "WEEKEND": 50, "HOLIDAY": 50,
		}
	}
	if len(c.Fees.RegimeMultiplier) == 0 {
		c.Fees.RegimeMultiplier = map[string]float64{
			"CORE_SESSION": 1.0, "SOFT_OPEN": 1.5, "PRE_MARKET": 2.0,
			"AFTER_HOURS": 2.5, "OVERNIGHT": 3.0, "WEEKEND": 4.0, "HOLIDAY": 4.0,
		}
	}
	if len(c.Fees.CapBps) == 0 {
		c.Fees.CapBps = map[string]float64{
			"CORE_SESSION": 100, "SOFT_OPEN": 150, "PRE_MARKET": 200,
			"AFTER_HOURS": 250, "OVERNIGHT": 300, "WEEKEND": 400, "HOLIDAY": 400,
		}
	}
	if len(c.Breaker.SpreadWidenPct) == 0 {
		c.Breaker.SpreadWidenPct = []float64{0, 0.10, 0.25, 0.50, 1.00}
	}
	if len(c.Breaker.DepthFactor) == 0 {
		c.Breaker.DepthFactor = []float64{1.0, 1.0, 0.75, 0.50, 0}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Oracle.Enabled && c.Oracle.WebSocketURL == "" {
		return fmt.Errorf("oracle.websocket_url is required when the oracle feed is enabled")
	}
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("market.timezone: %w", err)
	}
	for _, tbl := range []map[string]float64{c.Fees.BaseFeeBps, c.Fees.RegimeMultiplier, c.Fees.CapBps} {
		for _, k := range regimeKeys {
			if _, ok := tbl[k]; !ok {
				return fmt.Errorf("fee table missing regime %q", k)
			}
		}
	}
	if c.Fees.BaseFeeBps["WEEKEND"] < c.Fees.BaseFeeBps["CORE_SESSION"] ||
		c.Fees.RegimeMultiplier["WEEKEND"] < c.Fees.RegimeMultiplier["CORE_SESSION"] ||
		c.Fees.CapBps["WEEKEND"] < c.Fees.CapBps["CORE_SESSION"] {
		return fmt.Errorf("fee tables must be non-decreasing in session risk")
	}
	if len(c.Breaker.SpreadWidenPct) != 5 || len(c.Breaker.DepthFactor) != 5 {
		return fmt.Errorf("breaker effect tables must have 5 entries (levels 0-4)")
	}
	if c.Auction.LPCaptureRate <= 0 || c.Auction.LPCaptureRate > 1 {
		return fmt.Errorf("auction.lp_capture_rate must be in (0,1]")
	}
	if c.Auction.MinGapThreshold <= 0 {
		return fmt.Errorf("auction.min_gap_threshold must be positive")
	}
	if c.Auction.CommitWindow <= 0 || c.Auction.RevealWindow <= 0 {
		return fmt.Errorf("auction windows must be positive")
	}
	return nil
}
