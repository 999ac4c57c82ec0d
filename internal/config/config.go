package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/twquant/internal/backtest"
	"github.com/newthinker/twquant/internal/core"
	"github.com/newthinker/twquant/internal/screener"
	"github.com/spf13/viper"
)

type Config struct {
	Logging   LoggingConfig             `mapstructure:"logging"`
	Storage   StorageConfig             `mapstructure:"storage"`
	Collector CollectorConfig           `mapstructure:"collector"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
	Signals   SignalsConfig             `mapstructure:"signals"`

	// Rule sections
	Backtest     BacktestConfig     `mapstructure:"backtest"`
	Entry        EntryConfig        `mapstructure:"entry"`
	Exit         ExitConfig         `mapstructure:"exit"`
	Fundamentals FundamentalsConfig `mapstructure:"fundamentals"`
	Technicals   TechnicalsConfig   `mapstructure:"technicals"`
	Exclude      ExcludeConfig      `mapstructure:"exclude"`
	SelectCount  string             `mapstructure:"select_count"` // "3-5" or "5"
	RulesVersion string             `mapstructure:"version"`
	Universe     []UniverseItem     `mapstructure:"universe"`
}

type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

type StorageConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type CollectorConfig struct {
	Source       string        `mapstructure:"source"` // "yahoo" or "csv"
	CSVDir       string        `mapstructure:"csv_dir"`
	HistoryYears int           `mapstructure:"history_years"`
	Cache        bool          `mapstructure:"cache"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Workers      int           `mapstructure:"workers"`
}

type NotifierConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	BotToken string            `mapstructure:"bot_token"` // telegram
	ChatID   string            `mapstructure:"chat_id"`   // telegram
	URL      string            `mapstructure:"url"`       // webhook
	Headers  map[string]string `mapstructure:"headers"`   // webhook
}

// SignalsConfig selects the live strategies run by the signals command.
type SignalsConfig struct {
	Strategies    []string          `mapstructure:"strategies"`
	MinConfidence float64           `mapstructure:"min_confidence"`
	Cooldown      time.Duration     `mapstructure:"cooldown"`
	MACrossover   MACrossoverConfig `mapstructure:"ma_crossover"`
}

type MACrossoverConfig struct {
	FastPeriod int `mapstructure:"fast_period"`
	SlowPeriod int `mapstructure:"slow_period"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Textfile string `mapstructure:"textfile"`
}

// BacktestConfig holds account and cost settings.
type BacktestConfig struct {
	CommissionRate float64 `mapstructure:"commission_rate"`
	TaxRate        float64 `mapstructure:"tax_rate"`
	InitialCapital float64 `mapstructure:"initial_capital"`
	PositionSize   float64 `mapstructure:"position_size"`
	Benchmark      string  `mapstructure:"benchmark"`
}

// EntryConfig holds the RSI rebound entry parameters.
type EntryConfig struct {
	RSIPeriod   int     `mapstructure:"rsi_period"`
	RSIOversold float64 `mapstructure:"rsi_oversold"`
	MAPeriod    int     `mapstructure:"ma_period"`
	LotSize     int64   `mapstructure:"lot_size"`
}

// ExitConfig holds exit thresholds.
type ExitConfig struct {
	TakeProfit    float64 `mapstructure:"take_profit"`
	StopLoss      float64 `mapstructure:"stop_loss"`
	RSIOverbought float64 `mapstructure:"rsi_overbought"`
	TrailingStop  float64 `mapstructure:"trailing_stop"`
}

type FundamentalsConfig struct {
	MinMarketCapBillion float64   `mapstructure:"min_market_cap_tw_billion"`
	PERatio             RangeRule `mapstructure:"pe_ratio"`
}

type TechnicalsConfig struct {
	AboveMA         []int     `mapstructure:"above_ma"`
	RSI14           RangeRule `mapstructure:"rsi_14"`
	MinAvgVolume20d float64   `mapstructure:"min_avg_volume_20d"` // board lots
}

// RangeRule is an inclusive [Min, Max] band.
type RangeRule struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

type ExcludeConfig struct {
	Symbols []string `mapstructure:"symbols"`
	Sectors []string `mapstructure:"sectors"`
}

type UniverseItem struct {
	Symbol string `mapstructure:"symbol"`
	Name   string `mapstructure:"name"`
}

// Load reads configuration from file. Keys absent from the file keep their
// Defaults() value.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	rules := backtest.DefaultRules()
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Type: "localfs",
			Path: "./data",
		},
		Collector: CollectorConfig{
			Source:       "yahoo",
			HistoryYears: 3,
			Cache:        true,
			Timeout:      10 * time.Second,
			Workers:      4,
		},
		Notifiers: map[string]NotifierConfig{},
		Metrics: MetricsConfig{
			Enabled: false,
		},
		Signals: SignalsConfig{
			Strategies:    []string{"rsi_rebound"},
			MinConfidence: 0.5,
			Cooldown:      72 * time.Hour,
			MACrossover: MACrossoverConfig{
				FastPeriod: 20,
				SlowPeriod: 60,
			},
		},
		Backtest: BacktestConfig{
			CommissionRate: rules.CommissionRate,
			TaxRate:        rules.TaxRate,
			InitialCapital: rules.InitialCapital,
			PositionSize:   rules.PositionSize,
			Benchmark:      "^TWII",
		},
		Entry: EntryConfig{
			RSIPeriod:   rules.RSIPeriod,
			RSIOversold: rules.RSIOversold,
			MAPeriod:    rules.MAPeriod,
			LotSize:     rules.LotSize,
		},
		Exit: ExitConfig{
			TakeProfit:    rules.TakeProfit,
			StopLoss:      rules.StopLoss,
			RSIOverbought: rules.RSIOverbought,
			TrailingStop:  rules.TrailingStop,
		},
		Fundamentals: FundamentalsConfig{
			MinMarketCapBillion: 50,
			PERatio:             RangeRule{Min: 0, Max: 999},
		},
		Technicals: TechnicalsConfig{
			AboveMA:         []int{60},
			RSI14:           RangeRule{Min: 0, Max: 100},
			MinAvgVolume20d: 1000,
		},
		SelectCount:  "3-5",
		RulesVersion: "v1.0",
		Universe:     DefaultUniverse(),
	}
}

// BacktestRules assembles the simulator rule set.
func (c *Config) BacktestRules() backtest.Rules {
	return backtest.Rules{
		CommissionRate: c.Backtest.CommissionRate,
		TaxRate:        c.Backtest.TaxRate,
		InitialCapital: c.Backtest.InitialCapital,
		PositionSize:   c.Backtest.PositionSize,
		LotSize:        c.Entry.LotSize,
		RSIPeriod:      c.Entry.RSIPeriod,
		RSIOversold:    c.Entry.RSIOversold,
		MAPeriod:       c.Entry.MAPeriod,
		TakeProfit:     c.Exit.TakeProfit,
		StopLoss:       c.Exit.StopLoss,
		RSIOverbought:  c.Exit.RSIOverbought,
		TrailingStop:   c.Exit.TrailingStop,
	}
}

// ScreenRules assembles the screener rule set. An invalid select_count
// falls back to the screener default; Validate reports it.
func (c *Config) ScreenRules() screener.Rules {
	rules := screener.DefaultRules()
	rules.MinMarketCapBillion = c.Fundamentals.MinMarketCapBillion
	rules.PEMin = c.Fundamentals.PERatio.Min
	rules.PEMax = c.Fundamentals.PERatio.Max
	rules.AboveMA = c.Technicals.AboveMA
	rules.RSIMin = c.Technicals.RSI14.Min
	rules.RSIMax = c.Technicals.RSI14.Max
	rules.MinAvgVolumeLots = c.Technicals.MinAvgVolume20d
	rules.ExcludeSymbols = c.Exclude.Symbols
	rules.ExcludeSectors = c.Exclude.Sectors
	if n, err := c.MaxSelect(); err == nil {
		rules.MaxSelect = n
	}
	return rules
}

// MaxSelect is the upper bound of select_count ("3-5" selects up to 5).
func (c *Config) MaxSelect() (int, error) {
	s := strings.TrimSpace(c.SelectCount)
	if i := strings.LastIndex(s, "-"); i >= 0 {
		s = s[i+1:]
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("select_count must be N or MIN-MAX, got %q", c.SelectCount))
	}
	return n, nil
}

// UniverseSymbols lists the configured symbols in order.
func (c *Config) UniverseSymbols() []string {
	out := make([]string, len(c.Universe))
	for i, u := range c.Universe {
		out[i] = u.Symbol
	}
	return out
}

// NameOf returns the configured display name of symbol, or the symbol.
func (c *Config) NameOf(symbol string) string {
	for _, u := range c.Universe {
		if u.Symbol == symbol && u.Name != "" {
			return u.Name
		}
	}
	return symbol
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.BacktestRules().Validate(); err != nil {
		return err
	}

	if _, err := c.MaxSelect(); err != nil {
		return err
	}

	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.path required for localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.s3.bucket required for s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type %q", c.Storage.Type))
	}

	switch c.Collector.Source {
	case "yahoo":
	case "csv":
		if c.Collector.CSVDir == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("collector.csv_dir required when source is csv"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown collector source %q", c.Collector.Source))
	}

	if tg, ok := c.Notifiers["telegram"]; ok && tg.Enabled {
		if tg.BotToken == "" || tg.ChatID == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("telegram bot_token and chat_id required when enabled"))
		}
	}

	if wh, ok := c.Notifiers["webhook"]; ok && wh.Enabled && wh.URL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("webhook url required when enabled"))
	}

	for _, name := range c.Signals.Strategies {
		switch name {
		case "rsi_rebound":
		case "ma_crossover":
			mc := c.Signals.MACrossover
			if mc.FastPeriod <= 0 || mc.SlowPeriod <= mc.FastPeriod {
				return core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("ma_crossover needs 0 < fast_period < slow_period, got %d/%d", mc.FastPeriod, mc.SlowPeriod))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown strategy %q", name))
		}
	}

	if c.Metrics.Enabled && c.Metrics.Textfile == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("metrics.textfile required when metrics are enabled"))
	}

	return nil
}
