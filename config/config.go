package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Screener configuration
	Screener ScreenerConfig

	// Market data configuration
	Alpaca AlpacaConfig

	// Gemini configuration
	Gemini GeminiConfig

	// Insight generation configuration
	Insights InsightsConfig

	// Per-ticker analytics configuration
	Analysis AnalysisConfig

	// Report output configuration
	Report ReportConfig

	// Scheduling configuration
	Schedule ScheduleConfig

	// HTTP configuration
	HTTP HTTPConfig
}

// ScreenerConfig holds screener scrape configuration
type ScreenerConfig struct {
	URL            string  // screener URL including the filter expression
	MaxRows        int     // rows kept after filtering (default: 10)
	MaxAbsChange   float64 // reject rows with |percent change| above this (default: 75)
	TimeoutSeconds int     // HTTP timeout for the scrape (default: 20)
}

// AlpacaConfig holds Alpaca market data configuration
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	Feed      string // market data feed: iex or sip (default: iex)
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
	Temperature     float64
}

// InsightsConfig holds batch narrative generation configuration.
// BatchSize and CooldownSeconds trade off against each other: smaller
// batches mean more cooldown intervals per run.
type InsightsConfig struct {
	Mode                  string // live or simulated
	BatchSize             int    // tickers per LLM call (default: 2)
	CooldownSeconds       int    // sleep between successful batches (default: 30)
	MaxRetries            int    // retries per batch on throttling (default: 2)
	InitialBackoffSeconds int    // first throttle backoff (default: 60)
	MaxBackoffSeconds     int    // backoff cap (default: 300)
}

// AnalysisConfig holds indicator and spike detection configuration
type AnalysisConfig struct {
	ExtendedLookbackDays int     // daily history fetched per ticker (default: 730)
	DailyWindowBars      int     // trailing bars rendered in the daily view (default: 252)
	MinDailyBars         int     // minimum daily bars for the long moving average (default: 200)
	RSIPeriod            int     // default: 14
	SpikeWindow          int     // rolling volume average window, bars (default: 5)
	SpikeThreshold       float64 // volume / baseline ratio to qualify (default: 3)
	SpikeTopK            int     // max spike annotations kept (default: 10)
}

// ReportConfig holds report output configuration
type ReportConfig struct {
	OutputDir string // directory for report.html, dated archives, and charts/
}

// ScheduleConfig holds cron scheduling configuration
type ScheduleConfig struct {
	CronSpec   string // default: Saturday 07:00
	RunOnStart bool
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr string
}

// defaultScreenerURL is the stocks-only / high relative volume / gainers
// filter the report was built around.
const defaultScreenerURL = "https://finviz.com/screener.ashx?v=111&f=ind_stocksonly,sh_curvol_o500,sh_price_o1,sh_relvol_o5,ta_change_u"

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Screener: ScreenerConfig{
			URL:            getEnvString("SCREENER_URL", defaultScreenerURL),
			MaxRows:        getEnvInt("SCREENER_MAX_ROWS", 10),
			MaxAbsChange:   getEnvFloat("SCREENER_MAX_ABS_CHANGE", 75),
			TimeoutSeconds: getEnvInt("SCREENER_TIMEOUT_SECONDS", 20),
		},
		Alpaca: AlpacaConfig{
			APIKey:    os.Getenv("ALPACA_API_KEY"),
			APISecret: os.Getenv("ALPACA_API_SECRET"),
			Feed:      getEnvString("ALPACA_FEED", "iex"),
		},
		Gemini: GeminiConfig{
			APIKey:          os.Getenv("GEMINI_API_KEY"),
			Model:           getEnvString("GEMINI_MODEL", "gemini-2.5-flash"),
			MaxOutputTokens: getEnvInt("GEMINI_MAX_OUTPUT_TOKENS", 2048),
			Temperature:     getEnvFloat("GEMINI_TEMPERATURE", 0.4),
		},
		Insights: InsightsConfig{
			Mode:                  getEnvString("INSIGHTS_MODE", "live"),
			BatchSize:             getEnvInt("INSIGHTS_BATCH_SIZE", 2),
			CooldownSeconds:       getEnvInt("INSIGHTS_COOLDOWN_SECONDS", 30),
			MaxRetries:            getEnvInt("INSIGHTS_MAX_RETRIES", 2),
			InitialBackoffSeconds: getEnvInt("INSIGHTS_INITIAL_BACKOFF_SECONDS", 60),
			MaxBackoffSeconds:     getEnvInt("INSIGHTS_MAX_BACKOFF_SECONDS", 300),
		},
		Analysis: AnalysisConfig{
			ExtendedLookbackDays: getEnvInt("ANALYSIS_EXTENDED_LOOKBACK_DAYS", 730),
			DailyWindowBars:      getEnvInt("ANALYSIS_DAILY_WINDOW_BARS", 252),
			MinDailyBars:         getEnvInt("ANALYSIS_MIN_DAILY_BARS", 200),
			RSIPeriod:            getEnvInt("ANALYSIS_RSI_PERIOD", 14),
			SpikeWindow:          getEnvInt("ANALYSIS_SPIKE_WINDOW", 5),
			SpikeThreshold:       getEnvFloat("ANALYSIS_SPIKE_THRESHOLD", 3),
			SpikeTopK:            getEnvInt("ANALYSIS_SPIKE_TOP_K", 10),
		},
		Report: ReportConfig{
			OutputDir: getEnvString("REPORT_OUTPUT_DIR", "reports"),
		},
		Schedule: ScheduleConfig{
			CronSpec:   getEnvString("SCHEDULE_CRON", "0 7 * * 6"),
			RunOnStart: getEnvBool("SCHEDULE_RUN_ON_START", false),
		},
		HTTP: HTTPConfig{
			Addr: getEnvString("HTTP_ADDR", ":8080"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Screener.URL == "" {
		return fmt.Errorf("SCREENER_URL must not be empty")
	}
	if c.Screener.MaxRows <= 0 {
		return fmt.Errorf("SCREENER_MAX_ROWS must be positive, got %d", c.Screener.MaxRows)
	}
	if c.Screener.MaxAbsChange <= 0 {
		return fmt.Errorf("SCREENER_MAX_ABS_CHANGE must be positive, got %.2f", c.Screener.MaxAbsChange)
	}
	if c.Insights.Mode != "live" && c.Insights.Mode != "simulated" {
		return fmt.Errorf("INSIGHTS_MODE must be live or simulated, got %q", c.Insights.Mode)
	}
	if c.Insights.BatchSize <= 0 {
		return fmt.Errorf("INSIGHTS_BATCH_SIZE must be positive, got %d", c.Insights.BatchSize)
	}
	if c.Insights.MaxRetries < 0 {
		return fmt.Errorf("INSIGHTS_MAX_RETRIES must not be negative, got %d", c.Insights.MaxRetries)
	}
	if c.Insights.InitialBackoffSeconds <= 0 {
		return fmt.Errorf("INSIGHTS_INITIAL_BACKOFF_SECONDS must be positive, got %d", c.Insights.InitialBackoffSeconds)
	}
	if c.Insights.MaxBackoffSeconds < c.Insights.InitialBackoffSeconds {
		return fmt.Errorf("INSIGHTS_MAX_BACKOFF_SECONDS (%d) must be >= INSIGHTS_INITIAL_BACKOFF_SECONDS (%d)",
			c.Insights.MaxBackoffSeconds, c.Insights.InitialBackoffSeconds)
	}
	if c.Analysis.DailyWindowBars <= 0 {
		return fmt.Errorf("ANALYSIS_DAILY_WINDOW_BARS must be positive, got %d", c.Analysis.DailyWindowBars)
	}
	if c.Analysis.MinDailyBars <= 0 {
		return fmt.Errorf("ANALYSIS_MIN_DAILY_BARS must be positive, got %d", c.Analysis.MinDailyBars)
	}
	if c.Analysis.SpikeWindow <= 0 {
		return fmt.Errorf("ANALYSIS_SPIKE_WINDOW must be positive, got %d", c.Analysis.SpikeWindow)
	}
	if c.Analysis.SpikeThreshold <= 0 {
		return fmt.Errorf("ANALYSIS_SPIKE_THRESHOLD must be positive, got %.2f", c.Analysis.SpikeThreshold)
	}
	if c.Analysis.SpikeTopK <= 0 {
		return fmt.Errorf("ANALYSIS_SPIKE_TOP_K must be positive, got %d", c.Analysis.SpikeTopK)
	}
	if c.Report.OutputDir == "" {
		return fmt.Errorf("REPORT_OUTPUT_DIR must not be empty")
	}
	return nil
}

// HasAlpaca returns true if Alpaca credentials are available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

// HasGemini returns true if a Gemini API key is available
func (c *Config) HasGemini() bool {
	return c.Gemini.APIKey != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Screener: ScreenerConfig{
			URL:            defaultScreenerURL,
			MaxRows:        10,
			MaxAbsChange:   75,
			TimeoutSeconds: 20,
		},
		Alpaca: AlpacaConfig{
			Feed: "iex",
		},
		Gemini: GeminiConfig{
			Model:           "gemini-2.5-flash",
			MaxOutputTokens: 2048,
			Temperature:     0.4,
		},
		Insights: InsightsConfig{
			Mode:                  "simulated",
			BatchSize:             2,
			CooldownSeconds:       30,
			MaxRetries:            2,
			InitialBackoffSeconds: 60,
			MaxBackoffSeconds:     300,
		},
		Analysis: AnalysisConfig{
			ExtendedLookbackDays: 730,
			DailyWindowBars:      252,
			MinDailyBars:         200,
			RSIPeriod:            14,
			SpikeWindow:          5,
			SpikeThreshold:       3,
			SpikeTopK:            10,
		},
		Report: ReportConfig{
			OutputDir: "reports",
		},
		Schedule: ScheduleConfig{
			CronSpec: "0 7 * * 6",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}
