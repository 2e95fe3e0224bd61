// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Solver  SolverConfig  `mapstructure:"solver" yaml:"solver"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome instance driven over CDP.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	Debug             bool          `mapstructure:"debug" yaml:"debug"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// SolverConfig carries the fixed timing and matching constants of the solve
// pipeline. These are tunable through the config file for development, but the
// defaults are the contract: changing them changes the handshake behavior.
type SolverConfig struct {
	// TargetURL is the puzzle page the controller navigates to when the
	// trigger arrives on an unrelated page.
	TargetURL string `mapstructure:"target_url" yaml:"target_url"`
	// TargetURLMatch is the substring that identifies a tab as already being
	// on the puzzle page.
	TargetURLMatch string `mapstructure:"target_url_match" yaml:"target_url_match"`
	// PayloadSelector locates the hydration payload element in the document.
	PayloadSelector string `mapstructure:"payload_selector" yaml:"payload_selector"`
	// CellAttribute is the data attribute carrying a cell's target identifier.
	CellAttribute string `mapstructure:"cell_attribute" yaml:"cell_attribute"`

	// MinPayloadLength is the readiness heuristic: the payload element must
	// hold strictly more characters than this before a solve is worth trying.
	MinPayloadLength int `mapstructure:"min_payload_length" yaml:"min_payload_length"`
	// MaxRetries bounds the readiness polling loop.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// InjectSettle is the pause after injecting a fresh agent before it is
	// considered addressable.
	InjectSettle time.Duration `mapstructure:"inject_settle" yaml:"inject_settle"`
	// SendTimeout bounds every message delivery to the agent.
	SendTimeout time.Duration `mapstructure:"send_timeout" yaml:"send_timeout"`
	// NavigationSettle is the pause after a tracked navigation completes
	// before readiness polling starts.
	NavigationSettle time.Duration `mapstructure:"navigation_settle" yaml:"navigation_settle"`
	// RetryDelay is the pause between readiness polling attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	// Pacing is the inter-step delay between replayed cell activations.
	Pacing time.Duration `mapstructure:"pacing" yaml:"pacing"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// Logger defaults.
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "autosolve")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// Browser defaults.
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.navigation_timeout", "90s")

	// Solver defaults. The timing constants are the handshake contract.
	v.SetDefault("solver.target_url", "https://www.linkedin.com/games/zip/")
	v.SetDefault("solver.target_url_match", "linkedin.com/games")
	v.SetDefault("solver.payload_selector", "code")
	v.SetDefault("solver.cell_attribute", "data-cell-idx")
	v.SetDefault("solver.min_payload_length", 100)
	v.SetDefault("solver.max_retries", 10)
	v.SetDefault("solver.inject_settle", "100ms")
	v.SetDefault("solver.send_timeout", "5s")
	v.SetDefault("solver.navigation_settle", "500ms")
	v.SetDefault("solver.retry_delay", "200ms")
	v.SetDefault("solver.pacing", "100ms")
}

// Default returns a Config populated entirely from the defaults.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Unmarshalling pure defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads the configuration from the given file (or the standard lookup
// paths when empty), layers environment variables on top, and unmarshals the
// result.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".autosolve")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("AUTOSOLVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would make the handshake degenerate.
func (c *Config) Validate() error {
	if c.Solver.TargetURL == "" {
		return fmt.Errorf("solver.target_url must not be empty")
	}
	if c.Solver.TargetURLMatch == "" {
		return fmt.Errorf("solver.target_url_match must not be empty")
	}
	if c.Solver.MaxRetries < 1 {
		// The polling loop always performs its attempts before giving up, so
		// a budget below one attempt is meaningless.
		return fmt.Errorf("solver.max_retries must be at least 1")
	}
	if c.Solver.SendTimeout <= 0 {
		return fmt.Errorf("solver.send_timeout must be positive")
	}
	if c.Solver.Pacing <= 0 {
		return fmt.Errorf("solver.pacing must be positive")
	}
	return nil
}
