// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing harness configuration.
// Components depend on this rather than *Config so tests can hand in trimmed-down values.
type Interface interface {
	Logger() LoggerConfig
	App() AppConfig
	Browser() BrowserConfig
	Reports() ReportsConfig
	Audit() AuditConfig
	Visual() VisualConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserDebuggingPort(int)

	// App Setters
	SetAppBaseURL(string)
}

// Config holds the entire harness configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	AppCfg     AppConfig     `mapstructure:"app" yaml:"app"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	ReportsCfg ReportsConfig `mapstructure:"reports" yaml:"reports"`
	AuditCfg   AuditConfig   `mapstructure:"audit" yaml:"audit"`
	VisualCfg  VisualConfig  `mapstructure:"visual" yaml:"visual"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) App() AppConfig         { return c.AppCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Reports() ReportsConfig { return c.ReportsCfg }
func (c *Config) Audit() AuditConfig     { return c.AuditCfg }
func (c *Config) Visual() VisualConfig   { return c.VisualCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)     { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserDebuggingPort(p int) { c.BrowserCfg.DebuggingPort = p }
func (c *Config) SetAppBaseURL(u string)        { c.AppCfg.BaseURL = u }

// LoggerConfig holds all the configuration for the logger.
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

// AppConfig describes the application under test.
type AppConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// BrowserConfig holds settings for the Chrome instances driven by the harness.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	DisableCache      bool           `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors   bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	ActionTimeout     time.Duration  `mapstructure:"action_timeout" yaml:"action_timeout"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ExpectTimeout     time.Duration  `mapstructure:"expect_timeout" yaml:"expect_timeout"`
	// DebuggingPort is only applied to browsers launched for the performance group.
	DebuggingPort int `mapstructure:"debugging_port" yaml:"debugging_port"`
}

// ViewportConfig is the emulated window size.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// ReportsConfig fixes where artifacts live and which pages the aggregators expect.
type ReportsConfig struct {
	AccessibilityDir string   `mapstructure:"accessibility_dir" yaml:"accessibility_dir"`
	PerformanceDir   string   `mapstructure:"performance_dir" yaml:"performance_dir"`
	Pages            []string `mapstructure:"pages" yaml:"pages"`
	TopViolations    int      `mapstructure:"top_violations" yaml:"top_violations"`
	Markdown         bool     `mapstructure:"markdown" yaml:"markdown"`
}

// AuditConfig configures the external analysis engines.
type AuditConfig struct {
	AxeScript     string         `mapstructure:"axe_script" yaml:"axe_script"`
	LighthouseBin string         `mapstructure:"lighthouse_bin" yaml:"lighthouse_bin"`
	FormFactor    string         `mapstructure:"form_factor" yaml:"form_factor"`
	Screen        ScreenConfig   `mapstructure:"screen" yaml:"screen"`
	Timeout       time.Duration  `mapstructure:"timeout" yaml:"timeout"`
	Thresholds    map[string]int `mapstructure:"thresholds" yaml:"thresholds"`
	MaxViolations int            `mapstructure:"max_violations" yaml:"max_violations"`
	MaxCritical   int            `mapstructure:"max_critical" yaml:"max_critical"`
}

// ScreenConfig is the screen emulation handed to Lighthouse.
type ScreenConfig struct {
	Width             int     `mapstructure:"width" yaml:"width"`
	Height            int     `mapstructure:"height" yaml:"height"`
	DeviceScaleFactor float64 `mapstructure:"device_scale_factor" yaml:"device_scale_factor"`
	Mobile            bool    `mapstructure:"mobile" yaml:"mobile"`
}

// VisualConfig configures screenshot comparison.
type VisualConfig struct {
	SnapshotDir  string  `mapstructure:"snapshot_dir" yaml:"snapshot_dir"`
	MaxDiffRatio float64 `mapstructure:"max_diff_ratio" yaml:"max_diff_ratio"`
	Threshold    float64 `mapstructure:"threshold" yaml:"threshold"`
	Update       bool    `mapstructure:"update" yaml:"update"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration parameter.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "scalpel-e2e")
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

	// -- App --
	v.SetDefault("app.base_url", "http://localhost:3000")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_cache", false)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.viewport.width", 1280)
	v.SetDefault("browser.viewport.height", 720)
	v.SetDefault("browser.action_timeout", "10s")
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.expect_timeout", "5s")
	v.SetDefault("browser.debugging_port", 9222)

	// -- Reports --
	v.SetDefault("reports.accessibility_dir", "./accessibility-reports")
	v.SetDefault("reports.performance_dir", "./lighthouse-reports")
	v.SetDefault("reports.pages", []string{"home-page", "login-page", "register-page"})
	v.SetDefault("reports.top_violations", 5)
	v.SetDefault("reports.markdown", false)

	// -- Audit --
	v.SetDefault("audit.axe_script", "./node_modules/axe-core/axe.min.js")
	v.SetDefault("audit.lighthouse_bin", "lighthouse")
	v.SetDefault("audit.form_factor", "desktop")
	v.SetDefault("audit.screen.width", 1920)
	v.SetDefault("audit.screen.height", 1080)
	v.SetDefault("audit.screen.device_scale_factor", 1.0)
	v.SetDefault("audit.screen.mobile", false)
	v.SetDefault("audit.timeout", "3m")
	v.SetDefault("audit.thresholds", map[string]int{
		"performance":   50,
		"accessibility": 50,
		"bestPractices": 50,
		"seo":           50,
	})
	v.SetDefault("audit.max_violations", 25)
	v.SetDefault("audit.max_critical", 2)

	// -- Visual --
	v.SetDefault("visual.snapshot_dir", "./testdata/snapshots")
	v.SetDefault("visual.max_diff_ratio", 0.0)
	v.SetDefault("visual.threshold", 0.2)
	v.SetDefault("visual.update", false)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	v.BindEnv("app.base_url", "SCALPEL_E2E_BASE_URL", "BASE_URL")
	v.BindEnv("visual.update", "SCALPEL_E2E_UPDATE_SNAPSHOTS")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves '~' in every filesystem path the harness reads or writes.
func (c *Config) expandPaths() error {
	paths := []*string{
		&c.ReportsCfg.AccessibilityDir,
		&c.ReportsCfg.PerformanceDir,
		&c.AuditCfg.AxeScript,
		&c.VisualCfg.SnapshotDir,
		&c.LoggerCfg.LogFile,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("could not resolve path '%s': %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.AppCfg.BaseURL, "http://") && !strings.HasPrefix(c.AppCfg.BaseURL, "https://") {
		return fmt.Errorf("app.base_url must be an absolute http(s) URL")
	}
	if c.BrowserCfg.ActionTimeout <= 0 {
		return fmt.Errorf("browser.action_timeout must be a positive duration")
	}
	if c.BrowserCfg.DebuggingPort <= 0 || c.BrowserCfg.DebuggingPort > 65535 {
		return fmt.Errorf("browser.debugging_port must be a valid TCP port")
	}
	if err := c.ReportsCfg.Validate(); err != nil {
		return fmt.Errorf("reports configuration invalid: %w", err)
	}
	if err := c.AuditCfg.Validate(); err != nil {
		return fmt.Errorf("audit configuration invalid: %w", err)
	}
	if c.VisualCfg.MaxDiffRatio < 0 || c.VisualCfg.MaxDiffRatio > 1 {
		return fmt.Errorf("visual.max_diff_ratio must be between 0.0 and 1.0")
	}
	return nil
}

// Validate checks the report layout.
func (r *ReportsConfig) Validate() error {
	if r.AccessibilityDir == "" || r.PerformanceDir == "" {
		return fmt.Errorf("accessibility_dir and performance_dir are required")
	}
	if len(r.Pages) == 0 {
		return fmt.Errorf("pages must list at least one page identifier")
	}
	if r.TopViolations <= 0 {
		return fmt.Errorf("top_violations must be a positive integer")
	}
	return nil
}

// Validate checks the audit engine settings.
func (a *AuditConfig) Validate() error {
	for name, threshold := range a.Thresholds {
		if threshold < 0 || threshold > 100 {
			return fmt.Errorf("threshold %q must be between 0 and 100", name)
		}
	}
	if a.FormFactor != "desktop" && a.FormFactor != "mobile" {
		return fmt.Errorf("form_factor must be 'desktop' or 'mobile'")
	}
	return nil
}
