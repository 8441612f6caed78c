// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Recorder RecorderConfig `mapstructure:"recorder" yaml:"recorder"`
	Classify ClassifyConfig `mapstructure:"classify" yaml:"classify"`
	Codegen  CodegenConfig  `mapstructure:"codegen" yaml:"codegen"`
	Platform PlatformConfig `mapstructure:"platform" yaml:"platform"`
	// Workspace is the directory that receives generated bundles and
	// the page/locator registries.
	Workspace string `mapstructure:"workspace" yaml:"workspace"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the attached browser instance.
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath        string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserDataDir     string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	IgnoreTLSErrors bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string      `mapstructure:"args" yaml:"args"`
	NavigateTimeout time.Duration `mapstructure:"navigate_timeout" yaml:"navigate_timeout"`
}

// RecorderConfig tunes the recording engine and the event capture layer.
type RecorderConfig struct {
	// InputDebounce is the quiet window before a typed value is reported
	// as one fill step instead of one step per keystroke.
	InputDebounce time.Duration `mapstructure:"input_debounce" yaml:"input_debounce"`
	// EventBuffer is the capacity of the capture-to-engine channel.
	// Events beyond it are dropped and counted, never blocked on.
	EventBuffer int `mapstructure:"event_buffer" yaml:"event_buffer"`
	// NavLeftEdgePx is the spatial fallback for navigation-pane
	// membership: elements whose left edge sits inside this many pixels
	// are treated as part of the pane when no structural marker matched.
	NavLeftEdgePx int `mapstructure:"nav_left_edge_px" yaml:"nav_left_edge_px"`
	// MaxTextLength bounds visible-text locators for general elements;
	// NavMinTextLength is the relaxed lower bound inside the nav pane.
	MaxTextLength    int `mapstructure:"max_text_length" yaml:"max_text_length"`
	NavMinTextLength int `mapstructure:"nav_min_text_length" yaml:"nav_min_text_length"`
	// PreviewInterval throttles the regenerated code preview emitted
	// during a live session.
	PreviewInterval time.Duration `mapstructure:"preview_interval" yaml:"preview_interval"`
}

// ClassifyConfig tunes the page classifier.
type ClassifyConfig struct {
	// ReadTimeout bounds every live DOM read (URL, title, breadcrumbs,
	// caption candidates). A timeout classifies as unknown, never fails.
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	// FuzzThreshold is the maximum normalized Levenshtein distance for a
	// breadcrumb still considered a match against the pattern table.
	FuzzThreshold float64 `mapstructure:"fuzz_threshold" yaml:"fuzz_threshold"`
}

// CodegenConfig tunes the code generator.
type CodegenConfig struct {
	// StabilizationWait is the generated pause after heavy actions.
	StabilizationWait time.Duration `mapstructure:"stabilization_wait" yaml:"stabilization_wait"`
	// TestName overrides the derived spec title.
	TestName string `mapstructure:"test_name" yaml:"test_name"`
}

// PlatformConfig selects and extends the target-platform heuristics.
type PlatformConfig struct {
	// Name selects the built-in platform capability set.
	Name string `mapstructure:"name" yaml:"name"`
	// Overlay optionally points to a YAML file whose pattern-table rows
	// and marker lists are appended to the built-in set.
	Overlay string `mapstructure:"overlay" yaml:"overlay"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "scribe")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigate_timeout", "90s")

	// -- Recorder --
	v.SetDefault("recorder.input_debounce", "800ms")
	v.SetDefault("recorder.event_buffer", 256)
	v.SetDefault("recorder.nav_left_edge_px", 60)
	v.SetDefault("recorder.max_text_length", 80)
	v.SetDefault("recorder.nav_min_text_length", 3)
	v.SetDefault("recorder.preview_interval", "2s")

	// -- Classifier --
	v.SetDefault("classify.read_timeout", "3s")
	v.SetDefault("classify.fuzz_threshold", 0.2)

	// -- Codegen --
	v.SetDefault("codegen.stabilization_wait", "2s")

	// -- Platform --
	v.SetDefault("platform.name", "dynamics")

	v.SetDefault("workspace", "./scribe-out")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with the static defaults above.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a validated configuration from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Recorder.InputDebounce <= 0 {
		return fmt.Errorf("recorder.input_debounce must be a positive duration")
	}
	if c.Recorder.EventBuffer <= 0 {
		return fmt.Errorf("recorder.event_buffer must be a positive integer")
	}
	if c.Recorder.NavLeftEdgePx < 0 {
		return fmt.Errorf("recorder.nav_left_edge_px must not be negative")
	}
	if c.Recorder.MaxTextLength <= 0 {
		return fmt.Errorf("recorder.max_text_length must be a positive integer")
	}
	if c.Classify.ReadTimeout <= 0 {
		return fmt.Errorf("classify.read_timeout must be a positive duration")
	}
	if c.Classify.FuzzThreshold < 0 || c.Classify.FuzzThreshold > 1 {
		return fmt.Errorf("classify.fuzz_threshold must be between 0.0 and 1.0")
	}
	if c.Platform.Name == "" {
		return fmt.Errorf("platform.name is a required configuration field")
	}
	if c.Workspace == "" {
		return fmt.Errorf("workspace is a required configuration field")
	}
	return nil
}
