package config

import (
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variable of every setting, with dashes
// turned into underscores: max-snapshots is read from BTREE_MAX_SNAPSHOTS.
const EnvPrefix = "BTREE"

// Setting keys, which double as flag names.
const (
	KeyLogLevel     = "log-level"
	KeyLogFormat    = "log-format"
	KeyMaxSnapshots = "max-snapshots"
	KeyMetrics      = "metrics"
)

const (
	EnvLogLevel     = "BTREE_LOG_LEVEL"
	EnvLogFormat    = "BTREE_LOG_FORMAT"
	EnvMaxSnapshots = "BTREE_MAX_SNAPSHOTS"
	EnvMetrics      = "BTREE_METRICS"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config holds the settings shared by the CLI commands.
type Config struct {
	LogLevel       string `mapstructure:"log-level"`
	LogFormat      string `mapstructure:"log-format"`
	MaxSnapshots   int    `mapstructure:"max-snapshots"`
	MetricsEnabled bool   `mapstructure:"metrics"`
}

func Default() Config {
	return Config{
		LogLevel:     "warn",
		LogFormat:    FormatConsole,
		MaxSnapshots: 16,
	}
}

// RegisterFlags defines one flag per setting on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String(KeyLogLevel, def.LogLevel, "log level (trace, debug, info, warn, error)")
	fs.String(KeyLogFormat, def.LogFormat, "log format (console or json)")
	fs.Int(KeyMaxSnapshots, def.MaxSnapshots, "snapshots retained before the least recently used is evicted")
	fs.Bool(KeyMetrics, def.MetricsEnabled, "collect metrics and print a summary on exit")
}

// Load resolves the settings from defaults, then BTREE_* environment
// variables, then the flags of fs that were set explicitly. fs may be nil.
func Load(fs *pflag.FlagSet) (Config, error) {
	def := Default()

	v := viper.New()
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyLogFormat, def.LogFormat)
	v.SetDefault(KeyMaxSnapshots, def.MaxSnapshots)
	v.SetDefault(KeyMetrics, def.MetricsEnabled)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return def, errors.Wrap(err, "failed to bind flags")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return def, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case FormatConsole, FormatJSON:
	default:
		return errors.Newf("invalid log format %q: want %s or %s", c.LogFormat, FormatConsole, FormatJSON)
	}
	if c.MaxSnapshots < 1 {
		return errors.Newf("max snapshots must be at least 1, got %d", c.MaxSnapshots)
	}
	return nil
}

// Logger builds the zerolog logger described by c, writing to w.
func (c Config) Logger(w io.Writer) (zerolog.Logger, error) {
	if err := c.Validate(); err != nil {
		return zerolog.Nop(), err
	}

	level, _ := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if c.LogFormat == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
