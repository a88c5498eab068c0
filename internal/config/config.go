package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "SIGNAL"
	// EnvConfigFile names an optional YAML file layered over the defaults.
	EnvConfigFile = "SIGNAL_CONFIG"
)

type Config struct {
	Port       int           `mapstructure:"port"`
	WSPath     string        `mapstructure:"ws_path"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendBuffer int           `mapstructure:"send_buffer"`
	LogLevel   string        `mapstructure:"log_level"`
	LogFormat  string        `mapstructure:"log_format"`
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 7080)
	v.SetDefault("ws_path", "/")
	v.SetDefault("static_path", "")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("write_wait", "5s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Load layers defaults, the SIGNAL_CONFIG file, SIGNAL_* env vars and the
// --port flag, in that order. args are the command line without the program name.
func Load(args []string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if file := os.Getenv(EnvConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("signal", pflag.ContinueOnError)
	fs.Int("port", 7080, "port to listen on")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := v.BindPFlag("port", fs.Lookup("port")); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		errs = append(errs, fmt.Errorf("ws_path %q must start with /", c.WSPath))
	}
	if c.ReadLimit <= 0 {
		errs = append(errs, errors.New("read_limit must be positive"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, errors.New("send_buffer must be positive"))
	}
	if c.WriteWait <= 0 {
		errs = append(errs, errors.New("write_wait must be positive"))
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		errs = append(errs, fmt.Errorf("ping_period %s must be positive and below pong_wait %s", c.PingPeriod, c.PongWait))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be console or json", c.LogFormat))
	}
	return errors.Join(errs...)
}
