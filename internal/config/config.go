package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pior/sonic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	EnvAddr     = "SONIC_ADDR"
	EnvPassword = "SONIC_PASSWORD"
	EnvLogLevel = "SONIC_LOG_LEVEL"

	DefaultAddr = "localhost:1491"
)

// File is the TOML layout of a CLI config file.
//
//	addr = "localhost:1491"
//	password = "SecretPassword"
//	mode = "search"
//	dial_timeout = "2s"
//	timeout = "10s"
//	log_level = "info"
type File struct {
	Addr        string `toml:"addr"`
	Password    string `toml:"password"`
	Mode        string `toml:"mode"`
	DialTimeout string `toml:"dial_timeout"`
	Timeout     string `toml:"timeout"`
	LogLevel    string `toml:"log_level"`
}

// Settings is a validated File.
type Settings struct {
	Addr        string
	Password    string
	Mode        sonic.Mode
	DialTimeout time.Duration
	Timeout     time.Duration // per command, zero means none
	LogLevel    zerolog.Level
}

// Load reads path, applies environment overrides and defaults.
// An empty path skips the file.
func Load(path string) (Settings, error) {
	var f File
	if path != "" {
		if _, err := toml.DecodeFile(path, &f); err != nil {
			return Settings{}, errors.Wrapf(err, "config parse failed (%s)", path)
		}
	}
	applyEnvOverrides(&f)
	return f.settings()
}

// Parse decodes TOML content, for tests and embedded configs.
func Parse(data string) (Settings, error) {
	var f File
	if _, err := toml.Decode(data, &f); err != nil {
		return Settings{}, errors.Wrap(err, "config parse failed")
	}
	return f.settings()
}

func applyEnvOverrides(f *File) {
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		f.Addr = v
	}
	if v, ok := os.LookupEnv(EnvPassword); ok {
		f.Password = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		f.LogLevel = v
	}
}

func (f File) settings() (Settings, error) {
	s := Settings{
		Addr:        f.Addr,
		Password:    f.Password,
		Mode:        sonic.ModeSearch,
		DialTimeout: sonic.DefaultDialTimeout,
		LogLevel:    zerolog.InfoLevel,
	}
	if s.Addr == "" {
		s.Addr = DefaultAddr
	}

	if f.Mode != "" {
		mode, err := sonic.ParseMode(f.Mode)
		if err != nil {
			return Settings{}, errors.Wrap(err, "invalid mode")
		}
		s.Mode = mode
	}

	var err error
	if s.DialTimeout, err = parseDuration(f.DialTimeout, s.DialTimeout); err != nil {
		return Settings{}, errors.Wrap(err, "invalid dial_timeout")
	}
	if s.Timeout, err = parseDuration(f.Timeout, 0); err != nil {
		return Settings{}, errors.Wrap(err, "invalid timeout")
	}

	if f.LogLevel != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(f.LogLevel))
		if err != nil {
			return Settings{}, errors.Wrap(err, "invalid log_level")
		}
		s.LogLevel = lvl
	}
	return s, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.Errorf("negative duration %s", raw)
	}
	return d, nil
}

// Channel returns the channel config for s.
func (s Settings) Channel(logger *zerolog.Logger) sonic.Config {
	return sonic.Config{
		Addr:        s.Addr,
		Password:    s.Password,
		DialTimeout: s.DialTimeout,
		Logger:      logger,
	}
}

// NewLogger returns a console logger on stderr at s.LogLevel.
func (s Settings) NewLogger() *zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(s.LogLevel).
		With().Timestamp().Logger()
	return &logger
}
