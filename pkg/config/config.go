// Package config provides profile loading and validation for the
// scapegoat workbench CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Sentinel validation errors.
var (
	ErrInvalidAlpha       = errors.New("alpha must be in the open interval (0.5, 1)")
	ErrInvalidOps         = errors.New("ops must be positive")
	ErrInvalidKeyspace    = errors.New("keyspace must be positive")
	ErrInvalidVerifyEvery = errors.New("verify_every must not be negative")
	ErrInvalidShards      = errors.New("shards must not be negative")
)

// Default profile values.
const (
	defaultAlpha       = 0.65
	defaultOps         = 100000
	defaultSeed        = 1
	defaultKeyspace    = 1 << 20
	defaultVerifyEvery = 1024
)

// Alpha bounds mirrored from the tree constructor, both exclusive.
const (
	minAlpha = 0.5
	maxAlpha = 1.0
)

// Profile holds all parameters of one workbench run.
type Profile struct {
	Stress  StressConfig  `mapstructure:"stress"  yaml:"stress"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// StressConfig holds stress-run parameters.
type StressConfig struct {
	Alpha       float64 `mapstructure:"alpha"        yaml:"alpha"`
	Ops         int     `mapstructure:"ops"          yaml:"ops"`
	Seed        int64   `mapstructure:"seed"         yaml:"seed"`
	Keyspace    uint32  `mapstructure:"keyspace"     yaml:"keyspace"`
	VerifyEvery int     `mapstructure:"verify_every" yaml:"verify_every"`
	Shards      int     `mapstructure:"shards"       yaml:"shards"`
	MetricsAddr string  `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// LoggingConfig holds logging parameters.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads a profile from the given file and the environment. An empty
// path falls back to a profile.yaml in the working directory, if any.
func Load(profilePath string) (*Profile, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if profilePath != "" {
		viperCfg.SetConfigFile(profilePath)
	} else {
		viperCfg.SetConfigName("profile")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
	}

	viperCfg.SetEnvPrefix("SCAPEGOAT")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read profile: %w", readErr)
		}
	}

	var profile Profile

	unmarshalErr := viperCfg.Unmarshal(&profile)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", unmarshalErr)
	}

	validateErr := profile.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid profile: %w", validateErr)
	}

	return &profile, nil
}

// Validate checks the profile for out-of-range values.
func (p *Profile) Validate() error {
	if p.Stress.Alpha <= minAlpha || p.Stress.Alpha >= maxAlpha {
		return fmt.Errorf("%w: %g", ErrInvalidAlpha, p.Stress.Alpha)
	}

	if p.Stress.Ops <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOps, p.Stress.Ops)
	}

	if p.Stress.Keyspace == 0 {
		return fmt.Errorf("%w: %d", ErrInvalidKeyspace, p.Stress.Keyspace)
	}

	if p.Stress.VerifyEvery < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidVerifyEvery, p.Stress.VerifyEvery)
	}

	if p.Stress.Shards < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidShards, p.Stress.Shards)
	}

	return nil
}

// WriteYAML writes the profile as YAML, the same shape Load reads back.
func (p *Profile) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	return enc.Close()
}

func setDefaults(viperCfg *viper.Viper) {
	// Stress defaults.
	viperCfg.SetDefault("stress.alpha", defaultAlpha)
	viperCfg.SetDefault("stress.ops", defaultOps)
	viperCfg.SetDefault("stress.seed", defaultSeed)
	viperCfg.SetDefault("stress.keyspace", defaultKeyspace)
	viperCfg.SetDefault("stress.verify_every", defaultVerifyEvery)
	viperCfg.SetDefault("stress.shards", 0)
	viperCfg.SetDefault("stress.metrics_addr", "")

	// Logging defaults.
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")
}
