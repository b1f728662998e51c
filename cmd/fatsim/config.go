package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/weberc2/fatsim/pkg/blockstore"
)

const (
	envVarPrefix = "FATSIM"
	appName      = "fatsim"

	backendFile     = "file"
	backendPostgres = "postgres"
)

type Config struct {
	Image     string                    `envconfig:"FATSIM_IMAGE"      yaml:"image"`
	Blocks    uint32                    `envconfig:"FATSIM_BLOCKS"     yaml:"blocks"`
	Backend   string                    `envconfig:"FATSIM_BACKEND"    yaml:"backend"`
	Volume    string                    `envconfig:"FATSIM_VOLUME"     yaml:"volume"`
	LogLevel  string                    `envconfig:"FATSIM_LOG_LEVEL"  yaml:"logLevel"`
	LogFormat string                    `envconfig:"FATSIM_LOG_FORMAT" yaml:"logFormat"`
	Bucket    string                    `envconfig:"FATSIM_BUCKET"     yaml:"bucket"`
	Region    string                    `envconfig:"FATSIM_REGION"     yaml:"region"`
	Prefix    string                    `envconfig:"FATSIM_PREFIX"     yaml:"prefix"`
	Postgres  blockstore.PostgresParams `                              yaml:"postgres"`
}

func DefaultConfig() Config {
	return Config{
		Image:     "fatsim.img",
		Blocks:    1024,
		Backend:   backendFile,
		LogLevel:  "info",
		LogFormat: "text",
		Prefix:    appName,
		Postgres:  blockstore.DefaultPostgresParams(),
	}
}

func configFilePath() string {
	if configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE"); configFile != "" {
		return configFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".config", appName+".yaml")
}

// LoadConfig layers the config file (if one exists) and then the
// environment over the defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(configFilePath())
}

func loadConfig(configFile string) (*Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling config file: %w", err)
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

func (c *Config) Validate() error {
	if y, e := func() (string, string) {
		if c.Blocks == 0 {
			return "blocks", envVarPrefix + "_BLOCKS"
		}
		if c.Backend == backendFile && c.Image == "" {
			return "image", envVarPrefix + "_IMAGE"
		}
		if c.Backend == backendPostgres && c.Postgres.Host == "" {
			return "postgres.host", "PG_HOST"
		}
		return "", ""
	}(); y != "" {
		return fmt.Errorf("missing required configuration: %s / %s", y, e)
	}
	if c.Backend != backendFile && c.Backend != backendPostgres {
		return fmt.Errorf(
			"invalid configuration: backend `%s`: wanted `%s` or `%s`",
			c.Backend,
			backendFile,
			backendPostgres,
		)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid configuration: logLevel: %w", err)
	}
	return nil
}

// VolumeName names the volume for the postgres backend and for snapshots.
// It defaults to the image file's base name.
func (c *Config) VolumeName() string {
	if c.Volume != "" {
		return c.Volume
	}
	return strings.TrimSuffix(filepath.Base(c.Image), filepath.Ext(c.Image))
}

func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
}
