// Package config loads karabologd's YAML configuration file and
// applies KARABO_*-prefixed environment variable overrides, grounded
// in the teacher's cobra PersistentFlags/OnInitialize wiring
// (cmd/warren/main.go) but reading a structured file instead of flags
// alone, since this module's slot surface needs more configuration
// than the teacher's CLI ever carried.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/karabo-go/karabologd/pkg/backendclient"
	"github.com/karabo-go/karabologd/pkg/datalogger"
	"github.com/karabo-go/karabologd/pkg/log"
	"github.com/karabo-go/karabologd/pkg/manager"
	"github.com/karabo-go/karabologd/pkg/security"
	"gopkg.in/yaml.v3"
)

// InfluxDataLogger mirrors the config keys named verbatim in
// SPEC_FULL.md §3 and spec.md §6, reproduced from
// original_source/src/integrationTests/testDataLogging.cc.
type InfluxDataLogger struct {
	URLWrite string `yaml:"urlWrite"`
	URLRead  string `yaml:"urlRead"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`

	// PasswordEncrypted holds Password as base64-encoded
	// AES-256-GCM ciphertext (see pkg/security.CredentialsManager)
	// instead of plaintext. Mutually exclusive with Password.
	PasswordEncrypted string `yaml:"passwordEncrypted"`

	MaxVectorSize      int `yaml:"maxVectorSize"`
	MaxValueStringSize int `yaml:"maxStringLength"`

	MaxPerDevicePropLogRateKB int           `yaml:"maxPerDevicePropLogRate"`
	PropLogRatePeriodSec      int           `yaml:"propLogRatePeriod"`
	MaxSchemaLogRateKB        int           `yaml:"maxSchemaLogRate"`
	SchemaLogRatePeriodSec    int           `yaml:"schemaLogRatePeriod"`
	SafeSchemaRetentionYears  float64       `yaml:"safeSchemaRetentionPeriod"`
}

// Config is the top-level karabologd configuration, loadable as one
// YAML file shared by all three run modes (manager/logger/reader);
// each mode reads only the fields it needs.
type Config struct {
	ServerList    []string `yaml:"serverList"`
	LoggerMapPath string   `yaml:"loggerMapPath"`

	// LoggerAddrs maps a logger server ID (as used in serverList and
	// loggermap.xml) to the gRPC slot-surface address of the process
	// running it, e.g. "logger-a: localhost:7071". The Logger Manager
	// uses this to reach across process boundaries for the
	// reconciler's staleness probe; the Data Logger and Log Reader
	// roles never read it.
	LoggerAddrs map[string]string `yaml:"loggerAddrs"`

	FlushIntervalSec int `yaml:"flushInterval"`

	InfluxDataLogger InfluxDataLogger `yaml:"influxDataLogger"`

	FarFutureToleranceSec  int     `yaml:"farFutureTolerance"`
	WallTimeSwitchFactor   float64 `yaml:"wallTimeSwitchFactor"`
	WallTimeRecoveryStreak int     `yaml:"wallTimeRecoveryStreak"`

	BadDataRingCapacity int `yaml:"badDataRingCapacity"`

	LogLevel  string `yaml:"logLevel"`
	LogJSON   bool   `yaml:"logJSON"`
	MetricsAddr string `yaml:"metricsAddr"`

	// EncryptionPassphrase derives the AES-256-GCM key used by
	// pkg/security to decrypt InfluxDataLogger.PasswordEncrypted; the
	// user name is never encrypted.
	// Only ever sourced from KARABO_ENCRYPTION_PASSPHRASE; never read
	// from the YAML file itself.
	EncryptionPassphrase string `yaml:"-"`
}

// Load reads path as YAML, applies KARABO_* environment overrides and
// fills in defaults for anything left unset.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.EncryptionPassphrase == "" {
		cfg.EncryptionPassphrase = os.Getenv("KARABO_ENCRYPTION_PASSPHRASE")
	}

	return cfg, nil
}

// Default returns a Config carrying the same defaults spec.md §6
// documents for each option.
func Default() *Config {
	return &Config{
		LoggerMapPath:    "./loggermap.xml",
		FlushIntervalSec: 1,
		InfluxDataLogger: InfluxDataLogger{
			MaxVectorSize:             1 << 20,
			MaxValueStringSize:        8192,
			MaxPerDevicePropLogRateKB: 1024,
			PropLogRatePeriodSec:      10,
			MaxSchemaLogRateKB:        1024,
			SchemaLogRatePeriodSec:    10,
			SafeSchemaRetentionYears:  2,
		},
		FarFutureToleranceSec:  120,
		WallTimeSwitchFactor:   1,
		WallTimeRecoveryStreak: 10,
		BadDataRingCapacity:    1024,
		LogLevel:               "info",
		MetricsAddr:            "127.0.0.1:9090",
	}
}

// applyEnvOverrides walks a fixed list of KARABO_*-prefixed
// environment variables, matching the teacher's preference for
// explicit flag/env wiring over a reflection-driven loader.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KARABO_SERVER_LIST"); v != "" {
		cfg.ServerList = strings.Split(v, ",")
	}
	if v := os.Getenv("KARABO_LOGGER_MAP_PATH"); v != "" {
		cfg.LoggerMapPath = v
	}
	if v := os.Getenv("KARABO_FLUSH_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FlushIntervalSec = n
		}
	}
	if v := os.Getenv("KARABO_INFLUX_URL_WRITE"); v != "" {
		cfg.InfluxDataLogger.URLWrite = v
	}
	if v := os.Getenv("KARABO_INFLUX_URL_READ"); v != "" {
		cfg.InfluxDataLogger.URLRead = v
	}
	if v := os.Getenv("KARABO_INFLUX_USER"); v != "" {
		cfg.InfluxDataLogger.User = v
	}
	if v := os.Getenv("KARABO_INFLUX_PASSWORD"); v != "" {
		cfg.InfluxDataLogger.Password = v
	}
	if v := os.Getenv("KARABO_INFLUX_DBNAME"); v != "" {
		cfg.InfluxDataLogger.DBName = v
	}
	if v := os.Getenv("KARABO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("KARABO_LOG_JSON"); v != "" {
		cfg.LogJSON = v == "true" || v == "1"
	}
	if v := os.Getenv("KARABO_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("KARABO_LOGGER_ADDRS"); v != "" {
		cfg.LoggerAddrs = parseLoggerAddrs(v)
	}
}

// parseLoggerAddrs parses a "id=addr,id=addr" list into a map,
// skipping malformed entries rather than failing configuration load
// over one typo'd pair.
func parseLoggerAddrs(v string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		id, addr, ok := strings.Cut(pair, "=")
		if !ok || id == "" || addr == "" {
			continue
		}
		out[id] = addr
	}
	return out
}

// LogConfig builds the pkg/log.Config this process should initialize
// logging with.
func (c *Config) LogConfig() log.Config {
	return log.Config{
		Level:      log.Level(c.LogLevel),
		JSONOutput: c.LogJSON,
	}
}

// ManagerConfig builds the manager.Config for the Logger Manager role.
func (c *Config) ManagerConfig() manager.Config {
	return manager.Config{
		LoggerMapPath: c.LoggerMapPath,
		ServerList:    c.ServerList,
	}
}

// BackendConfigs builds the write and read backendclient.Config pairs
// for the Backend Client. If InfluxDataLogger.PasswordEncrypted is set,
// it is decrypted with a key derived from c.EncryptionPassphrase via
// pkg/security; otherwise the plaintext Password field is used as-is.
func (c *Config) BackendConfigs(timeout time.Duration) (write, read backendclient.Config, err error) {
	password := c.InfluxDataLogger.Password
	if c.InfluxDataLogger.PasswordEncrypted != "" {
		password, err = c.decryptPassword()
		if err != nil {
			return backendclient.Config{}, backendclient.Config{}, err
		}
	}

	write = backendclient.Config{
		URL:      c.InfluxDataLogger.URLWrite,
		User:     c.InfluxDataLogger.User,
		Password: password,
		DBName:   c.InfluxDataLogger.DBName,
		Timeout:  timeout,
	}
	read = write
	read.URL = c.InfluxDataLogger.URLRead
	return write, read, nil
}

func (c *Config) decryptPassword() (string, error) {
	if c.EncryptionPassphrase == "" {
		return "", fmt.Errorf("influxDataLogger.passwordEncrypted is set but KARABO_ENCRYPTION_PASSPHRASE is empty")
	}
	cm, err := security.NewCredentialsManagerFromPassphrase(c.EncryptionPassphrase)
	if err != nil {
		return "", fmt.Errorf("build credentials manager: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(c.InfluxDataLogger.PasswordEncrypted)
	if err != nil {
		return "", fmt.Errorf("decode passwordEncrypted: %w", err)
	}
	return cm.DecryptString(ciphertext)
}

// DataLoggerConfig builds the datalogger.Config for a single Data
// Logger instance bound to loggerServerID.
func (c *Config) DataLoggerConfig(loggerServerID string) datalogger.Config {
	d := c.InfluxDataLogger
	return datalogger.Config{
		LoggerServerID:            loggerServerID,
		FlushInterval:             time.Duration(c.FlushIntervalSec) * time.Second,
		MaxVectorSize:             d.MaxVectorSize,
		MaxValueStringSize:        d.MaxValueStringSize,
		MaxPerDevicePropLogRate:   d.MaxPerDevicePropLogRateKB * 1024,
		PropLogRatePeriod:         time.Duration(d.PropLogRatePeriodSec) * time.Second,
		MaxSchemaLogRate:          d.MaxSchemaLogRateKB * 1024,
		SchemaLogRatePeriod:       time.Duration(d.SchemaLogRatePeriodSec) * time.Second,
		SafeSchemaRetentionPeriod: time.Duration(d.SafeSchemaRetentionYears * float64(365*24) * float64(time.Hour)),
		FarFutureTolerance:        time.Duration(c.FarFutureToleranceSec) * time.Second,
		WallTimeSwitchFactor:      c.WallTimeSwitchFactor,
		WallTimeRecoveryStreak:    c.WallTimeRecoveryStreak,
		BadDataRingCapacity:       c.BadDataRingCapacity,
	}
}
