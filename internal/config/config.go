package config

import (
	"errors"
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/parser/health"
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	parserService "github.com/Avi18971911/DebugLens/internal/parser/service"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Logging       LoggingConfig       `yaml:"logging"`
	Server        ServerConfig        `yaml:"server"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Parser        ParserConfig        `yaml:"parser"`
	Health        health.Thresholds   `yaml:"health"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type ServerConfig struct {
	HTTPAddress string `yaml:"http_address"`
	GRPCAddress string `yaml:"grpc_address"`
}

type ElasticsearchConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Addresses      []string `yaml:"addresses"`
	WriteQueueSize int      `yaml:"write_queue_size"`
}

type PipelineConfig struct {
	Workers int `yaml:"workers"`
	// MaxParseLines is the largest trace given a full parse. Longer traces
	// only get metadata. Zero disables the guard.
	MaxParseLines    int           `yaml:"max_parse_lines"`
	CacheSize        int64         `yaml:"cache_size"`
	GroupingWindow   time.Duration `yaml:"grouping_window"`
	GroupingInterval time.Duration `yaml:"grouping_interval"`
}

type ParserConfig struct {
	SoftFailureMarkers          []string `yaml:"soft_failure_markers"`
	UnresolvedExceptionSeverity string   `yaml:"unresolved_exception_severity"`
}

func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Server: ServerConfig{
			HTTPAddress: ":8081",
			GRPCAddress: ":4317",
		},
		Elasticsearch: ElasticsearchConfig{
			Enabled:        true,
			Addresses:      []string{"http://localhost:9200"},
			WriteQueueSize: 30,
		},
		Pipeline: PipelineConfig{
			Workers:          4,
			MaxParseLines:    500_000,
			CacheSize:        256,
			GroupingWindow:   10 * time.Second,
			GroupingInterval: 30 * time.Second,
		},
		Parser: ParserConfig{
			SoftFailureMarkers: []string{
				string(parserModel.ValidationFail),
				string(parserModel.ValidationError),
				string(parserModel.FlowElementError),
				string(parserModel.FlowElementFault),
			},
			UnresolvedExceptionSeverity: string(parserModel.SeverityUnhandled),
		},
		Health: health.DefaultThresholds(),
	}
}

// Load builds the configuration from the defaults, then the YAML file at path
// when one is given, then environment variables. A .env file in the working
// directory is read into the environment first.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Logging.Level = envStr("DEBUGLENS_LOG_LEVEL", c.Logging.Level)
	c.Server.HTTPAddress = envStr("DEBUGLENS_HTTP_ADDRESS", c.Server.HTTPAddress)
	c.Server.GRPCAddress = envStr("DEBUGLENS_GRPC_ADDRESS", c.Server.GRPCAddress)
	if addresses := envStr("ELASTICSEARCH_ADDRESSES", ""); addresses != "" {
		c.Elasticsearch.Addresses = splitList(addresses)
	}

	var err error
	if c.Logging.Development, err = envBool("DEBUGLENS_DEVELOPMENT", c.Logging.Development); err != nil {
		return err
	}
	if c.Elasticsearch.Enabled, err = envBool("DEBUGLENS_ELASTICSEARCH_ENABLED", c.Elasticsearch.Enabled); err != nil {
		return err
	}
	if c.Pipeline.Workers, err = envInt("DEBUGLENS_WORKERS", c.Pipeline.Workers); err != nil {
		return err
	}
	if c.Pipeline.MaxParseLines, err = envInt("DEBUGLENS_MAX_PARSE_LINES", c.Pipeline.MaxParseLines); err != nil {
		return err
	}
	if c.Pipeline.GroupingWindow, err = envDuration("DEBUGLENS_GROUPING_WINDOW", c.Pipeline.GroupingWindow); err != nil {
		return err
	}
	if markers := envStr("DEBUGLENS_SOFT_FAILURE_MARKERS", ""); markers != "" {
		c.Parser.SoftFailureMarkers = splitList(markers)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Pipeline.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Pipeline.GroupingWindow <= 0 {
		return ErrInvalidWindow
	}
	if c.Elasticsearch.Enabled && len(c.Elasticsearch.Addresses) == 0 {
		return ErrNoAddresses
	}
	switch parserModel.ExceptionSeverity(c.Parser.UnresolvedExceptionSeverity) {
	case parserModel.SeverityHandled, parserModel.SeverityWarning, parserModel.SeverityUnhandled:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSeverity, c.Parser.UnresolvedExceptionSeverity)
	}
	return nil
}

// ParserOptions translates the parser and health sections into the options
// the log parser service is built with.
func (c *Config) ParserOptions() parserService.Options {
	opts := parserService.DefaultOptions()
	markers := make(map[parserModel.EventCode]bool, len(c.Parser.SoftFailureMarkers))
	for _, marker := range c.Parser.SoftFailureMarkers {
		markers[parserModel.EventCode(strings.TrimSpace(marker))] = true
	}
	opts.Tree.SoftFailureMarkers = markers
	opts.Exceptions.UnresolvedSeverity = parserModel.ExceptionSeverity(c.Parser.UnresolvedExceptionSeverity)
	opts.Health = c.Health
	return opts
}

func envStr(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s as an integer: %w", key, err)
	}
	return n, nil
}

func envBool(key string, defaultVal bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s as a boolean: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s as a duration: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

var (
	ErrInvalidWorkers  = errors.New("pipeline workers must be positive")
	ErrInvalidWindow   = errors.New("grouping window must be positive")
	ErrNoAddresses     = errors.New("no elasticsearch addresses configured")
	ErrInvalidSeverity = errors.New("unresolved exception severity must be Handled, Warning or Unhandled")
)
