package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"levelcheck/internal/enrollment"
	"levelcheck/internal/roster"
)

// EnvPrefix namespaces every environment variable, e.g. LEVELCHECK_SERVER_PORT.
const EnvPrefix = "LEVELCHECK"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Upload    UploadConfig    `yaml:"upload" envconfig:"UPLOAD"`
	Roster    RosterConfig    `yaml:"roster" envconfig:"ROSTER"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"10"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/levelcheck.log"`
}

// UploadConfig bounds spreadsheet uploads
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes" envconfig:"MAX_BYTES" default:"10485760"`
}

// RosterConfig maps the enrollment export columns (spreadsheet letters)
type RosterConfig struct {
	FirstNameColumn        string `yaml:"first_name_column" envconfig:"FIRST_NAME_COLUMN" default:"C"`
	LastNameColumn         string `yaml:"last_name_column" envconfig:"LAST_NAME_COLUMN" default:"D"`
	EnrollmentStartColumn  string `yaml:"enrollment_start_column" envconfig:"ENROLLMENT_START_COLUMN" default:"K"`
	LatestAssessmentColumn string `yaml:"latest_assessment_column" envconfig:"LATEST_ASSESSMENT_COLUMN" default:"L"`
}

// ReportConfig holds the level policy and how "today" is determined
type ReportConfig struct {
	LevelUps string `yaml:"level_ups" envconfig:"LEVEL_UPS" default:"6:2,12:3,16:4,24:5"`
	Bands    string `yaml:"bands" envconfig:"BANDS" default:"0:1,6:2,12:3,18:4,24:5"`
	Rounding string `yaml:"rounding" envconfig:"ROUNDING" default:"half-month"`
	Timezone string `yaml:"timezone" envconfig:"TIMEZONE" default:"Local"`
}

// TelemetryConfig controls OpenTelemetry tracing and metrics
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1"`
}

// Load loads configuration from a .env file, environment variables and an
// optional YAML config file. Environment variables win over the file.
func Load() (*Config, error) {
	// A missing .env file is normal outside development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, toggles, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, toggles, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// fileToggles records the booleans a config file sets explicitly. A plain
// bool cannot tell "false" from "absent", and the env defaults are true.
type fileToggles struct {
	Security struct {
		EnableCORS *bool `yaml:"enable_cors"`
		RateLimit  struct {
			Enabled *bool `yaml:"enabled"`
		} `yaml:"rate_limit"`
	} `yaml:"security"`
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, fileToggles, error) {
	var toggles fileToggles

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, toggles, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, toggles, err
	}
	if err := yaml.Unmarshal(data, &toggles); err != nil {
		return nil, toggles, err
	}

	return &cfg, toggles, nil
}

// mergeConfigs takes file values for every setting that was not given
// explicitly in the environment.
func mergeConfigs(fileConfig Config, toggles fileToggles, envConfig Config) Config {
	// Server config
	mergeValue(&envConfig.Server.Port, fileConfig.Server.Port, "SERVER_PORT")
	mergeValue(&envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	mergeValue(&envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	mergeValue(&envConfig.Server.IdleTimeout, fileConfig.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT")
	mergeValue(&envConfig.Server.MaxHeaderBytes, fileConfig.Server.MaxHeaderBytes, "SERVER_MAX_HEADER_BYTES")
	mergeValue(&envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")

	// Security config
	if len(fileConfig.Security.AllowedOrigins) > 0 && !envSet("SECURITY_ALLOWED_ORIGINS") {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	mergeToggle(&envConfig.Security.EnableCORS, toggles.Security.EnableCORS, "SECURITY_ENABLE_CORS")
	mergeToggle(&envConfig.Security.RateLimit.Enabled, toggles.Security.RateLimit.Enabled, "SECURITY_RATE_LIMIT_ENABLED")
	mergeValue(&envConfig.Security.RateLimit.RPS, fileConfig.Security.RateLimit.RPS, "SECURITY_RATE_LIMIT_RPS")
	mergeValue(&envConfig.Security.RateLimit.Burst, fileConfig.Security.RateLimit.Burst, "SECURITY_RATE_LIMIT_BURST")

	// Logging config
	mergeValue(&envConfig.Logging.Level, fileConfig.Logging.Level, "LOGGING_LEVEL")
	mergeValue(&envConfig.Logging.Format, fileConfig.Logging.Format, "LOGGING_FORMAT")
	mergeValue(&envConfig.Logging.Output, fileConfig.Logging.Output, "LOGGING_OUTPUT")
	mergeValue(&envConfig.Logging.FilePath, fileConfig.Logging.FilePath, "LOGGING_FILE_PATH")

	// Upload config
	mergeValue(&envConfig.Upload.MaxBytes, fileConfig.Upload.MaxBytes, "UPLOAD_MAX_BYTES")

	// Roster config
	mergeValue(&envConfig.Roster.FirstNameColumn, fileConfig.Roster.FirstNameColumn, "ROSTER_FIRST_NAME_COLUMN")
	mergeValue(&envConfig.Roster.LastNameColumn, fileConfig.Roster.LastNameColumn, "ROSTER_LAST_NAME_COLUMN")
	mergeValue(&envConfig.Roster.EnrollmentStartColumn, fileConfig.Roster.EnrollmentStartColumn, "ROSTER_ENROLLMENT_START_COLUMN")
	mergeValue(&envConfig.Roster.LatestAssessmentColumn, fileConfig.Roster.LatestAssessmentColumn, "ROSTER_LATEST_ASSESSMENT_COLUMN")

	// Report config
	mergeValue(&envConfig.Report.LevelUps, fileConfig.Report.LevelUps, "REPORT_LEVEL_UPS")
	mergeValue(&envConfig.Report.Bands, fileConfig.Report.Bands, "REPORT_BANDS")
	mergeValue(&envConfig.Report.Rounding, fileConfig.Report.Rounding, "REPORT_ROUNDING")
	mergeValue(&envConfig.Report.Timezone, fileConfig.Report.Timezone, "REPORT_TIMEZONE")

	// Telemetry config
	mergeValue(&envConfig.Telemetry.Environment, fileConfig.Telemetry.Environment, "TELEMETRY_ENVIRONMENT")
	mergeValue(&envConfig.Telemetry.TraceExporter, fileConfig.Telemetry.TraceExporter, "TELEMETRY_TRACE_EXPORTER")
	mergeValue(&envConfig.Telemetry.MetricExporter, fileConfig.Telemetry.MetricExporter, "TELEMETRY_METRIC_EXPORTER")
	mergeValue(&envConfig.Telemetry.SampleRatio, fileConfig.Telemetry.SampleRatio, "TELEMETRY_SAMPLE_RATIO")

	return envConfig
}

// mergeValue copies a non-zero file value over dst unless key is set in the environment.
func mergeValue[T comparable](dst *T, fileValue T, key string) {
	var zero T
	if fileValue != zero && !envSet(key) {
		*dst = fileValue
	}
}

// mergeToggle copies a bool the file set explicitly, false included.
func mergeToggle(dst *bool, fileValue *bool, key string) {
	if fileValue != nil && !envSet(key) {
		*dst = *fileValue
	}
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + key)
	return ok
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive when enabled")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging format %q (want json or text)", c.Logging.Format)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output %q (want console, file or both)", c.Logging.Output)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0, 1], got %v", c.Telemetry.SampleRatio)
	}

	if _, err := c.Roster.Columns(); err != nil {
		return err
	}

	if _, err := c.Report.Options(); err != nil {
		return err
	}

	if _, err := c.Report.Location(); err != nil {
		return err
	}

	return nil
}

// Columns resolves the configured column letters.
func (r RosterConfig) Columns() (roster.Columns, error) {
	return roster.ParseColumns(r.FirstNameColumn, r.LastNameColumn, r.EnrollmentStartColumn, r.LatestAssessmentColumn)
}

// Options builds the immutable level policy used by every report.
func (r ReportConfig) Options() (enrollment.Options, error) {
	levels, err := enrollment.ParseLevelTable(r.LevelUps, r.Bands)
	if err != nil {
		return enrollment.Options{}, err
	}
	rounding, err := enrollment.ParseRoundingRule(r.Rounding)
	if err != nil {
		return enrollment.Options{}, err
	}
	return enrollment.Options{Levels: levels, Rounding: rounding}, nil
}

// Location returns the zone used to decide what "today" is.
func (r ReportConfig) Location() (*time.Location, error) {
	if r.Timezone == "" || r.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid report timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	// Check for config file in common locations
	locations := []string{
		DefaultConfigFile,
		DefaultConfigDirFile,
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/levelcheck.log",
		},
		Upload: UploadConfig{
			MaxBytes: 10 << 20, // 10MB
		},
		Roster: RosterConfig{
			FirstNameColumn:        "C",
			LastNameColumn:         "D",
			EnrollmentStartColumn:  "K",
			LatestAssessmentColumn: "L",
		},
		Report: ReportConfig{
			LevelUps: "6:2,12:3,16:4,24:5",
			Bands:    "0:1,6:2,12:3,18:4,24:5",
			Rounding: "half-month",
			Timezone: "Local",
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1,
		},
	}
}
