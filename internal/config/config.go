// Package config assembles the client configuration from defaults, an optional
// JSON file, environment variables (optionally loaded from .env) and command
// line flags, in that order of increasing priority.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/patric-chuzhbe/linkkeeper/internal/logger"
)

// Config holds every tunable of the linkkeeper client.
type Config struct {
	// APIBaseURL is the root of the remote links API, e.g. http://localhost:8080.
	APIBaseURL string `env:"API_BASE_URL" validate:"required,url"`

	// RequestTimeout is the blanket timeout applied to every API call.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" validate:"gt=0"`

	LogLevel string `env:"LOG_LEVEL" validate:"loglevel"`

	// StateFileName selects the JSON file state store when non-empty.
	// It defaults to linkkeeper/state.json under the user config directory.
	StateFileName string `env:"STATE_FILE_PATH" validate:"filepath"`

	// StateDatabaseDSN selects the PostgreSQL state store when non-empty.
	StateDatabaseDSN string `env:"STATE_DATABASE_DSN"`

	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`

	// RunAddr is the listen address of the local web front end.
	RunAddr string `env:"SERVER_ADDRESS" validate:"hostname_port"`

	// ConfigFile points to an optional JSON configuration file.
	ConfigFile string `env:"CONFIG"`

	// Args are the positional arguments left after flag parsing:
	// the command and its own flags.
	Args []string
}

type jsonConfig struct {
	APIBaseURL          string `json:"api_base_url"`
	RequestTimeout      string `json:"request_timeout"`
	LogLevel            string `json:"log_level"`
	StateFileName       string `json:"state_file_path"`
	StateDatabaseDSN    string `json:"state_database_dsn"`
	DBConnectionTimeout string `json:"db_connection_timeout"`
	RunAddr             string `json:"server_address"`
}

var defaultConfig = Config{
	APIBaseURL:          "http://localhost:8080",
	RequestTimeout:      10 * time.Second,
	LogLevel:            "info",
	StateDatabaseDSN:    "",
	DBConnectionTimeout: 10 * time.Second,
	RunAddr:             "localhost:3000",
}

// defaultStateFileName returns the per-user state file, or "" when the
// platform has no user config directory (the session then lives in memory).
func defaultStateFileName() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		logger.Log.Debugln("No user config directory:", err)
		return ""
	}

	return filepath.Join(dir, "linkkeeper", "state.json")
}

// ErrHelp is returned when the user asked for the flags usage.
var ErrHelp = flag.ErrHelp

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
	output              io.Writer
}

// WithDisableFlagsParsing skips command line flags entirely; useful in tests.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs replaces os.Args[1:] as the source of command line flags.
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

// WithOutput redirects flag usage and parse errors.
func WithOutput(w io.Writer) InitOption {
	return func(options *initOptions) {
		options.output = w
	}
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

func applyDefaults(values *Config, defaults Config) {
	if values.APIBaseURL == "" {
		values.APIBaseURL = defaults.APIBaseURL
	}
	if values.RequestTimeout == 0 {
		values.RequestTimeout = defaults.RequestTimeout
	}
	if values.LogLevel == "" {
		values.LogLevel = defaults.LogLevel
	}
	if values.StateFileName == "" {
		values.StateFileName = defaults.StateFileName
	}
	if values.StateDatabaseDSN == "" {
		values.StateDatabaseDSN = defaults.StateDatabaseDSN
	}
	if values.DBConnectionTimeout == 0 {
		values.DBConnectionTimeout = defaults.DBConnectionTimeout
	}
	if values.RunAddr == "" {
		values.RunAddr = defaults.RunAddr
	}
}

func (c *Config) applyJSONFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/applyJSONFile(): error while `os.ReadFile()` calling: %w", err)
	}

	var fromJSON jsonConfig
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		return fmt.Errorf("in internal/config/config.go/applyJSONFile(): error while `json.Unmarshal()` calling: %w", err)
	}

	requestTimeout, err := parseOptionalDuration(fromJSON.RequestTimeout)
	if err != nil {
		return err
	}
	dbConnectionTimeout, err := parseOptionalDuration(fromJSON.DBConnectionTimeout)
	if err != nil {
		return err
	}

	applyDefaults(c, Config{
		APIBaseURL:          fromJSON.APIBaseURL,
		RequestTimeout:      requestTimeout,
		LogLevel:            fromJSON.LogLevel,
		StateFileName:       fromJSON.StateFileName,
		StateDatabaseDSN:    fromJSON.StateDatabaseDSN,
		DBConnectionTimeout: dbConnectionTimeout,
		RunAddr:             fromJSON.RunAddr,
	})

	return nil
}

func parseOptionalDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}

	return d, nil
}

// override copies every non-zero field of src over dst.
func override(dst *Config, src Config) {
	if src.APIBaseURL != "" {
		dst.APIBaseURL = src.APIBaseURL
	}
	if src.RequestTimeout != 0 {
		dst.RequestTimeout = src.RequestTimeout
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.StateFileName != "" {
		dst.StateFileName = src.StateFileName
	}
	if src.StateDatabaseDSN != "" {
		dst.StateDatabaseDSN = src.StateDatabaseDSN
	}
	if src.DBConnectionTimeout != 0 {
		dst.DBConnectionTimeout = src.DBConnectionTimeout
	}
	if src.RunAddr != "" {
		dst.RunAddr = src.RunAddr
	}
}

func parseFlags(options *initOptions) (Config, string, []string, error) {
	fs := flag.NewFlagSet("linkkeeper", flag.ContinueOnError)
	if options.output != nil {
		fs.SetOutput(options.output)
	}

	var fromFlags Config
	var configFile string
	fs.StringVar(&fromFlags.APIBaseURL, "u", "", "base URL of the links API")
	fs.DurationVar(&fromFlags.RequestTimeout, "t", 0, "timeout of every API request")
	fs.StringVar(&fromFlags.LogLevel, "l", "", "logger level")
	fs.StringVar(&fromFlags.StateFileName, "f", "", "JSON file keeping the session between runs")
	fs.StringVar(&fromFlags.StateDatabaseDSN, "d", "", "PostgreSQL DSN keeping the session between runs")
	fs.StringVar(&fromFlags.RunAddr, "a", "", "address and port of the local web front end")
	fs.StringVar(&configFile, "c", "", "JSON configuration file")

	if err := fs.Parse(options.args); err != nil {
		return Config{}, "", nil, err
	}

	return fromFlags, configFile, fs.Args(), nil
}

// New builds the configuration. Priority, from lowest to highest:
// defaults, JSON file, environment, command line flags.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		logger.Log.Debugln("Unable to load .env file:", err)
	}

	var (
		fromFlags      Config
		configFromFlag string
		rest           []string
	)
	if !options.disableFlagsParsing {
		fromFlags, configFromFlag, rest, err = parseFlags(options)
		if err != nil {
			return nil, err
		}
	} else {
		rest = options.args
	}

	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return nil, err
	}

	values := &Config{}
	configFile := fromEnv.ConfigFile
	if configFromFlag != "" {
		configFile = configFromFlag
	}
	if configFile != "" {
		if err := values.applyJSONFile(configFile); err != nil {
			return nil, err
		}
	}
	values.ConfigFile = configFile
	defaults := defaultConfig
	defaults.StateFileName = defaultStateFileName()
	applyDefaults(values, defaults)

	override(values, fromEnv)
	override(values, fromFlags)
	values.Args = rest

	if err := values.validate(); err != nil {
		return nil, errors.Join(errors.New("invalid configuration"), err)
	}

	return values, nil
}
