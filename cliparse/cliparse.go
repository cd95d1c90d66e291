package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port             int           `yaml:"port" envconfig:"PORT"`
	DatabaseURL      string        `yaml:"database_url" envconfig:"DATABASE_URL"`
	DatabaseType     string        `yaml:"database_type" envconfig:"DATABASE_TYPE"`
	TokenSecret      string        `yaml:"token_secret" envconfig:"TOKEN_SECRET"`
	FileStoreDir     string        `yaml:"file_store_dir" envconfig:"FILE_STORE_DIR"`
	QueryTimeout     time.Duration `yaml:"query_timeout" envconfig:"QUERY_TIMEOUT"`
	MessageRetention time.Duration `yaml:"message_retention" envconfig:"MESSAGE_RETENTION"`
	SweepInterval    time.Duration `yaml:"sweep_interval" envconfig:"SWEEP_INTERVAL"`
	TraceStdout      bool          `yaml:"trace_stdout" envconfig:"TRACE_STDOUT"`
	Debug            bool          `yaml:"debug" envconfig:"DEBUG"`
}

func defaults() Config {
	return Config{
		Port:             3318,
		DatabaseType:     "sqlite",
		QueryTimeout:     5 * time.Second,
		MessageRetention: 30 * 24 * time.Hour,
		SweepInterval:    time.Hour,
	}
}

// ParseFlags builds the config from, in increasing precedence: defaults,
// the YAML file named by -c, environment variables (after loading the
// dotenv file), and command-line flags.
func ParseFlags(args []string) (Config, error) {
	var (
		flags      Config
		configFile string
		envFile    string
	)

	fs := flag.NewFlagSet("truevote", flag.ContinueOnError)

	fs.StringVar(&configFile, "c", "", "YAML config file")
	fs.StringVar(&envFile, "env-file", ".env", "dotenv file, ignored if missing")

	// Network config (can be CLI args or env)
	fs.IntVar(&flags.Port, "p", 0, "Server port")
	fs.StringVar(&flags.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&flags.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&flags.TokenSecret, "token-secret", "", "Token signing secret (prefer env)")

	fs.StringVar(&flags.FileStoreDir, "files", "", "Attachment store directory (empty keeps files in memory)")
	fs.DurationVar(&flags.QueryTimeout, "query-timeout", 0, "Per-request storage timeout")
	fs.DurationVar(&flags.MessageRetention, "message-retention", 0, "Age after which broadcast messages are swept")
	fs.DurationVar(&flags.SweepInterval, "sweep-interval", 0, "Message sweep interval (0 disables)")
	fs.BoolVar(&flags.TraceStdout, "trace-stdout", false, "Print trace spans to stdout")
	fs.BoolVar(&flags.Debug, "debug", false, "Debug logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := defaults()

	if configFile != "" {
		if err := loadFile(configFile, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}

	// Flags given explicitly win
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Port = flags.Port
		case "d":
			cfg.DatabaseURL = flags.DatabaseURL
		case "t":
			cfg.DatabaseType = flags.DatabaseType
		case "token-secret":
			cfg.TokenSecret = flags.TokenSecret
		case "files":
			cfg.FileStoreDir = flags.FileStoreDir
		case "query-timeout":
			cfg.QueryTimeout = flags.QueryTimeout
		case "message-retention":
			cfg.MessageRetention = flags.MessageRetention
		case "sweep-interval":
			cfg.SweepInterval = flags.SweepInterval
		case "trace-stdout":
			cfg.TraceStdout = flags.TraceStdout
		case "debug":
			cfg.Debug = flags.Debug
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks required settings.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if c.DatabaseType != "sqlite" && c.DatabaseType != "postgres" {
		return fmt.Errorf("unsupported database type %q", c.DatabaseType)
	}

	// Secrets - MUST be provided
	if c.TokenSecret == "" {
		return errors.New("TOKEN_SECRET required")
	}

	if c.QueryTimeout <= 0 {
		return errors.New("query timeout must be positive")
	}
	return nil
}
