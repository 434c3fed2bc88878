package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/domino14/quarto/eval"
)

const (
	ConfigDebug                = "debug"
	ConfigFile                 = "config"
	ConfigPort                 = "port"
	ConfigName                 = "name"
	ConfigMatricules           = "matricules"
	ConfigServerAddress        = "server-address"
	ConfigTimeBudget           = "time-budget"
	ConfigDeadlineFraction     = "deadline-fraction"
	ConfigPlacementShare       = "placement-share"
	ConfigWeightAlignment      = "weight-alignment"
	ConfigWeightDanger         = "weight-danger"
	ConfigWeightCenter         = "weight-center"
	ConfigTTableSizeMB         = "ttable-size-mb"
	ConfigTTableMemoryFraction = "ttable-memory-fraction"
	ConfigDeepTime             = "deep-time"
	ConfigModerateTime         = "moderate-time"
	ConfigSubscribeAttempts    = "subscribe-attempts"
	ConfigNatsURL              = "nats-url"
	ConfigNatsSubject          = "nats-subject"
	ConfigSearchLogPath        = "search-log-path"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Debug bool

	// Player identity and matchmaking.
	Port              int
	Name              string
	Matricules        []string
	ServerAddress     string
	SubscribeAttempts uint

	// Time management. TimeBudget is the time we allow ourselves per turn.
	TimeBudget       time.Duration
	DeadlineFraction float64
	PlacementShare   float64
	DeepTime         time.Duration
	ModerateTime     time.Duration

	Weights eval.Weights

	TTableSizeMB         int
	TTableMemoryFraction float64

	NatsURL     string
	NatsSubject string

	// If set, root candidates of every decision are appended here as YAML.
	SearchLogPath string
}

func DefaultConfig() Config {
	return Config{
		Port:                 8888,
		Name:                 "quartobot",
		ServerAddress:        "localhost:3000",
		SubscribeAttempts:    10,
		TimeBudget:           3 * time.Second,
		DeadlineFraction:     0.8,
		PlacementShare:       0.5,
		DeepTime:             3 * time.Second,
		ModerateTime:         1500 * time.Millisecond,
		Weights:              eval.DefaultWeights,
		TTableSizeMB:         64,
		TTableMemoryFraction: 0.25,
		NatsSubject:          "quarto.play",
	}
}

func flagSet(d Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("quartobot", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, d.Debug, "debug logging on")
	fs.String(ConfigFile, "", "optional config file (yaml, json or toml)")
	fs.Int(ConfigPort, d.Port, "port the judge connects to")
	fs.String(ConfigName, d.Name, "player name sent when subscribing")
	fs.StringSlice(ConfigMatricules, d.Matricules, "student ids sent when subscribing")
	fs.String(ConfigServerAddress, d.ServerAddress, "host:port of the matchmaking server")
	fs.Uint(ConfigSubscribeAttempts, d.SubscribeAttempts, "number of subscription attempts")
	fs.Duration(ConfigTimeBudget, d.TimeBudget, "time allowed per turn")
	fs.Float64(ConfigDeadlineFraction, d.DeadlineFraction, "fraction of the budget after which the search stops exploring")
	fs.Float64(ConfigPlacementShare, d.PlacementShare, "fraction of the turn budget spent choosing the cell")
	fs.Duration(ConfigDeepTime, d.DeepTime, "remaining time above which the search goes deep")
	fs.Duration(ConfigModerateTime, d.ModerateTime, "remaining time above which the search uses a moderate depth")
	fs.Float64(ConfigWeightAlignment, d.Weights.Alignment, "reward per piece of a line sharing an attribute")
	fs.Float64(ConfigWeightDanger, d.Weights.Danger, "penalty for a three-piece line sharing nothing")
	fs.Float64(ConfigWeightCenter, d.Weights.Center, "reward per occupied centre cell")
	fs.Int(ConfigTTableSizeMB, d.TTableSizeMB, "transposition table size in megabytes")
	fs.Float64(ConfigTTableMemoryFraction, d.TTableMemoryFraction, "cap on the transposition table as a fraction of system memory")
	fs.String(ConfigNatsURL, d.NatsURL, "serve decisions over NATS as well, if set")
	fs.String(ConfigNatsSubject, d.NatsSubject, "NATS subject to answer play requests on")
	fs.String(ConfigSearchLogPath, d.SearchLogPath, "file to append a YAML trace of every decision to")
	return fs
}

// Load reads the configuration from args, QUARTO_* environment variables
// and an optional config file, in decreasing order of precedence.
func Load(args []string) (Config, error) {
	cfg := DefaultConfig()
	fs := flagSet(cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	v := viper.New()
	v.SetEnvPrefix("quarto")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return cfg, err
	}
	if path := v.GetString(ConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg.Debug = v.GetBool(ConfigDebug)
	cfg.Port = v.GetInt(ConfigPort)
	cfg.Name = v.GetString(ConfigName)
	cfg.Matricules = v.GetStringSlice(ConfigMatricules)
	cfg.ServerAddress = v.GetString(ConfigServerAddress)
	cfg.SubscribeAttempts = v.GetUint(ConfigSubscribeAttempts)
	cfg.TimeBudget = v.GetDuration(ConfigTimeBudget)
	cfg.DeadlineFraction = v.GetFloat64(ConfigDeadlineFraction)
	cfg.PlacementShare = v.GetFloat64(ConfigPlacementShare)
	cfg.DeepTime = v.GetDuration(ConfigDeepTime)
	cfg.ModerateTime = v.GetDuration(ConfigModerateTime)
	cfg.Weights = eval.Weights{
		Alignment: v.GetFloat64(ConfigWeightAlignment),
		Danger:    v.GetFloat64(ConfigWeightDanger),
		Center:    v.GetFloat64(ConfigWeightCenter),
	}
	cfg.TTableSizeMB = v.GetInt(ConfigTTableSizeMB)
	cfg.TTableMemoryFraction = v.GetFloat64(ConfigTTableMemoryFraction)
	cfg.NatsURL = v.GetString(ConfigNatsURL)
	cfg.NatsSubject = v.GetString(ConfigNatsSubject)
	cfg.SearchLogPath = v.GetString(ConfigSearchLogPath)

	return cfg, cfg.Validate()
}

func validFraction(f float64) bool {
	return f > 0 && f <= 1
}

func (c Config) Validate() error {
	switch {
	case c.TimeBudget <= 0:
		return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, ConfigTimeBudget, c.TimeBudget)
	case !validFraction(c.DeadlineFraction):
		return fmt.Errorf("%w: %s must be in (0, 1], got %v", ErrInvalidConfig, ConfigDeadlineFraction, c.DeadlineFraction)
	case !validFraction(c.PlacementShare):
		return fmt.Errorf("%w: %s must be in (0, 1], got %v", ErrInvalidConfig, ConfigPlacementShare, c.PlacementShare)
	case !validFraction(c.TTableMemoryFraction):
		return fmt.Errorf("%w: %s must be in (0, 1], got %v", ErrInvalidConfig, ConfigTTableMemoryFraction, c.TTableMemoryFraction)
	case c.TTableSizeMB < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, ConfigTTableSizeMB)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: bad %s %d", ErrInvalidConfig, ConfigPort, c.Port)
	}
	return nil
}
