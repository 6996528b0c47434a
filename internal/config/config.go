package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	QUIC   QUICConfig   `yaml:"quic"`
	Game   GameConfig   `yaml:"game"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	SendQueueSize   int           `yaml:"send_queue_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type QUICConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Addr           string        `yaml:"addr"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
	MaxIdleTimeout time.Duration `yaml:"max_idle_timeout"`
}

type GameConfig struct {
	DefaultMaxScore int `yaml:"default_max_score"`
	MaxScoreLimit   int `yaml:"max_score_limit"`
	TickRate        int `yaml:"tick_rate"`
	// WaitingTimeout removes matches nobody joined. Zero disables the sweeper.
	WaitingTimeout time.Duration `yaml:"waiting_timeout"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	RegistryShards int           `yaml:"registry_shards"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            4000,
			AllowedOrigins:  []string{"*"},
			WriteTimeout:    5 * time.Second,
			PingInterval:    30 * time.Second,
			SendQueueSize:   256,
			ShutdownTimeout: 5 * time.Second,
		},
		QUIC: QUICConfig{
			Addr:           ":4443",
			MaxIdleTimeout: 30 * time.Second,
		},
		Game: GameConfig{
			DefaultMaxScore: 5,
			MaxScoreLimit:   99,
			TickRate:        60,
			SweepInterval:   30 * time.Second,
			RegistryShards:  16,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (when
// not empty), env files and finally the process environment. Without explicit
// env files an optional ./.env is read.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, errors.Wrap(err, "open config file")
		}
		defer f.Close()

		if err = yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return cfg, errors.Wrapf(err, "decode config file %s", path)
		}
	}

	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return cfg, errors.Wrap(err, "load .env")
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return cfg, errors.Wrap(err, "load env files")
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "PORT")
		}
		cfg.Server.Port = port
	}
	if v, ok := lookup("PONG_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup("PONG_QUIC_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "PONG_QUIC_ENABLED")
		}
		cfg.QUIC.Enabled = enabled
	}
	if v, ok := lookup("PONG_QUIC_ADDR"); ok {
		cfg.QUIC.Addr = v
	}
	if v, ok := lookup("PONG_DEFAULT_MAX_SCORE"); ok {
		score, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "PONG_DEFAULT_MAX_SCORE")
		}
		cfg.Game.DefaultMaxScore = score
	}
	if v, ok := lookup("PONG_ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	var problems []string
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.SendQueueSize <= 0 {
		problems = append(problems, "server.send_queue_size must be positive")
	}
	if c.Game.TickRate <= 0 {
		problems = append(problems, "game.tick_rate must be positive")
	}
	if c.Game.DefaultMaxScore <= 0 {
		problems = append(problems, "game.default_max_score must be positive")
	}
	if c.Game.MaxScoreLimit < c.Game.DefaultMaxScore {
		problems = append(problems, "game.max_score_limit must be at least game.default_max_score")
	}
	if c.Game.WaitingTimeout < 0 {
		problems = append(problems, "game.waiting_timeout must not be negative")
	}
	if c.Game.WaitingTimeout > 0 && c.Game.SweepInterval <= 0 {
		problems = append(problems, "game.sweep_interval must be positive when waiting_timeout is set")
	}
	if c.QUIC.Enabled {
		if _, _, err := net.SplitHostPort(c.QUIC.Addr); err != nil {
			problems = append(problems, fmt.Sprintf("quic.addr %q: %v", c.QUIC.Addr, err))
		}
		if (c.QUIC.CertFile == "") != (c.QUIC.KeyFile == "") {
			problems = append(problems, "quic.cert_file and quic.key_file must be set together")
		}
	}
	if len(problems) > 0 {
		return errors.Wrap(ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Addr is the HTTP listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TickInterval converts the tick rate into the driver period.
func (c GameConfig) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TickRate)
}

// ResolveMaxScore maps a requested score onto the configured range. Zero or
// negative picks the default.
func (c GameConfig) ResolveMaxScore(requested int) int {
	if requested <= 0 {
		return c.DefaultMaxScore
	}
	if c.MaxScoreLimit > 0 && requested > c.MaxScoreLimit {
		return c.MaxScoreLimit
	}
	return requested
}
