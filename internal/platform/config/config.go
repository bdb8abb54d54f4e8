// Package config loads the server settings from an optional INI file and
// command-line overrides.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/MRamiBalles/GridSnake/internal/domain/grid"
	"github.com/MRamiBalles/GridSnake/internal/engine"
)

// DefaultPath is the file read when no -config flag is given.
const DefaultPath = "snake.ini"

// Config holds every tunable of the server.
type Config struct {
	// [server]
	Addr    string
	DBPath  string
	LogFile string

	// [game]
	GridSize        int
	InitialInterval time.Duration
	MinInterval     time.Duration
	IntervalStep    time.Duration
	Border          grid.BorderPolicy

	// [network]
	MaxMessagesPerSecond int
	AllowedOrigins       []string
}

// DefaultConfig returns the classic 20x20 bounded game served on :8080.
func DefaultConfig() *Config {
	rules := engine.DefaultRules()
	return &Config{
		Addr:   ":8080",
		DBPath: "data/snake.db",

		GridSize:        rules.GridSize,
		InitialInterval: rules.InitialInterval,
		MinInterval:     rules.MinInterval,
		IntervalStep:    rules.IntervalStep,
		Border:          rules.Border,

		MaxMessagesPerSecond: 30,
	}
}

// Load reads path on top of the defaults. An empty path returns the
// defaults. A missing file is reported with an error wrapping
// os.ErrNotExist so callers can fall back to the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	file, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.apply(file); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) apply(file *ini.File) error {
	server := file.Section("server")
	c.Addr = server.Key("addr").MustString(c.Addr)
	c.DBPath = server.Key("db_path").MustString(c.DBPath)
	c.LogFile = server.Key("log_file").MustString(c.LogFile)

	game := file.Section("game")
	if err := readInt(game, "grid_size", &c.GridSize); err != nil {
		return err
	}
	for key, dst := range map[string]*time.Duration{
		"initial_interval": &c.InitialInterval,
		"min_interval":     &c.MinInterval,
		"interval_step":    &c.IntervalStep,
	} {
		if err := readDuration(game, key, dst); err != nil {
			return err
		}
	}
	if game.HasKey("border") {
		border, err := grid.ParseBorderPolicy(game.Key("border").String())
		if err != nil {
			return err
		}
		c.Border = border
	}

	network := file.Section("network")
	if err := readInt(network, "max_messages_per_second", &c.MaxMessagesPerSecond); err != nil {
		return err
	}
	if network.HasKey("allowed_origins") {
		c.AllowedOrigins = network.Key("allowed_origins").Strings(",")
	}
	return nil
}

// readInt overwrites dst only when the key is present and reports values
// that are not integers.
func readInt(sec *ini.Section, key string, dst *int) error {
	if !sec.HasKey(key) {
		return nil
	}
	v, err := sec.Key(key).Int()
	if err != nil {
		return fmt.Errorf("%s.%s: %q is not an integer", sec.Name(), key, sec.Key(key).String())
	}
	*dst = v
	return nil
}

// readDuration is readInt for Go durations such as "150ms".
func readDuration(sec *ini.Section, key string, dst *time.Duration) error {
	if !sec.HasKey(key) {
		return nil
	}
	v, err := sec.Key(key).Duration()
	if err != nil {
		return fmt.Errorf("%s.%s: %q is not a duration", sec.Name(), key, sec.Key(key).String())
	}
	*dst = v
	return nil
}

// Save writes the configuration in the format Load reads.
func (c *Config) Save(path string) error {
	file := ini.Empty()

	server := file.Section("server")
	server.Key("addr").SetValue(c.Addr)
	server.Key("db_path").SetValue(c.DBPath)
	server.Key("log_file").SetValue(c.LogFile)

	game := file.Section("game")
	game.Key("grid_size").SetValue(fmt.Sprint(c.GridSize))
	game.Key("initial_interval").SetValue(c.InitialInterval.String())
	game.Key("min_interval").SetValue(c.MinInterval.String())
	game.Key("interval_step").SetValue(c.IntervalStep.String())
	game.Key("border").SetValue(string(c.Border))

	network := file.Section("network")
	network.Key("max_messages_per_second").SetValue(fmt.Sprint(c.MaxMessagesPerSecond))
	network.Key("allowed_origins").SetValue(strings.Join(c.AllowedOrigins, ","))

	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("save config %s: %w", path, err)
	}
	return nil
}

// Rules returns the engine tunables.
func (c *Config) Rules() engine.Rules {
	return engine.Rules{
		GridSize:        c.GridSize,
		InitialInterval: c.InitialInterval,
		MinInterval:     c.MinInterval,
		IntervalStep:    c.IntervalStep,
		Border:          c.Border,
	}
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.MaxMessagesPerSecond < 0 {
		errs = append(errs, fmt.Errorf("network.max_messages_per_second must not be negative, got %d", c.MaxMessagesPerSecond))
	}
	if err := c.Rules().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("game: %w", err))
	}
	return errors.Join(errs...)
}

// CheckOrigin accepts same-host requests and the configured origins. With no
// origins configured every request is accepted.
func (c *Config) CheckOrigin(r *http.Request) bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// Flags holds command-line overrides. Only flags given explicitly win over
// the file.
type Flags struct {
	fs *flag.FlagSet

	Path string

	addr     string
	dbPath   string
	logFile  string
	gridSize int
	border   string
	rate     int
}

// RegisterFlags declares the overrides on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.Path, "config", DefaultPath, "path to the INI configuration file")
	fs.StringVar(&f.addr, "addr", "", "listen address (overrides server.addr)")
	fs.StringVar(&f.dbPath, "db", "", "SQLite database path (overrides server.db_path)")
	fs.StringVar(&f.logFile, "log", "", "log file (overrides server.log_file)")
	fs.IntVar(&f.gridSize, "grid", 0, "grid size in cells (overrides game.grid_size)")
	fs.StringVar(&f.border, "border", "", "border policy: bounded or wrap (overrides game.border)")
	fs.IntVar(&f.rate, "rate", 0, "max client messages per second (overrides network.max_messages_per_second)")
	return f
}

// Apply copies the flags that were set on the command line into c.
func (f *Flags) Apply(c *Config) error {
	var err error
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "addr":
			c.Addr = f.addr
		case "db":
			c.DBPath = f.dbPath
		case "log":
			c.LogFile = f.logFile
		case "grid":
			c.GridSize = f.gridSize
		case "border":
			var border grid.BorderPolicy
			border, err = grid.ParseBorderPolicy(f.border)
			if err == nil {
				c.Border = border
			}
		case "rate":
			c.MaxMessagesPerSecond = f.rate
		}
	})
	return err
}

// LoadWithFlags parses args, reads the file named by -config and applies the
// overrides. A missing default file is not an error.
func LoadWithFlags(fs *flag.FlagSet, args []string) (*Config, error) {
	flags := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := Load(flags.Path)
	if err != nil {
		explicit := false
		fs.Visit(func(fl *flag.Flag) {
			if fl.Name == "config" {
				explicit = true
			}
		})
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	if err := flags.Apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
