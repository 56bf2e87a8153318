// Package config parses the mazewar CLI flags and the optional YAML
// tuning file layered under them, and loads the maze template.
//
// Grounded on the teacher's internal/config package: a plain struct
// plus a Default...() constructor (here, DefaultConfig), with
// gopkg.in/yaml.v3 as the file format.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FardinIqbal/concurrent-network-game-server/internal/gameserver/template"
)

// Config holds the server's fully resolved startup configuration: CLI
// flags, layered with an optional YAML tuning file, with defaults
// filled in for anything neither source supplied.
type Config struct {
	Port          int
	TemplatePath  string
	TemplateRows  []string
	ViewDepth     int
	Purgatory     time.Duration
	SendQueueSize int
	LogLevel      slog.Level
}

// DefaultConfig returns the spec's typical values.
func DefaultConfig() Config {
	return Config{
		ViewDepth:     8,
		Purgatory:     3 * time.Second,
		SendQueueSize: 256,
		LogLevel:      slog.LevelInfo,
	}
}

// fileConfig is the shape of the optional -c YAML tuning file. Every
// field is optional; a zero value means "use the default".
type fileConfig struct {
	ViewDepth        int    `yaml:"view_depth"`
	PurgatorySeconds int    `yaml:"purgatory_seconds"`
	LogLevel         string `yaml:"log_level"`
	SendQueueSize    int    `yaml:"send_queue_size"`
}

// Parse parses the mazewar CLI flags from args (typically os.Args[1:]),
// loads the maze template (file or built-in default), and layers any
// -c YAML tuning file over the defaults. It never reads network input.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("mazewar", flag.ContinueOnError)
	port := fs.Int("p", 0, "TCP port to listen on (required)")
	templatePath := fs.String("t", "", "path to a maze template file (default: built-in maze)")
	tuningPath := fs.String("c", "", "path to an optional YAML tuning file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *port <= 0 {
		return Config{}, errors.New("config: -p <port> is required and must be a positive integer")
	}

	cfg := DefaultConfig()
	cfg.Port = *port
	cfg.TemplatePath = *templatePath

	if *tuningPath != "" {
		if err := applyTuningFile(&cfg, *tuningPath); err != nil {
			return Config{}, fmt.Errorf("config: loading tuning file: %w", err)
		}
	}

	rows, err := loadTemplateRows(*templatePath)
	if err != nil {
		return Config{}, fmt.Errorf("config: loading maze template: %w", err)
	}
	cfg.TemplateRows = rows

	return cfg, nil
}

func applyTuningFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	if fc.ViewDepth > 0 {
		cfg.ViewDepth = fc.ViewDepth
	}
	if fc.PurgatorySeconds > 0 {
		cfg.Purgatory = time.Duration(fc.PurgatorySeconds) * time.Second
	}
	if fc.SendQueueSize > 0 {
		cfg.SendQueueSize = fc.SendQueueSize
	}
	if fc.LogLevel != "" {
		lvl, err := parseLogLevel(fc.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = lvl
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log_level %q", s)
	}
}

// loadTemplateRows reads a maze template: if path is empty, the
// built-in default template is used.
//
// Grounded on evanSpendlove-pacgo/source/main.go's loadMaze:
// bufio.Scanner over lines, no trailing-newline handling needed since
// Scanner strips it. Unlike the teacher, rows are validated (equal
// width, at least one row) and returned rather than assigned to a
// package-level global.
func loadTemplateRows(path string) ([]string, error) {
	if path == "" {
		return template.Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		rows = append(rows, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("maze template must contain at least one row")
	}
	width := len(rows[0])
	for _, row := range rows {
		if len(row) != width {
			return nil, errors.New("maze template rows must all have the same width")
		}
	}

	return rows, nil
}
