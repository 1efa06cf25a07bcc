package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration, loaded from a YAML file with
// environment variable overrides applied on top.
type Config struct {
	Server  ServerConfig              `yaml:"server"`
	Session SessionConfig             `yaml:"session"`
	Ladder  []NodeConfig              `yaml:"ladder"`
	Puzzles map[int][]ChallengeConfig `yaml:"puzzles"`
}

// ServerConfig holds the HTTP/WebSocket listener settings.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	MaxConnections int      `yaml:"max_connections"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SessionConfig holds the tunable game rules for a session.
type SessionConfig struct {
	TimeBudgetSec int `yaml:"time_budget_sec"`
	MaxLives      int `yaml:"max_lives"`
	CorrectPoints int `yaml:"correct_points"`
	NodeBonus     int `yaml:"node_bonus"`
}

// NodeConfig describes one step of the infiltration ladder. The ladder is
// fixed at startup and immutable for the lifetime of the process.
type NodeConfig struct {
	ID            int    `yaml:"id"`
	Name          string `yaml:"name"`
	RequiredHacks int    `yaml:"required_hacks"`
}

// ChallengeConfig describes one puzzle for a ladder node. Exactly one of
// Answer (exact match, case-insensitive) or Rule (boolean expr expression
// with `input` in scope) must be set.
type ChallengeConfig struct {
	Prompt string `yaml:"prompt"`
	Intel  string `yaml:"intel"`
	Answer string `yaml:"answer,omitempty"`
	Rule   string `yaml:"rule,omitempty"`
}

// Default returns the built-in configuration used when no config file is
// present. It carries a small playable ladder so the server runs out of
// the box.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			MaxConnections: 64,
			AllowedOrigins: []string{"*"},
		},
		Session: SessionConfig{
			TimeBudgetSec: 300,
			MaxLives:      3,
			CorrectPoints: 10,
			NodeBonus:     50,
		},
		Ladder: []NodeConfig{
			{ID: 1, Name: "FIREWALL_PERIMETER", RequiredHacks: 2},
			{ID: 2, Name: "AUTH_GATEWAY", RequiredHacks: 2},
			{ID: 3, Name: "CORE_DATABASE", RequiredHacks: 3},
			{ID: 4, Name: "ROOT_VAULT", RequiredHacks: 1},
		},
		Puzzles: map[int][]ChallengeConfig{
			1: {
				{
					Prompt: "Port scan complete: 21, 22, 443, 8080. Which port serves TLS?",
					Intel:  "Operator is probing the perimeter firewall for an open TLS port.",
					Answer: "443",
				},
				{
					Prompt: "The firewall drops packets with TTL below 64. Minimum TTL to pass?",
					Intel:  "Perimeter filter inspects packet TTL values.",
					Answer: "64",
				},
			},
			2: {
				{
					Prompt: "Auth gateway accepts any passphrase of 8+ chars containing a dash. Submit one.",
					Intel:  "Gateway passphrase policy leaked: 8+ characters, must contain '-'.",
					Rule:   `len(input) >= 8 && input contains "-"`,
				},
				{
					Prompt: "Session tokens are hex strings of exactly 6 chars. Forge one.",
					Intel:  "Token forgery in progress against the auth gateway.",
					Rule:   `len(input) == 6 && input matches "^[0-9a-f]+$"`,
				},
			},
			3: {
				{
					Prompt: "The database master key is the default: admin. Submit it.",
					Intel:  "Core database still uses a factory credential.",
					Answer: "admin",
				},
				{
					Prompt: "Replication port is primary port 5432 plus one. Enter it.",
					Intel:  "Replica endpoint discovered next to the primary.",
					Answer: "5433",
				},
			},
			4: {
				{
					Prompt: "Vault unlock word is the project codename: ghostnet. Submit it.",
					Intel:  "Final vault keyed to the operation codename.",
					Answer: "ghostnet",
				},
			},
		},
	}
}

// Load reads the YAML config at path, applies environment overrides and
// validates the result. A missing file is not an error: the defaults are
// used so the caller can log and continue.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides on the defaults
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("GHOSTNET_PORT", c.Server.Port)
	c.Server.MaxConnections = getEnvAsInt("GHOSTNET_MAX_CONNECTIONS", c.Server.MaxConnections)
	c.Session.TimeBudgetSec = getEnvAsInt("GHOSTNET_TIME_BUDGET_SEC", c.Session.TimeBudgetSec)
	c.Session.MaxLives = getEnvAsInt("GHOSTNET_MAX_LIVES", c.Session.MaxLives)
	c.Session.CorrectPoints = getEnvAsInt("GHOSTNET_CORRECT_POINTS", c.Session.CorrectPoints)
	c.Session.NodeBonus = getEnvAsInt("GHOSTNET_NODE_BONUS", c.Session.NodeBonus)
}

// Validate checks the invariants the session coordinator relies on: a
// non-empty ladder of uniquely identified nodes with positive hack counts,
// at least one well-formed puzzle per node, and positive session rules.
func (c *Config) Validate() error {
	if c.Session.TimeBudgetSec <= 0 {
		return fmt.Errorf("session time budget must be positive, got %d", c.Session.TimeBudgetSec)
	}
	if c.Session.MaxLives <= 0 {
		return fmt.Errorf("max lives must be positive, got %d", c.Session.MaxLives)
	}
	if len(c.Ladder) == 0 {
		return fmt.Errorf("ladder must contain at least one node")
	}

	seen := make(map[int]bool, len(c.Ladder))
	for i, node := range c.Ladder {
		if node.Name == "" {
			return fmt.Errorf("ladder[%d]: name is required", i)
		}
		if node.RequiredHacks <= 0 {
			return fmt.Errorf("node %q: required_hacks must be positive, got %d", node.Name, node.RequiredHacks)
		}
		if seen[node.ID] {
			return fmt.Errorf("node %q: duplicate id %d", node.Name, node.ID)
		}
		seen[node.ID] = true

		challenges := c.Puzzles[node.ID]
		if len(challenges) == 0 {
			return fmt.Errorf("node %q: no puzzles configured", node.Name)
		}
		for j, ch := range challenges {
			if ch.Prompt == "" {
				return fmt.Errorf("node %q puzzle %d: prompt is required", node.Name, j)
			}
			if (ch.Answer == "") == (ch.Rule == "") {
				return fmt.Errorf("node %q puzzle %d: exactly one of answer or rule must be set", node.Name, j)
			}
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
