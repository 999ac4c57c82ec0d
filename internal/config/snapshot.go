package config

import (
	"fmt"
	"time"

	"github.com/newthinker/twquant/internal/backtest"
	"gopkg.in/yaml.v3"
)

// RulesSnapshot is the record of rules a run was produced with.
type RulesSnapshot struct {
	RunID     string         `yaml:"run_id"`
	CreatedAt time.Time      `yaml:"created_at"`
	Rules     backtest.Rules `yaml:"rules"`
	Symbols   []string       `yaml:"symbols,omitempty"`
}

// MarshalSnapshot serialises the snapshot as YAML.
func MarshalSnapshot(s RulesSnapshot) ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling rules snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot parses a YAML snapshot written by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (RulesSnapshot, error) {
	var s RulesSnapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return RulesSnapshot{}, fmt.Errorf("parsing rules snapshot: %w", err)
	}
	return s, nil
}
