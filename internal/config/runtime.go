package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// RuntimePolicy holds scoring knobs that can be changed without
// restarting the server. The file is re-read on each recommendation
// request so operators can tune ranking behavior live.
type RuntimePolicy struct {
	// MaxPersisted is how many ranked recommendations are written per
	// query. Clamped to 1..3.
	MaxPersisted int `json:"max_persisted"`

	// PreferredTireByWorkType overrides the preferred tire used by the
	// soil-fit component, keyed by work type.
	PreferredTireByWorkType map[string]string `json:"preferred_tire_by_work_type"`

	// EconomicExpression optionally replaces the economic component.
	// Variables: required_hp, tractor_hp, fuel_lph (0 when unknown).
	// The result is clamped to the component's 0..15 range.
	EconomicExpression string `json:"economic_expression"`
}

// LoadRuntimePolicy loads the runtime policy from the specified path.
func LoadRuntimePolicy(path string) (*RuntimePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runtime policy: %w", err)
	}

	var p RuntimePolicy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse runtime policy: %w", err)
	}

	applyPolicyDefaults(&p)
	return &p, nil
}

// DefaultRuntimePolicy returns the built-in policy.
func DefaultRuntimePolicy() *RuntimePolicy {
	p := RuntimePolicy{}
	applyPolicyDefaults(&p)
	return &p
}

func applyPolicyDefaults(p *RuntimePolicy) {
	if p.MaxPersisted < 1 {
		p.MaxPersisted = 3
	}
	if p.MaxPersisted > 3 {
		p.MaxPersisted = 3
	}
	if p.PreferredTireByWorkType == nil {
		p.PreferredTireByWorkType = map[string]string{
			"tillage":   "track",
			"transport": "standard",
		}
	}
	for k, v := range p.PreferredTireByWorkType {
		p.PreferredTireByWorkType[k] = strings.ToLower(strings.TrimSpace(v))
	}
	p.EconomicExpression = strings.TrimSpace(p.EconomicExpression)
}

// PreferredTire resolves the preferred tire for a work type, empty
// when no preference applies.
func (p *RuntimePolicy) PreferredTire(workType string) string {
	return p.PreferredTireByWorkType[strings.ToLower(strings.TrimSpace(workType))]
}
