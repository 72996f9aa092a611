package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRuntimePolicy(t *testing.T) {
	p := DefaultRuntimePolicy()
	if p.MaxPersisted != 3 {
		t.Errorf("MaxPersisted default: got %d, want 3", p.MaxPersisted)
	}
	if p.PreferredTire("tillage") != "track" {
		t.Errorf("tillage preferred tire: got %q", p.PreferredTire("tillage"))
	}
	if p.PreferredTire("transport") != "standard" {
		t.Errorf("transport preferred tire: got %q", p.PreferredTire("transport"))
	}
	if p.PreferredTire("harvesting") != "" {
		t.Errorf("harvesting should have no preference, got %q", p.PreferredTire("harvesting"))
	}
}

func TestLoadRuntimePolicyClamps(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "above cap", body: `{"max_persisted": 7}`, want: 3},
		{name: "zero uses default", body: `{"max_persisted": 0}`, want: 3},
		{name: "negative uses default", body: `{"max_persisted": -1}`, want: 3},
		{name: "in range", body: `{"max_persisted": 2}`, want: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "policy.json")
			if err := os.WriteFile(path, []byte(tc.body), 0o600); err != nil {
				t.Fatal(err)
			}
			p, err := LoadRuntimePolicy(path)
			if err != nil {
				t.Fatalf("LoadRuntimePolicy: %v", err)
			}
			if p.MaxPersisted != tc.want {
				t.Errorf("MaxPersisted: got %d, want %d", p.MaxPersisted, tc.want)
			}
		})
	}
}

func TestLoadRuntimePolicyNormalizesTires(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	body := `{"preferred_tire_by_work_type": {"tillage": "  TRACK "}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := LoadRuntimePolicy(path)
	if err != nil {
		t.Fatalf("LoadRuntimePolicy: %v", err)
	}
	if p.PreferredTire("TILLAGE") != "track" {
		t.Errorf("normalized tire: got %q", p.PreferredTire("TILLAGE"))
	}
}
