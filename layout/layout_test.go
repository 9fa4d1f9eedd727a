package layout_test

import (
	"errors"
	"testing"

	"github.com/xraph/cosmoq"
	"github.com/xraph/cosmoq/layout"
)

func dedicatedConfig() *layout.Config {
	return &layout.Config{
		Strategy:          layout.StrategyDedicated,
		JobsContainer:     "jobs",
		ServersContainer:  "servers",
		LocksContainer:    "locks",
		QueuesContainer:   "queues",
		SetsContainer:     "sets",
		HashesContainer:   "hashes",
		ListsContainer:    "lists",
		CountersContainer: "counters",
	}
}

func consolidatedConfig() *layout.Config {
	return &layout.Config{
		Strategy:             layout.StrategyConsolidated,
		JobsContainer:        "jobs",
		MetadataContainer:    "metadata",
		CollectionsContainer: "collections",
	}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate_NilConfig(t *testing.T) {
	var cfg *layout.Config
	if err := cfg.Validate(); !errors.Is(err, cosmoq.ErrNilConfig) {
		t.Fatalf("Validate() = %v, want ErrNilConfig", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := layout.New(nil); !errors.Is(err, cosmoq.ErrNilConfig) {
		t.Fatalf("New(nil) = %v, want ErrNilConfig", err)
	}
}

func TestValidate_UnknownStrategy(t *testing.T) {
	cfg := &layout.Config{Strategy: "sharded"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() should reject an unknown strategy")
	}
}

func TestValidate_DedicatedComplete(t *testing.T) {
	if err := dedicatedConfig().Validate(); err != nil {
		t.Fatalf("Validate() on complete dedicated config = %v", err)
	}
}

func TestValidate_ConsolidatedComplete(t *testing.T) {
	if err := consolidatedConfig().Validate(); err != nil {
		t.Fatalf("Validate() on complete consolidated config = %v", err)
	}
}

func TestValidate_DedicatedMissingName(t *testing.T) {
	mutations := []struct {
		field string
		apply func(*layout.Config)
	}{
		{"JobsContainer", func(c *layout.Config) { c.JobsContainer = "" }},
		{"ServersContainer", func(c *layout.Config) { c.ServersContainer = "" }},
		{"LocksContainer", func(c *layout.Config) { c.LocksContainer = "" }},
		{"QueuesContainer", func(c *layout.Config) { c.QueuesContainer = "" }},
		{"SetsContainer", func(c *layout.Config) { c.SetsContainer = "" }},
		{"HashesContainer", func(c *layout.Config) { c.HashesContainer = "" }},
		{"ListsContainer", func(c *layout.Config) { c.ListsContainer = "" }},
		{"CountersContainer", func(c *layout.Config) { c.CountersContainer = "" }},
	}

	for _, m := range mutations {
		cfg := dedicatedConfig()
		m.apply(cfg)

		err := cfg.Validate()
		var missing *layout.MissingContainerError
		if !errors.As(err, &missing) {
			t.Fatalf("Validate() with empty %s = %v, want MissingContainerError", m.field, err)
		}
		if missing.Field != m.field {
			t.Errorf("MissingContainerError.Field = %q, want %q", missing.Field, m.field)
		}
	}
}

func TestValidate_ConsolidatedMissingName(t *testing.T) {
	mutations := []struct {
		field string
		apply func(*layout.Config)
	}{
		{"JobsContainer", func(c *layout.Config) { c.JobsContainer = "" }},
		{"MetadataContainer", func(c *layout.Config) { c.MetadataContainer = "" }},
		{"CollectionsContainer", func(c *layout.Config) { c.CollectionsContainer = "" }},
	}

	for _, m := range mutations {
		cfg := consolidatedConfig()
		m.apply(cfg)

		err := cfg.Validate()
		var missing *layout.MissingContainerError
		if !errors.As(err, &missing) {
			t.Fatalf("Validate() with empty %s = %v, want MissingContainerError", m.field, err)
		}
		if missing.Field != m.field {
			t.Errorf("MissingContainerError.Field = %q, want %q", missing.Field, m.field)
		}
	}
}

func TestValidate_ConsolidatedIgnoresDedicatedNames(t *testing.T) {
	cfg := consolidatedConfig()
	// Dedicated-only fields may stay empty under consolidated.
	cfg.ServersContainer = ""
	cfg.CountersContainer = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, dedicated-only names should be ignored", err)
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := layout.DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}
