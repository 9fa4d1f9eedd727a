package layout

import (
	"fmt"

	"github.com/xraph/cosmoq"
)

// Strategy selects how document kinds are distributed across containers.
type Strategy string

const (
	// StrategyDedicated gives every document kind its own container.
	StrategyDedicated Strategy = "dedicated"
	// StrategyConsolidated shares three containers across all kinds:
	// jobs, metadata (servers/locks/queues/counters), and collections
	// (sets/hashes/lists).
	StrategyConsolidated Strategy = "consolidated"
)

// Config holds the container layout chosen at startup. It is immutable once
// a Resolver is built from it; resolvers keep only a reference.
//
// Under StrategyDedicated all eight per-kind names are required. Under
// StrategyConsolidated only JobsContainer, MetadataContainer, and
// CollectionsContainer are required and the other fields are ignored.
type Config struct {
	Strategy Strategy

	JobsContainer     string
	ServersContainer  string
	LocksContainer    string
	QueuesContainer   string
	SetsContainer     string
	HashesContainer   string
	ListsContainer    string
	CountersContainer string

	MetadataContainer    string
	CollectionsContainer string
}

// MissingContainerError reports a container name required by the active
// strategy that was left empty.
type MissingContainerError struct {
	Strategy Strategy
	Field    string
}

// Error implements the error interface.
func (e *MissingContainerError) Error() string {
	return fmt.Sprintf("layout: %s strategy requires %s", e.Strategy, e.Field)
}

// Validate checks the configuration once, fail-fast. It returns
// cosmoq.ErrNilConfig for a nil receiver, an error for an unknown strategy,
// and a *MissingContainerError for the first empty required name.
func (c *Config) Validate() error {
	if c == nil {
		return cosmoq.ErrNilConfig
	}

	switch c.Strategy {
	case StrategyDedicated:
		required := []struct {
			field string
			value string
		}{
			{"JobsContainer", c.JobsContainer},
			{"ServersContainer", c.ServersContainer},
			{"LocksContainer", c.LocksContainer},
			{"QueuesContainer", c.QueuesContainer},
			{"SetsContainer", c.SetsContainer},
			{"HashesContainer", c.HashesContainer},
			{"ListsContainer", c.ListsContainer},
			{"CountersContainer", c.CountersContainer},
		}
		for _, r := range required {
			if r.value == "" {
				return &MissingContainerError{Strategy: c.Strategy, Field: r.field}
			}
		}
	case StrategyConsolidated:
		required := []struct {
			field string
			value string
		}{
			{"JobsContainer", c.JobsContainer},
			{"MetadataContainer", c.MetadataContainer},
			{"CollectionsContainer", c.CollectionsContainer},
		}
		for _, r := range required {
			if r.value == "" {
				return &MissingContainerError{Strategy: c.Strategy, Field: r.field}
			}
		}
	default:
		return fmt.Errorf("layout: unknown strategy %q", c.Strategy)
	}

	return nil
}

// DefaultConfig returns a consolidated three-container layout with
// conventional names. Useful for development and tests.
func DefaultConfig() *Config {
	return &Config{
		Strategy:             StrategyConsolidated,
		JobsContainer:        "cosmoq-jobs",
		MetadataContainer:    "cosmoq-metadata",
		CollectionsContainer: "cosmoq-collections",
	}
}
