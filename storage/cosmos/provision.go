package cosmos

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
)

// partitionKeyPath is the document property every container partitions on.
// Envelopes in models.go write the resolved partition key into this field.
const partitionKeyPath = "/pk"

// Provision creates the database and one container per name the layout
// requires. Existing resources are left untouched. Consumes the layout's
// container set exactly once; nothing on the operation path calls this.
func (s *Store) Provision(ctx context.Context) error {
	_, err := s.client.CreateDatabase(ctx, azcosmos.DatabaseProperties{ID: s.cfg.Database}, nil)
	if err != nil && !isConflict(err) {
		return fmt.Errorf("cosmoq/cosmos: create database %q: %w", s.cfg.Database, err)
	}

	var opts *azcosmos.CreateContainerOptions
	if s.cfg.Throughput > 0 {
		tp := azcosmos.NewManualThroughputProperties(s.cfg.Throughput)
		opts = &azcosmos.CreateContainerOptions{ThroughputProperties: &tp}
	}

	for _, name := range s.layout.Containers() {
		props := azcosmos.ContainerProperties{
			ID: name,
			PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
				Paths: []string{partitionKeyPath},
			},
		}

		_, err := s.db.CreateContainer(ctx, props, opts)
		if err != nil {
			if isConflict(err) {
				continue
			}
			return fmt.Errorf("cosmoq/cosmos: create container %q: %w", name, err)
		}

		s.logger.Info("created container", "container", name, "strategy", s.layout.Strategy())
	}

	return nil
}
