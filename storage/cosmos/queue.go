package cosmos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/xraph/cosmoq/document"
	"github.com/xraph/cosmoq/layout"
)

// EnsureQueue upserts the queue metadata document. All queue documents share
// the fixed queues partition, keyed by queue name.
func (s *Store) EnsureQueue(ctx context.Context, queue string) error {
	name, err := s.layout.ContainerForKind(document.KindQueue)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}
	pk := layout.QueuesPartitionKey()

	raw, err := json.Marshal(&queueDoc{
		ID:        queue,
		PK:        pk,
		Type:      document.KindQueue.String(),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("cosmoq/cosmos: marshal queue: %w", err)
	}

	err = s.do(ctx, "ensure queue", func() error {
		_, err := c.CreateItem(ctx, azcosmos.NewPartitionKeyString(pk), raw, nil)
		return err
	})
	if err != nil && !isConflict(err) {
		return fmt.Errorf("cosmoq/cosmos: ensure queue: %w", err)
	}
	return nil
}

// ListQueues returns all known queue names with a single-partition query.
func (s *Store) ListQueues(ctx context.Context) ([]string, error) {
	name, err := s.layout.ContainerForKind(document.KindQueue)
	if err != nil {
		return nil, err
	}
	c, err := s.container(name)
	if err != nil {
		return nil, err
	}
	pk := layout.QueuesPartitionKey()

	const query = `SELECT VALUE c.id FROM c WHERE c.type = "queue"`

	var queues []string
	pager := c.NewQueryItemsPager(query, azcosmos.NewPartitionKeyString(pk), nil)
	for pager.More() {
		var resp azcosmos.QueryItemsResponse
		err = s.do(ctx, "list queues", func() error {
			var err error
			resp, err = pager.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("cosmoq/cosmos: list queues: %w", err)
		}
		for _, raw := range resp.Items {
			var q string
			if err := json.Unmarshal(raw, &q); err != nil {
				return nil, fmt.Errorf("cosmoq/cosmos: decode queue name: %w", err)
			}
			queues = append(queues, q)
		}
	}
	return queues, nil
}
