package cosmos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/xraph/cosmoq"
	"github.com/xraph/cosmoq/document"
	"github.com/xraph/cosmoq/id"
	"github.com/xraph/cosmoq/layout"
)

// AddToSet upserts entries into their sets. Entries are grouped by set key;
// each group shares one partition, so multi-entry groups commit atomically
// in a transactional batch.
func (s *Store) AddToSet(ctx context.Context, entries ...*document.SetEntry) error {
	if len(entries) == 0 {
		return nil
	}

	name, err := s.layout.ContainerForKind(document.KindSet)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}

	groups := make(map[string][]*document.SetEntry)
	for _, e := range entries {
		groups[e.Key] = append(groups[e.Key], e)
	}

	for key, group := range groups {
		pk := layout.SetPartitionKey(key)

		docs := make([][]byte, 0, len(group))
		for _, e := range group {
			raw, err := json.Marshal(&setDoc{
				ID:       contentID(e.Value),
				PK:       pk,
				Type:     document.KindSet.String(),
				Key:      e.Key,
				Value:    e.Value,
				Score:    e.Score,
				ExpireAt: e.ExpireAt,
			})
			if err != nil {
				return fmt.Errorf("cosmoq/cosmos: marshal set entry: %w", err)
			}
			docs = append(docs, raw)
		}

		if err := s.upsertBatch(ctx, c, pk, "add to set", docs); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFromSet deletes the entry with the given value from the set.
func (s *Store) RemoveFromSet(ctx context.Context, key, value string) error {
	name, err := s.layout.ContainerForKind(document.KindSet)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}
	pk := layout.SetPartitionKey(key)

	err = s.do(ctx, "remove from set", func() error {
		_, err := c.DeleteItem(ctx, azcosmos.NewPartitionKeyString(pk), contentID(value), nil)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return cosmoq.ErrEntryNotFound
		}
		return fmt.Errorf("cosmoq/cosmos: remove from set: %w", err)
	}
	return nil
}

// ListSet returns all entries of the named set ordered by score.
func (s *Store) ListSet(ctx context.Context, key string) ([]*document.SetEntry, error) {
	name, err := s.layout.ContainerForKind(document.KindSet)
	if err != nil {
		return nil, err
	}
	c, err := s.container(name)
	if err != nil {
		return nil, err
	}
	pk := layout.SetPartitionKey(key)

	const query = `SELECT * FROM c WHERE c.type = "set" ORDER BY c.score ASC`

	var out []*document.SetEntry
	pager := c.NewQueryItemsPager(query, azcosmos.NewPartitionKeyString(pk), nil)
	for pager.More() {
		var resp azcosmos.QueryItemsResponse
		err = s.do(ctx, "list set", func() error {
			var err error
			resp, err = pager.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("cosmoq/cosmos: list set: %w", err)
		}
		for _, raw := range resp.Items {
			var d setDoc
			if err := json.Unmarshal(raw, &d); err != nil {
				return nil, fmt.Errorf("cosmoq/cosmos: decode set entry: %w", err)
			}
			out = append(out, &document.SetEntry{
				Key:      d.Key,
				Value:    d.Value,
				Score:    d.Score,
				ExpireAt: d.ExpireAt,
			})
		}
	}
	return out, nil
}

// SetHashFields upserts fields of the named hash atomically.
func (s *Store) SetHashFields(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	name, err := s.layout.ContainerForKind(document.KindHash)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}
	pk := layout.HashPartitionKey(key)

	docs := make([][]byte, 0, len(fields))
	for field, value := range fields {
		raw, err := json.Marshal(&hashDoc{
			ID:    contentID(field),
			PK:    pk,
			Type:  document.KindHash.String(),
			Key:   key,
			Field: field,
			Value: value,
		})
		if err != nil {
			return fmt.Errorf("cosmoq/cosmos: marshal hash field: %w", err)
		}
		docs = append(docs, raw)
	}

	return s.upsertBatch(ctx, c, pk, "set hash fields", docs)
}

// GetHash returns all fields of the named hash.
func (s *Store) GetHash(ctx context.Context, key string) (map[string]string, error) {
	name, err := s.layout.ContainerForKind(document.KindHash)
	if err != nil {
		return nil, err
	}
	c, err := s.container(name)
	if err != nil {
		return nil, err
	}
	pk := layout.HashPartitionKey(key)

	const query = `SELECT * FROM c WHERE c.type = "hash"`

	out := make(map[string]string)
	pager := c.NewQueryItemsPager(query, azcosmos.NewPartitionKeyString(pk), nil)
	for pager.More() {
		var resp azcosmos.QueryItemsResponse
		err = s.do(ctx, "get hash", func() error {
			var err error
			resp, err = pager.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("cosmoq/cosmos: get hash: %w", err)
		}
		for _, raw := range resp.Items {
			var d hashDoc
			if err := json.Unmarshal(raw, &d); err != nil {
				return nil, fmt.Errorf("cosmoq/cosmos: decode hash field: %w", err)
			}
			out[d.Field] = d.Value
		}
	}
	return out, nil
}

// PushToList appends a value to the named list. Position is a server-side
// timestamp, sufficient because list readers only need insertion order.
func (s *Store) PushToList(ctx context.Context, key, value string) error {
	name, err := s.layout.ContainerForKind(document.KindList)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}
	pk := layout.ListPartitionKey(key)

	raw, err := json.Marshal(&listDoc{
		ID:       id.NewEntryID().String(),
		PK:       pk,
		Type:     document.KindList.String(),
		Key:      key,
		Value:    value,
		Position: time.Now().UTC().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("cosmoq/cosmos: marshal list entry: %w", err)
	}

	err = s.do(ctx, "push to list", func() error {
		_, err := c.CreateItem(ctx, azcosmos.NewPartitionKeyString(pk), raw, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("cosmoq/cosmos: push to list: %w", err)
	}
	return nil
}

// ListRange returns values of the named list between from and to inclusive,
// zero-indexed in insertion order.
func (s *Store) ListRange(ctx context.Context, key string, from, to int) ([]string, error) {
	if to < from || from < 0 {
		return nil, nil
	}

	name, err := s.layout.ContainerForKind(document.KindList)
	if err != nil {
		return nil, err
	}
	c, err := s.container(name)
	if err != nil {
		return nil, err
	}
	pk := layout.ListPartitionKey(key)

	const query = `SELECT VALUE c.value FROM c WHERE c.type = "list" ORDER BY c.position ASC OFFSET @from LIMIT @count`
	opts := &azcosmos.QueryOptions{
		QueryParameters: []azcosmos.QueryParameter{
			{Name: "@from", Value: from},
			{Name: "@count", Value: to - from + 1},
		},
	}

	var out []string
	pager := c.NewQueryItemsPager(query, azcosmos.NewPartitionKeyString(pk), opts)
	for pager.More() {
		var resp azcosmos.QueryItemsResponse
		err = s.do(ctx, "list range", func() error {
			var err error
			resp, err = pager.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("cosmoq/cosmos: list range: %w", err)
		}
		for _, raw := range resp.Items {
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, fmt.Errorf("cosmoq/cosmos: decode list value: %w", err)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// upsertBatch writes docs sharing one partition key. Single documents go
// through a plain upsert; larger groups use a transactional batch so the
// group commits or fails as a unit.
func (s *Store) upsertBatch(ctx context.Context, c *azcosmos.ContainerClient, pk, opName string, docs [][]byte) error {
	partition := azcosmos.NewPartitionKeyString(pk)

	if len(docs) == 1 {
		err := s.do(ctx, opName, func() error {
			_, err := c.UpsertItem(ctx, partition, docs[0], nil)
			return err
		})
		if err != nil {
			return fmt.Errorf("cosmoq/cosmos: %s: %w", opName, err)
		}
		return nil
	}

	batch := c.NewTransactionalBatch(partition)
	for _, raw := range docs {
		batch.UpsertItem(raw, nil)
	}

	var resp azcosmos.TransactionalBatchResponse
	err := s.do(ctx, opName, func() error {
		var err error
		resp, err = c.ExecuteTransactionalBatch(ctx, batch, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("cosmoq/cosmos: %s batch: %w", opName, err)
	}
	if !resp.Success {
		return fmt.Errorf("cosmoq/cosmos: %s batch failed", opName)
	}
	return nil
}
