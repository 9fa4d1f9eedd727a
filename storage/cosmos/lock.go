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

// AcquireLock creates the lock document for the resource. Mutual exclusion
// comes from the id-uniqueness conflict within the shared locks partition:
// the first creator wins, later attempts get 409. An expired leftover lock
// is deleted and acquisition retried once.
func (s *Store) AcquireLock(ctx context.Context, resource string, holder id.ServerID, ttl time.Duration) error {
	name, err := s.layout.ContainerForKind(document.KindLock)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}
	pk := layout.LocksPartitionKey()

	now := time.Now().UTC()
	raw, err := json.Marshal(&lockDoc{
		ID:         resource,
		PK:         pk,
		Type:       document.KindLock.String(),
		Holder:     holder.String(),
		AcquiredAt: now,
		ExpireAt:   now.Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("cosmoq/cosmos: marshal lock: %w", err)
	}

	create := func() error {
		return s.do(ctx, "acquire lock", func() error {
			_, err := c.CreateItem(ctx, azcosmos.NewPartitionKeyString(pk), raw, nil)
			return err
		})
	}

	err = create()
	if err == nil {
		return nil
	}
	if !isConflict(err) {
		return fmt.Errorf("cosmoq/cosmos: acquire lock: %w", err)
	}

	// Held or expired? Read the current holder to find out.
	var resp azcosmos.ItemResponse
	readErr := s.do(ctx, "read lock", func() error {
		var err error
		resp, err = c.ReadItem(ctx, azcosmos.NewPartitionKeyString(pk), resource, nil)
		return err
	})
	if readErr != nil {
		if isNotFound(readErr) {
			// Released between our create and read; one more attempt.
			if err := create(); err != nil {
				if isConflict(err) {
					return cosmoq.ErrLockHeld
				}
				return fmt.Errorf("cosmoq/cosmos: acquire lock: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cosmoq/cosmos: read lock: %w", readErr)
	}

	var existing lockDoc
	if err := json.Unmarshal(resp.Value, &existing); err != nil {
		return fmt.Errorf("cosmoq/cosmos: decode lock: %w", err)
	}
	if existing.ExpireAt.After(now) {
		return cosmoq.ErrLockHeld
	}

	// Expired leftover. Remove it and take the lock.
	delErr := s.do(ctx, "evict expired lock", func() error {
		_, err := c.DeleteItem(ctx, azcosmos.NewPartitionKeyString(pk), resource, nil)
		return err
	})
	if delErr != nil && !isNotFound(delErr) {
		return fmt.Errorf("cosmoq/cosmos: evict expired lock: %w", delErr)
	}

	if err := create(); err != nil {
		if isConflict(err) {
			return cosmoq.ErrLockHeld
		}
		return fmt.Errorf("cosmoq/cosmos: acquire lock: %w", err)
	}
	return nil
}

// ReleaseLock deletes the lock document for the resource.
func (s *Store) ReleaseLock(ctx context.Context, resource string) error {
	name, err := s.layout.ContainerForKind(document.KindLock)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}
	pk := layout.LocksPartitionKey()

	err = s.do(ctx, "release lock", func() error {
		_, err := c.DeleteItem(ctx, azcosmos.NewPartitionKeyString(pk), resource, nil)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return cosmoq.ErrLockNotHeld
		}
		return fmt.Errorf("cosmoq/cosmos: release lock: %w", err)
	}
	return nil
}
