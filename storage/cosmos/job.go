package cosmos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/xraph/cosmoq"
	"github.com/xraph/cosmoq/document"
	"github.com/xraph/cosmoq/id"
	"github.com/xraph/cosmoq/layout"
)

// CreateJob persists a new job in its queue partition.
func (s *Store) CreateJob(ctx context.Context, j *document.Job) error {
	name, err := s.layout.Container(j)
	if err != nil {
		return err
	}
	pk, err := layout.PartitionKey(j)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}

	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}

	raw, err := json.Marshal(toJobDoc(j, pk))
	if err != nil {
		return fmt.Errorf("cosmoq/cosmos: marshal job: %w", err)
	}

	err = s.do(ctx, "create job", func() error {
		_, err := c.CreateItem(ctx, azcosmos.NewPartitionKeyString(pk), raw, nil)
		return err
	})
	if err != nil {
		if isConflict(err) {
			return cosmoq.ErrJobAlreadyExists
		}
		return fmt.Errorf("cosmoq/cosmos: create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by queue and ID with a single-partition point read.
func (s *Store) GetJob(ctx context.Context, queue string, jobID id.JobID) (*document.Job, error) {
	name, err := s.layout.ContainerForKind(document.KindJob)
	if err != nil {
		return nil, err
	}
	c, err := s.container(name)
	if err != nil {
		return nil, err
	}
	pk := layout.JobPartitionKey(queue)

	var resp azcosmos.ItemResponse
	err = s.do(ctx, "get job", func() error {
		var err error
		resp, err = c.ReadItem(ctx, azcosmos.NewPartitionKeyString(pk), jobID.String(), nil)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, cosmoq.ErrJobNotFound
		}
		return nil, fmt.Errorf("cosmoq/cosmos: get job: %w", err)
	}

	var d jobDoc
	if err := json.Unmarshal(resp.Value, &d); err != nil {
		return nil, fmt.Errorf("cosmoq/cosmos: decode job: %w", err)
	}
	return fromJobDoc(&d)
}

// UpdateJob replaces an existing job document in place.
func (s *Store) UpdateJob(ctx context.Context, j *document.Job) error {
	name, err := s.layout.Container(j)
	if err != nil {
		return err
	}
	pk, err := layout.PartitionKey(j)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(toJobDoc(j, pk))
	if err != nil {
		return fmt.Errorf("cosmoq/cosmos: marshal job: %w", err)
	}

	err = s.do(ctx, "update job", func() error {
		_, err := c.ReplaceItem(ctx, azcosmos.NewPartitionKeyString(pk), j.ID.String(), raw, nil)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return cosmoq.ErrJobNotFound
		}
		return fmt.Errorf("cosmoq/cosmos: update job: %w", err)
	}
	return nil
}

// DeleteJob removes a job by queue and ID.
func (s *Store) DeleteJob(ctx context.Context, queue string, jobID id.JobID) error {
	name, err := s.layout.ContainerForKind(document.KindJob)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}
	pk := layout.JobPartitionKey(queue)

	err = s.do(ctx, "delete job", func() error {
		_, err := c.DeleteItem(ctx, azcosmos.NewPartitionKeyString(pk), jobID.String(), nil)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return cosmoq.ErrJobNotFound
		}
		return fmt.Errorf("cosmoq/cosmos: delete job: %w", err)
	}
	return nil
}

// claimCandidate carries the server-generated etag alongside the envelope
// so the claim replace can be made conditional.
type claimCandidate struct {
	jobDoc
	ETag azcore.ETag `json:"_etag"`
}

// ClaimJob claims the oldest enqueued job in the queue for the server.
// The queue's jobs share one partition, so the candidate query is
// single-partition; the claim itself is an etag-guarded replace, retried on
// the next candidate when another server wins the race.
func (s *Store) ClaimJob(ctx context.Context, queue string, server id.ServerID) (*document.Job, error) {
	name, err := s.layout.ContainerForKind(document.KindJob)
	if err != nil {
		return nil, err
	}
	c, err := s.container(name)
	if err != nil {
		return nil, err
	}
	pk := layout.JobPartitionKey(queue)

	const query = `SELECT * FROM c WHERE c.type = "job" AND c.state = @state AND c.run_at <= @now ORDER BY c.created_at ASC`
	opts := &azcosmos.QueryOptions{
		QueryParameters: []azcosmos.QueryParameter{
			{Name: "@state", Value: string(document.JobEnqueued)},
			{Name: "@now", Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	}

	pager := c.NewQueryItemsPager(query, azcosmos.NewPartitionKeyString(pk), opts)
	for pager.More() {
		var resp azcosmos.QueryItemsResponse
		err = s.do(ctx, "claim job query", func() error {
			var err error
			resp, err = pager.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("cosmoq/cosmos: claim job query: %w", err)
		}

		for _, raw := range resp.Items {
			var cand claimCandidate
			if err := json.Unmarshal(raw, &cand); err != nil {
				return nil, fmt.Errorf("cosmoq/cosmos: decode claim candidate: %w", err)
			}

			claimed, err := s.tryClaim(ctx, c, pk, &cand, server)
			if err != nil {
				return nil, err
			}
			if claimed != nil {
				return claimed, nil
			}
			// Lost the race for this candidate; try the next one.
		}
	}

	return nil, cosmoq.ErrJobNotFound
}

// tryClaim attempts the etag-guarded state transition for one candidate.
// Returns (nil, nil) when another server claimed it first.
func (s *Store) tryClaim(ctx context.Context, c *azcosmos.ContainerClient, pk string, cand *claimCandidate, server id.ServerID) (*document.Job, error) {
	j, err := fromJobDoc(&cand.jobDoc)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	j.State = document.JobProcessing
	j.ServerID = server
	j.StartedAt = &now

	raw, err := json.Marshal(toJobDoc(j, pk))
	if err != nil {
		return nil, fmt.Errorf("cosmoq/cosmos: marshal claim: %w", err)
	}

	itemOpts := &azcosmos.ItemOptions{IfMatchEtag: &cand.ETag}
	err = s.do(ctx, "claim job", func() error {
		_, err := c.ReplaceItem(ctx, azcosmos.NewPartitionKeyString(pk), j.ID.String(), raw, itemOpts)
		return err
	})
	if err != nil {
		if isPreconditionFailed(err) || isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cosmoq/cosmos: claim job: %w", err)
	}
	return j, nil
}

// QueueLength counts enqueued jobs in the queue with a single-partition
// aggregate.
func (s *Store) QueueLength(ctx context.Context, queue string) (int, error) {
	name, err := s.layout.ContainerForKind(document.KindJob)
	if err != nil {
		return 0, err
	}
	c, err := s.container(name)
	if err != nil {
		return 0, err
	}
	pk := layout.JobPartitionKey(queue)

	const query = `SELECT VALUE COUNT(1) FROM c WHERE c.type = "job" AND c.state = @state`
	opts := &azcosmos.QueryOptions{
		QueryParameters: []azcosmos.QueryParameter{
			{Name: "@state", Value: string(document.JobEnqueued)},
		},
	}

	total := 0
	pager := c.NewQueryItemsPager(query, azcosmos.NewPartitionKeyString(pk), opts)
	for pager.More() {
		var resp azcosmos.QueryItemsResponse
		err = s.do(ctx, "queue length", func() error {
			var err error
			resp, err = pager.NextPage(ctx)
			return err
		})
		if err != nil {
			return 0, fmt.Errorf("cosmoq/cosmos: queue length: %w", err)
		}
		for _, raw := range resp.Items {
			var n int
			if err := json.Unmarshal(raw, &n); err != nil {
				return 0, fmt.Errorf("cosmoq/cosmos: decode count: %w", err)
			}
			total += n
		}
	}
	return total, nil
}
