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

// AnnounceServer registers or refreshes a server record in the fixed
// servers partition.
func (s *Store) AnnounceServer(ctx context.Context, srv *document.Server) error {
	name, err := s.layout.Container(srv)
	if err != nil {
		return err
	}
	pk, err := layout.PartitionKey(srv)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}

	if srv.HeartbeatAt.IsZero() {
		srv.HeartbeatAt = time.Now().UTC()
	}

	raw, err := json.Marshal(toServerDoc(srv, pk))
	if err != nil {
		return fmt.Errorf("cosmoq/cosmos: marshal server: %w", err)
	}

	err = s.do(ctx, "announce server", func() error {
		_, err := c.UpsertItem(ctx, azcosmos.NewPartitionKeyString(pk), raw, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("cosmoq/cosmos: announce server: %w", err)
	}
	return nil
}

// Heartbeat patches the server's heartbeat timestamp in place.
func (s *Store) Heartbeat(ctx context.Context, serverID id.ServerID) error {
	name, err := s.layout.ContainerForKind(document.KindServer)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}
	pk := layout.ServersPartitionKey()

	patch := azcosmos.PatchOperations{}
	patch.AppendSet("/heartbeat_at", time.Now().UTC().Format(time.RFC3339Nano))

	err = s.do(ctx, "heartbeat", func() error {
		_, err := c.PatchItem(ctx, azcosmos.NewPartitionKeyString(pk), serverID.String(), patch, nil)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return cosmoq.ErrServerNotFound
		}
		return fmt.Errorf("cosmoq/cosmos: heartbeat: %w", err)
	}
	return nil
}

// RemoveServer deletes a server record.
func (s *Store) RemoveServer(ctx context.Context, serverID id.ServerID) error {
	name, err := s.layout.ContainerForKind(document.KindServer)
	if err != nil {
		return err
	}
	c, err := s.container(name)
	if err != nil {
		return err
	}
	pk := layout.ServersPartitionKey()

	err = s.do(ctx, "remove server", func() error {
		_, err := c.DeleteItem(ctx, azcosmos.NewPartitionKeyString(pk), serverID.String(), nil)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return cosmoq.ErrServerNotFound
		}
		return fmt.Errorf("cosmoq/cosmos: remove server: %w", err)
	}
	return nil
}

// ListServers returns the whole fleet with one single-partition query —
// the reason server documents share a fixed partition key.
func (s *Store) ListServers(ctx context.Context) ([]*document.Server, error) {
	name, err := s.layout.ContainerForKind(document.KindServer)
	if err != nil {
		return nil, err
	}
	c, err := s.container(name)
	if err != nil {
		return nil, err
	}
	pk := layout.ServersPartitionKey()

	const query = `SELECT * FROM c WHERE c.type = "server"`

	var servers []*document.Server
	pager := c.NewQueryItemsPager(query, azcosmos.NewPartitionKeyString(pk), nil)
	for pager.More() {
		var resp azcosmos.QueryItemsResponse
		err = s.do(ctx, "list servers", func() error {
			var err error
			resp, err = pager.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("cosmoq/cosmos: list servers: %w", err)
		}
		for _, raw := range resp.Items {
			var d serverDoc
			if err := json.Unmarshal(raw, &d); err != nil {
				return nil, fmt.Errorf("cosmoq/cosmos: decode server: %w", err)
			}
			srv, err := fromServerDoc(&d)
			if err != nil {
				return nil, err
			}
			servers = append(servers, srv)
		}
	}
	return servers, nil
}

// RemoveTimedOutServers deletes servers whose heartbeat predates the cutoff.
func (s *Store) RemoveTimedOutServers(ctx context.Context, cutoff time.Time) (int, error) {
	servers, err := s.ListServers(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, srv := range servers {
		if !srv.HeartbeatAt.Before(cutoff) {
			continue
		}
		err := s.RemoveServer(ctx, srv.ID)
		if err != nil && err != cosmoq.ErrServerNotFound {
			return removed, err
		}
		if err == nil {
			removed++
		}
	}
	return removed, nil
}
