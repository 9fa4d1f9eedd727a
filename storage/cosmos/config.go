package cosmos

import (
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
)

// Config holds connection settings for the Cosmos backend. Exactly one
// credential source must be set: ConnectionString, Endpoint+Key, or
// Endpoint+UseAzureAD.
type Config struct {
	// Endpoint is the Cosmos account endpoint, e.g.
	// "https://myaccount.documents.azure.com:443/".
	Endpoint string

	// Key is the account master or read-write key. Used with Endpoint.
	Key string

	// ConnectionString is an AccountEndpoint=...;AccountKey=...; string.
	// Mutually exclusive with Endpoint/Key.
	ConnectionString string

	// UseAzureAD authenticates with DefaultAzureCredential instead of a
	// key. Requires Endpoint.
	UseAzureAD bool

	// Database is the database ID holding all cosmoq containers.
	Database string

	// Throughput is the manual request-unit throughput assigned to each
	// container at provisioning. Zero leaves the account default.
	Throughput int32
}

// Validate checks that the config names a database and exactly one
// credential source.
func (c Config) Validate() error {
	if c.Database == "" {
		return errors.New("cosmoq/cosmos: Database is required")
	}

	switch {
	case c.ConnectionString != "":
		if c.Endpoint != "" || c.Key != "" || c.UseAzureAD {
			return errors.New("cosmoq/cosmos: ConnectionString is mutually exclusive with Endpoint, Key, and UseAzureAD")
		}
	case c.UseAzureAD:
		if c.Endpoint == "" {
			return errors.New("cosmoq/cosmos: UseAzureAD requires Endpoint")
		}
		if c.Key != "" {
			return errors.New("cosmoq/cosmos: UseAzureAD is mutually exclusive with Key")
		}
	case c.Endpoint != "" && c.Key != "":
		// key auth
	default:
		return errors.New("cosmoq/cosmos: no credentials: set ConnectionString, Endpoint+Key, or Endpoint with UseAzureAD")
	}

	return nil
}

// newClient builds the azcosmos client for the configured credential source.
func newClient(cfg Config) (*azcosmos.Client, error) {
	switch {
	case cfg.ConnectionString != "":
		client, err := azcosmos.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("cosmoq/cosmos: client from connection string: %w", err)
		}
		return client, nil

	case cfg.UseAzureAD:
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("cosmoq/cosmos: azure ad credential: %w", err)
		}
		client, err := azcosmos.NewClient(cfg.Endpoint, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("cosmoq/cosmos: client with azure ad: %w", err)
		}
		return client, nil

	default:
		cred, err := azcosmos.NewKeyCredential(cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("cosmoq/cosmos: key credential: %w", err)
		}
		client, err := azcosmos.NewClientWithKey(cfg.Endpoint, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("cosmoq/cosmos: client with key: %w", err)
		}
		return client, nil
	}
}
