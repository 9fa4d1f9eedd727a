// Package cosmoq provides durable job-queue persistence on Azure Cosmos DB.
// It is a storage library, not a service: import it, pick a container
// layout, and every job, server, lock, queue, set, hash, list, and counter
// document is routed to a deterministic (container, partition key) pair.
//
// # Quick Start
//
//	lay, err := layout.New(&layout.Config{
//	    Strategy:             layout.StrategyConsolidated,
//	    JobsContainer:        "jobs",
//	    MetadataContainer:    "metadata",
//	    CollectionsContainer: "collections",
//	})
//	store, err := cosmos.New(ctx, cosmos.Config{
//	    Endpoint: endpoint,
//	    Key:      key,
//	    Database: "cosmoq",
//	}, lay)
//
// # Architecture
//
// The heart of the library is the layout package: a pure, deterministic
// resolver mapping each document kind to a container and each document
// instance to a partition key. Storage backends (Cosmos, memory) never
// hardcode placement; they ask the resolver on every read and write, so
// query locality and transaction scope follow from one immutable
// configuration chosen at startup.
//
// All stored entity IDs use TypeID — type-prefixed, K-sortable,
// UUIDv7-based identifiers.
package cosmoq
