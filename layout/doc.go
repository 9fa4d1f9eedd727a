// Package layout decides where cosmoq documents live in Cosmos DB: which
// container holds each document kind, and which partition key each document
// instance receives inside that container. These two decisions fix query
// locality, transaction scope, and throughput isolation, so they are made in
// exactly one place — here — and every storage backend routes through them.
//
// # Strategies
//
// Container placement follows one of two strategies chosen at startup:
//
//   - [StrategyDedicated]: one container per document kind (8 containers).
//     Strongest throughput and storage isolation per kind, highest fixed
//     provisioning cost.
//   - [StrategyConsolidated]: three containers — jobs alone, a shared
//     metadata container for servers/locks/queues/counters, and a shared
//     collections container for sets/hashes/lists. Lower fixed cost, shared
//     throughput budget across co-located kinds.
//
// Partition-key derivation is independent of the strategy: a job's key is
// "job:" + queue, collection members use "set:"/"hash:"/"list:" + key, and
// servers, locks, queues, and counters use fixed keys so each kind is
// listable with a single-partition query.
//
// # Purity
//
// Both resolutions are pure, O(1), and total over the closed kind set. A
// [Resolver] holds only a reference to its immutable [Config]; any number of
// goroutines may share it without synchronization. Resolution happens on
// every storage read and write, so nothing here allocates beyond the
// returned key string.
package layout
