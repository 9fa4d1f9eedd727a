// Package cosmos implements storage.Store on Azure Cosmos DB using the
// azcosmos SDK.
//
// Every operation resolves its target through the layout package first —
// container via layout.Resolver, partition key via layout.PartitionKey —
// then issues the item operation against that (container, key) pair.
// Multi-document writes within one logical collection run as transactional
// batches, which Cosmos permits because all members share a partition key.
//
// Throttled responses (HTTP 429) are retried with a configurable backoff
// strategy; an optional client-side rate limiter smooths write bursts below
// the provisioned request-unit budget.
package cosmos
