// Package document defines the closed set of document kinds cosmoq persists
// and the Go types representing each kind.
//
// # Kinds
//
// Every stored document belongs to exactly one [Kind]: [KindJob],
// [KindServer], [KindLock], [KindQueue], [KindSet], [KindHash], [KindList],
// or [KindCounter]. The set is closed — storage placement in the layout
// package dispatches on it with an exhaustive switch, so adding a kind means
// updating both resolvers there.
//
// # Routing fields
//
// A kind either routes on a field or it does not:
//   - [Job] routes on its queue name
//   - [SetEntry], [HashField], and [ListEntry] route on their logical
//     collection key
//   - [Server], [Lock], [Queue], and [Counter] carry no routing field;
//     every instance of the kind shares one partition
//
// Each type exposes its routing field through [Document.RoutingKey], so the
// layout resolvers dispatch on the kind tag alone and never inspect concrete
// types. Kinds and their fields are otherwise free of storage concerns; the
// envelope written to Cosmos lives in the backend packages.
package document
