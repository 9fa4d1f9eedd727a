package layout

import (
	"fmt"

	"github.com/xraph/cosmoq"
	"github.com/xraph/cosmoq/document"
)

// Resolver maps document kinds to container names under an immutable,
// validated Config. Safe for unsynchronized concurrent use.
type Resolver struct {
	cfg *Config
}

// New validates cfg and builds a Resolver over it. The caller must not
// mutate cfg afterwards.
func New(cfg *Config) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Resolver{cfg: cfg}, nil
}

// ContainerForKind returns the container holding documents of the given
// kind. Pure O(1) lookup; the returned string is a reference into the
// Config, never a copy.
func (r *Resolver) ContainerForKind(k document.Kind) (string, error) {
	if r.cfg.Strategy == StrategyDedicated {
		switch k {
		case document.KindJob:
			return r.cfg.JobsContainer, nil
		case document.KindServer:
			return r.cfg.ServersContainer, nil
		case document.KindLock:
			return r.cfg.LocksContainer, nil
		case document.KindQueue:
			return r.cfg.QueuesContainer, nil
		case document.KindSet:
			return r.cfg.SetsContainer, nil
		case document.KindHash:
			return r.cfg.HashesContainer, nil
		case document.KindList:
			return r.cfg.ListsContainer, nil
		case document.KindCounter:
			return r.cfg.CountersContainer, nil
		}
		return "", fmt.Errorf("%w: kind %d", cosmoq.ErrUnsupportedKind, int(k))
	}

	switch k {
	case document.KindJob:
		return r.cfg.JobsContainer, nil
	case document.KindServer, document.KindLock, document.KindQueue, document.KindCounter:
		return r.cfg.MetadataContainer, nil
	case document.KindSet, document.KindHash, document.KindList:
		return r.cfg.CollectionsContainer, nil
	}

	return "", fmt.Errorf("%w: kind %d", cosmoq.ErrUnsupportedKind, int(k))
}

// Container returns the container holding the given document.
func (r *Resolver) Container(doc document.Document) (string, error) {
	return r.ContainerForKind(doc.Kind())
}

// Containers returns the deduplicated set of container names the active
// strategy requires, in a stable order: 8 names under StrategyDedicated
// (assuming distinct configured names), 3 under StrategyConsolidated.
// Intended for provisioning at startup, not the per-operation path.
func (r *Resolver) Containers() []string {
	names := make([]string, 0, len(kindOrder))
	seen := make(map[string]struct{}, len(kindOrder))

	for _, k := range kindOrder {
		name, err := r.ContainerForKind(k)
		if err != nil {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	return names
}

// Strategy returns the active layout strategy.
func (r *Resolver) Strategy() Strategy {
	return r.cfg.Strategy
}

// kindOrder fixes the enumeration order of Containers.
var kindOrder = []document.Kind{
	document.KindJob,
	document.KindServer,
	document.KindLock,
	document.KindQueue,
	document.KindSet,
	document.KindHash,
	document.KindList,
	document.KindCounter,
}
