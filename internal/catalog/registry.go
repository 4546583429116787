package catalog

import (
	"sort"

	"dnsc/internal/dnscerr"
	"dnsc/internal/encoding"
)

// Registry is an immutable, read-mostly repository of catalog types. It is
// never mutated in place: publishing a new item produces a new *Registry
// via WithPublished, following the teacher's ValidatorRegistry shape
// (internal/core/action_validator.go) but replacing its mutex-guarded maps
// with copy-on-write immutability, since spec.md §5 requires registry
// snapshots to be safely shared across concurrent requests without
// synchronization.
type Registry struct {
	items     map[Namespace]map[ItemID]map[Version]Type
	current   map[Namespace]map[ItemID]Version
	contracts map[Namespace]MaterializationContract
}

// NewRegistry builds an empty registry with the given per-namespace
// materialization contracts. Contracts are fixed at construction; a
// namespace with no declared contract has no solver/UI fields, so
// materialization selects none of its fields and drift compares none.
func NewRegistry(contracts map[Namespace]MaterializationContract) *Registry {
	frozen := make(map[Namespace]MaterializationContract, len(contracts))
	for k, v := range contracts {
		frozen[k] = v
	}
	return &Registry{
		items:     map[Namespace]map[ItemID]map[Version]Type{},
		current:   map[Namespace]map[ItemID]Version{},
		contracts: frozen,
	}
}

// WithPublished returns a new Registry with t added. Republishing an
// identical (namespace, id, version) triple is idempotent (returns an
// equivalent registry); republishing the same triple with different
// content is rejected, since spec.md §3.4 requires a frozen catalog item
// once published.
func (r *Registry) WithPublished(t Type) (*Registry, error) {
	next := r.clone()
	byID, ok := next.items[t.Namespace]
	if !ok {
		byID = map[ItemID]map[Version]Type{}
		next.items[t.Namespace] = byID
	}
	byVersion, ok := byID[t.ID]
	if !ok {
		byVersion = map[Version]Type{}
		byID[t.ID] = byVersion
	}
	if existing, ok := byVersion[t.Version]; ok {
		if !sameType(existing, t) {
			return nil, &dnscerr.CorruptedState{Reason: "republish of frozen catalog item " + string(t.Namespace) + "/" + string(t.ID) + "@" + string(t.Version) + " with different content"}
		}
	}
	byVersion[t.Version] = t

	currentByID, ok := next.current[t.Namespace]
	if !ok {
		currentByID = map[ItemID]Version{}
		next.current[t.Namespace] = currentByID
	}
	currentByID[t.ID] = t.Version
	return next, nil
}

func sameType(a, b Type) bool {
	if a.DisplayLabel != b.DisplayLabel || len(a.Fields) != len(b.Fields) {
		return false
	}
	for k, v := range a.Fields {
		ov, ok := b.Fields[k]
		if !ok {
			return false
		}
		av, aerr := encoding.Encode(v)
		bv, berr := encoding.Encode(ov)
		if aerr != nil || berr != nil || string(av) != string(bv) {
			return false
		}
	}
	return true
}

func (r *Registry) clone() *Registry {
	next := &Registry{
		items:     make(map[Namespace]map[ItemID]map[Version]Type, len(r.items)),
		current:   make(map[Namespace]map[ItemID]Version, len(r.current)),
		contracts: r.contracts,
	}
	for ns, byID := range r.items {
		newByID := make(map[ItemID]map[Version]Type, len(byID))
		for id, byVersion := range byID {
			newByVersion := make(map[Version]Type, len(byVersion))
			for v, t := range byVersion {
				newByVersion[v] = t
			}
			newByID[id] = newByVersion
		}
		next.items[ns] = newByID
	}
	for ns, byID := range r.current {
		newByID := make(map[ItemID]Version, len(byID))
		for id, v := range byID {
			newByID[id] = v
		}
		next.current[ns] = newByID
	}
	return next
}

// Get returns the current (latest-published) version of (namespace, id).
func (r *Registry) Get(ns Namespace, id ItemID) (Type, bool) {
	byID, ok := r.current[ns]
	if !ok {
		return Type{}, false
	}
	version, ok := byID[id]
	if !ok {
		return Type{}, false
	}
	return r.items[ns][id][version], true
}

// GetVersion returns a specific frozen version of (namespace, id),
// regardless of which version is current.
func (r *Registry) GetVersion(ns Namespace, id ItemID, version Version) (Type, bool) {
	byID, ok := r.items[ns]
	if !ok {
		return Type{}, false
	}
	byVersion, ok := byID[id]
	if !ok {
		return Type{}, false
	}
	t, ok := byVersion[version]
	return t, ok
}

// List returns the current items in a namespace sorted by (display label, id).
func (r *Registry) List(ns Namespace) []Type {
	byID, ok := r.current[ns]
	if !ok {
		return nil
	}
	out := make([]Type, 0, len(byID))
	for id, version := range byID {
		out = append(out, r.items[ns][id][version])
	}
	sort.Slice(out, func(i, j int) bool {
		li, ii := out[i].sortKey()
		lj, ij := out[j].sortKey()
		if li != lj {
			return li < lj
		}
		return ii < ij
	})
	return out
}

// MaterializationContract returns the declared contract for a namespace.
func (r *Registry) MaterializationContract(ns Namespace) (MaterializationContract, bool) {
	c, ok := r.contracts[ns]
	return c, ok
}
