package snapshot

import (
	"sort"
	"time"

	"dnsc/internal/dnscerr"
)

// Params is the fully-assembled entity set a Snapshot is constructed from.
// Every map is keyed by element id. Constructors reject on invariant
// failure (spec.md §3.3); nothing partially-valid is ever returned.
type Params struct {
	ID             string
	ParentID       *string
	CreatedAt      time.Time // informational only; excluded from the fingerprint
	NetworkModelID string
	SchemaVersion  string

	Nodes                 map[string]Node
	Branches              map[string]Branch
	Switches              map[string]Switch
	Sources               map[string]Source
	Loads                 map[string]Load
	Substations           map[string]Substation
	Bays                  map[string]Bay
	Junctions             map[string]Junction
	Corridors             map[string]Corridor
	Measurements          map[string]Measurement
	ProtectionAssignments map[string]ProtectionAssignment
	Generators            map[string]Generator
}

// Snapshot is an immutable, content-addressed image of a network. Once
// constructed it is never mutated; every accessor returns a fresh sorted
// slice so callers cannot observe or corrupt internal state.
type Snapshot struct {
	id             string
	parentID       *string
	createdAt      time.Time
	networkModelID string
	schemaVersion  string
	fingerprint    string

	nodes                 map[string]Node
	branches              map[string]Branch
	switches              map[string]Switch
	sources               map[string]Source
	loads                 map[string]Load
	substations           map[string]Substation
	bays                  map[string]Bay
	junctions             map[string]Junction
	corridors             map[string]Corridor
	measurements          map[string]Measurement
	protectionAssignments map[string]ProtectionAssignment
	generators            map[string]Generator
}

// New validates p against spec.md §3.3's invariants and, if they hold,
// builds an immutable Snapshot with its fingerprint precomputed.
func New(p Params) (*Snapshot, error) {
	if err := validate(p); err != nil {
		return nil, err
	}
	s := &Snapshot{
		id:                    p.ID,
		parentID:              p.ParentID,
		createdAt:             p.CreatedAt,
		networkModelID:        p.NetworkModelID,
		schemaVersion:         p.SchemaVersion,
		nodes:                 cloneMap(p.Nodes),
		branches:              cloneMap(p.Branches),
		switches:              cloneMap(p.Switches),
		sources:               cloneMap(p.Sources),
		loads:                 cloneMap(p.Loads),
		substations:           cloneMap(p.Substations),
		bays:                  cloneMap(p.Bays),
		junctions:             cloneMap(p.Junctions),
		corridors:             cloneMap(p.Corridors),
		measurements:          cloneMap(p.Measurements),
		protectionAssignments: cloneMap(p.ProtectionAssignments),
		generators:            cloneMap(p.Generators),
	}
	fp, err := s.computeFingerprint()
	if err != nil {
		return nil, err
	}
	s.fingerprint = fp
	return s, nil
}

// AsParams returns a deep copy of s's entity set as a Params value, suitable
// as the starting point for building a child snapshot. ID, ParentID, and
// CreatedAt are copied verbatim; callers deriving a child must overwrite
// them before calling New.
func (s *Snapshot) AsParams() Params {
	return Params{
		ID:                    s.id,
		ParentID:              s.parentID,
		CreatedAt:             s.createdAt,
		NetworkModelID:        s.networkModelID,
		SchemaVersion:         s.schemaVersion,
		Nodes:                 cloneMap(s.nodes),
		Branches:              cloneMap(s.branches),
		Switches:              cloneMap(s.switches),
		Sources:               cloneMap(s.sources),
		Loads:                 cloneMap(s.loads),
		Substations:           cloneMap(s.substations),
		Bays:                  cloneMap(s.bays),
		Junctions:             cloneMap(s.junctions),
		Corridors:             cloneMap(s.corridors),
		Measurements:          cloneMap(s.measurements),
		ProtectionAssignments: cloneMap(s.protectionAssignments),
		Generators:            cloneMap(s.generators),
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ID returns the snapshot's own identifier (equal to the id of the action
// that produced it, or a genesis/import id).
func (s *Snapshot) ID() string { return s.id }

// ParentID returns the parent snapshot id, or nil for a genesis/import snapshot.
func (s *Snapshot) ParentID() *string { return s.parentID }

// CreatedAt is informational only; it never participates in the fingerprint.
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }

// NetworkModelID identifies the owning network model.
func (s *Snapshot) NetworkModelID() string { return s.networkModelID }

// SchemaVersion is the structural payload's schema version.
func (s *Snapshot) SchemaVersion() string { return s.schemaVersion }

// Fingerprint returns the precomputed SHA-256 of the canonical structural payload.
func (s *Snapshot) Fingerprint() string { return s.fingerprint }

// Nodes returns all nodes sorted by id.
func (s *Snapshot) Nodes() []Node { return sortedValues(s.nodes) }

// Node looks up a single node by id.
func (s *Snapshot) Node(id string) (Node, bool) { n, ok := s.nodes[id]; return n, ok }

// Branches returns all branches sorted by id.
func (s *Snapshot) Branches() []Branch { return sortedValues(s.branches) }

// Branch looks up a single branch by id.
func (s *Snapshot) Branch(id string) (Branch, bool) { b, ok := s.branches[id]; return b, ok }

// Switches returns all switches sorted by id.
func (s *Snapshot) Switches() []Switch { return sortedValues(s.switches) }

// Switch looks up a single switch by id.
func (s *Snapshot) Switch(id string) (Switch, bool) { sw, ok := s.switches[id]; return sw, ok }

// Sources returns all sources sorted by id.
func (s *Snapshot) Sources() []Source { return sortedValues(s.sources) }

// Loads returns all loads sorted by id.
func (s *Snapshot) Loads() []Load { return sortedValues(s.loads) }

// Substations returns all substations sorted by id.
func (s *Snapshot) Substations() []Substation { return sortedValues(s.substations) }

// Bays returns all bays sorted by id.
func (s *Snapshot) Bays() []Bay { return sortedValues(s.bays) }

// Junctions returns all junctions sorted by id.
func (s *Snapshot) Junctions() []Junction { return sortedValues(s.junctions) }

// Corridors returns all corridors sorted by id.
func (s *Snapshot) Corridors() []Corridor { return sortedValues(s.corridors) }

// Measurements returns all measurements sorted by id.
func (s *Snapshot) Measurements() []Measurement { return sortedValues(s.measurements) }

// ProtectionAssignments returns all protection assignments sorted by id.
func (s *Snapshot) ProtectionAssignments() []ProtectionAssignment {
	return sortedValues(s.protectionAssignments)
}

// Generators returns all generators sorted by id.
func (s *Snapshot) Generators() []Generator { return sortedValues(s.generators) }

func sortedValues[V any](m map[string]V) []V {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]V, 0, len(m))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func validate(p Params) error {
	var issues []dnscerr.Issue

	nodeExists := func(id string) bool { _, ok := p.Nodes[id]; return ok }
	busExists := func(id string) bool {
		if nodeExists(id) {
			return true
		}
		return false
	}

	for id, b := range p.Branches {
		if b.ID != id {
			issues = append(issues, dnscerr.Issue{Code: "E-ID01", Message: "identyfikator gałęzi niespójny z kluczem mapy", ElementRef: id})
		}
		if !nodeExists(b.FromNode) {
			issues = append(issues, dnscerr.Issue{Code: "E-D02", Message: "węzeł początkowy gałęzi nie istnieje", ElementRef: id, Path: "from_node"})
		}
		if !nodeExists(b.ToNode) {
			issues = append(issues, dnscerr.Issue{Code: "E-D02", Message: "węzeł końcowy gałęzi nie istnieje", ElementRef: id, Path: "to_node"})
		}
		if b.FromNode == b.ToNode && b.FromNode != "" {
			issues = append(issues, dnscerr.Issue{Code: "E-D06", Message: "końce gałęzi muszą być różne", ElementRef: id})
		}
		// Non-zero-impedance resolvability (E-D05) is intentionally NOT a
		// construction-time rejection: spec.md §4.F lists E-D05 as a rule
		// the Validation Engine fires over an already-built snapshot, which
		// implies a snapshot lacking resolvable impedance is a valid,
		// constructible (if blocked) network state. See DESIGN.md.
	}

	for id, sw := range p.Switches {
		if !nodeExists(sw.FromNode) || !nodeExists(sw.ToNode) {
			issues = append(issues, dnscerr.Issue{Code: "E-D02", Message: "punkt końcowy łącznika nie istnieje", ElementRef: id})
		}
	}

	for id, src := range p.Sources {
		if !nodeExists(src.NodeID) {
			issues = append(issues, dnscerr.Issue{Code: "E-D04", Message: "węzeł źródła nie istnieje", ElementRef: id})
		}
	}

	for id, ld := range p.Loads {
		if !nodeExists(ld.NodeID) {
			issues = append(issues, dnscerr.Issue{Code: "E-D04", Message: "węzeł odbioru nie istnieje", ElementRef: id})
		}
	}

	for id, bay := range p.Bays {
		if !busExists(bay.BusRef) {
			issues = append(issues, dnscerr.Issue{Code: "E-D07", Message: "szyna pola nie istnieje", ElementRef: id})
		}
	}

	for id, sub := range p.Substations {
		for _, busRef := range sub.BusRefs {
			if !busExists(busRef) {
				issues = append(issues, dnscerr.Issue{Code: "E-D08", Message: "szyna stacji nie istnieje", ElementRef: id, Path: busRef})
			}
		}
	}

	// Nominal voltage > 0 (spec.md §3.2) is likewise left to the Validation
	// Engine rather than enforced here, for the same reason as E-D05.

	for id, b := range p.Branches {
		if b.CatalogBinding != nil && b.CatalogBinding.MaterializedHash == "" {
			issues = append(issues, dnscerr.Issue{Code: "E-D16", Message: "wiązanie katalogowe bez zmaterializowanego skrótu", ElementRef: id})
		}
	}

	for id, g := range p.Generators {
		if g.CatalogBinding != nil && g.CatalogBinding.MaterializedHash == "" {
			issues = append(issues, dnscerr.Issue{Code: "E-D16", Message: "wiązanie katalogowe bez zmaterializowanego skrótu", ElementRef: id})
		}
		if g.Technology == TechnologySynchronous {
			continue
		}
		if g.ConnectionVariant == nil {
			issues = append(issues, dnscerr.Issue{Code: "E-D10", Message: "generator falownikowy musi mieć określony wariant przyłączenia", ElementRef: id})
			continue
		}
		switch *g.ConnectionVariant {
		case ConnectionNNSide:
			if g.SubstationRef == nil || !subExists(p, *g.SubstationRef) {
				issues = append(issues, dnscerr.Issue{Code: "E-D11", Message: "wariant nn_side wymaga poprawnego odwołania do stacji", ElementRef: id})
			}
		case ConnectionBlockTransformer:
			if g.TransformerRef == nil || !branchExists(p, *g.TransformerRef) {
				issues = append(issues, dnscerr.Issue{Code: "E-D12", Message: "wariant block_transformer wymaga poprawnego odwołania do transformatora", ElementRef: id})
			}
		default:
			issues = append(issues, dnscerr.Issue{Code: "E-D13", Message: "nieznany wariant przyłączenia generatora", ElementRef: id})
		}
	}

	for id, m := range p.Measurements {
		if !elementExists(p, m.ElementRef) {
			issues = append(issues, dnscerr.Issue{Code: "E-D14", Message: "element odwołania pomiaru nie istnieje", ElementRef: id})
		}
	}

	for id, pa := range p.ProtectionAssignments {
		if !elementExists(p, pa.ElementRef) {
			issues = append(issues, dnscerr.Issue{Code: "E-D15", Message: "element odwołania zabezpieczenia nie istnieje", ElementRef: id})
		}
	}

	if len(issues) > 0 {
		sortIssues(issues)
		return &dnscerr.ValidationError{Issues: issues}
	}
	return nil
}

func subExists(p Params, id string) bool { _, ok := p.Substations[id]; return ok }
func branchExists(p Params, id string) bool { _, ok := p.Branches[id]; return ok }

func elementExists(p Params, id string) bool {
	if _, ok := p.Branches[id]; ok {
		return true
	}
	if _, ok := p.Switches[id]; ok {
		return true
	}
	if _, ok := p.Nodes[id]; ok {
		return true
	}
	return false
}

func sortIssues(issues []dnscerr.Issue) {
	sort.Slice(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.ElementRef != b.ElementRef {
			return a.ElementRef < b.ElementRef
		}
		return a.Message < b.Message
	})
}

