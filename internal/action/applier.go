package action

import (
	"sort"

	"dnsc/internal/catalog"
	"dnsc/internal/dnscerr"
	"dnsc/internal/materialize"
	"dnsc/internal/snapshot"
)

// Applier turns one validated Envelope into a child of its parent snapshot.
// It never mutates the parent: every handler works against a fresh
// snapshot.Params copy obtained from snapshot.AsParams.
type Applier struct {
	registry *catalog.Handle
}

// NewApplier builds an Applier resolving catalog bindings against whatever
// registry is current on h at apply time.
func NewApplier(h *catalog.Handle) *Applier {
	return &Applier{registry: h}
}

type rejection struct {
	issues []dnscerr.Issue
}

func (r *rejection) add(code, message, path string) {
	r.issues = append(r.issues, dnscerr.Issue{Code: code, Message: message, Path: path})
}

func (r *rejection) err() error {
	if len(r.issues) == 0 {
		return nil
	}
	sort.Slice(r.issues, func(i, j int) bool {
		a, b := r.issues[i], r.issues[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Path < b.Path
	})
	return &dnscerr.Rejected{Issues: r.issues}
}

// Apply validates env against parent and, on success, returns the resulting
// child snapshot plus its audit trail. On validation failure it returns a
// *dnscerr.Rejected and no snapshot. A post-apply invariant break (a bug,
// never a well-formed input) surfaces as *dnscerr.CorruptedState.
func (a *Applier) Apply(parent *snapshot.Snapshot, env Envelope) (*snapshot.Snapshot, []Event, error) {
	tag, err := Resolve(env.Tag)
	if err != nil {
		return nil, nil, err
	}

	params := parent.AsParams()
	params.ID = env.ActionID
	parentID := parent.ID()
	params.ParentID = &parentID

	var events []Event
	rej := &rejection{}

	switch tag {
	case TagCreateNode:
		events = a.applyCreateNode(&params, env, rej)
	case TagCreateBranch:
		events = a.applyCreateBranch(&params, env, rej)
	case TagSetInService:
		events = a.applySetInService(&params, env, rej)
	case TagAssignCatalogToElement:
		events = a.applyAssignCatalog(&params, env, rej)
	case TagAddGridSourceSN:
		events = a.applyAddGridSourceSN(&params, env, rej)
	case TagContinueTrunkSegmentSN:
		events = a.applyContinueTrunkSegmentSN(&params, env, rej)
	case TagInsertStationOnSegment:
		events = a.applyInsertStationOnSegmentSN(&params, env, rej)
	case TagConnectSecondaryRingSN:
		events = a.applyConnectSecondaryRingSN(&params, env, rej)
	case TagSetNormalOpenPoint:
		events = a.applySetNormalOpenPoint(&params, env, rej)
	default:
		return nil, nil, dnscerr.ErrUnknownAction
	}

	if err := rej.err(); err != nil {
		return nil, nil, err
	}

	child, err := snapshot.New(params)
	if err != nil {
		// The handler raised no rejection, yet snapshot.New's validate()
		// refused the result; a rejection-free handler producing an invalid
		// snapshot is an applier bug.
		return nil, nil, &dnscerr.CorruptedState{Reason: "applied action produced an invalid snapshot: " + err.Error()}
	}
	sortEvents(events)
	return child, events, nil
}

func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Code != events[j].Code {
			return events[i].Code < events[j].Code
		}
		return events[i].ElementRef < events[j].ElementRef
	})
}

func str(payload map[string]any, key string) (string, bool) {
	v, ok := payload[key].(string)
	return v, ok
}

func flt(payload map[string]any, key string) (float64, bool) {
	v, ok := payload[key].(float64)
	return v, ok
}

func bl(payload map[string]any, key string) (bool, bool) {
	v, ok := payload[key].(bool)
	return v, ok
}

func (a *Applier) applyCreateNode(p *snapshot.Params, env Envelope, rej *rejection) []Event {
	id, ok := str(env.Payload, "id")
	if !ok || id == "" {
		rej.add("E-A01", "akcja create_node wymaga pola id", "id")
		return nil
	}
	if _, exists := p.Nodes[id]; exists {
		rej.add("E-A02", "węzeł o podanym identyfikatorze już istnieje", "id")
		return nil
	}
	kindStr, _ := str(env.Payload, "kind")
	voltage, _ := flt(env.Payload, "voltage_level")
	name, _ := str(env.Payload, "name")

	if p.Nodes == nil {
		p.Nodes = map[string]snapshot.Node{}
	}
	p.Nodes[id] = snapshot.Node{
		ID:               id,
		DisplayName:      name,
		Kind:             snapshot.NodeKind(kindStr),
		NominalVoltageKV: voltage,
	}
	return []Event{{Code: "EVT-NODE-CREATED", ElementRef: id, Payload: map[string]any{"kind": kindStr}}}
}

func (a *Applier) applyCreateBranch(p *snapshot.Params, env Envelope, rej *rejection) []Event {
	id, ok := str(env.Payload, "id")
	if !ok || id == "" {
		rej.add("E-A01", "akcja create_branch wymaga pola id", "id")
		return nil
	}
	if _, exists := p.Branches[id]; exists {
		rej.add("E-A02", "gałąź o podanym identyfikatorze już istnieje", "id")
		return nil
	}
	from, _ := str(env.Payload, "from_node")
	to, _ := str(env.Payload, "to_node")
	if _, ok := p.Nodes[from]; !ok {
		rej.add("E-D02", "węzeł początkowy gałęzi nie istnieje", "from_node")
	}
	if _, ok := p.Nodes[to]; !ok {
		rej.add("E-D02", "węzeł końcowy gałęzi nie istnieje", "to_node")
	}
	if len(rej.issues) > 0 {
		return nil
	}
	kindStr, _ := str(env.Payload, "kind")
	lengthKm, _ := flt(env.Payload, "length_km")

	branch := snapshot.Branch{
		ID:        id,
		Kind:      snapshot.BranchKind(kindStr),
		FromNode:  from,
		ToNode:    to,
		InService: true,
		LengthKm:  lengthKm,
	}
	if rOhm, ok := flt(env.Payload, "r_ohm_per_km"); ok {
		xOhm, _ := flt(env.Payload, "x_ohm_per_km")
		bMicro, _ := flt(env.Payload, "b_microsiemens_per_km")
		branch.InlineImpedance = &snapshot.InlineImpedance{ROhmPerKm: rOhm, XOhmPerKm: xOhm, BMicroSiemensPerKm: bMicro}
	}
	if p.Branches == nil {
		p.Branches = map[string]snapshot.Branch{}
	}
	p.Branches[id] = branch
	return []Event{{Code: "EVT-BRANCH-CREATED", ElementRef: id, Payload: map[string]any{"from": from, "to": to}}}
}

func (a *Applier) applySetInService(p *snapshot.Params, env Envelope, rej *rejection) []Event {
	ref, ok := str(env.Payload, "element_ref")
	if !ok || ref == "" {
		rej.add("E-A01", "akcja set_in_service wymaga pola element_ref", "element_ref")
		return nil
	}
	flag, ok := bl(env.Payload, "in_service")
	if !ok {
		rej.add("E-A01", "akcja set_in_service wymaga pola in_service", "in_service")
		return nil
	}
	if b, exists := p.Branches[ref]; exists {
		b.InService = flag
		p.Branches[ref] = b
		return []Event{{Code: "EVT-IN-SERVICE-SET", ElementRef: ref, Payload: map[string]any{"in_service": flag}}}
	}
	if sw, exists := p.Switches[ref]; exists {
		sw.InService = flag
		p.Switches[ref] = sw
		return []Event{{Code: "EVT-IN-SERVICE-SET", ElementRef: ref, Payload: map[string]any{"in_service": flag}}}
	}
	if src, exists := p.Sources[ref]; exists {
		src.InService = flag
		p.Sources[ref] = src
		return []Event{{Code: "EVT-IN-SERVICE-SET", ElementRef: ref, Payload: map[string]any{"in_service": flag}}}
	}
	if ld, exists := p.Loads[ref]; exists {
		ld.InService = flag
		p.Loads[ref] = ld
		return []Event{{Code: "EVT-IN-SERVICE-SET", ElementRef: ref, Payload: map[string]any{"in_service": flag}}}
	}
	rej.add("E-D02", "element odwołania set_in_service nie istnieje", "element_ref")
	return nil
}

func (a *Applier) applyAssignCatalog(p *snapshot.Params, env Envelope, rej *rejection) []Event {
	ref, ok := str(env.Payload, "element_ref")
	if !ok || ref == "" {
		rej.add("E-A01", "akcja assign_catalog_to_element wymaga pola element_ref", "element_ref")
		return nil
	}
	ns, _ := str(env.Payload, "namespace")
	itemID, _ := str(env.Payload, "item_id")
	version, _ := str(env.Payload, "item_version")

	reg := a.registry.Load()
	t, ok := reg.Get(catalog.Namespace(ns), catalog.ItemID(itemID))
	if !ok {
		rej.add("E-A03", "wskazany element katalogu nie istnieje", "item_id")
		return nil
	}
	if version != "" && t.Version != catalog.Version(version) {
		t, ok = reg.GetVersion(catalog.Namespace(ns), catalog.ItemID(itemID), catalog.Version(version))
		if !ok {
			rej.add("E-A03", "wskazana wersja elementu katalogu nie istnieje", "item_version")
			return nil
		}
	}

	contract, _ := reg.MaterializationContract(catalog.Namespace(ns))
	fields, prov, missing := materialize.Select(t, contract)
	for _, issue := range missing {
		rej.add(issue.Code, issue.Message, ref)
	}
	if len(rej.issues) > 0 {
		return nil
	}
	hash, err := materialize.Hash(fields)
	if err != nil {
		rej.add("E-A05", "nie udało się zmaterializować parametrów katalogowych", ref)
		return nil
	}
	binding := &snapshot.CatalogBinding{
		Namespace:          t.Namespace,
		ItemID:             t.ID,
		ItemVersion:        t.Version,
		MaterializedFields: fields,
		MaterializedHash:   hash,
		Provenance:         prov,
	}

	if b, exists := p.Branches[ref]; exists {
		b.CatalogBinding = binding
		p.Branches[ref] = b
		return []Event{{Code: "EVT-CATALOG-ASSIGNED", ElementRef: ref, Payload: map[string]any{"item_id": itemID}}}
	}
	if g, exists := p.Generators[ref]; exists {
		g.CatalogBinding = binding
		p.Generators[ref] = g
		return []Event{{Code: "EVT-CATALOG-ASSIGNED", ElementRef: ref, Payload: map[string]any{"item_id": itemID}}}
	}
	if m, exists := p.Measurements[ref]; exists {
		m.CatalogBinding = binding
		p.Measurements[ref] = m
		return []Event{{Code: "EVT-CATALOG-ASSIGNED", ElementRef: ref, Payload: map[string]any{"item_id": itemID}}}
	}
	rej.add("E-D02", "element odwołania przypisania katalogu nie istnieje", "element_ref")
	return nil
}
