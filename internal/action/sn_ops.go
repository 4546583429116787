package action

import "dnsc/internal/snapshot"

// The _sn actions are canonical domain operations that expand into one or
// more primitive element additions against the same params copy the
// primitive handlers mutate. They reuse the primitive handlers so the two
// layers can never drift in validation behavior.

// applyAddGridSourceSN creates a slack node (unless node_id already exists)
// and a grid source bound to it — the standard way a new feed point enters a
// network.
func (a *Applier) applyAddGridSourceSN(p *snapshot.Params, env Envelope, rej *rejection) []Event {
	nodeID, _ := str(env.Payload, "node_id")
	sourceID, _ := str(env.Payload, "source_id")
	if nodeID == "" || sourceID == "" {
		rej.add("E-A01", "akcja add_grid_source_sn wymaga pól node_id i source_id", "node_id")
		return nil
	}
	voltage, _ := flt(env.Payload, "voltage_level")
	name, _ := str(env.Payload, "name")

	var events []Event
	if _, exists := p.Nodes[nodeID]; !exists {
		nodeEnv := Envelope{Payload: map[string]any{"id": nodeID, "kind": string(snapshot.NodeSlack), "voltage_level": voltage, "name": name}}
		events = append(events, a.applyCreateNode(p, nodeEnv, rej)...)
		if len(rej.issues) > 0 {
			return nil
		}
	}

	if p.Sources == nil {
		p.Sources = map[string]snapshot.Source{}
	}
	if _, exists := p.Sources[sourceID]; exists {
		rej.add("E-A02", "źródło o podanym identyfikatorze już istnieje", "source_id")
		return nil
	}
	payload := map[string]float64{}
	if skA, ok := flt(env.Payload, "short_circuit_power_mva"); ok {
		payload["short_circuit_power_mva"] = skA
	}
	p.Sources[sourceID] = snapshot.Source{
		ID:        sourceID,
		NodeID:    nodeID,
		Model:     snapshot.SourceShortCircuitPower,
		InService: true,
		Payload:   payload,
	}
	events = append(events, Event{Code: "EVT-GRID-SOURCE-ADDED", ElementRef: sourceID, Payload: map[string]any{"node_id": nodeID}})
	return events
}

// applyContinueTrunkSegmentSN extends an existing trunk by one node and one
// branch leaving fromNode.
func (a *Applier) applyContinueTrunkSegmentSN(p *snapshot.Params, env Envelope, rej *rejection) []Event {
	fromNode, _ := str(env.Payload, "from_node")
	newNodeID, _ := str(env.Payload, "new_node_id")
	branchID, _ := str(env.Payload, "branch_id")
	if fromNode == "" || newNodeID == "" || branchID == "" {
		rej.add("E-A01", "akcja continue_trunk_segment_sn wymaga pól from_node, new_node_id i branch_id", "from_node")
		return nil
	}
	if _, exists := p.Nodes[fromNode]; !exists {
		rej.add("E-D02", "węzeł początkowy przedłużenia ciągu nie istnieje", "from_node")
		return nil
	}
	voltage, _ := flt(env.Payload, "voltage_level")

	var events []Event
	nodeEnv := Envelope{Payload: map[string]any{"id": newNodeID, "kind": string(snapshot.NodePQ), "voltage_level": voltage}}
	events = append(events, a.applyCreateNode(p, nodeEnv, rej)...)
	if len(rej.issues) > 0 {
		return nil
	}

	branchPayload := map[string]any{
		"id": branchID, "kind": string(snapshot.BranchLine), "from_node": fromNode, "to_node": newNodeID,
	}
	if v, ok := flt(env.Payload, "length_km"); ok {
		branchPayload["length_km"] = v
	}
	if v, ok := flt(env.Payload, "r_ohm_per_km"); ok {
		branchPayload["r_ohm_per_km"] = v
	}
	if v, ok := flt(env.Payload, "x_ohm_per_km"); ok {
		branchPayload["x_ohm_per_km"] = v
	}
	if v, ok := flt(env.Payload, "b_microsiemens_per_km"); ok {
		branchPayload["b_microsiemens_per_km"] = v
	}
	branchEnv := Envelope{Payload: branchPayload}
	events = append(events, a.applyCreateBranch(p, branchEnv, rej)...)
	if len(rej.issues) > 0 {
		return nil
	}
	return events
}

// applyInsertStationOnSegmentSN splits the segment_ref branch at a new node, replacing it
// with two branches, and registers a substation at the split point.
func (a *Applier) applyInsertStationOnSegmentSN(p *snapshot.Params, env Envelope, rej *rejection) []Event {
	segmentID, _ := str(env.Payload, "segment_ref")
	newNodeID, _ := str(env.Payload, "new_node_id")
	stationID, _ := str(env.Payload, "station_id")
	firstHalfID, _ := str(env.Payload, "first_half_id")
	secondHalfID, _ := str(env.Payload, "second_half_id")
	if segmentID == "" || newNodeID == "" || stationID == "" || firstHalfID == "" || secondHalfID == "" {
		rej.add("E-A01", "akcja insert_station_on_segment_sn wymaga pól segment_ref, new_node_id, station_id, first_half_id i second_half_id", "segment_ref")
		return nil
	}
	original, exists := p.Branches[segmentID]
	if !exists {
		rej.add("E-D02", "wskazany odcinek do podziału nie istnieje", "segment_ref")
		return nil
	}
	voltage, _ := flt(env.Payload, "voltage_level")

	var events []Event
	nodeEnv := Envelope{Payload: map[string]any{"id": newNodeID, "kind": string(snapshot.NodePQ), "voltage_level": voltage}}
	events = append(events, a.applyCreateNode(p, nodeEnv, rej)...)
	if len(rej.issues) > 0 {
		return nil
	}

	halfLength := original.LengthKm / 2
	firstHalf := Envelope{Payload: map[string]any{
		"id": firstHalfID, "kind": string(original.Kind), "from_node": original.FromNode, "to_node": newNodeID, "length_km": halfLength,
	}}
	secondHalf := Envelope{Payload: map[string]any{
		"id": secondHalfID, "kind": string(original.Kind), "from_node": newNodeID, "to_node": original.ToNode, "length_km": halfLength,
	}}
	if original.InlineImpedance != nil {
		firstHalf.Payload["r_ohm_per_km"] = original.InlineImpedance.ROhmPerKm
		firstHalf.Payload["x_ohm_per_km"] = original.InlineImpedance.XOhmPerKm
		firstHalf.Payload["b_microsiemens_per_km"] = original.InlineImpedance.BMicroSiemensPerKm
		secondHalf.Payload["r_ohm_per_km"] = original.InlineImpedance.ROhmPerKm
		secondHalf.Payload["x_ohm_per_km"] = original.InlineImpedance.XOhmPerKm
		secondHalf.Payload["b_microsiemens_per_km"] = original.InlineImpedance.BMicroSiemensPerKm
	}
	events = append(events, a.applyCreateBranch(p, firstHalf, rej)...)
	events = append(events, a.applyCreateBranch(p, secondHalf, rej)...)
	if len(rej.issues) > 0 {
		return nil
	}
	delete(p.Branches, segmentID)
	events = append(events, Event{Code: "EVT-BRANCH-REMOVED", ElementRef: segmentID, Payload: nil})

	if p.Substations == nil {
		p.Substations = map[string]snapshot.Substation{}
	}
	p.Substations[stationID] = snapshot.Substation{ID: stationID, BusRefs: []string{newNodeID}}
	events = append(events, Event{Code: "EVT-STATION-INSERTED", ElementRef: stationID, Payload: map[string]any{"node_id": newNodeID}})
	return events
}

// applyConnectSecondaryRingSN adds a normally-open tie switch between two
// existing nodes, closing a ring topology while keeping the tie open by
// default.
func (a *Applier) applyConnectSecondaryRingSN(p *snapshot.Params, env Envelope, rej *rejection) []Event {
	fromNode, _ := str(env.Payload, "from_node")
	toNode, _ := str(env.Payload, "to_node")
	switchID, _ := str(env.Payload, "switch_id")
	if fromNode == "" || toNode == "" || switchID == "" {
		rej.add("E-A01", "akcja connect_secondary_ring_sn wymaga pól from_node, to_node i switch_id", "from_node")
		return nil
	}
	if _, ok := p.Nodes[fromNode]; !ok {
		rej.add("E-D02", "węzeł początkowy łącznika pierścieniowego nie istnieje", "from_node")
	}
	if _, ok := p.Nodes[toNode]; !ok {
		rej.add("E-D02", "węzeł końcowy łącznika pierścieniowego nie istnieje", "to_node")
	}
	if len(rej.issues) > 0 {
		return nil
	}
	if p.Switches == nil {
		p.Switches = map[string]snapshot.Switch{}
	}
	if _, exists := p.Switches[switchID]; exists {
		rej.add("E-A02", "łącznik o podanym identyfikatorze już istnieje", "switch_id")
		return nil
	}
	p.Switches[switchID] = snapshot.Switch{
		ID:        switchID,
		FromNode:  fromNode,
		ToNode:    toNode,
		Kind:      snapshot.SwitchDisconnector,
		State:     snapshot.SwitchOpen,
		InService: true,
	}
	return []Event{{Code: "EVT-RING-TIE-ADDED", ElementRef: switchID, Payload: map[string]any{"from": fromNode, "to": toNode}}}
}

// applySetNormalOpenPoint flips which switch in a ring is the open tie
// point: targetID is opened, and — if given — previousID is closed.
func (a *Applier) applySetNormalOpenPoint(p *snapshot.Params, env Envelope, rej *rejection) []Event {
	targetID, _ := str(env.Payload, "switch_ref")
	if targetID == "" {
		rej.add("E-A01", "akcja set_normal_open_point wymaga pola switch_ref", "switch_ref")
		return nil
	}
	target, exists := p.Switches[targetID]
	if !exists {
		rej.add("E-D02", "wskazany łącznik nie istnieje", "switch_ref")
		return nil
	}
	target.State = snapshot.SwitchOpen
	p.Switches[targetID] = target
	events := []Event{{Code: "EVT-NOP-SET", ElementRef: targetID, Payload: map[string]any{"state": "open"}}}

	if previousID, ok := str(env.Payload, "previous_switch_ref"); ok && previousID != "" {
		prev, exists := p.Switches[previousID]
		if !exists {
			rej.add("E-D02", "poprzedni łącznik nie istnieje", "previous_switch_ref")
			return nil
		}
		prev.State = snapshot.SwitchClosed
		p.Switches[previousID] = prev
		events = append(events, Event{Code: "EVT-NOP-SET", ElementRef: previousID, Payload: map[string]any{"state": "closed"}})
	}
	return events
}
