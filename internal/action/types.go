// Package action implements the Action Protocol & Applier (spec.md §4.D): a
// closed tagged union of network edits, a canonical operation registry with
// alias resolution, and an Applier that turns a validated action into a
// child snapshot without ever mutating the parent.
package action

import "dnsc/internal/dnscerr"

// Tag identifies an action's canonical operation. Every accepted tag is a
// member of the fixed enumeration in canonicalTags; aliases resolve to a
// canonical tag and never chain to another alias.
type Tag string

const (
	TagCreateNode              Tag = "create_node"
	TagCreateBranch            Tag = "create_branch"
	TagSetInService            Tag = "set_in_service"
	TagAssignCatalogToElement  Tag = "assign_catalog_to_element"
	TagAddGridSourceSN         Tag = "add_grid_source_sn"
	TagContinueTrunkSegmentSN  Tag = "continue_trunk_segment_sn"
	TagInsertStationOnSegment  Tag = "insert_station_on_segment_sn"
	TagConnectSecondaryRingSN  Tag = "connect_secondary_ring_sn"
	TagSetNormalOpenPoint      Tag = "set_normal_open_point"
)

// canonicalTags is the fixed enumeration every Tag must belong to.
var canonicalTags = map[Tag]bool{
	TagCreateNode:             true,
	TagCreateBranch:           true,
	TagSetInService:           true,
	TagAssignCatalogToElement: true,
	TagAddGridSourceSN:        true,
	TagContinueTrunkSegmentSN: true,
	TagInsertStationOnSegment: true,
	TagConnectSecondaryRingSN: true,
	TagSetNormalOpenPoint:     true,
}

// aliases maps a legacy or shorthand tag to the canonical tag it stands in
// for. No alias target is itself an alias — Resolve enforces this by
// construction, since it only ever consults this one-level map.
var aliases = map[Tag]Tag{
	"add_node":      TagCreateNode,
	"add_branch":    TagCreateBranch,
	"toggle_in_svc": TagSetInService,
	"rebind_catalog": TagAssignCatalogToElement,
}

// Resolve maps tag to its canonical form, following at most one alias hop.
// It fails closed: an unrecognized tag is always rejected rather than
// guessed at.
func Resolve(tag Tag) (Tag, error) {
	if canonicalTags[tag] {
		return tag, nil
	}
	if canon, ok := aliases[tag]; ok {
		if !canonicalTags[canon] {
			return "", &dnscerr.CorruptedState{Reason: "alias " + string(tag) + " points to non-canonical tag " + string(canon)}
		}
		return canon, nil
	}
	return "", dnscerr.ErrUnknownAction
}

// Envelope is a single action request: a canonical (or aliased) tag plus
// its payload, addressed at the parent snapshot it will be applied to.
type Envelope struct {
	ActionID       string
	Tag            Tag
	ParentSnapshot string
	Payload        map[string]any
}

// Event is one entry of the audit trail appended when an action applies
// cleanly. Each event carries its own stable code and payload so the trail
// can be replayed or diffed independently of the snapshot it produced.
type Event struct {
	Code       string
	ElementRef string
	Payload    map[string]any
}
