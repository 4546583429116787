// Package dnscerr defines the closed error taxonomy described in spec.md
// §7. Validation/Rejected/Drift/Readiness/StaleResults are recoverable and
// carry machine-readable codes plus human-language (Polish) messages.
// CorruptedState and InvalidValueKind are fatal: they indicate a bug, never
// a well-formed input, and callers are expected to propagate them
// unhandled rather than branch on their contents.
package dnscerr

import (
	"errors"
	"fmt"
)

// Issue is a single diagnostic emitted by validation or action rejection.
// It has no severity field: severity is carried by the Code's prefix, "E"
// (error/blocker), "W" (warning) or "I" (info), per spec.md §4.F.
type Issue struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	ElementRef string `json:"element_ref,omitempty"`
	Path       string `json:"path,omitempty"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Code, i.Message, i.ElementRef)
}

// ValidationError reports a sorted set of rule violations found in a
// snapshot or an action payload.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d issue(s)", len(e.Issues))
}

// Rejected reports that an action could not be applied to its parent
// snapshot. It carries the same sorted {code, message, path} shape the
// applier returns in its envelope.
type Rejected struct {
	Issues []Issue
}

func (e *Rejected) Error() string {
	return fmt.Sprintf("action rejected with %d issue(s)", len(e.Issues))
}

// TypeNotFound reports that an action or binding referenced a catalog type
// the registry does not contain.
type TypeNotFound struct {
	TypeRef        string
	EquipmentKind  string
	CatalogVersion string
}

func (e *TypeNotFound) Error() string {
	return fmt.Sprintf("catalog type %q not found for equipment kind %q", e.TypeRef, e.EquipmentKind)
}

// CatalogMissing reports that a (namespace, item id) pair does not exist in
// the registry at all — distinct from TypeNotFound, which action/binding
// resolution returns. Registry lookups themselves report a miss through a
// boolean result and do not construct this error.
type CatalogMissing struct {
	Namespace string
	ItemID    string
}

func (e *CatalogMissing) Error() string {
	return fmt.Sprintf("catalog item %s/%s not found", e.Namespace, e.ItemID)
}

// ReadinessGateError reports that an operation was attempted against a
// snapshot that is not ready for the requested analysis.
type ReadinessGateError struct {
	Gate     string
	Blockers []Issue
}

func (e *ReadinessGateError) Error() string {
	return fmt.Sprintf("gate %q blocked by %d issue(s)", e.Gate, len(e.Blockers))
}

// StaleResultsError reports that a previously computed result set's owning
// snapshot has been superseded by one with a different fingerprint.
type StaleResultsError struct {
	ResultSetID    string
	SnapshotID     string
	SupersededBy   string
	AffectedFields []string
}

func (e *StaleResultsError) Error() string {
	return fmt.Sprintf("result set %s is stale: snapshot %s superseded by %s", e.ResultSetID, e.SnapshotID, e.SupersededBy)
}

// CorruptedState indicates a fatal internal invariant violation — e.g. a
// dangling reference surviving what should have been a pure, validated
// transition. It is never expected on well-formed input; its appearance is
// a bug in the applier or encoder, not a user-correctable condition.
type CorruptedState struct {
	Reason string
}

func (e *CorruptedState) Error() string {
	return "corrupted state: " + e.Reason
}

// InvalidValueKind indicates the canonical encoder was asked to serialize
// a value it cannot represent deterministically: NaN, ±Inf, or an
// unrecognized domain kind.
type InvalidValueKind struct {
	Kind string
}

func (e *InvalidValueKind) Error() string {
	return "invalid value kind for canonical encoding: " + e.Kind
}

// ErrUnknownAction is returned when an action envelope names a tag outside
// the canonical operation registry.
var ErrUnknownAction = errors.New("unknown action type")

// ErrReadOnlyViolation is returned by snapshot.Guard's Mutate method, which
// is the only mutation entry point a Guard offers.
var ErrReadOnlyViolation = errors.New("read-only violation")
