package core

import "time"

// Record is one cutoff entry. The ID is opaque and immutable once created.
//
// Order is the zero-based position of the record within whichever list
// (active or deleted) currently holds it. Within the active list the order
// values always form a dense permutation of 0..n-1 after a mutation settles.
//
// OriginalOrder is set only while the record sits in the deleted list and
// remembers its active-list position at the time of deletion, so a restore
// can put it back in the same slot.
type Record struct {
	ID                  string  `json:"id"`
	SerialNumber        int     `json:"serialNumber"`
	InstitutionName     string  `json:"institutionName"`
	Program             string  `json:"program"`
	CutoffScore         float64 `json:"cutoffScore"`
	CountOutsideBracket int     `json:"countOutsideBracket"`
	CountInsideBracket  int     `json:"countInsideBracket"`
	Order               int     `json:"order"`
	OriginalOrder       *int    `json:"originalOrder,omitempty"`
}

// Session is the persisted unit: the full state of one user's cutoff list.
// SessionID identifies the owner, either a user identifier or a generated
// anonymous token. Timestamps are maintained by the persistence gateway.
type Session struct {
	SessionID      string        `json:"sessionId"`
	ActiveRecords  []Record      `json:"activeRecords"`
	DeletedRecords []Record      `json:"deletedRecords"`
	PendingAction  PendingAction `json:"pendingAction"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// ActionKind identifies which mutation the pending action descriptor
// captured. Exactly one of the payload fields on PendingAction is populated
// for each kind.
type ActionKind string

const (
	ActionNone    ActionKind = "none"
	ActionDelete  ActionKind = "delete"
	ActionReorder ActionKind = "reorder"
	ActionRestore ActionKind = "restore"
)

// PendingAction is the single-slot undo buffer: the most recent undoable
// mutation together with enough captured state to reverse it exactly once.
//
// It is modeled as a tagged variant rather than a loose bag of fields so
// every undo branch dispatches on Kind and new action kinds cannot silently
// fall through.
type PendingAction struct {
	Kind    ActionKind     `json:"kind"`
	Delete  *DeleteAction  `json:"delete,omitempty"`
	Reorder *ReorderAction `json:"reorder,omitempty"`
	Restore *RestoreAction `json:"restore,omitempty"`
}

// DeleteAction captures a removal from the active list. PreviousIndex is the
// record's position in the active list before removal; undo splices the
// record back at exactly that index.
type DeleteAction struct {
	Record        Record `json:"record"`
	PreviousIndex int    `json:"previousIndex"`
}

// ReorderAction captures the active list's full prior ordering before a sort
// or drag replaced it.
type ReorderAction struct {
	PreviousActive []Record `json:"previousActive"`
}

// RestoreAction captures both lists as they were before a deleted record was
// moved back to the active list.
type RestoreAction struct {
	Record          Record   `json:"record"`
	PreviousActive  []Record `json:"previousActive"`
	PreviousDeleted []Record `json:"previousDeleted"`
}

// NoAction returns the empty pending-action value.
func NoAction() PendingAction {
	return PendingAction{Kind: ActionNone}
}

// IsNone reports whether no undo is available.
func (a PendingAction) IsNone() bool {
	return a.Kind == ActionNone || a.Kind == ""
}

// SortField names a sortable Record column. The zero value is invalid.
type SortField string

const (
	SortBySerialNumber        SortField = "serialNumber"
	SortByInstitutionName     SortField = "institutionName"
	SortByProgram             SortField = "program"
	SortByCutoffScore         SortField = "cutoffScore"
	SortByCountOutsideBracket SortField = "countOutsideBracket"
	SortByCountInsideBracket  SortField = "countInsideBracket"
)

// Valid reports whether f names a known sortable column.
func (f SortField) Valid() bool {
	switch f {
	case SortBySerialNumber, SortByInstitutionName, SortByProgram,
		SortByCutoffScore, SortByCountOutsideBracket, SortByCountInsideBracket:
		return true
	}
	return false
}

// SortDirection is "asc" or "desc".
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// RecordInput carries the six user-entered fields for a manual record entry.
// Numeric fields arrive as free-form text and default to zero when
// unparseable rather than rejecting the submission.
type RecordInput struct {
	SerialNumber        string `json:"serialNumber"`
	InstitutionName     string `json:"institutionName"`
	Program             string `json:"program"`
	CutoffScore         string `json:"cutoffScore"`
	CountOutsideBracket string `json:"countOutsideBracket"`
	CountInsideBracket  string `json:"countInsideBracket"`
}
