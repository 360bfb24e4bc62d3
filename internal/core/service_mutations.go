package core

// service_mutations.go implements the lifecycle state machine: how records
// move between the active and deleted lists and how the single-slot undo
// buffer reconstructs prior state.
//
// All lookups are by record id and "not found" is always a silent no-op,
// never an error. Callers cannot distinguish "nothing to do" from "bad id".
// Every successful mutation, undo included, schedules a debounced snapshot.

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// ImportReplace parses the uploaded spreadsheet and replaces the active list
// wholesale. The deleted list and the pending action are cleared. An import
// that yields zero qualifying rows returns an error and leaves session state
// untouched.
func (s *Service) ImportReplace(ctx context.Context, sessionID string, r io.Reader) (Session, error) {
	records, err := ParseCutoffCSV(r)
	if err != nil {
		return Session{}, err
	}

	st := s.state(ctx, sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.session.ActiveRecords = records
	st.session.DeletedRecords = nil
	st.session.PendingAction = NoAction()
	st.sortField = SortByCountInsideBracket
	st.sortDir = SortAsc

	s.scheduleSave(st)
	slog.Info("import replaced session list",
		"session_id", sessionID, "records", len(records))
	return st.snapshot(), nil
}

// AddRecord appends a manually entered record with a fresh id and
// order = len(active). Numeric fields parse leniently, defaulting to zero.
// Adding is not undoable: the pending action is deliberately left alone.
func (s *Service) AddRecord(ctx context.Context, sessionID string, input RecordInput) (Record, Session) {
	st := s.state(ctx, sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	rec := Record{
		ID:                  uuid.New().String(),
		SerialNumber:        ParseInt(input.SerialNumber),
		InstitutionName:     CleanCell(input.InstitutionName),
		Program:             CleanCell(input.Program),
		CutoffScore:         ParseFloat(input.CutoffScore),
		CountOutsideBracket: ParseInt(input.CountOutsideBracket),
		CountInsideBracket:  ParseInt(input.CountInsideBracket),
		Order:               len(st.session.ActiveRecords),
	}
	st.session.ActiveRecords = append(cloneRecords(st.session.ActiveRecords), rec)

	s.scheduleSave(st)
	return rec, st.snapshot()
}

// Delete moves the record from the active list to the deleted list,
// remembering its position twice: in the pending action for undo, and as
// OriginalOrder on the deleted record for a later restore. The remaining
// active records are renumbered to stay dense.
func (s *Service) Delete(ctx context.Context, sessionID, recordID string) Session {
	st := s.state(ctx, sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := indexOf(st.session.ActiveRecords, recordID)
	if idx < 0 {
		return st.snapshot()
	}

	captured := cloneRecord(st.session.ActiveRecords[idx])

	active := cloneRecords(st.session.ActiveRecords)
	active = append(active[:idx], active[idx+1:]...)
	for i := range active {
		active[i].Order = i
	}

	tombstone := cloneRecord(captured)
	original := captured.Order
	tombstone.OriginalOrder = &original
	tombstone.Order = len(st.session.DeletedRecords)

	st.session.ActiveRecords = active
	st.session.DeletedRecords = append(cloneRecords(st.session.DeletedRecords), tombstone)
	st.session.PendingAction = PendingAction{
		Kind:   ActionDelete,
		Delete: &DeleteAction{Record: captured, PreviousIndex: idx},
	}

	s.scheduleSave(st)
	return st.snapshot()
}

// Restore moves a deleted record back into the active list, at its
// OriginalOrder slot when present, else at the end. Snapshots of both lists
// are captured first so the restore itself can be undone.
func (s *Service) Restore(ctx context.Context, sessionID, recordID string) Session {
	st := s.state(ctx, sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := indexOf(st.session.DeletedRecords, recordID)
	if idx < 0 {
		return st.snapshot()
	}

	prevActive := cloneRecords(st.session.ActiveRecords)
	prevDeleted := cloneRecords(st.session.DeletedRecords)

	rec := cloneRecord(st.session.DeletedRecords[idx])
	insertPos := len(st.session.ActiveRecords)
	if rec.OriginalOrder != nil {
		insertPos = *rec.OriginalOrder
	}
	rec.OriginalOrder = nil

	deleted := cloneRecords(st.session.DeletedRecords)
	deleted = append(deleted[:idx], deleted[idx+1:]...)
	for i := range deleted {
		deleted[i].Order = i
	}

	st.session.ActiveRecords = InsertAt(st.session.ActiveRecords, rec, insertPos)
	st.session.DeletedRecords = deleted
	st.session.PendingAction = PendingAction{
		Kind: ActionRestore,
		Restore: &RestoreAction{
			Record:          rec,
			PreviousActive:  prevActive,
			PreviousDeleted: prevDeleted,
		},
	}

	s.scheduleSave(st)
	return st.snapshot()
}

// Sort re-sorts the active list by the named column. Choosing the column
// that was sorted last flips the direction; any other column starts
// ascending. The previous ordering is captured for undo.
func (s *Service) Sort(ctx context.Context, sessionID string, field SortField) (Session, SortDirection, error) {
	if !field.Valid() {
		return Session{}, "", fmt.Errorf("%w: %q", ErrUnknownSortField, field)
	}

	st := s.state(ctx, sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	dir := SortAsc
	if field == st.sortField {
		dir = st.sortDir.Toggle()
	}
	st.sortField = field
	st.sortDir = dir

	s.reorderLocked(st, SortBy(st.session.ActiveRecords, field, dir))
	return st.snapshot(), dir, nil
}

// Move applies a drag: the active record at fromIndex is reinserted at
// toIndex. A drag that goes nowhere, or with an index out of range, changes
// nothing and leaves the pending action alone.
func (s *Service) Move(ctx context.Context, sessionID string, fromIndex, toIndex int) Session {
	st := s.state(ctx, sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	n := len(st.session.ActiveRecords)
	if fromIndex == toIndex ||
		fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		return st.snapshot()
	}

	s.reorderLocked(st, MoveByDrag(st.session.ActiveRecords, fromIndex, toIndex))
	return st.snapshot()
}

// reorderLocked accepts a new active list computed by the ordering engine,
// capturing the previous list in the undo slot. Must be called with st.mu
// held.
func (s *Service) reorderLocked(st *sessionState, newActive []Record) {
	st.session.PendingAction = PendingAction{
		Kind:    ActionReorder,
		Reorder: &ReorderAction{PreviousActive: cloneRecords(st.session.ActiveRecords)},
	}
	st.session.ActiveRecords = newActive
	s.scheduleSave(st)
}

// Undo reverses the pending action, exactly once. With nothing pending it is
// a no-op. Undo is single level: performing any new mutation afterwards
// discards the ability to redo.
func (s *Service) Undo(ctx context.Context, sessionID string) Session {
	st := s.state(ctx, sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	action := st.session.PendingAction
	switch action.Kind {
	case ActionDelete:
		if action.Delete == nil {
			break
		}
		// Raw splice at the captured index, not InsertAt: the index already
		// reflects the pre-delete layout, so renumbering by position
		// reproduces the exact prior sequence and order values.
		rec := cloneRecord(action.Delete.Record)
		idx := action.Delete.PreviousIndex
		active := cloneRecords(st.session.ActiveRecords)
		if idx > len(active) {
			idx = len(active)
		}
		active = append(active, Record{})
		copy(active[idx+1:], active[idx:])
		active[idx] = rec
		for i := range active {
			active[i].Order = i
		}
		st.session.ActiveRecords = active
		st.session.DeletedRecords = removeByID(st.session.DeletedRecords, rec.ID)

	case ActionReorder:
		if action.Reorder == nil {
			break
		}
		st.session.ActiveRecords = cloneRecords(action.Reorder.PreviousActive)

	case ActionRestore:
		if action.Restore == nil {
			break
		}
		st.session.ActiveRecords = cloneRecords(action.Restore.PreviousActive)
		st.session.DeletedRecords = cloneRecords(action.Restore.PreviousDeleted)

	default:
		return st.snapshot()
	}

	st.session.PendingAction = NoAction()
	s.scheduleSave(st)
	return st.snapshot()
}

// indexOf returns the position of the record with the given id, or -1.
func indexOf(list []Record, id string) int {
	for i, r := range list {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// removeByID returns a copy of the list without the record with the given
// id, renumbered dense.
func removeByID(list []Record, id string) []Record {
	out := make([]Record, 0, len(list))
	for _, r := range list {
		if r.ID != id {
			out = append(out, cloneRecord(r))
		}
	}
	for i := range out {
		out[i].Order = i
	}
	return out
}
