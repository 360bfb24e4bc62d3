// Package core provides the business logic for cutoff list sessions.
//
// This package is the heart of the cutoff manager, containing all domain
// logic independent of any UI or transport layer. It can be used by web
// handlers, CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Record Model: [Record] is one cutoff entry; [Session] wraps the active
//     and deleted lists plus the pending undo action.
//   - Ordering Engine: [Normalize], [InsertAt], [SortBy] and [MoveByDrag]
//     keep the zero-based order field dense across every mutation. All of
//     them return new slices and never mutate their input, so a record held
//     by an in-flight persistence snapshot can never be aliased.
//   - Service: The main entry point for all operations (import, delete,
//     restore, sort, drag, undo, save, load). It owns the per-session
//     lifecycle state machine and the debounced snapshot timers.
//   - Import: CSV parsing that turns an uploaded spreadsheet into an ordered
//     list of records, dropping rows that fail the column contract.
//
// # Undo Model
//
// Each mutating operation records a [PendingAction], a tagged variant
// consumed by at most one subsequent undo:
//
//   - [ActionDelete] carries the removed record and its index in the active
//     list so undo can splice it back exactly where it was.
//   - [ActionReorder] carries the full previous active ordering.
//   - [ActionRestore] carries snapshots of both lists.
//
// Undo is single level. Any new mutation overwrites the slot; there is no
// redo stack. Adding a record intentionally does not touch the slot.
//
// # Persistence
//
// The service depends only on the store.Gateway interface. Snapshots are
// scheduled on a debounce timer after every mutation, so bursts of edits
// coalesce into a single write. A failed write is logged and surfaced as a
// notification; in-memory state stays authoritative and is never rolled
// back.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - IMP001-IMP004: Import errors (file format, empty result)
//   - ST001-ST004: Store errors (connection, timeout)
//   - REQ001-REQ002: Request errors (cancelled, rate limited)
package core
