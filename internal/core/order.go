package core

// order.go implements the ordering engine: the operations that keep the
// zero-based order field dense across inserts, drags and column sorts.
//
// Every function here is functional in style. The input slice and its
// records are never mutated; callers always get a fresh slice with fresh
// record values. The service snapshots lists into the undo slot and hands
// them to the persistence gateway concurrently, so shared mutable records
// would be an aliasing hazard.

import (
	"sort"
	"strings"
)

// Normalize sorts the list by its current order values and reassigns
// order = index for each element in sorted position. The sort is stable, so
// records that share an order value keep their relative positions.
// Calling Normalize twice yields the same result.
func Normalize(list []Record) []Record {
	out := cloneRecords(list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	for i := range out {
		out[i].Order = i
	}
	return out
}

// InsertAt inserts rec into list at index, shifting every existing element
// whose order is at or after the slot up by one. The index is clamped to
// [0, len(list)]. The result is normalized: dense, zero-based.
func InsertAt(list []Record, rec Record, index int) []Record {
	if index < 0 {
		index = 0
	}
	if index > len(list) {
		index = len(list)
	}

	out := make([]Record, 0, len(list)+1)
	for _, r := range list {
		if r.Order >= index {
			r.Order++
		}
		out = append(out, r)
	}
	rec.Order = index
	out = append(out, rec)

	return Normalize(out)
}

// SortBy stably sorts the list by the named field and renumbers order to
// match the new sequence. String fields compare lexicographically, numeric
// fields numerically; ties keep their prior relative order.
// An unknown field leaves the list unchanged apart from renumbering.
func SortBy(list []Record, field SortField, dir SortDirection) []Record {
	out := cloneRecords(list)
	less := lessFunc(field)
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			if dir == SortDesc {
				return less(out[j], out[i])
			}
			return less(out[i], out[j])
		})
	}
	for i := range out {
		out[i].Order = i
	}
	return out
}

// MoveByDrag removes the element at fromIndex and reinserts it at toIndex,
// then renumbers. A drag with fromIndex == toIndex, or with either index out
// of range, returns the list unchanged (renumbered copy).
func MoveByDrag(list []Record, fromIndex, toIndex int) []Record {
	if fromIndex == toIndex ||
		fromIndex < 0 || fromIndex >= len(list) ||
		toIndex < 0 || toIndex >= len(list) {
		return Normalize(list)
	}

	out := cloneRecords(list)
	moved := out[fromIndex]
	out = append(out[:fromIndex], out[fromIndex+1:]...)

	out = append(out, Record{})
	copy(out[toIndex+1:], out[toIndex:])
	out[toIndex] = moved

	for i := range out {
		out[i].Order = i
	}
	return out
}

// lessFunc returns the ascending comparison for a field, or nil for an
// unknown field.
func lessFunc(field SortField) func(a, b Record) bool {
	switch field {
	case SortBySerialNumber:
		return func(a, b Record) bool { return a.SerialNumber < b.SerialNumber }
	case SortByInstitutionName:
		return func(a, b Record) bool {
			return strings.Compare(a.InstitutionName, b.InstitutionName) < 0
		}
	case SortByProgram:
		return func(a, b Record) bool { return strings.Compare(a.Program, b.Program) < 0 }
	case SortByCutoffScore:
		return func(a, b Record) bool { return a.CutoffScore < b.CutoffScore }
	case SortByCountOutsideBracket:
		return func(a, b Record) bool { return a.CountOutsideBracket < b.CountOutsideBracket }
	case SortByCountInsideBracket:
		return func(a, b Record) bool { return a.CountInsideBracket < b.CountInsideBracket }
	}
	return nil
}

// cloneRecords copies the slice. Record is a value type with one pointer
// field, OriginalOrder, which is also deep-copied so callers can never
// observe writes through a shared pointer.
func cloneRecords(list []Record) []Record {
	out := make([]Record, len(list))
	for i, r := range list {
		if r.OriginalOrder != nil {
			v := *r.OriginalOrder
			r.OriginalOrder = &v
		}
		out[i] = r
	}
	return out
}
