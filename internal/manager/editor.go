package manager

import "slices"

// Editor holds the draft rules of one modal. The draft is private to the
// editor and only reaches the controller through Manager.Apply*.
type Editor[T any] struct {
	open bool
	rows []T
}

// Open seeds the draft with the committed rules, or one blank row when
// there are none.
func (e *Editor[T]) Open(committed []T) {
	e.open = true
	if len(committed) == 0 {
		var blank T
		e.rows = []T{blank}
		return
	}
	e.rows = slices.Clone(committed)
}

// IsOpen reports whether the modal is showing.
func (e *Editor[T]) IsOpen() bool { return e.open }

// Rows returns a copy of the draft.
func (e *Editor[T]) Rows() []T { return slices.Clone(e.rows) }

// Len returns the number of draft rows.
func (e *Editor[T]) Len() int { return len(e.rows) }

// Add appends a blank row.
func (e *Editor[T]) Add() {
	if !e.open {
		return
	}
	var blank T
	e.rows = append(e.rows, blank)
}

// Set replaces row i. It reports false when i is out of range.
func (e *Editor[T]) Set(i int, v T) bool {
	if !e.open || i < 0 || i >= len(e.rows) {
		return false
	}
	e.rows[i] = v
	return true
}

// Replace swaps the whole draft, as when a form posts every row at once.
func (e *Editor[T]) Replace(rows []T) {
	if !e.open {
		return
	}
	e.rows = slices.Clone(rows)
}

// Remove deletes row i. Removing the last row leaves an empty draft.
func (e *Editor[T]) Remove(i int) bool {
	if !e.open || i < 0 || i >= len(e.rows) {
		return false
	}
	e.rows = slices.Delete(e.rows, i, i+1)
	return true
}

// Reset restores the draft to a single blank row without committing.
func (e *Editor[T]) Reset() {
	if !e.open {
		return
	}
	var blank T
	e.rows = []T{blank}
}

// Close discards the draft.
func (e *Editor[T]) Close() {
	e.open = false
	e.rows = nil
}
