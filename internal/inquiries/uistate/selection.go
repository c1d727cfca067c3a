// Package uistate holds the transient interaction state of the inquiry desk:
// checked rows, the open dialog and the active detail panel. Types here are
// not safe for concurrent use; the owning controller serializes access.
package uistate

import "slices"

// Selection is the set of inquiry ids checked for a bulk action.
type Selection struct {
	ids map[int64]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

// Toggle checks id if unchecked and unchecks it otherwise.
func (s *Selection) Toggle(id int64) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// SelectAll toggles the loaded page: if every loaded row is already checked
// the selection is cleared, otherwise every loaded row is checked. Rows beyond
// the current page are never touched.
func (s *Selection) SelectAll(loaded []int64) {
	if len(loaded) > 0 && s.HasAll(loaded) {
		s.Clear()
		return
	}
	for _, id := range loaded {
		s.ids[id] = struct{}{}
	}
}

// HasAll reports whether every id in loaded is checked.
func (s *Selection) HasAll(loaded []int64) bool {
	for _, id := range loaded {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

// Has reports whether id is checked.
func (s *Selection) Has(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Clear unchecks everything.
func (s *Selection) Clear() {
	clear(s.ids)
}

// Retain keeps only the given ids checked.
func (s *Selection) Retain(ids []int64) {
	keep := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.ids[id]; ok {
			keep[id] = struct{}{}
		}
	}
	s.ids = keep
}

// IDs returns the checked ids in ascending order.
func (s *Selection) IDs() []int64 {
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Len is the number of checked ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// Panel tracks which inquiry the detail panel shows.
type Panel struct {
	active int64
}

// Activate shows id in the detail panel.
func (p *Panel) Activate(id int64) {
	p.active = id
}

// Deactivate closes the detail panel.
func (p *Panel) Deactivate() {
	p.active = 0
}

// Active returns the shown inquiry id.
func (p *Panel) Active() (int64, bool) {
	return p.active, p.active > 0
}
