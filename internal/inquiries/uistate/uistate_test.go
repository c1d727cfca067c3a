package uistate

import (
	"errors"
	"slices"
	"testing"
)

func TestSelection_DoubleToggleRestoresPriorState(t *testing.T) {
	s := NewSelection()
	s.Toggle(3)
	before := s.IDs()

	s.Toggle(8)
	s.Toggle(8)

	if !slices.Equal(before, s.IDs()) {
		t.Fatalf("expected %v after double toggle, got %v", before, s.IDs())
	}
}

func TestSelection_SelectAllTogglesLoadedPage(t *testing.T) {
	s := NewSelection()
	loaded := []int64{11, 12, 13, 14}

	s.SelectAll(loaded)
	if got := s.IDs(); !slices.Equal(got, loaded) {
		t.Fatalf("expected all %d loaded rows selected, got %v", len(loaded), got)
	}

	s.SelectAll(loaded)
	if s.Len() != 0 {
		t.Fatalf("expected second select-all to clear, got %v", s.IDs())
	}
}

func TestSelection_SelectAllWithPartialSelectionSelectsRest(t *testing.T) {
	s := NewSelection()
	s.Toggle(12)

	s.SelectAll([]int64{11, 12, 13})

	if got := s.IDs(); !slices.Equal(got, []int64{11, 12, 13}) {
		t.Fatalf("expected full page selected, got %v", got)
	}
}

func TestSelection_SelectAllOnEmptyPageKeepsSelection(t *testing.T) {
	s := NewSelection()
	s.Toggle(5)

	s.SelectAll(nil)

	if !s.Has(5) {
		t.Fatalf("expected selection untouched when nothing is loaded")
	}
}

func TestSelection_Retain(t *testing.T) {
	s := NewSelection()
	for _, id := range []int64{1, 2, 3} {
		s.Toggle(id)
	}

	s.Retain([]int64{2, 9})

	if got := s.IDs(); !slices.Equal(got, []int64{2}) {
		t.Fatalf("expected only 2 retained, got %v", got)
	}
}

func TestDialogs_AtMostOneOpen(t *testing.T) {
	var d Dialogs
	if err := d.Open(DialogNotes, DialogContext{InquiryID: 1}); err != nil {
		t.Fatalf("open notes: %v", err)
	}
	if err := d.SetNotes("call back tomorrow"); err != nil {
		t.Fatalf("set notes: %v", err)
	}

	if err := d.Open(DialogBulkConfirm, DialogContext{BulkAction: BulkAssignToMe, IDs: []int64{1, 2}}); err != nil {
		t.Fatalf("open bulk: %v", err)
	}

	if d.IsOpen(DialogNotes) {
		t.Fatalf("notes dialog must close when another opens")
	}
	if !d.IsOpen(DialogBulkConfirm) {
		t.Fatalf("expected bulk-confirm open, got %q", d.Kind())
	}
	if d.Input().Notes != "" {
		t.Fatalf("expected notes reset, got %q", d.Input().Notes)
	}
}

func TestDialogs_ScheduleAddressDoesNotLeakAcrossRecords(t *testing.T) {
	var d Dialogs
	if err := d.Open(DialogSchedule, DialogContext{InquiryID: 10}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := d.SetViewingAddress("Bole Atlas, house 24"); err != nil {
		t.Fatalf("set address: %v", err)
	}
	if err := d.SetViewingTime("2026-06-01T10:00"); err != nil {
		t.Fatalf("set time: %v", err)
	}

	d.Close()
	if err := d.Open(DialogSchedule, DialogContext{InquiryID: 20}); err != nil {
		t.Fatalf("reopen: %v", err)
	}

	in := d.Input()
	if in.ViewingAddress != "" || in.ViewingTime != "" || in.Notes != "" {
		t.Fatalf("expected empty input on reopen, got %+v", in)
	}
	if d.Context().InquiryID != 20 {
		t.Fatalf("expected context for inquiry 20, got %d", d.Context().InquiryID)
	}
}

func TestDialogs_FieldGuards(t *testing.T) {
	var d Dialogs
	if err := d.SetNotes("x"); !errors.Is(err, ErrNoDialog) {
		t.Fatalf("expected ErrNoDialog, got %v", err)
	}

	_ = d.Open(DialogNotes, DialogContext{InquiryID: 1})
	if err := d.SetViewingAddress("x"); !errors.Is(err, ErrFieldNotInForm) {
		t.Fatalf("expected ErrFieldNotInForm, got %v", err)
	}

	if err := d.Open("wizard", DialogContext{}); !errors.Is(err, ErrUnknownDialog) {
		t.Fatalf("expected ErrUnknownDialog, got %v", err)
	}
	if !d.IsOpen(DialogNotes) {
		t.Fatalf("a rejected open must not close the current dialog")
	}
}

func TestPanel(t *testing.T) {
	var p Panel
	if _, ok := p.Active(); ok {
		t.Fatalf("expected no active inquiry")
	}
	p.Activate(7)
	if id, ok := p.Active(); !ok || id != 7 {
		t.Fatalf("expected 7 active, got %d %v", id, ok)
	}
	p.Deactivate()
	if _, ok := p.Active(); ok {
		t.Fatalf("expected panel closed")
	}
}
