package uistate

import (
	"errors"
	"fmt"
	"slices"

	"inquiry_desk/internal/inquiries/domain"
)

// DialogKind names a modal dialog. The zero value means none is open.
type DialogKind string

const (
	DialogNone        DialogKind = ""
	DialogNotes       DialogKind = "notes"
	DialogSchedule    DialogKind = "schedule"
	DialogBulkConfirm DialogKind = "bulk-confirm"
)

// Bulk actions a bulk-confirm dialog can carry.
const (
	BulkAssignToMe  = "assign_to_me"
	BulkSetStatus   = "set_status"
	BulkSetPriority = "set_priority"
)

var (
	ErrNoDialog       = errors.New("no dialog is open")
	ErrUnknownDialog  = errors.New("unknown dialog")
	ErrFieldNotInForm = errors.New("field does not belong to the open dialog")
)

// DialogContext is what the dialog was opened for.
type DialogContext struct {
	InquiryID  int64         `json:"inquiry_id,omitempty"`
	Status     domain.Status `json:"status,omitempty"`
	BulkAction string        `json:"bulk_action,omitempty"`
	BulkValue  string        `json:"bulk_value,omitempty"`
	IDs        []int64       `json:"ids,omitempty"`
}

// DialogInput holds the transient fields typed into a dialog.
type DialogInput struct {
	Notes          string `json:"notes"`
	ViewingTime    string `json:"viewing_time"`
	ViewingAddress string `json:"viewing_address"`
}

// Dialogs keeps at most one dialog open. Opening or closing always starts
// from empty input.
type Dialogs struct {
	open    DialogKind
	context DialogContext
	input   DialogInput
}

// Open shows kind for ctx, closing whatever was open before.
func (d *Dialogs) Open(kind DialogKind, ctx DialogContext) error {
	switch kind {
	case DialogNotes, DialogSchedule, DialogBulkConfirm:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDialog, kind)
	}
	d.Close()
	d.open = kind
	ctx.IDs = slices.Clone(ctx.IDs)
	d.context = ctx
	return nil
}

// Close hides the open dialog and resets its input.
func (d *Dialogs) Close() {
	d.open = DialogNone
	d.context = DialogContext{}
	d.input = DialogInput{}
}

// Kind returns the open dialog, or DialogNone.
func (d *Dialogs) Kind() DialogKind {
	return d.open
}

// IsOpen reports whether kind is the open dialog.
func (d *Dialogs) IsOpen(kind DialogKind) bool {
	return kind != DialogNone && d.open == kind
}

// Context returns what the open dialog was opened for.
func (d *Dialogs) Context() DialogContext {
	return d.context
}

// Input returns the current field values.
func (d *Dialogs) Input() DialogInput {
	return d.input
}

// SetNotes updates the notes field of the notes or schedule dialog.
func (d *Dialogs) SetNotes(v string) error {
	if err := d.require(DialogNotes, DialogSchedule); err != nil {
		return err
	}
	d.input.Notes = v
	return nil
}

// SetViewingTime updates the schedule dialog's time field.
func (d *Dialogs) SetViewingTime(v string) error {
	if err := d.require(DialogSchedule); err != nil {
		return err
	}
	d.input.ViewingTime = v
	return nil
}

// SetViewingAddress updates the schedule dialog's address field.
func (d *Dialogs) SetViewingAddress(v string) error {
	if err := d.require(DialogSchedule); err != nil {
		return err
	}
	d.input.ViewingAddress = v
	return nil
}

func (d *Dialogs) require(kinds ...DialogKind) error {
	if d.open == DialogNone {
		return ErrNoDialog
	}
	if !slices.Contains(kinds, d.open) {
		return fmt.Errorf("%w: %s", ErrFieldNotInForm, d.open)
	}
	return nil
}
