// Package console holds the page controllers of the inquiry desk. A controller
// owns the filter state, selection and dialogs of one page and turns user
// actions into cache reads and coordinator writes.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/internal/inquiries/filter"
	"inquiry_desk/internal/inquiries/mutation"
	"inquiry_desk/internal/inquiries/presentation"
	"inquiry_desk/internal/inquiries/querycache"
	"inquiry_desk/internal/inquiries/uistate"
	"inquiry_desk/platform/apperr"
	"inquiry_desk/platform/logger"
	"inquiry_desk/platform/validator"
)

// Notice levels.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// Reader is the read side of the marketplace client.
type Reader interface {
	ListInquiries(ctx context.Context, filters filter.APIFilters) (domain.Page, error)
	DashboardStats(ctx context.Context) (domain.DashboardStats, error)
	GetInquiry(ctx context.Context, id int64) (domain.Inquiry, error)
	GetActivity(ctx context.Context, id int64) ([]domain.ActivityEvent, error)
}

// Mutator is the write side, implemented by mutation.Coordinator.
type Mutator interface {
	UpdateStatus(ctx context.Context, id int64, status domain.Status, notes *string) error
	AssignToCurrentUser(ctx context.Context, id int64) error
	ScheduleViewing(ctx context.Context, id int64, req mutation.ViewingRequest) error
	BulkUpdate(ctx context.Context, ids []int64, patch map[string]any) error
	BulkAssignToCurrentUser(ctx context.Context, ids []int64) mutation.BulkResult
	Export(ctx context.Context, filters filter.APIFilters) (domain.ExportJob, error)
}

// Notifier receives user-visible notices.
type Notifier interface {
	Notify(level, message string)
}

// Deps wires a controller.
type Deps struct {
	Reader   Reader
	Mutator  Mutator
	Cache    *querycache.Cache
	Notifier Notifier
	Region   string
	Now      func() time.Time
	Log      *logger.Logger
}

// ListController drives the inquiries list page.
type ListController struct {
	reader   Reader
	mutator  Mutator
	cache    *querycache.Cache
	notifier Notifier
	val      *validator.Validator
	region   string
	now      func() time.Time
	log      *logger.Logger

	mu          sync.Mutex
	filters     filter.State
	selection   *uistate.Selection
	dialogs     uistate.Dialogs
	panel       uistate.Panel
	page        domain.Page
	pageKey     querycache.Key
	pageLoaded  bool
	listLoading bool
	listErr     error
	stats       *domain.DashboardStats
	statsErr    error
	submitting  bool
	requestID   uint64
}

// NewListController creates a controller with default filters.
func NewListController(d Deps) *ListController {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	val := validator.New()
	if err := filter.RegisterValidations(val); err != nil {
		d.Log.Error("register validations", "error", err)
	}
	return &ListController{
		reader:    d.Reader,
		mutator:   d.Mutator,
		cache:     d.Cache,
		notifier:  d.Notifier,
		val:       val,
		region:    d.Region,
		now:       now,
		log:       d.Log,
		filters:   filter.Default(),
		selection: uistate.NewSelection(),
	}
}

// Filters returns the current filter state.
func (c *ListController) Filters() filter.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// SetFilters replaces the filter state and reloads the list. Stats reload
// too when the date range or status facet changed.
func (c *ListController) SetFilters(ctx context.Context, next filter.State) error {
	if err := c.val.Struct(next); err != nil {
		return apperr.Validation(validator.Describe(err))
	}

	c.mu.Lock()
	prev := c.filters
	c.filters = next
	c.mu.Unlock()

	if !filter.StatsAffected(prev, next) {
		return c.Reload(ctx)
	}

	var g errgroup.Group
	g.Go(func() error { return c.Reload(ctx) })
	g.Go(func() error {
		if err := c.RefreshStats(ctx); err != nil {
			c.log.Warn("stats reload after filter change failed", "error", err)
		}
		return nil
	})
	return g.Wait()
}

// Reload fetches the list for the current filters. Only the most recent
// call may update the view.
func (c *ListController) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.requestID++
	reqID := c.requestID
	apiFilters := filter.Build(c.filters, c.now())
	key := querycache.ListKey(apiFilters)
	c.listLoading = true
	c.mu.Unlock()

	page, err := querycache.Get(ctx, c.cache, key, func(ctx context.Context) (domain.Page, error) {
		return c.reader.ListInquiries(ctx, apiFilters)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if reqID != c.requestID || errors.Is(err, querycache.ErrSuperseded) {
		return nil
	}
	c.listLoading = false
	if err != nil {
		c.listErr = err
		return err
	}
	c.listErr = nil
	c.page = page
	c.pageKey = key
	c.pageLoaded = true
	for _, inq := range page.Results {
		if verr := inq.Validate(); verr != nil {
			c.log.Warn("inquiry violates record invariants", "inquiry_id", inq.ID, "error", verr)
		}
	}
	return nil
}

// LoadStats serves cached stats when fresh.
func (c *ListController) LoadStats(ctx context.Context) error {
	stats, err := querycache.Get(ctx, c.cache, querycache.StatsKey(), c.reader.DashboardStats)
	return c.storeStats(stats, err)
}

// RefreshStats always asks the API. The stats poller calls this.
func (c *ListController) RefreshStats(ctx context.Context) error {
	stats, err := querycache.Refresh(ctx, c.cache, querycache.StatsKey(), c.reader.DashboardStats)
	return c.storeStats(stats, err)
}

func (c *ListController) storeStats(stats domain.DashboardStats, err error) error {
	if errors.Is(err, querycache.ErrSuperseded) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.statsErr = err
		return err
	}
	c.stats = &stats
	c.statsErr = nil
	return nil
}

// ToggleSelect checks or unchecks one row.
func (c *ListController) ToggleSelect(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Toggle(id)
}

// SelectAll toggles every row of the loaded page.
func (c *ListController) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.SelectAll(c.page.IDs())
}

// ClearSelection unchecks everything.
func (c *ListController) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Clear()
}

// Activate shows id in the detail panel; 0 closes it.
func (c *ListController) Activate(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id <= 0 {
		c.panel.Deactivate()
		return
	}
	c.panel.Activate(id)
}

// OpenDialog opens kind, closing any other dialog. A bulk-confirm dialog
// without explicit ids takes the current selection.
func (c *ListController) OpenDialog(kind uistate.DialogKind, dctx uistate.DialogContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch kind {
	case uistate.DialogNotes, uistate.DialogSchedule:
		if dctx.InquiryID <= 0 {
			return apperr.Validation("Choose an inquiry first")
		}
	case uistate.DialogBulkConfirm:
		if len(dctx.IDs) == 0 {
			dctx.IDs = c.selection.IDs()
		}
		if len(dctx.IDs) == 0 {
			return apperr.Validation("Select at least one inquiry")
		}
		switch dctx.BulkAction {
		case uistate.BulkAssignToMe, uistate.BulkSetStatus, uistate.BulkSetPriority:
		default:
			return apperr.Validation(fmt.Sprintf("Unknown bulk action %q", dctx.BulkAction))
		}
	}
	if err := c.dialogs.Open(kind, dctx); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

// InputPatch carries the dialog fields being edited. Nil fields are untouched.
type InputPatch struct {
	Notes          *string
	ViewingTime    *string
	ViewingAddress *string
}

// SetDialogInput edits fields of the open dialog.
func (c *ListController) SetDialogInput(p InputPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.Notes != nil {
		if err := c.dialogs.SetNotes(*p.Notes); err != nil {
			return apperr.Validation(err.Error())
		}
	}
	if p.ViewingTime != nil {
		if err := c.dialogs.SetViewingTime(*p.ViewingTime); err != nil {
			return apperr.Validation(err.Error())
		}
	}
	if p.ViewingAddress != nil {
		if err := c.dialogs.SetViewingAddress(*p.ViewingAddress); err != nil {
			return apperr.Validation(err.Error())
		}
	}
	return nil
}

// CloseDialog dismisses the open dialog without submitting.
func (c *ListController) CloseDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialogs.Close()
}

// ConfirmDialog submits the open dialog. The dialog closes and its input
// resets only after the write succeeded; on failure both stay as they were.
func (c *ListController) ConfirmDialog(ctx context.Context) error {
	c.mu.Lock()
	kind := c.dialogs.Kind()
	dctx := c.dialogs.Context()
	input := c.dialogs.Input()
	if kind == uistate.DialogNone {
		c.mu.Unlock()
		return apperr.Validation(uistate.ErrNoDialog.Error())
	}
	if c.submitting {
		c.mu.Unlock()
		return apperr.New(apperr.KindConflict, "Already saving")
	}
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	switch kind {
	case uistate.DialogNotes:
		notes := input.Notes
		err := c.mutator.UpdateStatus(ctx, dctx.InquiryID, dctx.Status, &notes)
		return c.finishSingle(ctx, kind, dctx, err, "Status updated")
	case uistate.DialogSchedule:
		err := c.mutator.ScheduleViewing(ctx, dctx.InquiryID, mutation.ViewingRequest{
			ViewingTime: input.ViewingTime,
			Address:     input.ViewingAddress,
			Notes:       input.Notes,
		})
		return c.finishSingle(ctx, kind, dctx, err, "Viewing scheduled")
	case uistate.DialogBulkConfirm:
		return c.confirmBulk(ctx, dctx)
	default:
		return apperr.Validation(fmt.Sprintf("Unknown dialog %q", kind))
	}
}

func (c *ListController) finishSingle(ctx context.Context, kind uistate.DialogKind, dctx uistate.DialogContext, err error, success string) error {
	if err != nil {
		c.notify(NoticeError, apperr.Message(err))
		return err
	}
	c.mu.Lock()
	c.closeIfCurrent(kind, dctx)
	c.mu.Unlock()

	c.notify(NoticeSuccess, success)
	c.refreshAfterWrite(ctx)
	return nil
}

func (c *ListController) confirmBulk(ctx context.Context, dctx uistate.DialogContext) error {
	switch dctx.BulkAction {
	case uistate.BulkAssignToMe:
		res := c.mutator.BulkAssignToCurrentUser(ctx, dctx.IDs)
		return c.finishBulkAssign(ctx, dctx, res)
	case uistate.BulkSetStatus, uistate.BulkSetPriority:
		field := "status"
		if dctx.BulkAction == uistate.BulkSetPriority {
			field = "priority"
		}
		err := c.mutator.BulkUpdate(ctx, dctx.IDs, map[string]any{field: dctx.BulkValue})
		if err != nil {
			c.notify(NoticeError, apperr.Message(err))
			return err
		}
		c.mu.Lock()
		c.closeIfCurrent(uistate.DialogBulkConfirm, dctx)
		c.selection.Clear()
		c.mu.Unlock()
		c.notify(NoticeSuccess, fmt.Sprintf("%d inquiries updated", len(dctx.IDs)))
		c.refreshAfterWrite(ctx)
		return nil
	default:
		return apperr.Validation(fmt.Sprintf("Unknown bulk action %q", dctx.BulkAction))
	}
}

// finishBulkAssign applies the selection rule for fan-out results: all
// succeeded clears it, partial failure keeps only the failed ids, and a
// total failure leaves selection and dialog untouched.
func (c *ListController) finishBulkAssign(ctx context.Context, dctx uistate.DialogContext, res mutation.BulkResult) error {
	err := res.Err()
	if res.AllFailed() {
		c.notify(NoticeError, apperr.Message(err))
		return err
	}

	c.mu.Lock()
	c.closeIfCurrent(uistate.DialogBulkConfirm, dctx)
	if err == nil {
		c.selection.Clear()
	} else {
		c.selection.Retain(res.FailedIDs())
	}
	c.mu.Unlock()

	if err != nil {
		c.notify(NoticeError, apperr.Message(err))
	} else {
		c.notify(NoticeSuccess, fmt.Sprintf("%d inquiries assigned to you", len(res.Succeeded)))
	}
	c.refreshAfterWrite(ctx)
	return err
}

// AssignToMe assigns one inquiry from a row action.
func (c *ListController) AssignToMe(ctx context.Context, id int64) error {
	if err := c.mutator.AssignToCurrentUser(ctx, id); err != nil {
		c.notify(NoticeError, apperr.Message(err))
		return err
	}
	c.notify(NoticeSuccess, "Inquiry assigned to you")
	c.refreshAfterWrite(ctx)
	return nil
}

// Export starts an export of everything matching the current filters.
func (c *ListController) Export(ctx context.Context) (domain.ExportJob, error) {
	c.mu.Lock()
	apiFilters := filter.Build(c.filters, c.now())
	c.mu.Unlock()

	job, err := c.mutator.Export(ctx, apiFilters)
	if err != nil {
		c.notify(NoticeError, apperr.Message(err))
		return job, err
	}
	c.notify(NoticeInfo, "Export started")
	return job, nil
}

// closeIfCurrent must be called with c.mu held. A dialog the user replaced
// while the write was in flight stays open.
func (c *ListController) closeIfCurrent(kind uistate.DialogKind, dctx uistate.DialogContext) {
	cur := c.dialogs.Context()
	if c.dialogs.Kind() == kind && cur.InquiryID == dctx.InquiryID && cur.BulkAction == dctx.BulkAction {
		c.dialogs.Close()
	}
}

// refreshAfterWrite re-reads the list and stats the coordinator just
// invalidated. The two reads are independent; failures are logged.
func (c *ListController) refreshAfterWrite(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		if err := c.Reload(ctx); err != nil {
			c.log.Warn("list reload after write failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := c.LoadStats(ctx); err != nil {
			c.log.Warn("stats reload after write failed", "error", err)
		}
		return nil
	})
	_ = g.Wait()
}

func (c *ListController) notify(level, message string) {
	if c.notifier != nil {
		c.notifier.Notify(level, message)
	}
}

// Row is one rendered list entry.
type Row struct {
	Inquiry  domain.Inquiry     `json:"inquiry"`
	Status   presentation.Badge `json:"status_badge"`
	Priority presentation.Badge `json:"priority_badge"`
	Contact  presentation.Badge `json:"contact_badge"`
	Link     *presentation.Link `json:"contact_link,omitempty"`
	Selected bool               `json:"selected"`
}

// DialogView is the open dialog as shown to the browser.
type DialogView struct {
	Kind    uistate.DialogKind    `json:"kind"`
	Context uistate.DialogContext `json:"context"`
	Input   uistate.DialogInput   `json:"input"`
}

// ListView is everything the list page renders.
type ListView struct {
	Filters     filter.State           `json:"filters"`
	Rows        []Row                  `json:"rows"`
	Count       int                    `json:"count"`
	Loaded      bool                   `json:"loaded"`
	Loading     bool                   `json:"loading"`
	Stale       bool                   `json:"stale"`
	Error       string                 `json:"error,omitempty"`
	Stats       *domain.DashboardStats `json:"stats,omitempty"`
	StatsError  string                 `json:"stats_error,omitempty"`
	Selected    []int64                `json:"selected"`
	AllSelected bool                   `json:"all_selected"`
	Dialog      DialogView             `json:"dialog"`
	Submitting  bool                   `json:"submitting"`
	ActiveID    int64                  `json:"active_id,omitempty"`
}

// View snapshots the page state.
func (c *ListController) View() ListView {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]Row, 0, len(c.page.Results))
	for _, inq := range c.page.Results {
		row := Row{
			Inquiry:  inq,
			Status:   presentation.Status(inq.Status),
			Priority: presentation.Priority(inq.Priority),
			Contact:  presentation.ContactPreference(inq.ContactPreference),
			Selected: c.selection.Has(inq.ID),
		}
		if link, ok := presentation.ContactLink(inq, c.region); ok {
			row.Link = &link
		}
		rows = append(rows, row)
	}

	v := ListView{
		Filters:     c.filters,
		Rows:        rows,
		Count:       c.page.Count,
		Loaded:      c.pageLoaded,
		Loading:     c.listLoading,
		Stats:       c.stats,
		Selected:    c.selection.IDs(),
		AllSelected: len(rows) > 0 && c.selection.HasAll(c.page.IDs()),
		Dialog: DialogView{
			Kind:    c.dialogs.Kind(),
			Context: c.dialogs.Context(),
			Input:   c.dialogs.Input(),
		},
		Submitting: c.submitting,
	}
	if c.pageLoaded {
		v.Stale = c.cache.State(c.pageKey).Stale
	}
	if c.listErr != nil {
		v.Error = apperr.Message(c.listErr)
	}
	if c.statsErr != nil {
		v.StatsError = apperr.Message(c.statsErr)
	}
	if id, ok := c.panel.Active(); ok {
		v.ActiveID = id
	}
	return v
}
