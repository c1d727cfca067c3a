// Package mutation issues inquiry writes against the marketplace API and
// invalidates the cached reads each write affects.
package mutation

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/time/rate"

	"inquiry_desk/internal/events"
	"inquiry_desk/internal/inquiries/client"
	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/internal/inquiries/filter"
	"inquiry_desk/internal/inquiries/querycache"
	"inquiry_desk/platform/apperr"
	"inquiry_desk/platform/config"
	"inquiry_desk/platform/logger"
	"inquiry_desk/platform/sanitize"
	"inquiry_desk/platform/validator"
)

const (
	OpUpdateStatus    = "update_status"
	OpAssign          = "assign_to_me"
	OpScheduleViewing = "schedule_viewing"
	OpBulkUpdate      = "bulk_update"
	OpBulkAssign      = "bulk_assign_to_me"
	OpExport          = "export"
)

const (
	defaultConcurrency   = 4
	defaultRatePerSecond = 10
)

// API is the slice of the marketplace client the coordinator writes through.
type API interface {
	UpdateStatus(ctx context.Context, id int64, payload client.StatusPayload) error
	AssignToMe(ctx context.Context, id int64) error
	ScheduleViewing(ctx context.Context, id int64, payload client.ViewingPayload) error
	BulkUpdate(ctx context.Context, payload client.BulkPayload) error
	Export(ctx context.Context, filters filter.APIFilters) (domain.ExportJob, error)
}

// Invalidator marks cached reads stale.
type Invalidator interface {
	Invalidate(ctx context.Context, kind querycache.Kind, params ...string) int
}

// ViewingRequest is the input of ScheduleViewing.
type ViewingRequest struct {
	ViewingTime string `validate:"required"`
	Address     string `validate:"max=255"`
	Notes       string `validate:"max=2000"`
}

// Coordinator owns every inquiry write for one session. It never edits
// cached records; it only invalidates them so views re-fetch.
type Coordinator struct {
	api         API
	cache       Invalidator
	bus         events.Bus
	val         *validator.Validator
	log         *logger.Logger
	sessionID   string
	concurrency int
	limiter     *rate.Limiter
}

// New creates a coordinator. bus may be nil.
func New(api API, cache Invalidator, bus events.Bus, cfg config.MutationConfig, sessionID string, log *logger.Logger) *Coordinator {
	concurrency := cfg.GetBulkConcurrency()
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	perSecond := cfg.GetBulkRatePerSecond()
	if perSecond <= 0 {
		perSecond = defaultRatePerSecond
	}

	val := validator.New()
	if err := filter.RegisterValidations(val); err != nil {
		log.Error("register validations", "error", err)
	}

	return &Coordinator{
		api:         api,
		cache:       cache,
		bus:         bus,
		val:         val,
		log:         log,
		sessionID:   sessionID,
		concurrency: concurrency,
		limiter:     rate.NewLimiter(rate.Limit(perSecond), concurrency),
	}
}

// UpdateStatus changes one inquiry's status. A nil or blank notes value is
// left out of the request.
func (c *Coordinator) UpdateStatus(ctx context.Context, id int64, status domain.Status, notes *string) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := c.val.Var(string(status), "required,inquiry_status"); err != nil {
		return apperr.Validation("Choose a valid status").WithDetails(map[string]string{"status": string(status)})
	}

	payload := client.StatusPayload{Status: status}
	if notes != nil {
		payload.Notes = sanitize.NotesPtr(*notes)
	}

	if err := c.api.UpdateStatus(ctx, id, payload); err != nil {
		return c.failed(OpUpdateStatus, id, err)
	}
	c.settle(ctx, OpUpdateStatus, []int64{id}, nil)
	return nil
}

// AssignToCurrentUser assigns one inquiry to the signed-in agent.
func (c *Coordinator) AssignToCurrentUser(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := c.api.AssignToMe(ctx, id); err != nil {
		return c.failed(OpAssign, id, err)
	}
	c.settle(ctx, OpAssign, []int64{id}, nil)
	return nil
}

// ScheduleViewing books a viewing. An empty viewing time is rejected here and
// never reaches the API.
func (c *Coordinator) ScheduleViewing(ctx context.Context, id int64, req ViewingRequest) error {
	if err := validID(id); err != nil {
		return err
	}
	req.ViewingTime = strings.TrimSpace(req.ViewingTime)
	req.Address = strings.TrimSpace(req.Address)
	if err := c.val.Struct(req); err != nil {
		if req.ViewingTime == "" {
			return apperr.Validation("Viewing time is required")
		}
		return apperr.Validation(validator.Describe(err))
	}

	payload := client.ViewingPayload{ViewingTime: req.ViewingTime}
	if req.Address != "" {
		addr := req.Address
		payload.Address = &addr
	}
	payload.Notes = sanitize.NotesPtr(req.Notes)

	if err := c.api.ScheduleViewing(ctx, id, payload); err != nil {
		return c.failed(OpScheduleViewing, id, err)
	}
	c.settle(ctx, OpScheduleViewing, []int64{id}, nil)
	return nil
}

// BulkUpdate applies patch to every id in one request.
func (c *Coordinator) BulkUpdate(ctx context.Context, ids []int64, patch map[string]any) error {
	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		return apperr.Validation("Select at least one inquiry")
	}
	if len(patch) == 0 {
		return apperr.Validation("Nothing to update")
	}
	if s, ok := patch["status"]; ok {
		if err := c.val.Var(toString(s), "required,inquiry_status"); err != nil {
			return apperr.Validation("Choose a valid status")
		}
	}
	if p, ok := patch["priority"]; ok {
		if err := c.val.Var(toString(p), "required,inquiry_priority"); err != nil {
			return apperr.Validation("Choose a valid priority")
		}
	}

	if err := c.api.BulkUpdate(ctx, client.BulkPayload{IDs: ids, Patch: patch}); err != nil {
		return c.failed(OpBulkUpdate, 0, err)
	}
	c.settle(ctx, OpBulkUpdate, ids, nil)
	return nil
}

// Export starts a server-side export of the inquiries matching filters.
func (c *Coordinator) Export(ctx context.Context, filters filter.APIFilters) (domain.ExportJob, error) {
	job, err := c.api.Export(ctx, filters)
	if err != nil {
		return domain.ExportJob{}, c.failed(OpExport, 0, err)
	}
	return job, nil
}

// settle invalidates every list and the stats, plus detail and activity of
// each affected id, then announces the change.
func (c *Coordinator) settle(ctx context.Context, op string, ids, failed []int64) {
	if len(ids) > 0 {
		c.cache.Invalidate(ctx, querycache.KindList)
		c.cache.Invalidate(ctx, querycache.KindStats)
		params := make([]string, len(ids))
		for i, id := range ids {
			params[i] = querycache.IDParam(id)
		}
		c.cache.Invalidate(ctx, querycache.KindDetail, params...)
		c.cache.Invalidate(ctx, querycache.KindActivity, params...)
	}

	if c.bus != nil {
		c.bus.Publish(ctx, events.InquiriesMutated{
			BaseEvent: events.NewBaseEvent(),
			SessionID: c.sessionID,
			Operation: op,
			IDs:       ids,
			Failed:    failed,
		})
	}
}

func (c *Coordinator) failed(op string, id int64, err error) error {
	c.log.MutationFailed(op, id, err)
	if apperr.GetKind(err) == apperr.KindUnknown {
		return apperr.Wrap(apperr.KindUnknown, apperr.GenericMessage, err).WithOp(op)
	}
	return err
}

func validID(id int64) error {
	if id <= 0 {
		return apperr.Validation("Invalid inquiry id")
	}
	return nil
}

func normalizeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case domain.Status:
		return string(s)
	case domain.Priority:
		return string(s)
	default:
		return ""
	}
}
