package mutation

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"inquiry_desk/platform/apperr"
)

// ItemResult is the outcome of one call in a fan-out.
type ItemResult struct {
	ID  int64
	Err error
}

// BulkResult collects per-item outcomes. Items succeed or fail on their own;
// nothing is rolled back.
type BulkResult struct {
	Succeeded []int64
	Failed    []ItemResult
}

// FailedIDs returns the ids whose call failed, in request order.
func (r BulkResult) FailedIDs() []int64 {
	ids := make([]int64, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.ID
	}
	return ids
}

// AllFailed reports whether nothing succeeded.
func (r BulkResult) AllFailed() bool {
	return len(r.Succeeded) == 0 && len(r.Failed) > 0
}

// Err summarises the failures, naming each failed id, or returns nil.
func (r BulkResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	total := len(r.Succeeded) + len(r.Failed)
	parts := make([]string, len(r.Failed))
	details := make(map[string]string, len(r.Failed))
	for i, f := range r.Failed {
		msg := apperr.Message(f.Err)
		parts[i] = fmt.Sprintf("#%d: %s", f.ID, msg)
		details[fmt.Sprint(f.ID)] = msg
	}
	message := fmt.Sprintf("%d of %d inquiries could not be assigned (%s)", len(r.Failed), total, strings.Join(parts, "; "))

	kind := apperr.GetKind(r.Failed[0].Err)
	if kind == apperr.KindUnknown {
		kind = apperr.KindInternal
	}
	return apperr.Wrap(kind, message, r.Failed[0].Err).WithOp(OpBulkAssign).WithDetails(details)
}

// BulkAssignToCurrentUser assigns each id with its own request. Calls run
// with bounded concurrency and are paced by the coordinator's limiter.
func (c *Coordinator) BulkAssignToCurrentUser(ctx context.Context, ids []int64) BulkResult {
	ids = normalizeIDs(ids)
	results := make([]ItemResult, len(ids))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = ItemResult{ID: id, Err: c.assignOne(ctx, id)}
			return nil
		})
	}
	_ = g.Wait()

	var out BulkResult
	for _, r := range results {
		if r.Err != nil {
			c.log.MutationFailed(OpBulkAssign, r.ID, r.Err)
			out.Failed = append(out.Failed, r)
			continue
		}
		out.Succeeded = append(out.Succeeded, r.ID)
	}

	if len(out.Succeeded) > 0 {
		c.settle(ctx, OpBulkAssign, out.Succeeded, out.FailedIDs())
	}
	return out
}

func (c *Coordinator) assignOne(ctx context.Context, id int64) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperr.Unavailable(apperr.GenericMessage, err)
	}
	return c.api.AssignToMe(ctx, id)
}
