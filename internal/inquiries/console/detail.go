package console

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/internal/inquiries/presentation"
	"inquiry_desk/internal/inquiries/querycache"
	"inquiry_desk/platform/apperr"
	"inquiry_desk/platform/logger"
)

// DetailView is the single-inquiry page. NotFound replaces the page for a
// malformed id, a missing inquiry, or one the user may not see.
type DetailView struct {
	NotFound      bool                   `json:"not_found"`
	BackTo        string                 `json:"back_to,omitempty"`
	Inquiry       *domain.Inquiry        `json:"inquiry,omitempty"`
	Status        presentation.Badge     `json:"status_badge"`
	Priority      presentation.Badge     `json:"priority_badge"`
	Contact       presentation.Badge     `json:"contact_badge"`
	Link          *presentation.Link     `json:"contact_link,omitempty"`
	Activity      []domain.ActivityEvent `json:"activity"`
	ActivityError string                 `json:"activity_error,omitempty"`
	Stale         bool                   `json:"stale"`
}

// ListPath is where a not-found page sends the user back to.
const ListPath = "/inquiries"

// DetailController loads the single-inquiry page.
type DetailController struct {
	reader Reader
	cache  *querycache.Cache
	region string
	log    *logger.Logger
}

// NewDetailController creates a detail controller.
func NewDetailController(d Deps) *DetailController {
	return &DetailController{reader: d.Reader, cache: d.Cache, region: d.Region, log: d.Log}
}

// Load fetches the inquiry and its timeline. rawID comes straight from the
// route; nothing is fetched unless it is a positive integer.
func (c *DetailController) Load(ctx context.Context, rawID string) (DetailView, error) {
	id, err := querycache.ParseID(rawID)
	if err != nil {
		return notFound(), nil
	}

	var (
		inq         domain.Inquiry
		activity    []domain.ActivityEvent
		activityErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inq, err = querycache.Get(gctx, c.cache, querycache.DetailKey(id), func(ctx context.Context) (domain.Inquiry, error) {
			return c.reader.GetInquiry(ctx, id)
		})
		if errors.Is(err, querycache.ErrSuperseded) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		activity, activityErr = querycache.Get(ctx, c.cache, querycache.ActivityKey(id), func(ctx context.Context) ([]domain.ActivityEvent, error) {
			return c.reader.GetActivity(ctx, id)
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		switch apperr.GetKind(err) {
		case apperr.KindNotFound, apperr.KindForbidden:
			return notFound(), nil
		default:
			return DetailView{}, err
		}
	}

	if verr := inq.Validate(); verr != nil {
		c.log.Warn("inquiry violates record invariants", "inquiry_id", inq.ID, "error", verr)
	}

	v := DetailView{
		Inquiry:  &inq,
		Status:   presentation.Status(inq.Status),
		Priority: presentation.Priority(inq.Priority),
		Contact:  presentation.ContactPreference(inq.ContactPreference),
		Activity: activity,
		Stale:    c.cache.State(querycache.DetailKey(id)).Stale,
	}
	if link, ok := presentation.ContactLink(inq, c.region); ok {
		v.Link = &link
	}
	if activityErr != nil && !errors.Is(activityErr, querycache.ErrSuperseded) {
		v.ActivityError = apperr.Message(activityErr)
	}
	if v.Activity == nil {
		v.Activity = []domain.ActivityEvent{}
	}
	return v, nil
}

func notFound() DetailView {
	return DetailView{NotFound: true, BackTo: ListPath, Activity: []domain.ActivityEvent{}}
}
