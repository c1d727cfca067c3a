package filter

import (
	"testing"
	"time"

	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/platform/validator"
)

var addis = time.FixedZone("EAT", 3*60*60)

func fixedNow() time.Time {
	return time.Date(2026, time.March, 15, 14, 30, 45, 0, addis)
}

func TestBuild_TodayIsLocalMidnight(t *testing.T) {
	now := fixedNow()
	state := Default()
	state.DateRange = domain.DateRangeToday

	got := Build(state, now)

	want := time.Date(2026, time.March, 15, 0, 0, 0, 0, addis).UTC().Format(TimestampLayout)
	if got.CreatedAtGTE != want {
		t.Fatalf("expected created_at__gte %q, got %q", want, got.CreatedAtGTE)
	}
	if got.CreatedAtGTE != "2026-03-14T21:00:00.000Z" {
		t.Fatalf("expected UTC rendering of local midnight, got %q", got.CreatedAtGTE)
	}
}

func TestBuild_TodayFollowsCallTime(t *testing.T) {
	state := Default()
	state.DateRange = domain.DateRangeToday

	first := Build(state, fixedNow())
	second := Build(state, fixedNow().Add(24*time.Hour))

	if first.CreatedAtGTE == second.CreatedAtGTE {
		t.Fatalf("expected date bound to move with now, both were %q", first.CreatedAtGTE)
	}
}

func TestBuild_ForwardsAllStatusesButOnlyFirstPriority(t *testing.T) {
	state := Default()
	state.Status = []domain.Status{domain.StatusPending, domain.StatusContacted, domain.StatusFollowUp}
	state.Priority = []domain.Priority{domain.PriorityHigh, domain.PriorityUrgent}

	got := Build(state, fixedNow())

	if got.Status != "pending,contacted,follow_up" {
		t.Fatalf("expected all statuses forwarded, got %q", got.Status)
	}
	// Regression guard: the API translation keeps only the first priority.
	if got.Priority != "high" {
		t.Fatalf("expected only first priority forwarded, got %q", got.Priority)
	}
}

func TestBuild_SearchOnlyScenario(t *testing.T) {
	state := Default()
	state.Search = "bole"

	q := Build(state, fixedNow()).Values()

	if q.Get("search") != "bole" {
		t.Fatalf("expected search=bole, got %q", q.Get("search"))
	}
	if q.Has("status") {
		t.Fatalf("expected no status param, got %q", q.Get("status"))
	}
	if q.Has("created_at__gte") {
		t.Fatalf("expected no date bound, got %q", q.Get("created_at__gte"))
	}
	if q.Get("ordering") != "-created_at" {
		t.Fatalf("expected default ordering, got %q", q.Get("ordering"))
	}
}

func TestBuild_StatusAndWeekScenario(t *testing.T) {
	now := fixedNow()
	state := Default()
	state.Status = []domain.Status{domain.StatusPending, domain.StatusContacted}
	state.DateRange = domain.DateRangeWeek

	q := Build(state, now).Values()

	if q.Get("status") != "pending,contacted" {
		t.Fatalf("expected status=pending,contacted, got %q", q.Get("status"))
	}
	want := now.Add(-7 * 24 * time.Hour).UTC().Format(TimestampLayout)
	if q.Get("created_at__gte") != want {
		t.Fatalf("expected created_at__gte %q, got %q", want, q.Get("created_at__gte"))
	}
}

func TestBuild_MonthIsOneCalendarMonth(t *testing.T) {
	now := fixedNow()
	state := Default()
	state.DateRange = domain.DateRangeMonth

	got := Build(state, now)

	want := time.Date(2026, time.February, 15, 14, 30, 45, 0, addis).UTC().Format(TimestampLayout)
	if got.CreatedAtGTE != want {
		t.Fatalf("expected %q, got %q", want, got.CreatedAtGTE)
	}
}

func TestBuild_AssignedTo(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"unassigned", "unassigned"},
		{"42", "42"},
		{" 7 ", "7"},
		{"abc", ""},
		{"0", ""},
		{"-3", ""},
	}
	for _, tc := range cases {
		state := Default()
		state.AssignedTo = tc.raw
		if got := Build(state, fixedNow()).AssignedTo; got != tc.want {
			t.Fatalf("assigned_to %q: expected %q, got %q", tc.raw, tc.want, got)
		}
	}
}

func TestBuild_Ordering(t *testing.T) {
	state := Default()
	state.SortBy = "priority"
	state.SortOrder = domain.SortAsc
	if got := Build(state, fixedNow()).Ordering; got != "priority" {
		t.Fatalf("expected ascending ordering without prefix, got %q", got)
	}

	state.SortOrder = domain.SortDesc
	if got := Build(state, fixedNow()).Ordering; got != "-priority" {
		t.Fatalf("expected descending ordering with prefix, got %q", got)
	}

	state.SortBy = ""
	state.SortOrder = ""
	if got := Build(state, fixedNow()).Ordering; got != "-created_at" {
		t.Fatalf("expected default ordering, got %q", got)
	}
}

func TestBuild_BlankSearchIsDropped(t *testing.T) {
	state := Default()
	state.Search = "   "
	if got := Build(state, fixedNow()).Search; got != "" {
		t.Fatalf("expected blank search to be dropped, got %q", got)
	}
}

func TestKey_IsCanonical(t *testing.T) {
	a := Default()
	a.Search = "bole"
	a.Status = []domain.Status{domain.StatusClosed}
	b := a

	if Build(a, fixedNow()).Key() != Build(b, fixedNow()).Key() {
		t.Fatalf("expected equal states to share a key")
	}

	b.Search = "cmc"
	if Build(a, fixedNow()).Key() == Build(b, fixedNow()).Key() {
		t.Fatalf("expected different search to change the key")
	}
}

func TestWithoutPaging(t *testing.T) {
	q := Build(Default(), fixedNow()).WithoutPaging().Values()
	if q.Has("page") || q.Has("page_size") {
		t.Fatalf("expected paging params removed, got %v", q)
	}
}

func TestStatsAffected(t *testing.T) {
	prev := Default()

	next := prev
	next.Search = "summit"
	if StatsAffected(prev, next) {
		t.Fatalf("search change must not reload stats")
	}

	next = prev
	next.DateRange = domain.DateRangeWeek
	if !StatsAffected(prev, next) {
		t.Fatalf("date range change must reload stats")
	}

	next = prev
	next.Status = []domain.Status{domain.StatusSpam}
	if !StatsAffected(prev, next) {
		t.Fatalf("status change must reload stats")
	}
}

func TestRegisterValidations(t *testing.T) {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		t.Fatalf("register: %v", err)
	}

	ok := Default()
	ok.Status = []domain.Status{domain.StatusPending}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("expected valid state, got %v", err)
	}

	bad := Default()
	bad.Status = []domain.Status{"archived"}
	bad.DateRange = "decade"
	err := v.Struct(bad)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if got := validator.Describe(err); got != "Status[0]: inquiry_status; DateRange: date_range" {
		t.Fatalf("unexpected description %q", got)
	}
}
