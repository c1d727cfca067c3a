package querycache

import (
	"strconv"
	"strings"

	"inquiry_desk/internal/inquiries/filter"
	"inquiry_desk/platform/apperr"
)

// Kind names a cached resource.
type Kind string

const (
	KindList     Kind = "inquiries-list"
	KindDetail   Kind = "inquiry-detail"
	KindStats    Kind = "dashboard-stats"
	KindActivity Kind = "inquiry-activity"
)

// Key identifies one cache entry: the resource kind plus its serialized
// filters or id.
type Key struct {
	Kind  Kind
	Param string
}

func (k Key) String() string {
	if k.Param == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.Param
}

// ListKey keys an inquiry list by its full filter set.
func ListKey(f filter.APIFilters) Key {
	return Key{Kind: KindList, Param: f.Key()}
}

// DetailKey keys a single inquiry.
func DetailKey(id int64) Key {
	return Key{Kind: KindDetail, Param: strconv.FormatInt(id, 10)}
}

// ActivityKey keys the timeline of a single inquiry.
func ActivityKey(id int64) Key {
	return Key{Kind: KindActivity, Param: strconv.FormatInt(id, 10)}
}

// StatsKey is the single dashboard stats entry.
func StatsKey() Key {
	return Key{Kind: KindStats}
}

// ParseID accepts a route parameter only if it is a positive integer.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid inquiry id").WithDetails(map[string]string{"id": raw})
	}
	return id, nil
}

// IDParam formats an id the way detail and activity keys carry it.
func IDParam(id int64) string {
	return strconv.FormatInt(id, 10)
}
