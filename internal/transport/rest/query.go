package rest

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/domain"
)

func badParam(name, msg string) error {
	return domain.ErrValidationMeta("invalid query param", map[string]string{name: msg})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidationMeta("invalid path param", map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}

// list returns every value of a repeatable param, also splitting on commas:
// ?categories=1,2&categories=3
func list(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func int64List(q url.Values, name string) ([]int64, error) {
	raw := list(q, name)
	out := make([]int64, 0, len(raw))
	for _, s := range raw {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, badParam(name, "must be a list of integers")
		}
		out = append(out, n)
	}
	return out, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, badParam(name, "must be an integer")
	}
	return n, nil
}

func boolParam(q url.Values, name string) (*bool, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, badParam(name, "must be true or false")
	}
	return &b, nil
}

func timeParam(q url.Values, name string) (*time.Time, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return nil, nil
	}
	t, err := domain.ParseTime(s)
	if err != nil {
		return nil, badParam(name, "must be yyyy-MM-dd HH:mm:ss")
	}
	return &t, nil
}

func page(q url.Values) (from, size int, err error) {
	if from, err = intParam(q, "from", 0); err != nil {
		return 0, 0, err
	}
	if size, err = intParam(q, "size", event.DefaultPageSize); err != nil {
		return 0, 0, err
	}
	if from < 0 {
		return 0, 0, badParam("from", "must be >= 0")
	}
	if size <= 0 {
		return 0, 0, badParam("size", "must be > 0")
	}
	return from, size, nil
}

// publicFilter reads text, categories, paid, rangeStart, rangeEnd,
// onlyAvailable, sort, from and size.
func publicFilter(q url.Values) (event.ListFilter, error) {
	var (
		f   event.ListFilter
		err error
	)
	f.Text = q.Get("text")
	if f.Categories, err = int64List(q, "categories"); err != nil {
		return f, err
	}
	if f.Paid, err = boolParam(q, "paid"); err != nil {
		return f, err
	}
	if f.RangeStart, err = timeParam(q, "rangeStart"); err != nil {
		return f, err
	}
	if f.RangeEnd, err = timeParam(q, "rangeEnd"); err != nil {
		return f, err
	}
	avail, err := boolParam(q, "onlyAvailable")
	if err != nil {
		return f, err
	}
	f.OnlyAvailable = avail != nil && *avail
	if f.Sort, err = event.ParseSort(q.Get("sort")); err != nil {
		return f, err
	}
	f.From, f.Size, err = page(q)
	return f, err
}

// adminFilter reads users, states, categories, rangeStart, rangeEnd, from and
// size.
func adminFilter(q url.Values) (event.ListFilter, error) {
	var (
		f   event.ListFilter
		err error
	)
	if f.Initiators, err = int64List(q, "users"); err != nil {
		return f, err
	}
	for _, s := range list(q, "states") {
		st, err := domain.ParseEventState(s)
		if err != nil {
			return f, err
		}
		f.States = append(f.States, st)
	}
	if f.Categories, err = int64List(q, "categories"); err != nil {
		return f, err
	}
	if f.RangeStart, err = timeParam(q, "rangeStart"); err != nil {
		return f, err
	}
	if f.RangeEnd, err = timeParam(q, "rangeEnd"); err != nil {
		return f, err
	}
	f.From, f.Size, err = page(q)
	return f, err
}
