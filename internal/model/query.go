package model

import (
    "fmt"
    "strings"
)

// Filter narrows a reservation listing.  Empty fields match everything;
// non-empty fields must match exactly.
type Filter struct {
    Date string
    Name string
}

// Match reports whether r satisfies the filter.
func (f Filter) Match(r Reservation) bool {
    if f.Date != "" && r.Date != f.Date {
        return false
    }
    if f.Name != "" && r.Name != f.Name {
        return false
    }
    return true
}

type SortField string

const (
    SortByTime SortField = "time"
    SortByDate SortField = "date"
)

type SortDir string

const (
    Asc  SortDir = "asc"
    Desc SortDir = "desc"
)

// Sort orders a listing lexicographically on one field.  A zero Sort means
// store order.
type Sort struct {
    By  SortField
    Dir SortDir
}

// IsZero reports whether no ordering was requested.
func (s Sort) IsZero() bool { return s.By == "" }

// ParseSort interprets the sort and order query parameters.  sort accepts
// "time" or "date"; the legacy values "asc" and "desc" sort by time in that
// direction.  order defaults to ascending.
func ParseSort(sort, order string) (Sort, error) {
    sort = strings.ToLower(strings.TrimSpace(sort))
    order = strings.ToLower(strings.TrimSpace(order))

    var s Sort
    switch sort {
    case "":
        if order != "" {
            return Sort{}, fmt.Errorf("order %q requires sort", order)
        }
        return Sort{}, nil
    case "time":
        s.By = SortByTime
    case "date":
        s.By = SortByDate
    case "asc", "desc":
        if order != "" && order != sort {
            return Sort{}, fmt.Errorf("sort %q contradicts order %q", sort, order)
        }
        return Sort{By: SortByTime, Dir: SortDir(sort)}, nil
    default:
        return Sort{}, fmt.Errorf("unknown sort field %q", sort)
    }
    switch order {
    case "", "asc":
        s.Dir = Asc
    case "desc":
        s.Dir = Desc
    default:
        return Sort{}, fmt.Errorf("unknown sort order %q", order)
    }
    return s, nil
}
