package model

import "testing"

func TestParseSort(t *testing.T) {
    tests := []struct {
        sort, order string
        want        Sort
        wantErr     bool
    }{
        {"", "", Sort{}, false},
        {"time", "", Sort{SortByTime, Asc}, false},
        {"DATE", "desc", Sort{SortByDate, Desc}, false},
        {"asc", "", Sort{SortByTime, Asc}, false},
        {"desc", "desc", Sort{SortByTime, Desc}, false},
        {"desc", "asc", Sort{}, true},
        {"", "asc", Sort{}, true},
        {"price", "", Sort{}, true},
        {"time", "sideways", Sort{}, true},
    }
    for _, tt := range tests {
        got, err := ParseSort(tt.sort, tt.order)
        if (err != nil) != tt.wantErr || got != tt.want {
            t.Errorf("ParseSort(%q, %q) = %+v, %v", tt.sort, tt.order, got, err)
        }
    }
}

func TestFilterMatch(t *testing.T) {
    r := Reservation{Name: "Alice", Date: "2024-06-01", Time: "14:00"}
    tests := []struct {
        f    Filter
        want bool
    }{
        {Filter{}, true},
        {Filter{Date: "2024-06-01"}, true},
        {Filter{Date: "2024-06-02"}, false},
        {Filter{Name: "Alice", Date: "2024-06-01"}, true},
        {Filter{Name: "Bob"}, false},
    }
    for _, tt := range tests {
        if got := tt.f.Match(r); got != tt.want {
            t.Errorf("%+v.Match = %v, want %v", tt.f, got, tt.want)
        }
        if got := r.Slot(); got != (Slot{Date: "2024-06-01", Time: "14:00"}) {
            t.Errorf("Slot() = %+v", got)
        }
    }
}
