package core

import (
	"net/url"
	"strconv"
	"time"
)

// Period is the (month, year) filter accepted by list and summary endpoints.
// The zero value means "no filter".
type Period struct {
	Month int // 1-12
	Year  int
}

// CurrentPeriod returns the period now falls into.
func CurrentPeriod(now time.Time) Period {
	return Period{Month: int(now.Month()), Year: now.Year()}
}

// Complete reports whether both month and year are set. The API only
// honours the filter when both are present.
func (p Period) Complete() bool {
	return p.Month > 0 && p.Year > 0
}

// Values returns the query parameters for p. A partial period yields no
// parameters at all, so the request goes out unfiltered.
func (p Period) Values() url.Values {
	if !p.Complete() {
		return nil
	}
	return url.Values{
		"month": []string{strconv.Itoa(p.Month)},
		"year":  []string{strconv.Itoa(p.Year)},
	}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < 1 {
		return ErrInvalidYear
	}
	return nil
}

func (p Period) String() string {
	if !p.Complete() {
		return "all"
	}
	return time.Month(p.Month).String() + " " + strconv.Itoa(p.Year)
}
