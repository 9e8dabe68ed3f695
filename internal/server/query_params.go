package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/carhouse/pkg/db/pagination"
)

const dateOnlyLayout = "2006-01-02"

type pageQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

func (q pageQuery) pagination() pagination.Pagination {
	return pagination.Pagination{Page: q.Page, PageSize: q.PageSize}
}

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseTime accepts RFC 3339 timestamps and bare dates; bare dates map to
// midnight UTC, or the last instant of the day when endOfDay is set.
func parseTime(value string, endOfDay bool) (*time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, true
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, true
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		if endOfDay {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
		}
		return &parsed, true
	}
	return nil, false
}
