package parser

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/logtriage/logtriage/pkg/event"
	"github.com/logtriage/logtriage/pkg/stringmap"
)

// buildRequest coerces the string fields of a single matched row into a typed
// record.
func buildRequest(row stringmap.StringMap) (event.Request, error) {
	t, err := time.Parse(event.TimeLayout, row["time"])
	if err != nil {
		return event.Request{}, fmt.Errorf("invalid timestamp in row %s: %w", row, err)
	}
	status, err := strconv.Atoi(row["status"])
	if err != nil {
		return event.Request{}, fmt.Errorf("invalid status in row %s: %w", row, err)
	}
	size, err := strconv.Atoi(row["size"])
	if err != nil {
		return event.Request{}, fmt.Errorf("invalid size in row %s: %w", row, err)
	}
	responseTime, err := strconv.Atoi(row["responseTime"])
	if err != nil {
		return event.Request{}, fmt.Errorf("invalid response time in row %s: %w", row, err)
	}
	return event.Request{
		IP:           row["ip"],
		Country:      row["country"],
		Time:         t,
		Method:       row["method"],
		Path:         row["path"],
		Protocol:     row["protocol"],
		StatusCode:   status,
		Size:         size,
		Referrer:     row["referrer"],
		UserAgent:    row["agent"],
		ResponseTime: responseTime,
	}, nil
}

// coerceRows runs the bulk coercion pass over all matched rows. Any failing
// row aborts the whole run, all failures are reported together.
func coerceRows(rows []stringmap.StringMap) ([]event.Request, error) {
	var errs *multierror.Error
	records := make([]event.Request, 0, len(rows))
	for _, row := range rows {
		record, err := buildRequest(row)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		records = append(records, record)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("field coercion failed: %w", err)
	}
	return records, nil
}
