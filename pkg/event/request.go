package event

import (
	"fmt"
	"time"
)

// TimeLayout is the fixed timestamp format of the access log. Timestamps are
// timezone-naive and parse as UTC.
const TimeLayout = "02/01/2006:15:04:05"

// Request represents a single parsed access log line. It is immutable once
// built by the parser.
type Request struct {
	IP           string
	Country      string
	Time         time.Time
	Method       string
	Path         string
	Protocol     string
	StatusCode   int
	Size         int
	Referrer     string
	UserAgent    string
	ResponseTime int // milliseconds
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s %s status=%d rt=%dms", r.IP, r.Method, r.Path, r.StatusCode, r.ResponseTime)
}
