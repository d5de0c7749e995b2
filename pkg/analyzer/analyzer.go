package analyzer

import (
	"sort"
	"time"

	"github.com/logtriage/logtriage/pkg/event"
)

// The queries in this package are read-only and independent of each other,
// all of them operate on the same immutable record sequence in file order.

// TopIPCounts returns the n most frequent client IPs by request count.
func TopIPCounts(records []event.Request, n int) []Ranked {
	counter := newOrderedCounter()
	for _, r := range records {
		counter.inc(r.IP)
	}
	return counter.ranked(n)
}

// TopPaths returns the n most requested paths.
func TopPaths(records []event.Request, n int) []Ranked {
	counter := newOrderedCounter()
	for _, r := range records {
		counter.inc(r.Path)
	}
	return counter.ranked(n)
}

// UserAgentDiversity returns the n IPs with the most distinct user agents.
func UserAgentDiversity(records []event.Request, n int) []Ranked {
	seen := make(map[string]map[string]struct{})
	counter := newOrderedCounter()
	for _, r := range records {
		agents, ok := seen[r.IP]
		if !ok {
			agents = make(map[string]struct{})
			seen[r.IP] = agents
		}
		if _, ok := agents[r.UserAgent]; ok {
			continue
		}
		agents[r.UserAgent] = struct{}{}
		counter.inc(r.IP)
	}
	return counter.ranked(n)
}

// SlowRequest is the projection of a record reported by SlowestRequests.
type SlowRequest struct {
	IP           string
	Time         time.Time
	Path         string
	ResponseTime int
}

// SlowestRequests returns the n slowest requests, slowest first. Requests with
// equal response times keep their original file order.
func SlowestRequests(records []event.Request, n int) []SlowRequest {
	sorted := make([]event.Request, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ResponseTime > sorted[j].ResponseTime
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	result := make([]SlowRequest, len(sorted))
	for i, r := range sorted {
		result[i] = SlowRequest{IP: r.IP, Time: r.Time, Path: r.Path, ResponseTime: r.ResponseTime}
	}
	return result
}

// PeakRatePerIP computes, for every IP, the maximum number of its requests
// falling into any single calendar-minute bucket. Buckets are aligned to
// minute boundaries, not sliding, and only minutes in which the IP made at
// least one request count. Returns all IPs, highest peak first.
func PeakRatePerIP(records []event.Request) []Ranked {
	buckets := make(map[string]map[time.Time]int)
	peaks := newOrderedCounter()
	for _, r := range records {
		minutes, ok := buckets[r.IP]
		if !ok {
			minutes = make(map[time.Time]int)
			buckets[r.IP] = minutes
		}
		minute := r.Time.Truncate(time.Minute)
		minutes[minute]++
		if minutes[minute] > peaks.count(r.IP) {
			peaks.set(r.IP, minutes[minute])
		}
	}
	return peaks.ranked(-1)
}

// BotFlag returns the IPs whose peak requests-per-minute strictly exceeds the
// threshold, in peak order.
func BotFlag(peaks []Ranked, threshold int) []string {
	var bots []string
	for _, p := range peaks {
		if p.Count > threshold {
			bots = append(bots, p.Key)
		}
	}
	return bots
}
