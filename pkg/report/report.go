package report

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/logtriage/logtriage/pkg/analyzer"
	"github.com/logtriage/logtriage/pkg/event"
)

// Options control which sections the report carries and their bounds.
type Options struct {
	TopN         int
	RPMThreshold int
	// LatencySummary appends a response time distribution section after the
	// standard sections.
	LatencySummary bool
}

// Report holds every computed section of the triage report.
type Report struct {
	options Options

	TotalParsed    int
	TopIPs         []analyzer.Ranked
	Slowest        []analyzer.SlowRequest
	TopPaths       []analyzer.Ranked
	AgentDiversity []analyzer.Ranked
	PeakRates      []analyzer.Ranked
	Bots           []string
	Latency        analyzer.LatencyStats
}

// Build computes all report sections over the given records. The queries do
// not depend on each other and none mutates the records, so they run
// concurrently.
func Build(records []event.Request, options Options) *Report {
	r := &Report{options: options, TotalParsed: len(records)}

	queries := []func(){
		func() { r.TopIPs = analyzer.TopIPCounts(records, options.TopN) },
		func() { r.Slowest = analyzer.SlowestRequests(records, options.TopN) },
		func() { r.TopPaths = analyzer.TopPaths(records, options.TopN) },
		func() { r.AgentDiversity = analyzer.UserAgentDiversity(records, options.TopN) },
		func() {
			r.PeakRates = analyzer.PeakRatePerIP(records)
			r.Bots = analyzer.BotFlag(r.PeakRates, options.RPMThreshold)
		},
	}
	if options.LatencySummary {
		queries = append(queries, func() { r.Latency = analyzer.LatencySummary(records) })
	}

	var wg sync.WaitGroup
	for _, query := range queries {
		wg.Add(1)
		go func(query func()) {
			defer wg.Done()
			query()
		}(query)
	}
	wg.Wait()
	return r
}

// Write renders the report sections in their fixed order.
func (r *Report) Write(w io.Writer) {
	n := r.options.TopN

	fmt.Fprintf(w, "Total log lines parsed: %d\n", r.TotalParsed)

	fmt.Fprintf(w, "\nTop %d IPs by request count:\n", n)
	writeRanked(w, r.TopIPs, "requests")

	fmt.Fprintf(w, "\nTop %d slowest requests:\n", n)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  IP\tTIME\tPATH\tRESPONSE TIME")
	for _, s := range r.Slowest {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%dms\n", s.IP, s.Time.Format(event.TimeLayout), s.Path, s.ResponseTime)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nTop %d most requested paths:\n", n)
	writeRanked(w, r.TopPaths, "requests")

	fmt.Fprintf(w, "\nTop %d IPs by user-agent diversity:\n", n)
	writeRanked(w, r.AgentDiversity, "distinct agents")

	fmt.Fprintf(w, "\nTop %d IPs by peak requests-per-minute:\n", n)
	peaks := r.PeakRates
	if n >= 0 && len(peaks) > n {
		peaks = peaks[:n]
	}
	writeRanked(w, peaks, "rpm")

	fmt.Fprintf(w, "\nIPs exceeding %d RPM: %d found\n", r.options.RPMThreshold, len(r.Bots))
	for _, ip := range r.Bots {
		fmt.Fprintf(w, "  - %s\n", ip)
	}

	if r.options.LatencySummary {
		fmt.Fprintf(w, "\nResponse time summary: count=%d mean=%.1fms p50=%.0fms p90=%.0fms p99=%.0fms\n",
			r.Latency.Count, r.Latency.Mean, r.Latency.P50, r.Latency.P90, r.Latency.P99)
	}
}

func writeRanked(w io.Writer, ranked []analyzer.Ranked, unit string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, item := range ranked {
		fmt.Fprintf(tw, "  %s\t%d %s\n", item.Key, item.Count, unit)
	}
	tw.Flush()
}
