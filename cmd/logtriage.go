package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/logtriage/logtriage/pkg/parser"
	"github.com/logtriage/logtriage/pkg/report"
)

func setupLogging(logLevel string) error {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}

func main() {
	logLevel := kingpin.Flag("log-level", "Set log level").Default("warning").String()
	rpmThreshold := kingpin.Flag("rpm-threshold", "Requests per minute threshold for bot flagging.").Default("100").Int()
	topN := kingpin.Flag("top", "Number of entries shown in each top-N report section.").Default("10").Int()
	verbose := kingpin.Flag("verbose", "Report lines skipped by the log grammar.").Short('v').Bool()
	latencySummary := kingpin.Flag("latency-summary", "Append a response time distribution summary to the report.").Bool()
	logFile := kingpin.Arg("logfile", "Path to the access log file to analyze.").Required().String()

	kingpin.Parse()

	if err := setupLogging(*logLevel); err != nil {
		log.Fatalf("invalid specified log level %v, error: %v", *logLevel, err)
	}

	records, stats, err := parser.ParseFile(
		parser.Config{LogFile: *logFile, LogSkippedLines: *verbose},
		log.WithField("component", "parser"),
	)
	if err != nil {
		log.Fatalf("failed to parse %s: %v", *logFile, err)
	}
	log.Debugf("parsed %d of %d lines", stats.Matched, stats.Lines)

	triage := report.Build(records, report.Options{
		TopN:           *topN,
		RPMThreshold:   *rpmThreshold,
		LatencySummary: *latencySummary,
	})
	triage.Write(os.Stdout)
}
