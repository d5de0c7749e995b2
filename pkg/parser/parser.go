package parser

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/hpcloud/tail"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/logtriage/logtriage/pkg/event"
	"github.com/logtriage/logtriage/pkg/stringmap"
)

// lineParseRegexp describes the whole log line grammar. The pattern is anchored
// at the start of the line only, trailing content after the response time is
// ignored.
var lineParseRegexp = regexp.MustCompile(`^(?P<ip>\S+)\s+-\s+(?P<country>\S+)\s+-\s+\[(?P<time>[^\]]+)\]\s+"(?P<method>\S+)\s+(?P<path>\S+)\s+(?P<protocol>[^"]+)"\s+(?P<status>\d{3})\s+(?P<size>\d+)\s+"(?P<referrer>[^"]*)"\s+"(?P<agent>[^"]*)"\s+(?P<responseTime>\d+)`)

// ErrNoRecordsParsed means the whole file was read but not a single line
// matched the log grammar. It is distinct from a file access failure.
var ErrNoRecordsParsed = errors.New("no log lines parsed, check the log format")

type Config struct {
	LogFile string
	// LogSkippedLines reports every line dropped by the grammar on the
	// logger. Off by default, dropped lines are only counted.
	LogSkippedLines bool
}

// Parser reads a log file to EOF, emitting the named capture groups of every
// line matching the log grammar. Lines that do not match are dropped.
type Parser struct {
	cfg     Config
	logger  logrus.FieldLogger
	tail    *tail.Tail
	rows    chan stringmap.StringMap
	lines   atomic.Int64
	skipped atomic.Int64
}

// New returns a Parser with the log file already open. The file must exist.
func New(cfg Config, logger logrus.FieldLogger) (*Parser, error) {
	t, err := tail.TailFile(cfg.LogFile, tail.Config{Follow: false, MustExist: true, Logger: tail.DiscardingLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to open log file %s: %w", cfg.LogFile, err)
	}
	return &Parser{
		cfg:    cfg,
		logger: logger,
		tail:   t,
		rows:   make(chan stringmap.StringMap),
	}, nil
}

// Run starts reading the file, feeding matched rows into OutputChannel in file
// order. The channel is closed and the file released once EOF is reached.
func (p *Parser) Run() {
	go func() {
		defer close(p.rows)
		defer p.tail.Cleanup()

		for line := range p.tail.Lines {
			if line.Err != nil {
				p.logger.Error(line.Err)
				continue
			}
			lineNumber := p.lines.Inc()
			row, ok := matchLine(line.Text)
			if !ok {
				p.skipped.Inc()
				if p.cfg.LogSkippedLines {
					p.logger.Warnf("line %d does not match the log grammar: %s", lineNumber, line.Text)
				}
				continue
			}
			p.rows <- row
		}
	}()
}

func (p *Parser) OutputChannel() chan stringmap.StringMap {
	return p.rows
}

// LineCount returns the number of lines read so far.
func (p *Parser) LineCount() int64 {
	return p.lines.Load()
}

// SkippedCount returns the number of lines dropped by the grammar so far.
func (p *Parser) SkippedCount() int64 {
	return p.skipped.Load()
}

// matchLine applies lineParseRegexp to a single line, returning its named
// capture groups.
func matchLine(line string) (stringmap.StringMap, bool) {
	match := lineParseRegexp.FindStringSubmatch(line)
	if match == nil {
		return nil, false
	}
	row := stringmap.StringMap{}
	for i, name := range lineParseRegexp.SubexpNames() {
		if i != 0 && name != "" {
			row[name] = match[i]
		}
	}
	return row, true
}

// Stats describes the outcome of the match pass.
type Stats struct {
	Lines   int64
	Matched int
	Skipped int64
}

// ParseFile reads the whole log file and returns every parsed record in file
// order. Matching and type coercion are two separate passes: a line failing
// the grammar is silently dropped, while a matched row failing coercion is
// fatal for the whole run.
func ParseFile(cfg Config, logger logrus.FieldLogger) ([]event.Request, Stats, error) {
	p, err := New(cfg, logger)
	if err != nil {
		return nil, Stats{}, err
	}
	p.Run()

	var rows []stringmap.StringMap
	for row := range p.OutputChannel() {
		rows = append(rows, row)
	}
	stats := Stats{Lines: p.LineCount(), Matched: len(rows), Skipped: p.SkippedCount()}
	if cfg.LogSkippedLines && stats.Skipped > 0 {
		logger.Warnf("skipped %d of %d lines", stats.Skipped, stats.Lines)
	}
	if len(rows) == 0 {
		return nil, stats, ErrNoRecordsParsed
	}

	records, err := coerceRows(rows)
	if err != nil {
		return nil, stats, err
	}
	return records, stats, nil
}
