package parser

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logtriage/logtriage/pkg/event"
	"github.com/logtriage/logtriage/pkg/stringmap"
)

var (
	logLineFormat = `{ip} - {country} - [{time}] "{method} {path} {protocol}" {status} {size} "{referrer}" "{agent}" {responseTime}`
	// provided to getLogLine, this returns a considered-valid line
	logLineFormatMapValid = map[string]string{
		"ip":           "192.0.2.10",
		"country":      "CZ",
		"time":         "12/11/2019:10:20:07",
		"method":       "GET",
		"path":         "/robots.txt",
		"protocol":     "HTTP/1.1",
		"status":       "200",
		"size":         "1024",
		"referrer":     "-",
		"agent":        "Mozilla/5.0 (X11; Linux x86_64)",
		"responseTime": "123",
	}
)

// return log line formatted using the provided formatMap
func getLogLine(formatMap map[string]string) (logLine string) {
	logLine = logLineFormat
	for k, v := range formatMap {
		logLine = strings.Replace(logLine, fmt.Sprintf("{%s}", k), v, -1)
	}
	return logLine
}

func mergedFormatMap(overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(logLineFormatMapValid))
	for k, v := range logLineFormatMapValid {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

type matchLineTest struct {
	name        string
	overrides   map[string]string
	trailing    string
	isLineValid bool
}

func TestMatchLine(t *testing.T) {
	testTable := []matchLineTest{
		{name: "valid line", isLineValid: true},
		{name: "trailing content is ignored", trailing: ` cache_status=HIT upstream=backend-3`, isLineValid: true},
		{name: "empty referrer and agent", overrides: map[string]string{"referrer": "", "agent": ""}, isLineValid: true},
		{name: "ipv6 client", overrides: map[string]string{"ip": "2001:db8::1"}, isLineValid: true},
		{name: "agent with embedded spaces", overrides: map[string]string{"agent": "curl/7.64.0 (x86_64-pc-linux-gnu)"}, isLineValid: true},
		{name: "two digit status", overrides: map[string]string{"status": "20"}, isLineValid: false},
		{name: "non numeric size", overrides: map[string]string{"size": "12x4"}, isLineValid: false},
		{name: "non numeric response time", overrides: map[string]string{"responseTime": "fast"}, isLineValid: false},
	}

	for _, test := range testTable {
		t.Run(test.name, func(t *testing.T) {
			formatMap := mergedFormatMap(test.overrides)
			row, ok := matchLine(getLogLine(formatMap) + test.trailing)
			if !test.isLineValid {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			if diff := deep.Equal(stringmap.StringMap(formatMap), row); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestMatchLineRejectsGarbage(t *testing.T) {
	malformed := []string{
		"",
		"this is not a log line",
		`192.0.2.10 - CZ - 12/11/2019:10:20:07 "GET / HTTP/1.1" 200 1024 "-" "-" 123`,
		`- [12/11/2019:10:20:07] "GET / HTTP/1.1" 200 1024`,
	}
	for _, line := range malformed {
		_, ok := matchLine(line)
		assert.False(t, ok, "line wrongly considered valid: %s", line)
	}
}

func TestRoundTrip(t *testing.T) {
	row, ok := matchLine(getLogLine(logLineFormatMapValid))
	require.True(t, ok)
	record, err := buildRequest(row)
	require.NoError(t, err)

	expected := event.Request{
		IP:           "192.0.2.10",
		Country:      "CZ",
		Time:         time.Date(2019, time.November, 12, 10, 20, 7, 0, time.UTC),
		Method:       "GET",
		Path:         "/robots.txt",
		Protocol:     "HTTP/1.1",
		StatusCode:   200,
		Size:         1024,
		Referrer:     "-",
		UserAgent:    "Mozilla/5.0 (X11; Linux x86_64)",
		ResponseTime: 123,
	}
	if diff := deep.Equal(expected, record); diff != nil {
		t.Error(diff)
	}
}

func TestBuildRequestInvalidTimestamp(t *testing.T) {
	// the timestamp group matches anything up to the closing bracket, so an
	// out of range date passes the grammar and must fail coercion instead
	row, ok := matchLine(getLogLine(mergedFormatMap(map[string]string{"time": "99/99/2019:10:20:07"})))
	require.True(t, ok)
	_, err := buildRequest(row)
	assert.Error(t, err)
}

func TestCoerceRowsBulkFailure(t *testing.T) {
	goodRow, ok := matchLine(getLogLine(logLineFormatMapValid))
	require.True(t, ok)
	badRow, ok := matchLine(getLogLine(mergedFormatMap(map[string]string{"time": "not a timestamp"})))
	require.True(t, ok)

	records, err := coerceRows([]stringmap.StringMap{goodRow, badRow})
	assert.Error(t, err)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "field coercion failed")
}

func writeTempLog(t *testing.T, lines []string) string {
	t.Helper()
	f, err := ioutil.TempFile("", "logtriage_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(f.Name()) })
	for _, line := range lines {
		_, err := f.WriteString(line + "\n")
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())
	return f.Name()
}

func TestParseFileDropPolicy(t *testing.T) {
	lines := []string{
		getLogLine(mergedFormatMap(map[string]string{"ip": "10.0.0.1"})),
		"malformed line",
		getLogLine(mergedFormatMap(map[string]string{"ip": "10.0.0.2"})),
		"another malformed line",
		"yet another one",
		getLogLine(mergedFormatMap(map[string]string{"ip": "10.0.0.1"})),
	}
	path := writeTempLog(t, lines)

	records, stats, err := parseTestFile(t, path)
	require.NoError(t, err)
	assert.Equal(t, 3, len(records))
	assert.Equal(t, int64(6), stats.Lines)
	assert.Equal(t, 3, stats.Matched)
	assert.Equal(t, int64(3), stats.Skipped)
	// file order is preserved
	assert.Equal(t, "10.0.0.1", records[0].IP)
	assert.Equal(t, "10.0.0.2", records[1].IP)
	assert.Equal(t, "10.0.0.1", records[2].IP)
}

func TestParseFileFatalOnEmpty(t *testing.T) {
	path := writeTempLog(t, []string{"nothing", "matches", "here"})
	records, stats, err := parseTestFile(t, path)
	assert.True(t, errors.Is(err, ErrNoRecordsParsed))
	assert.Nil(t, records)
	assert.Equal(t, int64(3), stats.Skipped)
}

func TestParseFileUnreadableFile(t *testing.T) {
	records, _, err := parseTestFile(t, "/nonexistent/access.log")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoRecordsParsed))
	assert.Nil(t, records)
}

func TestParseFileCoercionFailureIsFatal(t *testing.T) {
	lines := []string{
		getLogLine(logLineFormatMapValid),
		getLogLine(mergedFormatMap(map[string]string{"time": "31/02/2019:10:20:07"})),
	}
	path := writeTempLog(t, lines)

	records, _, err := parseTestFile(t, path)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoRecordsParsed))
	assert.Nil(t, records)
}

func parseTestFile(t *testing.T, path string) ([]event.Request, Stats, error) {
	t.Helper()
	return ParseFile(Config{LogFile: path}, logrus.New())
}
