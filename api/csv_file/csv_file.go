package csv_file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mc.frontier/core"
	ex "mc.frontier/extensions"
	m "mc.frontier/models"
)

const ProviderName = "csv"

var dateFormats = []string{
	time.DateOnly,
	"2006-01-02 15:04:05-07:00",
	time.DateTime,
	time.RFC3339,
}

// CsvFileProvider serves prices from a wide CSV file: a date column followed by one close column per ticker.
type CsvFileProvider struct {
	path string
	log  zerolog.Logger
}

func NewProvider(path string, log zerolog.Logger) *CsvFileProvider {
	return &CsvFileProvider{
		path: path,
		log:  log.With().Str("component", ProviderName).Str("path", path).Logger(),
	}
}

func (cp *CsvFileProvider) Name() string {
	return ProviderName
}

// GetPriceTable returns every column of the file within [start, end). Column selection is left to the returns engine.
func (cp *CsvFileProvider) GetPriceTable(ctx context.Context, tickers []string, start, end time.Time) (*m.PriceTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(cp.path)
	if err != nil {
		return nil, &core.DataSourceError{Provider: ProviderName, Tickers: tickers, Err: err}
	}
	defer f.Close()

	pt, err := ReadPriceTable(f)
	if err != nil {
		return nil, &core.DataSourceError{Provider: ProviderName, Tickers: tickers, Err: err}
	}

	cp.log.Debug().Int("columns", len(pt.Tickers)).Int("dates", len(pt.Dates)).Msg("read price file")
	return pt.Between(start, end), nil
}

// ReadPriceTable parses a wide price CSV. Cells that are not numbers are treated as missing.
// The first header cell names the date column ("Date", or "Ticker" when pandas wrote a named
// column index). A second row holding only the index name is skipped.
func ReadPriceTable(r io.Reader) (*m.PriceTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("price file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("price file needs a date column and at least one ticker column")
	}

	tickers := make([]string, len(header)-1)
	seen := make(map[string]bool, len(tickers))
	for i, h := range header[1:] {
		ticker := strings.TrimSpace(h)
		if seen[ticker] {
			return nil, fmt.Errorf("duplicate column %q", ticker)
		}
		seen[ticker] = true
		tickers[i] = ticker
	}

	series := make(map[string][]m.DatedClose, len(tickers))
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", line, err)
		}
		if line == 2 && isIndexNameRow(record) {
			continue
		}

		date, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		for i, ticker := range tickers {
			v := math.NaN()
			if i+1 < len(record) {
				v = parseClose(record[i+1])
			}
			series[ticker] = append(series[ticker], m.DatedClose{Date: date, Close: v})
		}
	}

	return m.NewPriceTable(tickers, series), nil
}

// WritePriceTable writes pt in the layout ReadPriceTable expects, missing closes as empty cells.
func WritePriceTable(w io.Writer, pt *m.PriceTable) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(append([]string{"Date"}, pt.Tickers...)); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	record := make([]string, len(pt.Tickers)+1)
	for row, date := range pt.Dates {
		record[0] = ex.FmtShort(date)
		for col := range pt.Tickers {
			record[col+1] = ""
			if v := pt.Closes[col][row]; ex.IsFinite(v) {
				record[col+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("error writing %s: %w", ex.FmtShort(date), err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func isIndexNameRow(record []string) bool {
	if !ex.AreEqual(strings.TrimSpace(record[0]), "Date") {
		return false
	}
	for _, cell := range record[1:] {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("error converting date %q to time.Time", s)
}

func parseClose(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
