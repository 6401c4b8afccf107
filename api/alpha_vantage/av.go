package alpha_vantage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	c "mc.frontier/api"
	"mc.frontier/core"
	ex "mc.frontier/extensions"
	m "mc.frontier/models"
)

// public
const (
	HostDefault  = "www.alphavantage.co"
	ProviderName = "alphavantage"
)

// private
const (
	defaultOutputSize  = "full"
	defaultDataType    = "json"
	defaultTimeout     = time.Second * 30
	defaultConcurrency = 4

	query    = "query"
	symbol   = "symbol"
	function = "function"

	dailySeriesKey = "Time Series (Daily)"
)

var (
	// ErrUnknownSymbol is returned when Alpha Vantage does not recognise the ticker.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrThrottled is returned when the response is a rate limit notice instead of data.
	ErrThrottled = errors.New("alpha vantage request limit reached")

	timeSeriesDateFormats = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
	}
)

type AlphaVantageClient struct {
	*c.Client
	log         zerolog.Logger
	concurrency int
}

func GetClient(apiKey string, requestsPerMinute int, log zerolog.Logger) *AlphaVantageClient {
	return NewClient(HostDefault, apiKey, requestsPerMinute, log)
}

func NewClient(host, apiKey string, requestsPerMinute int, log zerolog.Logger) *AlphaVantageClient {
	return &AlphaVantageClient{
		Client:      c.ClientFactory(host, apiKey, defaultTimeout, requestsPerMinute),
		log:         log.With().Str("component", ProviderName).Logger(),
		concurrency: defaultConcurrency,
	}
}

func (avc *AlphaVantageClient) Name() string {
	return ProviderName
}

// GetPriceTable fetches the daily series of every ticker concurrently and aligns them on date.
// Unknown symbols come back as empty columns; any other failure aborts with a *core.DataSourceError.
func (avc *AlphaVantageClient) GetPriceTable(ctx context.Context, tickers []string, start, end time.Time) (*m.PriceTable, error) {
	var mu sync.Mutex
	series := make(map[string][]m.DatedClose, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(avc.concurrency)

	for _, ticker := range tickers {
		g.Go(func() error {
			res, err := avc.GetDailyTimeSeries(gctx, ticker)
			if errors.Is(err, ErrUnknownSymbol) {
				avc.log.Warn().Str("ticker", ticker).Msg("symbol not known to alpha vantage")
				return nil
			}
			if err != nil {
				return &core.DataSourceError{Provider: ProviderName, Tickers: []string{ticker}, Err: err}
			}

			mu.Lock()
			series[ticker] = res.Closes
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return m.NewPriceTable(tickers, series).Between(start, end), nil
}

// https://www.alphavantage.co/documentation/#daily
func (avc *AlphaVantageClient) GetDailyTimeSeries(ctx context.Context, ticker string) (*m.TimeSeriesResult, error) {
	endpoint := avc.buildRequestPath(map[string]string{
		function: "TIME_SERIES_DAILY",
		symbol:   ticker,
	})

	response, err := avc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	raw, err := parseRawJson(response.Body)
	if err != nil {
		return nil, err
	}

	metaData, err := parseMetaData(raw)
	if err != nil {
		return nil, err
	}

	closes, err := parseDailyCloses(raw, metaData.TimeZone)
	if err != nil {
		return nil, err
	}

	avc.log.Debug().Str("ticker", ticker).Int("closes", len(closes)).Str("last_refreshed", ex.FmtShort(metaData.LastRefreshed)).Msg("fetched daily series")

	return &m.TimeSeriesResult{
		Metadata: *metaData,
		Closes:   closes,
	}, nil
}

func (avc *AlphaVantageClient) buildRequestPath(params map[string]string) *url.URL {
	endpoint := &url.URL{}
	endpoint.Path = query

	query := endpoint.Query()
	query.Set("apikey", avc.Client.ApiKey)
	query.Set("datatype", defaultDataType)
	query.Set("outputsize", defaultOutputSize)

	for key, value := range params {
		query.Set(key, value)
	}

	endpoint.RawQuery = query.Encode()

	return endpoint
}

// parseRawJson returns the top level objects of the response. Alpha Vantage answers errors
// with status 200 and a single message key, those are turned into errors here.
func parseRawJson(reader io.Reader) (map[string]gjson.Result, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("error parsing response: invalid json")
	}

	raw := gjson.ParseBytes(body).Map()

	if msg, ok := raw["Error Message"]; ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, msg.String())
	}
	for _, key := range []string{"Note", "Information"} {
		if msg, ok := raw[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrThrottled, msg.String())
		}
	}

	return raw, nil
}

func parseMetaData(raw map[string]gjson.Result) (*m.TimeSeriesMetadata, error) {
	meta, ok := raw["Meta Data"]
	if !ok {
		return nil, fmt.Errorf("error parsing response: no meta data")
	}

	elements := meta.Map()
	keys := slices.Collect(maps.Keys(elements))

	symbolKey, err := ex.FilterSingle(keys, func(s string) bool { return strings.HasSuffix(s, ". Symbol") })
	if err != nil {
		return nil, fmt.Errorf("error extracting symbol for meta data")
	}

	timeZoneKey, err := ex.FilterSingle(keys, func(s string) bool { return strings.HasSuffix(s, ". Time Zone") })
	if err != nil {
		return nil, fmt.Errorf("error extracting time zone for meta data")
	}

	timeZone, err := getTimeZone(elements[timeZoneKey].String())
	if err != nil {
		return nil, fmt.Errorf("error converting time zone key %s, to time.Location: %w", elements[timeZoneKey].String(), err)
	}

	lastRefreshedKey, err := ex.FilterSingle(keys, func(s string) bool { return strings.HasSuffix(s, ". Last Refreshed") })
	if err != nil {
		return nil, fmt.Errorf("error extracting last refreshed date")
	}

	lastRefreshed, err := parseDate(elements[lastRefreshedKey].String(), timeZone)
	if err != nil {
		return nil, fmt.Errorf("error parsing last refreshed date: %w", err)
	}

	return &m.TimeSeriesMetadata{
		Symbol:        elements[symbolKey].String(),
		LastRefreshed: lastRefreshed,
		TimeZone:      timeZone,
	}, nil
}

// parseDailyCloses reads the "4. close" field of every day, oldest first.
func parseDailyCloses(raw map[string]gjson.Result, location *time.Location) ([]m.DatedClose, error) {
	series, ok := raw[dailySeriesKey]
	if !ok {
		return nil, fmt.Errorf("error parsing response: no %q object", dailySeriesKey)
	}

	var parseErr error
	closes := make([]m.DatedClose, 0)

	series.ForEach(func(key, value gjson.Result) bool {
		date, err := parseDate(key.String(), location)
		if err != nil {
			parseErr = fmt.Errorf("error converting TIMESTAMP from string to time.Time: %w", err)
			return false
		}

		fields := value.Map()
		closeKey, err := ex.FilterSingle(slices.Collect(maps.Keys(fields)), func(s string) bool {
			return strings.HasSuffix(strings.ToLower(s), ". close")
		})
		if err != nil {
			parseErr = fmt.Errorf("error extracting close for %s: %w", key.String(), err)
			return false
		}

		closes = append(closes, m.DatedClose{Date: date, Close: parseFloat(fields[closeKey].String())})
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}

	slices.SortFunc(closes, func(a, b m.DatedClose) int { return a.Date.Compare(b.Date) })
	return closes, nil
}

func getTimeZone(location string) (*time.Location, error) {
	var loc string
	switch strings.ToUpper(location) {
	case "US/EASTERN":
		loc = "America/New_York"
	default:
		return time.UTC, nil
	}

	res, err := time.LoadLocation(loc)
	if err != nil {
		return nil, fmt.Errorf("error parsing time zone %s in time.LoadLocation", loc)
	}

	return res, nil
}

func parseDate(dateString string, location *time.Location) (time.Time, error) {
	for _, format := range timeSeriesDateFormats {
		t, err := time.ParseInLocation(format, dateString, location)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("error converting date %s to time.Time", dateString)
}

// parseFloat treats anything unparseable as a missing close.
func parseFloat(val string) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
		return f
	}
	return math.NaN()
}
