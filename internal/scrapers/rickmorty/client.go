package rickmorty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"rickmorty-etl/internal/components/assert"
	"rickmorty-etl/internal/components/telemetry"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch_page = "client.fetch-page"
)

const instrumentationName = "rickmorty-etl/internal/scrapers/rickmorty"

var errMissingResults = errors.New("response has no results array")

// PageFetcher returns the records of a single page of an endpoint, pages start at 1.
// An empty slice with a nil error means the endpoint has no more data.
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint Endpoint, page int) ([]json.RawMessage, error)
}

type ClientOptions struct {
	BaseUrl string
	Timeout time.Duration
	// retries happen inside the http client on transport errors, 429 and 5xx
	RetryCount int
	// 0 disables rate limiting
	RequestsPerSecond float64
	// statuses the api answers with for a page beyond the end, they are
	// treated like a page with an empty results array for every page but the first
	EndOfPagesStatus []int
	// where to dump full http exchanges, can be nil
	Dump telemetry.MessageOutput
}

// Client implements PageFetcher against the rick and morty rest api.
type Client struct {
	http       *resty.Client
	tel        telemetry.API
	endOfPages map[int]bool
	tracer     trace.Tracer
	pages      metric.Int64Counter
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.BaseUrl)

	tel = telemetry.NewScopedAPI("rickmorty_client", tel)

	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimSuffix(opts.BaseUrl, "/"))
	httpClient.SetHeader("Content-Type", "application/json")
	httpClient.SetHeader("Accept", "application/json")
	httpClient.SetHeader("User-Agent", "rickmorty-etl")
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	if opts.RetryCount > 0 {
		httpClient.SetRetryCount(opts.RetryCount)
		httpClient.SetRetryWaitTime(500 * time.Millisecond)
		httpClient.SetRetryMaxWaitTime(5 * time.Second)
		httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
			if err != nil || res == nil {
				return true
			}
			return res.StatusCode() == http.StatusTooManyRequests || res.StatusCode() >= 500
		})
	}

	if opts.RequestsPerSecond > 0 {
		// max burst >= 1 just means that no requests will be dropped
		burst := max(1, int(opts.RequestsPerSecond))
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.Dump)

	pages, err := otel.Meter(instrumentationName).Int64Counter(
		"rickmorty.pages_fetched",
		metric.WithDescription("pages requested from the api, including the terminating empty page"),
	)
	if err != nil {
		return nil, err
	}

	endOfPages := make(map[int]bool, len(opts.EndOfPagesStatus))
	for _, status := range opts.EndOfPagesStatus {
		endOfPages[status] = true
	}

	return &Client{
		http:       httpClient,
		tel:        tel,
		endOfPages: endOfPages,
		tracer:     otel.Tracer(instrumentationName),
		pages:      pages,
	}, nil
}

type pageResponse struct {
	Results *[]json.RawMessage `json:"results"`
}

// FetchPage requests `{base}/{endpoint}/?page={page}`.
//
// 200 with an empty results array (or one of the configured end-of-pages statuses
// past page 1) returns an empty slice, any other status is a *FetchError and a body that is not
// a json object with a results array is a *ParseError.
func (c *Client) FetchPage(ctx context.Context, endpoint Endpoint, page int) ([]json.RawMessage, error) {
	if page < 1 {
		return nil, fmt.Errorf("rickmorty: page must be >= 1, got %d", page)
	}

	ctx, span := c.tracer.Start(ctx, "rickmorty.fetch-page", trace.WithAttributes(
		attribute.String("endpoint", string(endpoint)),
		attribute.Int("page", page),
	))
	defer span.End()

	results, err := c.fetchPage(ctx, endpoint, page)
	c.pages.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", string(endpoint))))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch page")
		c.tel.ReportBroken(report_client_fetch_page, err, string(endpoint), page)
		return nil, err
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}

func (c *Client) fetchPage(ctx context.Context, endpoint Endpoint, page int) ([]json.RawMessage, error) {
	c.tel.ReportDebug(report_client_fetch_page, string(endpoint), page)

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("page", strconv.Itoa(page)).
		Get(fmt.Sprintf("/%s/", endpoint))
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Page: page, Err: err}
	}

	if res.StatusCode() != http.StatusOK {
		// page 1 always exists, an end status there means a wrong url
		if page > 1 && c.endOfPages[res.StatusCode()] {
			c.tel.ReportDebug("end of pages", string(endpoint), page, res.Status())
			return []json.RawMessage{}, nil
		}
		return nil, &FetchError{
			Endpoint:   endpoint,
			Page:       page,
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("unexpected status %q", res.Status()),
		}
	}

	var parsed pageResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		return nil, &ParseError{Endpoint: endpoint, Page: page, Err: err}
	}
	if parsed.Results == nil {
		return nil, &ParseError{Endpoint: endpoint, Page: page, Err: errMissingResults}
	}
	return *parsed.Results, nil
}
