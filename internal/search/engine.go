package search

import (
	"bytes"
	"context"
	"cpuvalue/internal/components/assert"
	"cpuvalue/internal/components/chrono"
	"cpuvalue/internal/components/telemetry"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("cpuvalue/internal/search")
var meter = otel.Meter("cpuvalue/internal/search")
var requestCounter, _ = meter.Int64Counter("search.requests")
var rateLimitCounter, _ = meter.Int64Counter("search.rate_limited")
var listingCounter, _ = meter.Int64Counter("search.listings")

const (
	report_engine_search  = "engine.search"
	report_engine_extract = "engine.extract"
)

// blocked clients are redirected to /sorry/index or shown a captcha in place
// of the results
const (
	blockPagePrefix = "/sorry/"
	captchaSelector = "#captcha-form, .g-recaptcha, #recaptcha"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// RateLimitedError is returned when the search provider answers 429 or
// serves its block page, the search must not be retried by the same process.
type RateLimitedError struct {
	Candidate string
	// RetryAfter is the raw Retry-After header, empty when absent.
	RetryAfter string
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter != "" {
		return fmt.Sprintf("search %q: rate limited, retry after %s", e.Candidate, e.RetryAfter)
	}
	return fmt.Sprintf("search %q: rate limited", e.Candidate)
}

// SearchFailedError covers every other failure of a single search, callers
// treat it like a search without listings.
type SearchFailedError struct {
	Candidate string
	Err       error
}

func (e *SearchFailedError) Error() string {
	return fmt.Sprintf("search %q failed: %s", e.Candidate, e.Err.Error())
}

func (e *SearchFailedError) Unwrap() error {
	return e.Err
}

type Options struct {
	// defaults to https://www.google.com
	BaseUrl string
	// number of results requested per search, defaults to 50
	Results int
	// wait before every search
	Delay time.Duration
	// defaults to 5 seconds
	Timeout          time.Duration
	UserAgent        string
	BypassCloudflare bool
	Extract          ExtractOptions
	// optional, receives a dump of every http exchange
	HttpOutput telemetry.HttpOutput
}

type Engine struct {
	http  *resty.Client
	opts  Options
	clock chrono.API
	tel   telemetry.API
}

func NewEngine(opts Options, clock chrono.API, tel telemetry.API) *Engine {
	assert.NotNil(clock)
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("search", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://www.google.com"
	}
	if opts.Results <= 0 {
		opts.Results = 50
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 5
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Extract.ContainerDepth == 0 {
		opts.Extract = DefaultExtractOptions()
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetTimeout(opts.Timeout)
	if opts.BypassCloudflare {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", opts.UserAgent)

	telemetry.InstrumentResty(httpClient, tel, opts.HttpOutput)

	return &Engine{
		http:  httpClient,
		opts:  opts,
		clock: clock,
		tel:   tel,
	}
}

// Search waits the configured delay then issues exactly one search for
// `name`. It returns either the listings sorted by price, a
// *RateLimitedError or a *SearchFailedError.
func (e *Engine) Search(ctx context.Context, name string) ([]Listing, error) {
	assert.NotEmptyStr(name)

	e.clock.Sleep(e.opts.Delay)

	ctx, span := tracer.Start(ctx, "Engine.Search")
	defer span.End()
	span.SetAttributes(attribute.String("search.candidate", name))
	requestCounter.Add(ctx, 1)

	res, err := e.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":   name,
			"num": strconv.Itoa(e.opts.Results),
		}).
		Get("/search")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch search results")
		return nil, &SearchFailedError{Candidate: name, Err: fmt.Errorf("fetch: %w", err)}
	}

	if res.StatusCode() == http.StatusTooManyRequests || redirectedToBlockPage(res) {
		return nil, e.rateLimited(ctx, span, name, res.Header().Get("retry-after"))
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "unexpected status")
		return nil, &SearchFailedError{
			Candidate: name,
			Err:       fmt.Errorf("unexpected status %s", res.Status()),
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse search results")
		return nil, &SearchFailedError{Candidate: name, Err: fmt.Errorf("parse: %w", err)}
	}
	if doc.Find(captchaSelector).Length() > 0 {
		return nil, e.rateLimited(ctx, span, name, "")
	}

	result := Extract(doc, e.opts.Extract)
	if len(result.PriceErrors) > 0 {
		e.tel.ReportDebug(report_engine_extract, name, "unparsable prices", len(result.PriceErrors))
	}
	if result.Skipped > 0 {
		e.tel.ReportDebug(report_engine_extract, name, "skipped fragments", result.Skipped)
	}

	listingCounter.Add(ctx, int64(len(result.Listings)), metric.WithAttributes(
		attribute.String("search.candidate", name),
	))
	span.SetAttributes(attribute.Int("search.listings", len(result.Listings)))

	return result.Listings, nil
}

func redirectedToBlockPage(res *resty.Response) bool {
	if res.RawResponse == nil || res.RawResponse.Request == nil {
		return false
	}
	return strings.HasPrefix(res.RawResponse.Request.URL.Path, blockPagePrefix)
}

func (e *Engine) rateLimited(ctx context.Context, span trace.Span, name, retryAfter string) error {
	rateLimitCounter.Add(ctx, 1)
	span.SetStatus(codes.Error, "rate limited")
	e.tel.ReportWarning(report_engine_search, "rate limited", name, retryAfter)
	return &RateLimitedError{Candidate: name, RetryAfter: retryAfter}
}
