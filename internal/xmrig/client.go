// client.go contains the http side of the XMRig benchmark API, it does not
// interpret the catalog beyond decoding json.

package xmrig

import (
	"context"
	"cpuvalue/internal/components/assert"
	"cpuvalue/internal/components/telemetry"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseUrl = "https://api.xmrig.com/1"

const (
	report_client_catalog        = "client.catalog"
	report_client_cpu_benchmarks = "client.cpu-benchmarks"
	report_client_benchmark      = "client.benchmark"
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Status int
	Url    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.Url)
}

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// defaults to 9 seconds
	Timeout time.Duration
	// optional, receives a dump of every http exchange
	HttpOutput telemetry.HttpOutput
}

type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) *Client {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("xmrig", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 9
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("accept", "application/json")

	telemetry.InstrumentResty(httpClient, tel, opts.HttpOutput)

	return &Client{
		http: httpClient,
		tel:  tel,
	}
}

func (c *Client) get(ctx context.Context, reportId, endpoint string, query url.Values) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		Get(endpoint)
	if err != nil {
		c.tel.ReportWarning(reportId, fmt.Errorf("fetch: %w", err), endpoint)
		return nil, err
	}
	if res.IsError() {
		err := &StatusError{Status: res.StatusCode(), Url: res.Request.URL}
		c.tel.ReportWarning(reportId, err)
		return nil, err
	}
	return res.Body(), nil
}

// Catalog returns the raw body of the aggregate benchmark list, callers
// decode it themselves so that it can be cached verbatim.
func (c *Client) Catalog(ctx context.Context) ([]byte, error) {
	c.tel.ReportDebug(report_client_catalog)
	return c.get(ctx, report_client_catalog, "/benchmarks", nil)
}

// CPUBenchmarks lists every benchmark submitted for the processor `cpu`.
func (c *Client) CPUBenchmarks(ctx context.Context, cpu string) ([]Benchmark, error) {
	c.tel.ReportDebug(report_client_cpu_benchmarks, cpu)

	body, err := c.get(ctx, report_client_cpu_benchmarks, "/benchmarks", url.Values{"cpu": {cpu}})
	if err != nil {
		return nil, err
	}

	var out []Benchmark
	err = json.Unmarshal(body, &out)
	if err != nil {
		c.tel.ReportWarning(report_client_cpu_benchmarks, fmt.Errorf("parse: %w", err), cpu)
		return nil, fmt.Errorf("parse benchmarks of %q: %w", cpu, err)
	}
	return out, nil
}

// Benchmark fetches the full record of a single benchmark.
func (c *Client) Benchmark(ctx context.Context, id string) (BenchmarkDetail, error) {
	assert.NotEmptyStr(id)
	c.tel.ReportDebug(report_client_benchmark, id)

	body, err := c.get(ctx, report_client_benchmark, "/benchmark/"+url.PathEscape(id), nil)
	if err != nil {
		return BenchmarkDetail{}, err
	}

	var out BenchmarkDetail
	err = json.Unmarshal(body, &out)
	if err != nil {
		c.tel.ReportWarning(report_client_benchmark, fmt.Errorf("parse: %w", err), id)
		return BenchmarkDetail{}, fmt.Errorf("parse benchmark %s: %w", id, err)
	}
	return out, nil
}
