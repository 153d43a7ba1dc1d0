package catalog

import (
	"context"
	"cpuvalue/internal/components/assert"
	"cpuvalue/internal/components/telemetry"
	"cpuvalue/pkg/fsutil"
	"encoding/json"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("cpuvalue/internal/catalog")

const (
	report_loader_load  = "loader.load"
	report_loader_cache = "loader.cache"
)

// FetchError means the catalog could be read neither from the cache nor
// from the network.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch benchmark catalog: %s", e.Err.Error())
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError means the catalog document is not a well-formed list of rows.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse benchmark catalog from %s: %s", e.Source, e.Err.Error())
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Source provides the raw catalog document.
type Source interface {
	Catalog(ctx context.Context) ([]byte, error)
}

// Loader reads the catalog from a cache file, falling back to `Source` and
// writing the fetched document to the cache for reuse.
type Loader struct {
	source    Source
	cachePath string
	tel       telemetry.API
}

func NewLoader(source Source, cachePath string, tel telemetry.API) Loader {
	assert.NotNil(source)
	assert.NotNil(tel)
	return Loader{
		source:    source,
		cachePath: cachePath,
		tel:       telemetry.NewScopedAPI("catalog", tel),
	}
}

// Load returns the catalog rows in origin order. When `refresh` is set the
// cache is ignored and overwritten.
func (l Loader) Load(ctx context.Context, refresh bool) ([]Row, error) {
	ctx, span := tracer.Start(ctx, "Loader.Load")
	defer span.End()

	if l.cachePath != "" && !refresh {
		cached, err := os.ReadFile(l.cachePath)
		if err == nil {
			span.SetAttributes(attribute.String("catalog.source", "cache"))
			rows, err := ParseRows(cached)
			if err != nil {
				span.SetStatus(codes.Error, "failed to parse cached catalog")
				return nil, &ParseError{Source: l.cachePath, Err: err}
			}
			l.tel.ReportDebug("loaded catalog from cache", l.cachePath, len(rows))
			return rows, nil
		}
		if !os.IsNotExist(err) {
			l.tel.ReportWarning(report_loader_cache, fmt.Errorf("read cache: %w", err), l.cachePath)
		}
	}

	span.SetAttributes(attribute.String("catalog.source", "network"))
	body, err := l.source.Catalog(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch catalog")
		l.tel.ReportBroken(report_loader_load, err)
		return nil, &FetchError{Err: err}
	}
	rows, err := ParseRows(body)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse fetched catalog")
		l.tel.ReportBroken(report_loader_load, err)
		return nil, &ParseError{Source: "network", Err: err}
	}

	if l.cachePath != "" {
		err = fsutil.WriteFileAtomic(l.cachePath, body)
		if err != nil {
			l.tel.ReportWarning(report_loader_cache, fmt.Errorf("write cache: %w", err), l.cachePath)
		}
	}

	l.tel.ReportDebug("fetched catalog", len(rows))
	return rows, nil
}

// ParseRows decodes a raw catalog document.
func ParseRows(body []byte) ([]Row, error) {
	var rows []Row
	err := json.Unmarshal(body, &rows)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, fmt.Errorf("catalog is not a list")
	}
	for i, r := range rows {
		if r.CPU == "" {
			return nil, fmt.Errorf("row %d: missing cpu name", i)
		}
	}
	return rows, nil
}
