package rickmorty

import (
	"context"
	"encoding/json"
	"fmt"
	"rickmorty-etl/internal/components/assert"
	"rickmorty-etl/internal/components/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	report_loader_load = "loader.load"
)

// Loader collects whole endpoints and decodes their records into typed entities.
type Loader struct {
	fetcher PageFetcher
	tel     telemetry.API
	tracer  trace.Tracer
}

func NewLoader(fetcher PageFetcher, tel telemetry.API) Loader {
	assert.NotNil(fetcher)
	assert.NotNil(tel)

	return Loader{
		fetcher: fetcher,
		tel:     telemetry.NewScopedAPI("rickmorty_loader", tel),
		tracer:  otel.Tracer(instrumentationName),
	}
}

func (l Loader) Characters(ctx context.Context) ([]Character, error) {
	return load[Character](ctx, l, EndpointCharacter)
}

func (l Loader) Episodes(ctx context.Context) ([]Episode, error) {
	return load[Episode](ctx, l, EndpointEpisode)
}

func (l Loader) Locations(ctx context.Context) ([]Location, error) {
	return load[Location](ctx, l, EndpointLocation)
}

// Raw collects an endpoint without decoding it.
func (l Loader) Raw(ctx context.Context, endpoint Endpoint) ([]json.RawMessage, error) {
	ctx, span := l.tracer.Start(ctx, "rickmorty.collect", trace.WithAttributes(
		attribute.String("endpoint", string(endpoint)),
	))
	defer span.End()

	records, err := Collect(ctx, l.fetcher, endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "collect")
		l.tel.ReportBroken(report_loader_load, err, string(endpoint))
		return nil, err
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	l.tel.ReportCount(fmt.Sprintf("%s.records", endpoint), int64(len(records)))
	return records, nil
}

func load[T any](ctx context.Context, l Loader, endpoint Endpoint) ([]T, error) {
	records, err := l.Raw(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	out := make([]T, len(records))
	for i, record := range records {
		err := json.Unmarshal(record, &out[i])
		if err != nil {
			err = &ParseError{Endpoint: endpoint, Err: fmt.Errorf("record %d: %w", i, err)}
			l.tel.ReportBroken(report_loader_load, err, string(endpoint))
			return nil, err
		}
	}
	return out, nil
}

// Dataset is every entity the api exposes, fetched in one run.
type Dataset struct {
	Characters []Character
	Episodes   []Episode
	Locations  []Location
}

// LoadAll collects the three endpoints concurrently. Each endpoint is still paged
// sequentially, the first failure cancels the other collections.
func (l Loader) LoadAll(ctx context.Context) (Dataset, error) {
	var out Dataset
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		characters, err := l.Characters(groupCtx)
		out.Characters = characters
		return err
	})
	group.Go(func() error {
		episodes, err := l.Episodes(groupCtx)
		out.Episodes = episodes
		return err
	})
	group.Go(func() error {
		locations, err := l.Locations(groupCtx)
		out.Locations = locations
		return err
	})

	err := group.Wait()
	if err != nil {
		return Dataset{}, err
	}
	return out, nil
}
