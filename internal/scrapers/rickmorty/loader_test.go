package rickmorty

import (
	"context"
	"encoding/json"
	"rickmorty-etl/internal/components/telemetry"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// keep-alive connections of the http tests in this package wind down on their own
var ignoreHttpConns = []goleak.Option{
	goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
}

func TestLoaderLoadAll(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreHttpConns...)

	fetcher := &fakeFetcher{pages: map[Endpoint][][]json.RawMessage{
		EndpointCharacter: {
			{
				json.RawMessage(`{"id":1,"name":"Rick Sanchez","status":"Alive","species":"Human","gender":"Male","origin":{"name":"Earth (C-137)"},"location":{"name":"Citadel of Ricks","url":"https://rickandmortyapi.com/api/location/3"},"episode":["https://rickandmortyapi.com/api/episode/1","https://rickandmortyapi.com/api/episode/2"]}`),
			},
			{
				json.RawMessage(`{"id":2,"name":"Morty Smith","status":"Alive","species":"Human","gender":"Male","location":null,"episode":[]}`),
			},
		},
		EndpointEpisode: {
			{json.RawMessage(`{"id":1,"name":"Pilot","air_date":"December 2, 2013","episode":"S01E01","characters":[]}`)},
		},
		EndpointLocation: {
			{json.RawMessage(`{"id":3,"name":"Citadel of Ricks","type":"Space station","dimension":"unknown"}`)},
		},
	}}

	loader := NewLoader(fetcher, telemetry.SlogAPI{})
	dataset, err := loader.LoadAll(context.Background())
	require.NoError(t, err)

	expected := Dataset{
		Characters: []Character{
			{
				ID:       1,
				Name:     "Rick Sanchez",
				Status:   "Alive",
				Species:  "Human",
				Gender:   "Male",
				Location: LocationAt("Citadel of Ricks"),
				Episode: []string{
					"https://rickandmortyapi.com/api/episode/1",
					"https://rickandmortyapi.com/api/episode/2",
				},
			},
			{
				ID:       2,
				Name:     "Morty Smith",
				Status:   "Alive",
				Species:  "Human",
				Gender:   "Male",
				Location: NoLocation(),
				Episode:  []string{},
			},
		},
		Episodes: []Episode{
			{ID: 1, Name: "Pilot", AirDate: "December 2, 2013", Code: "S01E01"},
		},
		Locations: []Location{
			{ID: 3, Name: "Citadel of Ricks", Type: "Space station", Dimension: "unknown"},
		},
	}

	diff := cmp.Diff(expected, dataset, cmp.AllowUnexported(LocationRef{}))
	require.Empty(t, diff)

	require.Equal(t, []int{1, 2, 3}, fetcher.calls[EndpointCharacter])
	require.Equal(t, []int{1, 2}, fetcher.calls[EndpointEpisode])
	require.Equal(t, []int{1, 2}, fetcher.calls[EndpointLocation])
}

func TestLoaderLoadAllFailure(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreHttpConns...)

	fetcher := &fakeFetcher{
		pages: map[Endpoint][][]json.RawMessage{
			EndpointEpisode: {records(1), records(2)},
		},
		failAt: map[Endpoint]int{EndpointEpisode: 2},
	}

	loader := NewLoader(fetcher, telemetry.SlogAPI{})
	dataset, err := loader.LoadAll(context.Background())

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, EndpointEpisode, fetchErr.Endpoint)
	require.Equal(t, Dataset{}, dataset)
}

func TestLoaderDecodeError(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[Endpoint][][]json.RawMessage{
		EndpointEpisode: {{json.RawMessage(`{"id":"one"}`)}},
	}}

	loader := NewLoader(fetcher, telemetry.SlogAPI{})
	_, err := loader.Episodes(context.Background())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, EndpointEpisode, parseErr.Endpoint)
	require.Zero(t, parseErr.Page)
}
