package rickmorty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[Endpoint][][]json.RawMessage
	// endpoint -> page that fails
	failAt map[Endpoint]int
	calls  map[Endpoint][]int
}

func (f *fakeFetcher) FetchPage(ctx context.Context, endpoint Endpoint, page int) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.calls == nil {
		f.calls = map[Endpoint][]int{}
	}
	f.calls[endpoint] = append(f.calls[endpoint], page)

	if f.failAt[endpoint] == page {
		return nil, &FetchError{Endpoint: endpoint, Page: page, StatusCode: 500, Err: errors.New("boom")}
	}
	pages := f.pages[endpoint]
	if page > len(pages) {
		return []json.RawMessage{}, nil
	}
	return pages[page-1], nil
}

func records(ids ...int) []json.RawMessage {
	out := make([]json.RawMessage, len(ids))
	for i, id := range ids {
		out[i] = json.RawMessage(fmt.Sprintf(`{"id":%d}`, id))
	}
	return out
}

func TestCollect(t *testing.T) {
	testCases := []struct {
		name          string
		pages         [][]json.RawMessage
		expected      []json.RawMessage
		expectedCalls []int
	}{
		{
			name:          "empty first page",
			pages:         nil,
			expected:      []json.RawMessage{},
			expectedCalls: []int{1},
		},
		{
			name:          "single page",
			pages:         [][]json.RawMessage{records(1, 2)},
			expected:      records(1, 2),
			expectedCalls: []int{1, 2},
		},
		{
			name:          "uneven pages",
			pages:         [][]json.RawMessage{records(1, 2, 3), records(4, 5, 6), records(7)},
			expected:      records(1, 2, 3, 4, 5, 6, 7),
			expectedCalls: []int{1, 2, 3, 4},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			fetcher := &fakeFetcher{pages: map[Endpoint][][]json.RawMessage{
				EndpointCharacter: test.pages,
			}}

			result, err := Collect(context.Background(), fetcher, EndpointCharacter)
			require.NoError(t, err)
			require.NotNil(t, result)
			require.Equal(t, test.expected, result)
			require.Equal(t, test.expectedCalls, fetcher.calls[EndpointCharacter])
		})
	}
}

func TestCollectStopsOnlyOnEmptyPage(t *testing.T) {
	// a short page in the middle must not end the walk
	fetcher := &fakeFetcher{pages: map[Endpoint][][]json.RawMessage{
		EndpointEpisode: {records(1), records(2, 3), records(4)},
	}}

	result, err := Collect(context.Background(), fetcher, EndpointEpisode)
	require.NoError(t, err)
	require.Len(t, result, 4)
	require.Equal(t, []int{1, 2, 3, 4}, fetcher.calls[EndpointEpisode])
}

func TestCollectDiscardsPartialResultOnError(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[Endpoint][][]json.RawMessage{
			EndpointLocation: {records(1), records(2), records(3)},
		},
		failAt: map[Endpoint]int{EndpointLocation: 2},
	}

	result, err := Collect(context.Background(), fetcher, EndpointLocation)
	require.Nil(t, result)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, EndpointLocation, fetchErr.Endpoint)
	require.Equal(t, 2, fetchErr.Page)
	require.Equal(t, []int{1, 2}, fetcher.calls[EndpointLocation])
}
