package rickmorty

import (
	"context"
	"encoding/json"
)

// Collect walks the pages of `endpoint` starting at page 1 and returns all of their
// records in order. It stops at the first empty page, so an endpoint whose first page
// is empty yields an empty slice after a single fetch.
//
// Pages are requested strictly one after another since the emptiness of page n is the
// only thing that decides whether page n+1 exists. Any error discards what was collected.
func Collect(ctx context.Context, fetcher PageFetcher, endpoint Endpoint) ([]json.RawMessage, error) {
	all := []json.RawMessage{}
	for page := 1; ; page++ {
		results, err := fetcher.FetchPage(ctx, endpoint, page)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return all, nil
		}
		all = append(all, results...)
	}
}
