package rickmorty

import "fmt"

// FetchError means a page could not be retrieved: the transport failed or the
// api answered with an unexpected status.
type FetchError struct {
	Endpoint Endpoint
	Page     int
	// 0 when no response was received
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("rickmorty: fetch %s page %d: status %d: %v", e.Endpoint, e.Page, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("rickmorty: fetch %s page %d: %v", e.Endpoint, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError means a response body or one of its records could not be decoded.
type ParseError struct {
	Endpoint Endpoint
	// 0 when the record was decoded after the collection finished
	Page int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("rickmorty: parse %s page %d: %v", e.Endpoint, e.Page, e.Err)
	}
	return fmt.Sprintf("rickmorty: parse %s: %v", e.Endpoint, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
