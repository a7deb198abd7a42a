package nyt

import (
	"fmt"
)

// APIError represents an HTTP-level failure from the Article Search API that
// carried no decodable search response.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("article search error (status %d): %s: %v",
			e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("article search error (status %d): %s",
		e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}
