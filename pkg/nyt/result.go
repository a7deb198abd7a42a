package nyt

import (
	"fmt"
)

// Document is one raw article as returned by the provider: an arbitrarily
// nested mapping from string keys to scalars or nested mappings.
type Document map[string]any

// ID returns the provider-assigned unique article id.
func (d Document) ID() string {
	id, _ := d["_id"].(string)
	return id
}

// PubDate returns the full publication timestamp string.
func (d Document) PubDate() string {
	pubDate, _ := d["pub_date"].(string)
	return pubDate
}

// DatePrefix reduces a publication timestamp to its 10-character ISO date
// prefix (e.g. "2021-08-01T12:00:00+0000" -> "2021-08-01").
func DatePrefix(pubDate string) string {
	if len(pubDate) > 10 {
		return pubDate[:10]
	}
	return pubDate
}

// Result is the decoded outcome of one search page fetch.
type Result struct {
	// Fault is true for transient provider-side conditions (quota bursts).
	// The identical request should be retried after a recovery delay.
	Fault bool

	// FaultDetail carries the provider's fault description for logging.
	FaultDetail string

	// Error is true when the provider returned an explicit ERROR status,
	// unrecoverable for this run.
	Error bool

	// Hits is the total result count reported by the provider. Zero means
	// the query is exhausted.
	Hits int

	// Docs are the raw nested documents on this page.
	Docs []Document

	// LastPubDate is the 10-char date prefix of the last document's
	// publication date; empty when no documents were returned.
	LastPubDate string
}

// Outcome classifies the result for metrics and logging.
func (r *Result) Outcome() string {
	switch {
	case r.Fault:
		return "fault"
	case r.Error:
		return "error"
	case r.Hits == 0:
		return "empty"
	default:
		return "docs"
	}
}

// apiResponse mirrors the provider's wire format.
type apiResponse struct {
	Status string         `json:"status"`
	Fault  map[string]any `json:"fault"`

	Response struct {
		Meta struct {
			Hits int `json:"hits"`
		} `json:"meta"`
		Docs []Document `json:"docs"`
	} `json:"response"`
}

// decodeResult decodes a raw response body into a Result.
func decodeResult(body []byte) (*Result, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	if resp.Fault != nil {
		detail := ""
		if s, ok := resp.Fault["faultstring"].(string); ok {
			detail = s
		} else {
			detail = fmt.Sprintf("%v", resp.Fault)
		}
		return &Result{Fault: true, FaultDetail: detail}, nil
	}

	if resp.Status == statusError {
		return &Result{Error: true}, nil
	}

	result := &Result{
		Hits: resp.Response.Meta.Hits,
		Docs: resp.Response.Docs,
	}

	if len(result.Docs) > 0 {
		result.LastPubDate = DatePrefix(result.Docs[len(result.Docs)-1].PubDate())
	}

	return result, nil
}
