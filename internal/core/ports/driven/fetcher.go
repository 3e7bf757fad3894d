package driven

import "context"

// Response is a completed HTTP exchange.
type Response struct {
	// StatusCode is the HTTP status.
	StatusCode int

	// Body is the full response body.
	Body []byte
}

// OK reports whether the server answered 200.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == 200
}

// Fetcher retrieves a URL. It is the only network capability the engine uses.
//
// A non-2xx status is not an error: it is returned in Response so callers can
// decide whether it means end-of-data or failure. Errors are transport failures.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}
