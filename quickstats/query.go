package quickstats

import (
	"context"
	"net/url"
)

// Query accumulates filter parameters for the count and data endpoints.
// A query stays open for mutation indefinitely; every Count or Execute
// sends whatever filters have been added so far, and a query can be
// sent any number of times.
type Query struct {
	client *Client
	params url.Values
}

// Filter adds a parameter constraint, overwriting any previous value
// for the same name, and returns the query itself so calls can chain.
// Values may be strings or numbers. Names are not validated against a
// parameter schema; an invalid name is discovered at call time when the
// service rejects the query.
func (q *Query) Filter(name string, value any) *Query {
	q.params.Set(name, stringify(value))
	return q
}

// Params returns a copy of the accumulated parameters.
func (q *Query) Params() url.Values {
	params := url.Values{}
	for name, values := range q.params {
		params[name] = append([]string(nil), values...)
	}
	return params
}

// Count returns the number of rows the accumulated filters match.
func (q *Query) Count(ctx context.Context) (int, error) {
	return q.client.Count(ctx, q.params)
}

// Execute fetches the full result rows for the accumulated filters.
func (q *Query) Execute(ctx context.Context) ([]Row, error) {
	return q.client.Fetch(ctx, q.params)
}
