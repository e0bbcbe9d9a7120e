// Package quickstats provides a client for the USDA National
// Agricultural Statistics Service QuickStats API.
//
// The API answers three questions: what values a query parameter can
// take, how many rows a filter set matches, and the rows themselves.
// This package exposes each as a method on Client, plus a chainable
// Query builder for accumulating filters:
//
//	client, err := quickstats.NewClient("APIKEY", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	n, err := client.Query().
//		Filter("sector_desc", "CROPS").
//		Filter("year", 2016).
//		Count(ctx)
//
// Every operation performs exactly one HTTP GET and returns the decoded
// result; there is no caching, no retrying and no rate limiting. The
// API key is injected into the query string at send time and is never
// stored on the Query.
//
// # Error Handling
//
// Failures surface as typed errors so callers can branch with
// errors.As:
//
//   - NetworkError: transport failure (retry is the caller's decision)
//   - InvalidJSONError: body that isn't JSON
//   - StatusError: non-200 status with no structured error body
//   - UnexpectedResponseError: JSON body missing the promised field
//   - UnauthorizedError, InvalidQueryError, UnsupportedMediaTypeError,
//     RowLimitError, MultiError, APIError: errors the service reported
//
// A structured error in the body takes precedence over the HTTP status
// code, so an "unauthorized" message on a 401 yields UnauthorizedError,
// not StatusError. On RowLimitError the usual fix is narrowing the
// query, e.g. adding year or state filters.
package quickstats
