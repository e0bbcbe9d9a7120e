package quickstats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("test-key", zerolog.Nop(), WithBaseURL(server.URL))
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		_, err := NewClient("", zerolog.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
	})

	t.Run("defaults", func(t *testing.T) {
		client, err := NewClient("test-key", zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, client.baseURL)
		assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		client, err := NewClient("test-key", zerolog.Nop(), WithBaseURL("http://localhost:8080/api/"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/api", client.baseURL)
	})

	t.Run("with timeout", func(t *testing.T) {
		client, err := NewClient("test-key", zerolog.Nop(), WithTimeout(5*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	})

	t.Run("with custom http client", func(t *testing.T) {
		custom := &http.Client{Timeout: 10 * time.Second}
		client, err := NewClient("test-key", zerolog.Nop(), WithHTTPClient(custom))
		require.NoError(t, err)
		assert.Equal(t, custom, client.httpClient)
	})
}

func TestKeyInjection(t *testing.T) {
	var seen url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Query()
		w.Write([]byte(`{"count": "1"}`))
	})

	params := url.Values{"year": {"2016"}, "sector_desc": {"CROPS"}}
	_, err := client.Count(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, "test-key", seen.Get("key"))
	assert.Equal(t, "2016", seen.Get("year"))
	assert.Equal(t, "CROPS", seen.Get("sector_desc"))

	// The caller's params must never pick up the credential.
	assert.Empty(t, params.Get("key"))
	assert.Len(t, params, 2)
}

func TestParamValues(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/get_param_values/", r.URL.Path)
			assert.Equal(t, "source_desc", r.URL.Query().Get("param"))
			w.Write([]byte(`{"source_desc": ["CENSUS", "SURVEY"]}`))
		})

		values, err := client.ParamValues(context.Background(), "source_desc")
		require.NoError(t, err)
		assert.Equal(t, []string{"CENSUS", "SURVEY"}, values)
	})

	t.Run("numeric values", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"year": [2015, 2016]}`))
		})

		values, err := client.ParamValues(context.Background(), "year")
		require.NoError(t, err)
		assert.Equal(t, []string{"2015", "2016"}, values)
	})

	t.Run("empty name", func(t *testing.T) {
		client, err := NewClient("test-key", zerolog.Nop())
		require.NoError(t, err)

		_, err = client.ParamValues(context.Background(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parameter name is required")
	})

	t.Run("field is not a list", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"source_desc": "CENSUS"}`))
		})

		_, err := client.ParamValues(context.Background(), "source_desc")
		var unexpected *UnexpectedResponseError
		require.ErrorAs(t, err, &unexpected)
	})
}

func TestCount(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{
			name: "string count",
			body: `{"count": "141811"}`,
			want: 141811,
		},
		{
			name: "numeric count",
			body: `{"count": 141811}`,
			want: 141811,
		},
		{
			name:    "unparseable count",
			body:    `{"count": "many"}`,
			wantErr: true,
		},
		{
			name:    "count is not a scalar",
			body:    `{"count": ["141811"]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/get_counts/", r.URL.Path)
				w.Write([]byte(tt.body))
			})

			n, err := client.Count(context.Background(), nil)
			if tt.wantErr {
				var unexpected *UnexpectedResponseError
				require.ErrorAs(t, err, &unexpected)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestFetch(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api_GET/", r.URL.Path)
			w.Write([]byte(`{"data": [
				{"commodity_desc": "CORN", "year": 2016, "Value": "141,811"},
				{"commodity_desc": "WHEAT", "year": 2016, "Value": "52,014"}
			]}`))
		})

		rows, err := client.Fetch(context.Background(), url.Values{"year": {"2016"}})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "CORN", rows[0]["commodity_desc"])
		assert.Equal(t, "52,014", rows[1]["Value"])
	})

	t.Run("data is not a list", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {"commodity_desc": "CORN"}}`))
		})

		_, err := client.Fetch(context.Background(), nil)
		var unexpected *UnexpectedResponseError
		require.ErrorAs(t, err, &unexpected)
	})
}

func TestErrorTranslation(t *testing.T) {
	t.Run("unauthorized wins over status code", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": ["unauthorized"]}`))
		})

		_, err := client.Count(context.Background(), nil)
		var unauthorized *UnauthorizedError
		require.ErrorAs(t, err, &unauthorized)
		assert.Equal(t, "unauthorized", unauthorized.Message)
		assert.Equal(t, http.StatusUnauthorized, unauthorized.Response.StatusCode)
	})

	t.Run("invalid query", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": ["bad request - invalid query"]}`))
		})

		_, err := client.Fetch(context.Background(), nil)
		var invalid *InvalidQueryError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("unsupported media type", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": ["bad request - unsupported media type"]}`))
		})

		_, err := client.Fetch(context.Background(), nil)
		var media *UnsupportedMediaTypeError
		require.ErrorAs(t, err, &media)
	})

	t.Run("row limit with parseable limit", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": ["exceeds limit=50000"]}`))
		})

		_, err := client.Fetch(context.Background(), nil)
		var rowLimit *RowLimitError
		require.ErrorAs(t, err, &rowLimit)
		assert.True(t, rowLimit.LimitKnown)
		assert.Equal(t, 50000, rowLimit.Limit)
	})

	t.Run("row limit with garbage limit", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": ["exceeds limit=abc"]}`))
		})

		_, err := client.Fetch(context.Background(), nil)
		var rowLimit *RowLimitError
		require.ErrorAs(t, err, &rowLimit)
		assert.False(t, rowLimit.LimitKnown)
	})

	t.Run("multiple errors", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": ["a", "b"]}`))
		})

		_, err := client.Count(context.Background(), nil)
		var multi *MultiError
		require.ErrorAs(t, err, &multi)
		assert.Equal(t, []string{"a", "b"}, multi.Messages)
	})

	t.Run("unknown message", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": ["something odd happened"]}`))
		})

		_, err := client.Count(context.Background(), nil)
		var api *APIError
		require.ErrorAs(t, err, &api)
		assert.Equal(t, "something odd happened", api.Message)
	})

	t.Run("empty error list falls through to field lookup", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": [], "count": "5"}`))
		})

		n, err := client.Count(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	})

	t.Run("empty error list with bad status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": []}`))
		})

		_, err := client.Count(context.Background(), nil)
		var status *StatusError
		require.ErrorAs(t, err, &status)
	})
}

func TestResponseShapes(t *testing.T) {
	t.Run("non-200 with no error key", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{}`))
		})

		_, err := client.Count(context.Background(), nil)
		var status *StatusError
		require.ErrorAs(t, err, &status)
		assert.Equal(t, http.StatusInternalServerError, status.Response.StatusCode)

		// A bare non-200 is not an UnexpectedResponseError.
		var unexpected *UnexpectedResponseError
		assert.False(t, errors.As(err, &unexpected))
	})

	t.Run("200 with missing field", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})

		_, err := client.Count(context.Background(), nil)
		var unexpected *UnexpectedResponseError
		require.ErrorAs(t, err, &unexpected)
	})

	t.Run("200 with non-object body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`["not", "an", "object"]`))
		})

		_, err := client.Count(context.Background(), nil)
		var unexpected *UnexpectedResponseError
		require.ErrorAs(t, err, &unexpected)
	})

	t.Run("non-JSON body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>maintenance</html>`))
		})

		_, err := client.Count(context.Background(), nil)
		var invalid *InvalidJSONError
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, string(invalid.Response.Body), "maintenance")
	})

	t.Run("error value that is not a list is ignored", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			// "error" as a non-list value must not raise from the
			// translation step.
			w.Write([]byte(`{"error": "unauthorized", "count": "3"}`))
		})

		n, err := client.Count(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}

func TestNetworkError(t *testing.T) {
	client, err := NewClient("test-key", zerolog.Nop(),
		WithBaseURL("http://127.0.0.1:1"),
		WithTimeout(500*time.Millisecond))
	require.NoError(t, err)

	_, err = client.Count(context.Background(), nil)
	var network *NetworkError
	require.ErrorAs(t, err, &network)
	assert.Error(t, network.Unwrap())
}
