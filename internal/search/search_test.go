package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/require"
)

// fakeES stands in for an Elasticsearch node; the product header is what the
// client's response check looks for.
func fakeES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestSearchElephantsDecodesHits(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]any
	es := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{
			"hits": {
				"total": {"value": 2},
				"hits": [
					{"_id": "1", "_source": {"id": 1, "name": "Mosha", "species": "Asian", "price": 10, "price_id": "price_mosha"}},
					{"_id": "2", "_source": {"id": 2, "name": "Motala", "species": "Asian", "price": 15, "price_id": "price_motala"}}
				]
			}
		}`)
	})

	total, elephants, err := SearchElephants(context.Background(), es, Index, "mosha")
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, elephants, 2)
	require.Equal(t, "Mosha", elephants[0].Name)
	require.Equal(t, int64(10), elephants[0].Price)
	require.Equal(t, "price_motala", elephants[1].PriceID)

	require.Equal(t, "/elephants/_search", gotPath)
	query := gotBody["query"].(map[string]any)["multi_match"].(map[string]any)
	require.Equal(t, "mosha", query["query"])
	require.Equal(t, "AUTO", query["fuzziness"])
}

func TestSearchElephantsNoHits(t *testing.T) {
	t.Parallel()

	es := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hits": {"total": {"value": 0}, "hits": []}}`)
	})

	total, elephants, err := SearchElephants(context.Background(), es, Index, "nothing")
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, elephants)
}

func TestSearchElephantsServerError(t *testing.T) {
	t.Parallel()

	es := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": "boom"}`)
	})

	_, _, err := SearchElephants(context.Background(), es, Index, "mosha")
	require.Error(t, err)
}
