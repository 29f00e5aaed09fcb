package subgraph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"avocado/internal/httpjson"
	"avocado/internal/model"
)

type captured struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newClient(t *testing.T, status int, body string, got *captured) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(httpjson.New(httpjson.Options{}), srv.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestWhereDefaults(t *testing.T) {
	got := Where(model.DefaultFilters())
	want := map[string]any{"totalValueLockedUSD_gt": "1000"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("where mismatch: %v", got)
	}
}

func TestWhereTranslatesFilters(t *testing.T) {
	got := Where(model.Filters{
		Search:    "weth",
		MinTVL:    50_000_000,
		MaxTVL:    1.5e9,
		MinVolume: 10,
		MaxVolume: 20.25,
		FeeTiers:  []string{"500", "3000"},
	})
	checks := map[string]any{
		"totalValueLockedUSD_gt":  "1000",
		"totalValueLockedUSD_gte": "50000000",
		"totalValueLockedUSD_lte": "1500000000",
		"volumeUSD_gte":           "10",
		"volumeUSD_lte":           "20.25",
		"feeTier_in":              []string{"500", "3000"},
	}
	for key, want := range checks {
		if !reflect.DeepEqual(got[key], want) {
			t.Fatalf("%s: expected %v, got %v", key, want, got[key])
		}
	}
	or, ok := got["or"].([]map[string]any)
	if !ok || len(or) != 4 {
		t.Fatalf("expected four search clauses, got %v", got["or"])
	}
	if !reflect.DeepEqual(or[2], map[string]any{"token0_": map[string]any{"name_contains_nocase": "weth"}}) {
		t.Fatalf("unexpected clause %v", or[2])
	}
}

func TestOrderBy(t *testing.T) {
	cases := map[model.SortField]string{
		model.SortTVL:    "totalValueLockedUSD",
		model.SortVolume: "volumeUSD",
		model.SortAPR:    "totalValueLockedUSD",
		"":               "totalValueLockedUSD",
	}
	for field, want := range cases {
		if got := OrderBy(field); got != want {
			t.Fatalf("%q: expected %s, got %s", field, want, got)
		}
	}
	if OrderDirection("") != "desc" || OrderDirection(model.SortAsc) != "asc" {
		t.Fatalf("unexpected direction mapping")
	}
}

func TestTopPoolsSendsVariables(t *testing.T) {
	var req captured
	body := `{"data":{"pools":[{"id":"0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640","feeTier":"500","totalValueLockedUSD":"1","volumeUSD":"2","poolDayData":[{"date":1,"feesUSD":"3","tvlUSD":"4","volumeUSD":"5"}]}]}}`
	client := newClient(t, http.StatusOK, body, &req)

	pools, err := client.TopPools(context.Background(), PageRequest{
		First:   20,
		Skip:    40,
		Filters: model.Filters{SortBy: model.SortVolume, SortDirection: model.SortAsc},
	})
	if err != nil {
		t.Fatalf("top pools: %v", err)
	}
	if len(pools) != 1 || pools[0].PoolDayData[0].FeesUSD != "3" {
		t.Fatalf("unexpected pools %+v", pools)
	}
	if !strings.Contains(req.Query, "query GetTopPools") {
		t.Fatalf("unexpected query %q", req.Query)
	}
	if req.Variables["first"] != float64(20) || req.Variables["skip"] != float64(40) {
		t.Fatalf("unexpected paging vars %v", req.Variables)
	}
	if req.Variables["orderBy"] != "volumeUSD" || req.Variables["orderDirection"] != "asc" {
		t.Fatalf("unexpected order vars %v", req.Variables)
	}
}

func TestQueryGraphQLErrors(t *testing.T) {
	client := newClient(t, http.StatusOK, `{"errors":[{"message":"bad field"},{"message":"timeout"}]}`, nil)
	_, err := client.SearchPools(context.Background(), "eth")
	var gqlErr *GraphQLError
	if !errors.As(err, &gqlErr) {
		t.Fatalf("expected GraphQLError, got %v", err)
	}
	if gqlErr.Error() != "graphql: bad field, timeout" {
		t.Fatalf("unexpected message %q", gqlErr.Error())
	}
}

func TestQueryStatusError(t *testing.T) {
	client := newClient(t, http.StatusBadGateway, `gateway`, nil)
	_, err := client.TopPools(context.Background(), PageRequest{First: 20})
	var statusErr *httpjson.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestPoolNotFound(t *testing.T) {
	var req captured
	client := newClient(t, http.StatusOK, `{"data":{"pool":null}}`, &req)
	_, ok, err := client.Pool(context.Background(), "0xABC")
	if err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
	if req.Variables["id"] != "0xabc" {
		t.Fatalf("expected lowercased id, got %v", req.Variables["id"])
	}
}
