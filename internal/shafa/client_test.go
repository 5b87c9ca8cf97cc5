package shafa

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewClient(ClientOpts{
		BaseURL:           ts.URL,
		RequestsPerSecond: 1000,
		RetryWait:         time.Millisecond,
		Cookies: []*http.Cookie{
			{Name: "csrftoken", Value: "csrf-123"},
			{Name: "sessionid", Value: "sess"},
		},
	})
	require.NoError(t, err)
	return client
}

type capturedRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

func decodeRequest(t *testing.T, r *http.Request) capturedRequest {
	t.Helper()
	var req capturedRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func testProduct() Product {
	p := NewProduct("Nike Air Max 90")
	p.SizeID = 176
	p.AdditionalSizeIDs = []int{177, 178}
	p.Price = 1600
	p.Colors = []string{"BLACK", "WHITE"}
	return p
}

func TestNewClientRequiresCSRFToken(t *testing.T) {
	_, err := NewClient(ClientOpts{Cookies: []*http.Cookie{{Name: "sessionid", Value: "x"}}})
	assert.ErrorIs(t, err, ErrNoCSRFToken)
}

func TestCreateProduct(t *testing.T) {
	var got capturedRequest
	var header http.Header
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header
		assert.Equal(t, APIPath, r.URL.Path)
		got = decodeRequest(t, r)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"createProduct":{"createdProduct":{"id":98765},"errors":[]}}}`)
	})

	res, err := client.CreateProduct(context.Background(), []string{"p1", "p2"}, testProduct(), 200)
	require.NoError(t, err)
	assert.Equal(t, "98765", res.ProductID)

	assert.Equal(t, "csrf-123", header.Get("X-CSRFToken"))
	assert.Equal(t, "web", header.Get("x-app-platform"))
	assert.Contains(t, header.Get("Cookie"), "sessionid=sess")

	assert.Equal(t, "WEB_CreateProduct", got.OperationName)
	assert.Equal(t, float64(1800), got.Variables["price"])
	assert.Equal(t, float64(3), got.Variables["count"])
	assert.Nil(t, got.Variables["brand"])
	assert.Equal(t, "obuv/krossovki", got.Variables["catalog"])
	assert.Equal(t, []any{"p1", "p2"}, got.Variables["photosStr"])
	assert.Equal(t, []any{"BLACK", "WHITE"}, got.Variables["colors"])
}

func TestCreateProductRetriesWithoutInvalidColors(t *testing.T) {
	tests := []struct {
		name       string
		colors     []string
		errMessage string
		wantRetry  []any
	}{
		{
			name:       "drops the rejected color",
			colors:     []string{"NAVY", "BLACK"},
			errMessage: "Value 'NAVY' does not exist in 'ColorEnum'",
			wantRetry:  []any{"BLACK"},
		},
		{
			name:       "falls back to white",
			colors:     []string{"CREAM"},
			errMessage: "Variable '$colors' got invalid value 'CREAM' at 'colors[0]'; Expected type 'ColorEnum'.",
			wantRetry:  []any{"WHITE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			var requests []capturedRequest
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				req := decodeRequest(t, r)
				mu.Lock()
				requests = append(requests, req)
				n := len(requests)
				mu.Unlock()
				if n == 1 {
					json.NewEncoder(w).Encode(map[string]any{"errors": []map[string]any{{"message": tt.errMessage}}})
					return
				}
				io.WriteString(w, `{"data":{"createProduct":{"createdProduct":{"id":"55"}}}}`)
			})

			p := testProduct()
			p.Colors = tt.colors
			res, err := client.CreateProduct(context.Background(), nil, p, 0)
			require.NoError(t, err)
			assert.Equal(t, "55", res.ProductID)
			require.Len(t, requests, 2)
			assert.Equal(t, tt.wantRetry, requests[1].Variables["colors"])
		})
	}
}

func TestCreateProductGraphQLErrorWithoutColors(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.WriteString(w, `{"errors":[{"message":"Something else went wrong"}]}`)
	})

	_, err := client.CreateProduct(context.Background(), nil, testProduct(), 0)
	var gerrs GraphQLErrors
	require.ErrorAs(t, err, &gerrs)
	assert.Equal(t, 1, calls)
}

func TestCreateProductFieldErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"createProduct":{"createdProduct":null,"errors":[{"field":"size","messages":[{"code":"invalid","message":"Select a valid size"}]}]}}}`)
	})

	_, err := client.CreateProduct(context.Background(), nil, testProduct(), 0)
	require.Error(t, err)
	assert.True(t, IsFieldError(err, "size"))
	assert.False(t, IsFieldError(err, "price"))
	assert.Contains(t, err.Error(), "Select a valid size")
}

func TestCreateProductValidatesBeforeSending(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not be sent")
	})

	p := testProduct()
	p.SizeID = 0
	_, err := client.CreateProduct(context.Background(), nil, p, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SizeID")
}

func TestUploadPhoto(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "UploadPhoto", r.FormValue("operationName"))
		assert.JSONEq(t, `{"file":"file"}`, r.FormValue("variables"))
		file, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "photo.jpg", fh.Filename)
		assert.Equal(t, "image/jpeg", fh.Header.Get("Content-Type"))
		assert.Equal(t, []byte("jpeg-bytes"), data)
		io.WriteString(w, `{"data":{"uploadPhoto":{"idStr":"abc123","errors":null}}}`)
	})

	id, err := client.UploadPhoto(context.Background(), "photo.jpg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
}

func TestUploadPhotoMissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"uploadPhoto":{"idStr":""}}}`)
	})

	_, err := client.UploadPhoto(context.Background(), "photo.jpg", []byte("x"))
	assert.Error(t, err)
}

func TestFetchSizesUsesBatchEndpoint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, BatchPath, r.URL.Path)
		assert.Equal(t, "true", r.Header.Get("batch"))
		var reqs []capturedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqs))
		require.Len(t, reqs, 1)
		assert.Equal(t, "zhenskaya-obuv/krossovki", reqs[0].Variables["catalogSlug"])
		io.WriteString(w, `[{"data":{"filterSize":[{"id":176,"primarySizeName":"36"},{"id":"177","primarySizeName":"36.5"},{"id":178,"primarySizeName":""}]}}]`)
	})

	sizes, err := client.FetchSizes(context.Background(), WomenSneakersCatalog)
	require.NoError(t, err)
	assert.Equal(t, []Size{{ID: 176, Name: "36"}, {ID: 177, Name: "36.5"}}, sizes)
}

func TestFetchBrandsDeduplicates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"filterTopBrands":{"topBrands":[{"id":1,"name":"Nike"}],"brands":[{"id":1,"name":"Nike"},{"id":2,"name":" Adidas "}]}}}`)
	})

	brands, err := client.FetchBrands(context.Background(), DefaultCatalog)
	require.NoError(t, err)
	assert.Equal(t, []Brand{{ID: 1, Name: "Nike"}, {ID: 2, Name: "Adidas"}}, brands)
}

func TestDeactivateProducts(t *testing.T) {
	var got capturedRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeRequest(t, r)
		io.WriteString(w, `{"data":{"deactivateProducts":{"isSuccess":true,"errors":[]}}}`)
	})

	require.NoError(t, client.DeactivateProducts(context.Background(), []int{11, 12}))
	assert.Equal(t, "WEB_deactivateProducts", got.OperationName)
	assert.Equal(t, []any{float64(11), float64(12)}, got.Variables["includeIds"])

	assert.Error(t, client.DeactivateProducts(context.Background(), nil))
}

func TestProductsFeed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		assert.Equal(t, "cursor-1", req.Variables["after"])
		io.WriteString(w, `{"data":{"viewer":{"id":"1","products":{"edges":[{"node":{"id":501,"name":"Vans","price":1900,"statusTitle":"Активний","brand":{"name":"Vans"}}}],"pageInfo":{"endCursor":"cursor-2","hasNextPage":true,"total":40}}}}}`)
	})

	page, err := client.ProductsFeed(context.Background(), 16, "cursor-1")
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "501", page.Products[0].ID)
	assert.Equal(t, 1900, page.Products[0].Price)
	assert.Equal(t, "Vans", page.Products[0].Brand)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "cursor-2", page.EndCursor)
	assert.Equal(t, 40, page.Total)
}

func TestRetriesGatewayErrors(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"data":{"deactivateProducts":{"isSuccess":true}}}`)
	}))
	defer ts.Close()

	client, err := NewClient(ClientOpts{
		BaseURL:           ts.URL,
		RequestsPerSecond: 1000,
		Retries:           2,
		RetryWait:         time.Millisecond,
		Cookies:           []*http.Cookie{{Name: "csrftoken", Value: "t"}},
	})
	require.NoError(t, err)

	require.NoError(t, client.DeactivateProducts(context.Background(), []int{1}))
	assert.Equal(t, 2, calls)
}

func TestHTTPErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := client.DeactivateProducts(context.Background(), []int{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status: 403")
}

func TestProductCount(t *testing.T) {
	p := NewProduct("x")
	assert.Equal(t, 1, p.Count())
	p.AdditionalSizeIDs = []int{1, 2, 3}
	assert.Equal(t, 4, p.Count())
	p.Amount = 10
	assert.Equal(t, 10, p.Count())
}

func TestGraphQLErrorsInvalidColors(t *testing.T) {
	errs := GraphQLErrors{
		{Message: "Value 'NAVY' does not exist in 'ColorEnum'"},
		{Message: "got invalid value 'TAN' at 'colors[1]'; got invalid value 'NAVY' at 'colors[2]'"},
		{Message: "unrelated"},
	}
	assert.Equal(t, []string{"NAVY", "TAN"}, errs.InvalidColors())
}
