package shafa

import (
	"context"
	"fmt"
	"sync"
)

// MockService is a test double for Service. Each method can be overridden;
// otherwise it returns a plausible default. Safe for concurrent use.
type MockService struct {
	UploadPhotoFunc        func(ctx context.Context, fileName string, data []byte) (string, error)
	CreateProductFunc      func(ctx context.Context, photoIDs []string, p Product, markup int) (*CreateResult, error)
	FetchSizesFunc         func(ctx context.Context, catalogSlug string) ([]Size, error)
	FetchBrandsFunc        func(ctx context.Context, catalogSlug string) ([]Brand, error)
	DeactivateProductsFunc func(ctx context.Context, ids []int) error
	ProductsFeedFunc       func(ctx context.Context, first int, after string) (*FeedPage, error)

	mu sync.Mutex

	// Calls records every invocation for assertions.
	Calls []MockCall
}

// MockCall records a method call.
type MockCall struct {
	Method string
	Args   []any
}

var _ Service = (*MockService)(nil)

func (m *MockService) record(method string, args ...any) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
	m.mu.Unlock()
}

// CallsTo returns the recorded calls of one method.
func (m *MockService) CallsTo(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MockCall
	for _, c := range m.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockService) UploadPhoto(ctx context.Context, fileName string, data []byte) (string, error) {
	m.record("UploadPhoto", fileName, len(data))
	if m.UploadPhotoFunc != nil {
		return m.UploadPhotoFunc(ctx, fileName, data)
	}
	return "photo-" + fileName, nil
}

func (m *MockService) CreateProduct(ctx context.Context, photoIDs []string, p Product, markup int) (*CreateResult, error) {
	m.record("CreateProduct", photoIDs, p, markup)
	if m.CreateProductFunc != nil {
		return m.CreateProductFunc(ctx, photoIDs, p, markup)
	}
	return &CreateResult{ProductID: fmt.Sprint(len(m.CallsTo("CreateProduct")) + 1000)}, nil
}

func (m *MockService) FetchSizes(ctx context.Context, catalogSlug string) ([]Size, error) {
	m.record("FetchSizes", catalogSlug)
	if m.FetchSizesFunc != nil {
		return m.FetchSizesFunc(ctx, catalogSlug)
	}
	return nil, nil
}

func (m *MockService) FetchBrands(ctx context.Context, catalogSlug string) ([]Brand, error) {
	m.record("FetchBrands", catalogSlug)
	if m.FetchBrandsFunc != nil {
		return m.FetchBrandsFunc(ctx, catalogSlug)
	}
	return nil, nil
}

func (m *MockService) DeactivateProducts(ctx context.Context, ids []int) error {
	m.record("DeactivateProducts", ids)
	if m.DeactivateProductsFunc != nil {
		return m.DeactivateProductsFunc(ctx, ids)
	}
	return nil
}

func (m *MockService) ProductsFeed(ctx context.Context, first int, after string) (*FeedPage, error) {
	m.record("ProductsFeed", first, after)
	if m.ProductsFeedFunc != nil {
		return m.ProductsFeedFunc(ctx, first, after)
	}
	return &FeedPage{}, nil
}
