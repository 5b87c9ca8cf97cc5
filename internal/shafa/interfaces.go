package shafa

import "context"

// Service abstracts the marketplace operations used by the publisher, the
// bot and the CLI.
type Service interface {
	UploadPhoto(ctx context.Context, fileName string, data []byte) (string, error)
	CreateProduct(ctx context.Context, photoIDs []string, p Product, markup int) (*CreateResult, error)
	FetchSizes(ctx context.Context, catalogSlug string) ([]Size, error)
	FetchBrands(ctx context.Context, catalogSlug string) ([]Brand, error)
	DeactivateProducts(ctx context.Context, ids []int) error
	ProductsFeed(ctx context.Context, first int, after string) (*FeedPage, error)
}

var _ Service = (*Client)(nil)
