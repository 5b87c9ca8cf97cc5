package shafa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
)

// CreateResult describes a listing created on the marketplace.
type CreateResult struct {
	ProductID string
	// Variables are the mutation variables of the successful attempt.
	Variables json.RawMessage
}

// UploadPhoto uploads one picture and returns the id used to attach it to
// a listing.
func (c *Client) UploadPhoto(ctx context.Context, fileName string, data []byte) (string, error) {
	r, err := c.req(ctx)
	if err != nil {
		return "", err
	}
	res, err := handleError(r.
		SetHeader("Accept", "application/json, text/plain, */*").
		SetMultipartFormData(map[string]string{
			"operationName": "UploadPhoto",
			"query":         uploadPhotoMutation,
			"variables":     `{"file":"file"}`,
		}).
		SetMultipartField("file", fileName, "image/jpeg", bytes.NewReader(data)).
		Post(APIPath))
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	var result struct {
		UploadPhoto struct {
			IDStr  string      `json:"idStr"`
			Errors FieldErrors `json:"errors"`
		} `json:"uploadPhoto"`
	}
	if err := decodeGraphQL("UploadPhoto", res.Body(), &result); err != nil {
		return "", err
	}
	if len(result.UploadPhoto.Errors) > 0 {
		return "", result.UploadPhoto.Errors
	}
	if result.UploadPhoto.IDStr == "" {
		return "", fmt.Errorf("upload response missing idStr")
	}
	return result.UploadPhoto.IDStr, nil
}

func createVariables(photoIDs []string, p Product, markup int) map[string]any {
	var brand any
	if p.BrandID > 0 {
		brand = p.BrandID
	}
	return map[string]any{
		"nameUk":                     p.Name,
		"descriptionUk":              p.Description,
		"isUkToRuTranslationEnabled": p.TranslationEnabled,
		"catalog":                    p.CatalogSlug,
		"condition":                  p.Condition,
		"brand":                      brand,
		"colors":                     p.Colors,
		"size":                       p.SizeID,
		"additionalSizes":            nonNil(p.AdditionalSizeIDs),
		"characteristics":            nonNil(p.Characteristics),
		"count":                      p.Count(),
		"sellingCondition":           p.SellingCondition,
		"price":                      p.Price + markup,
		"keyWords":                   nonNil(p.Keywords),
		"photosStr":                  nonNil(photoIDs),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// CreateProduct creates a listing with markup added to the price. When the
// server rejects some colors it drops them (keeping WHITE if nothing is left)
// and submits once more.
func (c *Client) CreateProduct(ctx context.Context, photoIDs []string, p Product, markup int) (*CreateResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	res, err := c.createProduct(ctx, photoIDs, p, markup)

	var gerrs GraphQLErrors
	if errors.As(err, &gerrs) {
		if invalid := gerrs.InvalidColors(); len(invalid) > 0 {
			cleaned := slices.DeleteFunc(slices.Clone(p.Colors), func(c string) bool {
				return slices.Contains(invalid, c)
			})
			if len(cleaned) == 0 {
				cleaned = []string{DefaultColor}
			}
			if !slices.Equal(cleaned, p.Colors) {
				log.Warn().Strs("invalid", invalid).Strs("colors", cleaned).Msg("marketplace rejected colors, retrying")
				p.Colors = cleaned
				res, err = c.createProduct(ctx, photoIDs, p, markup)
			}
		}
	}
	return res, err
}

func (c *Client) createProduct(ctx context.Context, photoIDs []string, p Product, markup int) (*CreateResult, error) {
	vars := createVariables(photoIDs, p, markup)
	log.Debug().Interface("variables", vars).Msg("creating product")

	var result struct {
		CreateProduct struct {
			CreatedProduct *struct {
				ID flexID `json:"id"`
			} `json:"createdProduct"`
			Errors FieldErrors `json:"errors"`
		} `json:"createProduct"`
	}
	if err := c.graphql(ctx, "WEB_CreateProduct", createProductMutation, vars, &result); err != nil {
		return nil, err
	}
	if len(result.CreateProduct.Errors) > 0 {
		return nil, result.CreateProduct.Errors
	}
	if result.CreateProduct.CreatedProduct == nil || result.CreateProduct.CreatedProduct.ID == "" {
		return nil, fmt.Errorf("create product response missing id")
	}

	raw, err := json.Marshal(vars)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variables: %w", err)
	}
	return &CreateResult{ProductID: string(result.CreateProduct.CreatedProduct.ID), Variables: raw}, nil
}

// DeactivateProducts takes listings off sale.
func (c *Client) DeactivateProducts(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return fmt.Errorf("no product ids given")
	}
	var result struct {
		DeactivateProducts struct {
			IsSuccess bool        `json:"isSuccess"`
			Errors    FieldErrors `json:"errors"`
		} `json:"deactivateProducts"`
	}
	vars := map[string]any{"includeIds": ids, "excludeIds": nil, "allProducts": nil}
	if err := c.graphql(ctx, "WEB_deactivateProducts", deactivateProductsMutation, vars, &result); err != nil {
		return err
	}
	if len(result.DeactivateProducts.Errors) > 0 {
		return result.DeactivateProducts.Errors
	}
	if !result.DeactivateProducts.IsSuccess {
		return fmt.Errorf("deactivation was not successful")
	}
	return nil
}

// FeedProduct is one of the seller's own listings.
type FeedProduct struct {
	ID          string
	Name        string
	Price       int
	URL         string
	Status      string
	CatalogSlug string
	Brand       string
	OutOfStock  bool
	CreatedAt   string
}

// FeedPage is a page of the seller's listings.
type FeedPage struct {
	Products    []FeedProduct
	EndCursor   string
	HasNextPage bool
	Total       int
}

type feedNode struct {
	ID           flexID     `json:"id"`
	URL          string     `json:"url"`
	Name         string     `json:"name"`
	Price        float64    `json:"price"`
	StatusTitle  string     `json:"statusTitle"`
	CatalogSlug  string     `json:"catalogSlug"`
	IsOutOfStock bool       `json:"isOutOfStock"`
	CreatedAt    string     `json:"createdAt"`
	Brand        *feedBrand `json:"brand"`
}

type feedBrand struct {
	Name string `json:"name"`
}

type feedResponse struct {
	Viewer *struct {
		Products struct {
			Edges []struct {
				Node feedNode `json:"node"`
			} `json:"edges"`
			PageInfo struct {
				EndCursor   string `json:"endCursor"`
				HasNextPage bool   `json:"hasNextPage"`
				Total       int    `json:"total"`
			} `json:"pageInfo"`
		} `json:"products"`
	} `json:"viewer"`
}

// ProductsFeed lists the seller's active listings, newest first.
func (c *Client) ProductsFeed(ctx context.Context, first int, after string) (*FeedPage, error) {
	if first < 1 {
		return nil, fmt.Errorf("first must be >= 1")
	}
	vars := map[string]any{
		"first":        first,
		"orderBy":      "1",
		"catalogSlug":  "",
		"productsType": "ACTIVE",
		"after":        nil,
	}
	if after != "" {
		vars["after"] = after
	}

	var result feedResponse
	if err := c.graphql(ctx, "WEB_MyClothesProductsFeed", productsFeedQuery, vars, &result); err != nil {
		return nil, err
	}
	if result.Viewer == nil {
		return nil, fmt.Errorf("not logged in: viewer is empty")
	}

	page := &FeedPage{
		EndCursor:   result.Viewer.Products.PageInfo.EndCursor,
		HasNextPage: result.Viewer.Products.PageInfo.HasNextPage,
		Total:       result.Viewer.Products.PageInfo.Total,
	}
	for _, e := range result.Viewer.Products.Edges {
		n := e.Node
		fp := FeedProduct{
			ID:          string(n.ID),
			Name:        n.Name,
			Price:       int(n.Price),
			URL:         n.URL,
			Status:      n.StatusTitle,
			CatalogSlug: n.CatalogSlug,
			OutOfStock:  n.IsOutOfStock,
			CreatedAt:   n.CreatedAt,
		}
		if n.Brand != nil {
			fp.Brand = n.Brand.Name
		}
		page.Products = append(page.Products, fp)
	}
	return page, nil
}
