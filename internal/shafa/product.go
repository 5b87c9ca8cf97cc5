package shafa

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultCatalog is the catalog used for sneakers without a better match.
	DefaultCatalog = "obuv/krossovki"
	// WomenSneakersCatalog holds sneakers sold in women's sizes.
	WomenSneakersCatalog = "zhenskaya-obuv/krossovki"

	ConditionNew     = "NEW"
	SellingCondition = "SALE"
	DefaultColor     = "WHITE"
)

// Catalogs lists every catalog whose sizes are kept locally.
var Catalogs = []string{DefaultCatalog, WomenSneakersCatalog}

// DefaultDescription is attached to every listing: a foot length chart
// followed by a short generic pitch.
var DefaultDescription = strings.Join([]string{
	"36 (23.0см)",
	"37 (23.5см)",
	"38 (24.0см)",
	"39 (25.0см)",
	"40 (25.5см)",
	"41 (26.0см)",
	"42 (26.5см)",
	"43 (27.5см)",
	"44 (28.0см)",
	"45 (29.0см)",
	"",
	"Зручні кросівки на кожен день. Легко поєднуються з будь-яким образом, " +
		"добре тримають форму та підходять і для міста, і для подорожей.",
}, "\n")

// Product is a listing ready to be submitted to the marketplace.
type Product struct {
	Name               string   `json:"name" validate:"required,max=250"`
	Description        string   `json:"description"`
	CatalogSlug        string   `json:"catalog" validate:"required"`
	Condition          string   `json:"condition" validate:"required"`
	BrandID            int      `json:"brand,omitempty" validate:"gte=0"`
	SizeID             int      `json:"size" validate:"gt=0"`
	AdditionalSizeIDs  []int    `json:"additionalSizes" validate:"dive,gt=0"`
	Colors             []string `json:"colors" validate:"min=1,dive,required"`
	Characteristics    []int    `json:"characteristics"`
	Amount             int      `json:"amount" validate:"gte=1"`
	SellingCondition   string   `json:"sellingCondition" validate:"required"`
	Price              int      `json:"price" validate:"gt=0"`
	Keywords           []string `json:"keyWords"`
	TranslationEnabled bool     `json:"isUkToRuTranslationEnabled"`
}

// NewProduct returns a product with the marketplace defaults filled in.
func NewProduct(name string) Product {
	return Product{
		Name:               name,
		Description:        DefaultDescription,
		CatalogSlug:        DefaultCatalog,
		Condition:          ConditionNew,
		Colors:             []string{DefaultColor},
		Amount:             1,
		SellingCondition:   SellingCondition,
		TranslationEnabled: true,
		AdditionalSizeIDs:  []int{},
		Characteristics:    []int{},
		Keywords:           []string{},
	}
}

// Count is the stock count sent to the marketplace: one per listed size at
// least.
func (p Product) Count() int {
	return max(p.Amount, len(p.AdditionalSizeIDs)+1)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the product before it is submitted.
func (p Product) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid product: %s", strings.Join(fields, ", "))
	}
	return fmt.Errorf("invalid product: %w", err)
}
