package shopify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// CreateVariantParams describes a new variant added to an existing product
type CreateVariantParams struct {
	ProductID int64
	Option1   string
	Option2   string
	Price     decimal.Decimal
}

// CreateVariant adds a tracked variant to a product
func (c *Client) CreateVariant(ctx context.Context, params CreateVariantParams) (*Variant, error) {
	if params.ProductID <= 0 {
		return nil, fmt.Errorf("invalid product ID")
	}
	if params.Option1 == "" {
		return nil, fmt.Errorf("variant option is required")
	}

	variant := map[string]interface{}{
		"option1":              params.Option1,
		"price":                params.Price.StringFixed(2),
		"inventory_policy":     "deny",
		"inventory_management": "shopify",
	}
	if params.Option2 != "" {
		variant["option2"] = params.Option2
	}

	var resp struct {
		Variant Variant `json:"variant"`
	}
	path := fmt.Sprintf("/products/%d/variants.json", params.ProductID)
	if err := c.do(ctx, http.MethodPost, path, map[string]interface{}{"variant": variant}, &resp); err != nil {
		return nil, err
	}

	return &resp.Variant, nil
}

// GetVariant fetches a variant by its numeric ID
func (c *Client) GetVariant(ctx context.Context, variantID int64) (*Variant, error) {
	if variantID <= 0 {
		return nil, fmt.Errorf("invalid variant ID")
	}

	var resp struct {
		Variant Variant `json:"variant"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/variants/%d.json", variantID), nil, &resp); err != nil {
		return nil, err
	}

	return &resp.Variant, nil
}
