package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Product represents a Shopify product with its variants and images
type Product struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	BodyHTML string    `json:"body_html"`
	Status   string    `json:"status"`
	Variants []Variant `json:"variants"`
	Images   []Image   `json:"images"`
}

type Variant struct {
	ID              int64  `json:"id"`
	Price           string `json:"price"`
	Option1         string `json:"option1,omitempty"`
	Option2         string `json:"option2,omitempty"`
	InventoryItemID int64  `json:"inventory_item_id"`
}

type Image struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

// Metafield is attached to a product at creation or updated later
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// CreateProductParams describes a new single-variant product
type CreateProductParams struct {
	Title         string
	Handle        string
	BodyHTML      string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	ProductType   string
	Vendor        string
	Status        string // "draft" or "active"
	Metafields    []Metafield
}

// CreateProduct creates a product with one variant tracked by Shopify inventory
func (c *Client) CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, fmt.Errorf("product title is required")
	}
	if len(title) > 255 {
		return nil, fmt.Errorf("product title too long (max 255 characters)")
	}
	if params.Price.IsNegative() {
		return nil, fmt.Errorf("invalid price")
	}
	if len(params.BodyHTML) > 65535 {
		return nil, fmt.Errorf("product description too long")
	}

	status := params.Status
	if status == "" {
		status = "draft"
	}

	variant := map[string]interface{}{
		"price":                params.Price.StringFixed(2),
		"inventory_policy":     "deny",
		"inventory_management": "shopify",
	}
	if params.OriginalPrice != nil {
		variant["compare_at_price"] = params.OriginalPrice.StringFixed(2)
	}

	payload := map[string]interface{}{
		"title":     title,
		"body_html": params.BodyHTML,
		"status":    status,
		"variants":  []interface{}{variant},
	}
	if params.Handle != "" {
		payload["handle"] = strings.ToLower(params.Handle)
	}
	if params.ProductType != "" {
		payload["product_type"] = params.ProductType
	}
	if params.Vendor != "" {
		payload["vendor"] = params.Vendor
	}
	if len(params.Metafields) > 0 {
		payload["metafields"] = params.Metafields
	}

	var resp struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodPost, "/products.json", map[string]interface{}{"product": payload}, &resp); err != nil {
		return nil, err
	}

	return &resp.Product, nil
}

// GetProduct fetches a product by its numeric ID
func (c *Client) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("invalid product ID")
	}

	var resp struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d.json", productID), nil, &resp); err != nil {
		return nil, err
	}

	return &resp.Product, nil
}

// UpdateProductParams carries the optional fields of a product update
type UpdateProductParams struct {
	ProductID      int64
	Title          *string
	Handle         *string
	Price          *decimal.Decimal
	CompareAtPrice *decimal.Decimal
	ClearCompareAt bool
}

// UpdateProduct updates title/handle, and pricing on the first variant when a
// price change is requested
func (c *Client) UpdateProduct(ctx context.Context, params UpdateProductParams) error {
	payload := map[string]interface{}{"id": params.ProductID}
	if params.Title != nil {
		payload["title"] = *params.Title
	}
	if params.Handle != nil {
		payload["handle"] = strings.ToLower(*params.Handle)
	}

	path := fmt.Sprintf("/products/%d.json", params.ProductID)
	if err := c.do(ctx, http.MethodPut, path, map[string]interface{}{"product": payload}, nil); err != nil {
		return err
	}

	if params.Price == nil && params.CompareAtPrice == nil && !params.ClearCompareAt {
		return nil
	}

	// Pricing lives on the variant; fetch the product to find it
	product, err := c.GetProduct(ctx, params.ProductID)
	if err != nil {
		return err
	}
	if len(product.Variants) == 0 {
		return nil
	}

	variantPayload := map[string]interface{}{"id": product.Variants[0].ID}
	if params.Price != nil {
		variantPayload["price"] = params.Price.StringFixed(2)
	}
	if params.CompareAtPrice != nil {
		variantPayload["compare_at_price"] = params.CompareAtPrice.StringFixed(2)
	} else if params.ClearCompareAt {
		variantPayload["compare_at_price"] = nil
	}

	variantPath := fmt.Sprintf("/variants/%d.json", product.Variants[0].ID)
	return c.do(ctx, http.MethodPut, variantPath, map[string]interface{}{"variant": variantPayload}, nil)
}

// ArchiveProduct sets the product status to archived
func (c *Client) ArchiveProduct(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return fmt.Errorf("invalid product ID")
	}

	payload := map[string]interface{}{
		"product": map[string]interface{}{
			"id":     productID,
			"status": "archived",
		},
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/products/%d.json", productID), payload, nil)
}

var imageFilenamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+\.(jpg|jpeg|png|webp)$`)

// UploadImage attaches a base64-encoded image to a product and returns its URL
func (c *Client) UploadImage(ctx context.Context, productID int64, base64Image, filename string) (string, error) {
	if productID <= 0 {
		return "", fmt.Errorf("invalid product ID")
	}
	if base64Image == "" {
		return "", fmt.Errorf("image data is required")
	}
	if !imageFilenamePattern.MatchString(strings.ToLower(filename)) {
		return "", fmt.Errorf("invalid filename format: %s", filename)
	}

	payload := map[string]interface{}{
		"image": map[string]interface{}{
			"attachment": base64Image,
			"filename":   filename,
		},
	}

	var resp struct {
		Image Image `json:"image"`
	}
	path := fmt.Sprintf("/products/%d/images.json", productID)
	if err := c.do(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return "", err
	}

	return resp.Image.Src, nil
}

// DeleteImage removes a product image
func (c *Client) DeleteImage(ctx context.Context, productID, imageID int64) error {
	if productID <= 0 || imageID <= 0 {
		return fmt.Errorf("invalid product or image ID")
	}

	path := fmt.Sprintf("/products/%d/images/%d.json", productID, imageID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// SetInventoryItemCost records the unit cost on the variant's inventory item
func (c *Client) SetInventoryItemCost(ctx context.Context, inventoryItemID int64, cost decimal.Decimal) error {
	payload := map[string]interface{}{
		"inventory_item": map[string]interface{}{
			"id":   inventoryItemID,
			"cost": cost.StringFixed(2),
		},
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/inventory_items/%d.json", inventoryItemID), payload, nil)
}

func queryEscape(s string) string {
	return url.QueryEscape(s)
}
