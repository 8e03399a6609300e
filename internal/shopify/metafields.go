package shopify

import (
	"context"
	"fmt"
	"net/http"
)

// UpdateProductMetafield updates the metafield identified by namespace/key on a
// product, creating it when it does not exist yet
func (c *Client) UpdateProductMetafield(ctx context.Context, productID int64, namespace, key, value string) error {
	var listResp struct {
		Metafields []struct {
			ID        int64  `json:"id"`
			Namespace string `json:"namespace"`
			Key       string `json:"key"`
		} `json:"metafields"`
	}
	listPath := fmt.Sprintf("/products/%d/metafields.json", productID)
	if err := c.do(ctx, http.MethodGet, listPath, nil, &listResp); err != nil {
		return err
	}

	var existingID int64
	for _, m := range listResp.Metafields {
		if m.Namespace == namespace && m.Key == key {
			existingID = m.ID
			break
		}
	}

	if existingID != 0 {
		payload := map[string]interface{}{
			"metafield": map[string]interface{}{
				"id":    existingID,
				"value": value,
				"type":  "single_line_text_field",
			},
		}
		path := fmt.Sprintf("/products/%d/metafields/%d.json", productID, existingID)
		return c.do(ctx, http.MethodPut, path, payload, nil)
	}

	payload := map[string]interface{}{
		"metafield": map[string]interface{}{
			"namespace": namespace,
			"key":       key,
			"value":     value,
			"type":      "single_line_text_field",
		},
	}
	return c.do(ctx, http.MethodPost, listPath, payload, nil)
}
