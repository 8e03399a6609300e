package shopify

import (
	"context"
	"fmt"
	"net/http"
)

type collection struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// AddProductToCollectionByTitle looks up a custom collection by title (falling
// back to smart collections) and links the product to it. A title with no
// matching collection is not an error.
func (c *Client) AddProductToCollectionByTitle(ctx context.Context, productID int64, title string) error {
	var collectionID int64

	var customResp struct {
		CustomCollections []collection `json:"custom_collections"`
	}
	path := fmt.Sprintf("/custom_collections.json?title=%s", queryEscape(title))
	if err := c.do(ctx, http.MethodGet, path, nil, &customResp); err != nil {
		return err
	}

	if len(customResp.CustomCollections) > 0 {
		collectionID = customResp.CustomCollections[0].ID
	} else {
		var smartResp struct {
			SmartCollections []collection `json:"smart_collections"`
		}
		path := fmt.Sprintf("/smart_collections.json?title=%s", queryEscape(title))
		if err := c.do(ctx, http.MethodGet, path, nil, &smartResp); err != nil {
			return err
		}
		if len(smartResp.SmartCollections) > 0 {
			collectionID = smartResp.SmartCollections[0].ID
		}
	}

	if collectionID == 0 {
		return nil
	}

	payload := map[string]interface{}{
		"collect": map[string]interface{}{
			"product_id":    productID,
			"collection_id": collectionID,
		},
	}
	return c.do(ctx, http.MethodPost, "/collects.json", payload, nil)
}
