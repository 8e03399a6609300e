package shopify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// GetInventoryLevels fetches available quantities for the given inventory items
// at one location. The result maps inventory item ID to available quantity;
// items Shopify does not report are simply absent from the map.
func (c *Client) GetInventoryLevels(ctx context.Context, locationID int64, inventoryItemIDs []int64) (map[int64]int, error) {
	if len(inventoryItemIDs) == 0 {
		return map[int64]int{}, nil
	}

	ids := make([]string, len(inventoryItemIDs))
	for i, id := range inventoryItemIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	path := fmt.Sprintf("/inventory_levels.json?location_ids=%d&inventory_item_ids=%s",
		locationID, strings.Join(ids, ","))

	var resp struct {
		InventoryLevels []struct {
			InventoryItemID int64 `json:"inventory_item_id"`
			Available       int   `json:"available"`
		} `json:"inventory_levels"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	levels := make(map[int64]int, len(resp.InventoryLevels))
	for _, level := range resp.InventoryLevels {
		levels[level.InventoryItemID] = level.Available
	}

	return levels, nil
}

// SetInventoryLevel pushes an absolute available quantity to Shopify
func (c *Client) SetInventoryLevel(ctx context.Context, inventoryItemID, locationID int64, available int) error {
	payload := map[string]interface{}{
		"location_id":       locationID,
		"inventory_item_id": inventoryItemID,
		"available":         available,
	}
	return c.do(ctx, http.MethodPost, "/inventory_levels/set.json", payload, nil)
}
