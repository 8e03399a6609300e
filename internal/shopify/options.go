package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ProductOptions are the store-side choices offered when creating a listing
type ProductOptions struct {
	ProductTypes   []string
	Vendors        []string
	ArrivalChoices []string
}

const productOptionsQuery = `{
  shop {
    productTypes(first: 250) { edges { node } }
    productVendors(first: 250) { edges { node } }
  }
  metafieldDefinitions(ownerType: PRODUCT, namespace: "custom", first: 20) {
    edges {
      node {
        namespace
        key
        validations { name value }
      }
    }
  }
}`

// GetProductOptions reads product types, vendors and the estimate_arrival
// choices from the Admin GraphQL API. The GIFT product type is internal to the
// store and is filtered out.
func (c *Client) GetProductOptions(ctx context.Context) (*ProductOptions, error) {
	var resp struct {
		Data struct {
			Shop struct {
				ProductTypes   stringConnection `json:"productTypes"`
				ProductVendors stringConnection `json:"productVendors"`
			} `json:"shop"`
			MetafieldDefinitions struct {
				Edges []struct {
					Node struct {
						Namespace   string `json:"namespace"`
						Key         string `json:"key"`
						Validations []struct {
							Name  string `json:"name"`
							Value string `json:"value"`
						} `json:"validations"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"metafieldDefinitions"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}

	payload := map[string]interface{}{"query": productOptionsQuery}
	if err := c.do(ctx, http.MethodPost, "/graphql.json", payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", resp.Errors[0].Message)
	}

	options := &ProductOptions{}
	for _, pt := range resp.Data.Shop.ProductTypes.values() {
		if strings.EqualFold(pt, "GIFT") {
			continue
		}
		options.ProductTypes = append(options.ProductTypes, pt)
	}
	options.Vendors = resp.Data.Shop.ProductVendors.values()
	sort.Strings(options.ProductTypes)
	sort.Strings(options.Vendors)

	for _, edge := range resp.Data.MetafieldDefinitions.Edges {
		if edge.Node.Key != "estimate_arrival" {
			continue
		}
		for _, v := range edge.Node.Validations {
			if v.Name != "choices" {
				continue
			}
			var choices []string
			// malformed validation JSON just leaves the choices empty
			if err := json.Unmarshal([]byte(v.Value), &choices); err == nil {
				options.ArrivalChoices = choices
			}
		}
	}

	return options, nil
}

type stringConnection struct {
	Edges []struct {
		Node string `json:"node"`
	} `json:"edges"`
}

func (c stringConnection) values() []string {
	var out []string
	for _, e := range c.Edges {
		if e.Node != "" {
			out = append(out, e.Node)
		}
	}
	return out
}
