package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LookupError wraps catalog API failures. Callers treat it as non-fatal:
// a subscription is stored partially populated rather than rejected.
type LookupError struct {
	Shop      string
	VariantID string
	Err       error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("catalog lookup failed for variant %s on %s: %v", e.VariantID, e.Shop, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// VariantInfo is the resolved identity of a product variant.
type VariantInfo struct {
	ProductID       string
	InventoryItemID string
	ProductTitle    string
	ProductURL      string
}

// Resolver resolves a variant reference to canonical product and inventory
// item identifiers via the storefront Admin API.
type Resolver interface {
	ResolveVariant(ctx context.Context, shopDomain, accessToken, variantID string) (*VariantInfo, error)
}

const defaultAPIVersion = "2023-10"

type Client struct {
	APIVersion string
	Scheme     string // overridable for httptest servers

	HTTPClient *http.Client
}

func NewClient() *Client {
	return &Client{
		APIVersion: defaultAPIVersion,
		Scheme:     "https",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type variantResponse struct {
	Variant struct {
		ID              int64  `json:"id"`
		ProductID       int64  `json:"product_id"`
		InventoryItemID int64  `json:"inventory_item_id"`
		Title           string `json:"title"`
	} `json:"variant"`
	Product struct {
		Title  string `json:"title"`
		Handle string `json:"handle"`
	} `json:"product"`
}

// ResolveVariant fetches the variant record from the shop's Admin API and
// returns the canonical identifiers needed for restock matching.
func (c *Client) ResolveVariant(ctx context.Context, shopDomain, accessToken, variantID string) (*VariantInfo, error) {
	shop := strings.TrimSpace(shopDomain)
	variant := strings.TrimSpace(variantID)
	if shop == "" || variant == "" {
		return nil, &LookupError{Shop: shop, VariantID: variant, Err: errors.New("shop and variant id are required")}
	}

	url := fmt.Sprintf("%s://%s/admin/api/%s/variants/%s.json", c.Scheme, shop, c.APIVersion, variant)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &LookupError{Shop: shop, VariantID: variant, Err: err}
	}
	req.Header.Set("X-Access-Token", accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &LookupError{Shop: shop, VariantID: variant, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &LookupError{Shop: shop, VariantID: variant,
			Err: fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))}
	}

	var out variantResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &LookupError{Shop: shop, VariantID: variant, Err: err}
	}
	if out.Variant.ProductID == 0 {
		return nil, &LookupError{Shop: shop, VariantID: variant, Err: errors.New("response missing product_id")}
	}

	info := &VariantInfo{
		ProductID:    fmt.Sprintf("%d", out.Variant.ProductID),
		ProductTitle: out.Product.Title,
	}
	if out.Variant.InventoryItemID != 0 {
		info.InventoryItemID = fmt.Sprintf("%d", out.Variant.InventoryItemID)
	}
	if out.Product.Handle != "" {
		info.ProductURL = fmt.Sprintf("https://%s/products/%s", shop, out.Product.Handle)
	}
	return info, nil
}
