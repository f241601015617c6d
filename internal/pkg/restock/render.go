package restock

import (
	"fmt"
	"strings"
)

// DeepLink builds the storefront URL a subscriber is sent once they opt in.
// Falls back to the product page when no snapshot URL was resolved.
func DeepLink(shopDomain, productURL, productID, variantID string) string {
	base := strings.TrimSpace(productURL)
	if base == "" {
		base = fmt.Sprintf("https://%s/products/%s", shopDomain, productID)
	}
	if variantID != "" {
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		return base + sep + "variant=" + variantID
	}
	return base
}

// RestockMessage renders the direct-link notification text.
func RestockMessage(shopDomain, productTitle, link string) string {
	title := strings.TrimSpace(productTitle)
	if title == "" {
		title = "an item you wanted"
	}
	return fmt.Sprintf("Good news from %s: %s is back in stock! Grab it here: %s", shopDomain, title, link)
}

// PingParams renders the template parameters for the confirmation ping.
func PingParams(shopDomain, productTitle string) []string {
	title := strings.TrimSpace(productTitle)
	if title == "" {
		title = "an item you wanted"
	}
	return []string{title, shopDomain}
}
