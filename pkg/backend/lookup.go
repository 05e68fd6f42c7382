package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ai-review-be/pkg/store"
)

type Eligibility struct {
	OK     bool
	Reason string
}

// CheckEligible runs the product, order-item and eligibility guards in that
// order. The first negative answer wins; an unreachable guard counts as a pass.
func (c *Client) CheckEligible(ctx context.Context, orderRef, productRef, token string) Eligibility {
	if productRef != "" {
		path := fmt.Sprintf(doneProductPath, url.PathEscape(productRef))
		if obj, ok := c.getObject(ctx, path, token); ok && truthy(obj["done"]) {
			return Eligibility{OK: false, Reason: ReasonProductReviewed}
		}
	}
	if orderRef == "" {
		return Eligibility{OK: true}
	}

	path := fmt.Sprintf(doneOrderItemPath, url.PathEscape(orderRef))
	if obj, ok := c.getObject(ctx, path, token); ok && truthy(obj["done"]) {
		return Eligibility{OK: false, Reason: ReasonOrderItemReviewed}
	}

	path = fmt.Sprintf(eligibilityPath, url.QueryEscape(orderRef))
	obj, ok := c.getObject(ctx, path, token)
	if !ok {
		return Eligibility{OK: true}
	}
	if v, present := obj["ok"]; present && !truthy(v) {
		reason := stringField(obj, "reason")
		if reason == "" {
			reason = ReasonNotEligible
		}
		return Eligibility{OK: false, Reason: reason}
	}
	return Eligibility{OK: true}
}

type ProductMeta struct {
	Name     string
	Category string
}

func (m ProductMeta) IsZero() bool {
	return m.Name == "" && m.Category == ""
}

var (
	productNameKeys     = []string{"name", "productName", "title", "itemName"}
	productCategoryKeys = []string{"category", "categoryName", "category_name", "type", "productCategory"}
)

// ProductMeta resolves a display name and category label, trying the product
// routes first and then the order-item routes. A miss returns the zero value.
func (c *Client) ProductMeta(ctx context.Context, productRef, orderRef, token string) ProductMeta {
	var candidates []string
	if productRef != "" {
		id := url.PathEscape(productRef)
		candidates = append(candidates,
			"/api/products/"+id,
			"/api/product/"+id,
			"/api/v1/products/"+id,
			"/api/items/"+id,
		)
	}
	if orderRef != "" {
		id := url.PathEscape(orderRef)
		candidates = append(candidates,
			"/api/order-items/"+id,
			"/api/orders/items/"+id,
			"/api/v1/order-items/"+id,
		)
	}

	for _, path := range candidates {
		obj, ok := c.getObject(ctx, path, token)
		if !ok {
			continue
		}
		if product, ok := obj["product"].(map[string]interface{}); ok {
			obj = product
		}
		meta := ProductMeta{
			Name:     stringField(obj, productNameKeys...),
			Category: stringField(obj, productCategoryKeys...),
		}
		if !meta.IsZero() {
			c.logger.Info("BACKEND", "Product meta resolved", map[string]interface{}{
				"path":     path,
				"name":     meta.Name,
				"category": meta.Category,
			})
			return meta
		}
	}
	return ProductMeta{}
}

// Me returns the caller's persona, or nil when the profile is unavailable.
func (c *Client) Me(ctx context.Context, token string) *store.Persona {
	obj, ok := c.getObject(ctx, mePath, token)
	if !ok {
		return nil
	}
	if user, ok := obj["user"].(map[string]interface{}); ok {
		obj = user
	}
	p := &store.Persona{
		Gender:   strings.ToUpper(stringField(obj, "gender")),
		AgeRange: AgeRange(stringField(obj, "birthDate", "birth_date"), time.Now()),
	}
	if p.IsZero() {
		return nil
	}
	return p
}

// AgeRange buckets a YYYY-MM-DD (or YYYY...) birth date into "20s", "30s", etc.
func AgeRange(birthDate string, now time.Time) string {
	if len(birthDate) < 4 {
		return ""
	}
	year, err := strconv.Atoi(birthDate[:4])
	if err != nil || year <= 1900 || year > now.Year() {
		return ""
	}
	age := now.Year() - year
	if t, err := time.Parse("2006-01-02", birthDate); err == nil {
		if now.Month() < t.Month() || (now.Month() == t.Month() && now.Day() < t.Day()) {
			age--
		}
	}
	if age < 10 {
		return ""
	}
	return fmt.Sprintf("%ds", age/10*10)
}
