package scoro

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// GetProduct fetches a single product record, resolving its product group
// name when one is set. Results are memoized for the lifetime of the client.
func (c *Client) GetProduct(ctx context.Context, id int64) (Product, error) {
	if p, ok := c.products[id]; ok {
		return p, nil
	}

	data, err := c.fetch(ctx, "products", "view", id, nil)
	if err != nil {
		return Product{}, fmt.Errorf("failed to fetch product %d: %w", id, err)
	}

	var record struct {
		Name           string  `json:"name"`
		ProductGroupID FlexInt `json:"productgroup_id"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return Product{}, fmt.Errorf("failed to decode product %d: %w", id, err)
	}

	product := Product{Name: record.Name}
	if record.ProductGroupID != 0 {
		group, err := c.GetProductGroup(ctx, record.ProductGroupID.Int64())
		if err != nil {
			return Product{}, err
		}
		product.Group = group
	}

	c.products[id] = product
	return product, nil
}

// GetProductGroup fetches a single product group name, memoized by id
func (c *Client) GetProductGroup(ctx context.Context, id int64) (string, error) {
	if g, ok := c.productGroups[id]; ok {
		return g, nil
	}

	data, err := c.fetch(ctx, "productGroups", "view", id, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch product group %d: %w", id, err)
	}

	var record struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return "", fmt.Errorf("failed to decode product group %d: %w", id, err)
	}

	c.productGroups[id] = record.Name
	return record.Name, nil
}

// GetAccountingObject fetches a single accounting object name, memoized by id
func (c *Client) GetAccountingObject(ctx context.Context, id int64) (string, error) {
	if name, ok := c.financeObjs[id]; ok {
		return name, nil
	}

	data, err := c.fetch(ctx, "financeObjects", "view", id, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fetch accounting object %d: %w", id, err)
	}

	var record struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return "", fmt.Errorf("failed to decode accounting object %d: %w", id, err)
	}

	c.financeObjs[id] = record.Name
	return record.Name, nil
}

// ListAccountingObjects bulk-fetches every accounting object and warms the
// lookup cache. Escaped ampersands are unescaped and blank names are stored as
// empty strings so later lookups never see a missing entry as an error.
func (c *Client) ListAccountingObjects(ctx context.Context) (map[int64]string, error) {
	data, err := c.fetch(ctx, "financeObjects", "list", 0, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounting objects: %w", err)
	}

	var records []struct {
		ObjectID FlexInt `json:"object_id"`
		Name     string  `json:"name"`
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode accounting objects: %w", err)
	}

	for _, r := range records {
		if r.Name != "" {
			c.financeObjs[r.ObjectID.Int64()] = strings.ReplaceAll(r.Name, "&amp;", "&")
		} else {
			c.financeObjs[r.ObjectID.Int64()] = ""
		}
	}

	c.logger.Info("Cached accounting objects", zap.Int("count", len(records)))
	return c.financeObjs, nil
}
