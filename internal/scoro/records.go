package scoro

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetContact fetches a single customer or contact record by id
func (c *Client) GetContact(ctx context.Context, id int64) (*Contact, error) {
	data, err := c.fetch(ctx, "contacts", "view", id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact %d: %w", id, err)
	}

	var contact Contact
	if err := json.Unmarshal(data, &contact); err != nil {
		return nil, fmt.Errorf("failed to decode contact %d: %w", id, err)
	}
	return &contact, nil
}

// GetProject fetches a single project record by id
func (c *Client) GetProject(ctx context.Context, id int64) (*Project, error) {
	data, err := c.fetch(ctx, "projects", "view", id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project %d: %w", id, err)
	}

	var project Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("failed to decode project %d: %w", id, err)
	}
	return &project, nil
}
