package clearbooks

import (
	"context"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// ListAccountCodes fetches every account code and returns an account-name to
// code map. Escaped ampersands in names are unescaped so they match the names
// coming out of Scoro.
func (c *Client) ListAccountCodes(ctx context.Context) (map[string]string, error) {
	body, err := fragment(etree.NewElement("cb:listAccountCodes"))
	if err != nil {
		return nil, err
	}

	doc, err := c.post(ctx, "listAccountCodes", body)
	if err != nil {
		return nil, fmt.Errorf("failed to list account codes: %w", err)
	}

	accounts := make(map[string]string)
	for _, el := range doc.FindElements("//AccountCode") {
		name := strings.ReplaceAll(el.SelectAttrValue("account_name", ""), "&amp;", "&")
		accounts[name] = el.SelectAttrValue("id", "")
	}

	c.logger.Info("Fetched ClearBooks account codes", zap.Int("count", len(accounts)))
	return accounts, nil
}
