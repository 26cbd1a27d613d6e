package clearbooks

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// ListCustomers fetches every existing customer entity and returns a
// company-name to id map. Duplicate names overwrite, last one wins.
func (c *Client) ListCustomers(ctx context.Context) (map[string]string, error) {
	query := etree.NewElement("cb:listEntities")
	query.CreateElement("query").CreateAttr("type", "customer")

	body, err := fragment(query)
	if err != nil {
		return nil, err
	}

	doc, err := c.post(ctx, "listEntities", body)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	customers := make(map[string]string)
	for _, el := range doc.FindElements("//Entity") {
		customers[el.SelectAttrValue("company_name", "")] = el.SelectAttrValue("id", "")
	}

	c.logger.Info("Fetched ClearBooks customers", zap.Int("count", len(customers)))
	return customers, nil
}

// CreateCustomer creates a customer entity and returns its new identifier
func (c *Client) CreateCustomer(ctx context.Context, customer Customer) (string, error) {
	entity := etree.NewElement("entity")
	entity.CreateAttr("company_name", customer.CompanyName)
	entity.CreateAttr("contact_name", customer.ContactName)
	entity.CreateAttr("building", customer.Building)
	entity.CreateAttr("address1", customer.Address1)
	entity.CreateAttr("address2", customer.Address2)
	entity.CreateAttr("town", customer.Town)
	entity.CreateAttr("county", customer.County)
	entity.CreateAttr("country", customer.Country)
	entity.CreateAttr("postcode", customer.Postcode)
	entity.CreateAttr("email", customer.Email)
	entity.CreateAttr("phone1", customer.Phone1)
	entity.CreateAttr("phone2", customer.Phone2)
	entity.CreateAttr("fax", customer.Fax)
	entity.CreateAttr("website", customer.Website)
	entity.CreateAttr("external_id", customer.ExternalID)

	defaults := entity.CreateElement("customer")
	defaults.CreateAttr("default_account_code", "0")
	defaults.CreateAttr("default_vat_rate", "0.00")
	defaults.CreateAttr("default_credit_terms", "30")

	wrap := etree.NewElement("cb:createEntity")
	wrap.AddChild(entity)

	body, err := fragment(wrap)
	if err != nil {
		return "", err
	}

	doc, err := c.post(ctx, "createEntity", body)
	if err != nil {
		return "", fmt.Errorf("failed to create customer %q: %w", customer.CompanyName, err)
	}

	el := doc.FindElement("//createEntityReturn")
	if el == nil {
		return "", fmt.Errorf("createEntity reply for %q has no createEntityReturn element", customer.CompanyName)
	}

	id := el.Text()
	c.logger.Info("Created ClearBooks customer",
		zap.String("company_name", customer.CompanyName),
		zap.String("id", id))
	return id, nil
}
