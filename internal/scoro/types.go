package scoro

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexInt decodes Scoro identifiers, which arrive as either JSON numbers or
// numeric strings depending on the endpoint.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric id %q: %w", s, err)
	}
	*f = FlexInt(v)
	return nil
}

// Int64 returns the identifier as a plain int64
func (f FlexInt) Int64() int64 {
	return int64(f)
}

// Invoice is a Scoro sales invoice. Raw retains the decoded payload exactly as
// fetched so the modify call can round-trip fields this struct does not model.
type Invoice struct {
	ID           FlexInt           `json:"id"`
	No           string            `json:"no"`
	CompanyID    FlexInt           `json:"company_id"`
	ProjectID    FlexInt           `json:"project_id"`
	Date         string            `json:"date"`
	Deadline     string            `json:"deadline"`
	Description  string            `json:"description"`
	ProjectCode  string            `json:"project_code"`
	Discount     decimal.Decimal   `json:"discount"`
	Sum          decimal.Decimal   `json:"sum"`
	Lines        []Line            `json:"lines"`
	CustomFields map[string]string `json:"custom_fields"`

	// ProjectName is attached by the sync run when the invoice references a
	// project; it is not part of the Scoro payload.
	ProjectName string `json:"-"`

	Raw map[string]interface{} `json:"-"`
}

// Line is a single invoice line. A line with ProductID -1 and a zero Amount is
// a group placeholder and carries no value.
type Line struct {
	ProductID       FlexInt         `json:"product_id"`
	FinanceObjectID FlexInt         `json:"finance_object_id"`
	Price           decimal.Decimal `json:"price"`
	Amount          decimal.Decimal `json:"amount"`
	VAT             decimal.Decimal `json:"vat"`
	Sum             decimal.Decimal `json:"sum"`
	Comment         string          `json:"comment"`
}

// IsPlaceholder reports whether the line is an invalid group line with no value
func (l Line) IsPlaceholder() bool {
	return l.ProductID == -1 && l.Amount.IsZero()
}

// Contact is a Scoro customer or contact person record
type Contact struct {
	ContactID   FlexInt        `json:"contact_id"`
	Name        string         `json:"name"`
	Lastname    string         `json:"lastname"`
	ContactType string         `json:"contact_type"`
	Addresses   []Address      `json:"addresses"`
	Contacts    MeansOfContact `json:"means_of_contact"`
}

// Address is a postal address attached to a contact
type Address struct {
	Street    string  `json:"street"`
	City      string  `json:"city"`
	County    string  `json:"county"`
	Country   string  `json:"country"`
	Zipcode   string  `json:"zipcode"`
	ContactID FlexInt `json:"contact_id"`
}

// MeansOfContact holds the contact channels of a contact record. Scoro sends
// an empty JSON array instead of an object when no channels exist.
type MeansOfContact struct {
	Email   []string `json:"email"`
	Phone   []string `json:"phone"`
	Fax     []string `json:"fax"`
	Website []string `json:"website"`
}

// UnmarshalJSON implements json.Unmarshaler
func (m *MeansOfContact) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] == '[' || string(trimmed) == "null" {
		*m = MeansOfContact{}
		return nil
	}
	type plain MeansOfContact
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*m = MeansOfContact(p)
	return nil
}

// Project is a Scoro project record
type Project struct {
	ProjectID   FlexInt `json:"project_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

// Product is a Scoro product with its group name resolved
type Product struct {
	Name  string
	Group string
}

// response is the Scoro API envelope
type response struct {
	Status     string          `json:"status"`
	StatusCode string          `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Messages   *messages       `json:"messages"`
}

type messages struct {
	Error []string `json:"error"`
}

// errorText flattens the envelope's failure reason into one string
func (r *response) errorText() string {
	if r.Messages != nil && len(r.Messages.Error) > 0 {
		return strings.Join(r.Messages.Error, "; ")
	}
	return fmt.Sprintf("status %s (code %s)", r.Status, r.StatusCode)
}
