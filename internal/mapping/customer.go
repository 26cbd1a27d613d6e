package mapping

import (
	"fmt"
	"strconv"

	"scoro2clearbooks/internal/clearbooks"
	"scoro2clearbooks/internal/scoro"
)

// Customer converts a Scoro contact record to a ClearBooks customer. Person
// contacts use "name lastname" as both company and contact name; organizations
// use the organization name with an empty contact name.
func Customer(c *scoro.Contact) (clearbooks.Customer, error) {
	if c.Name == "" {
		return clearbooks.Customer{}, fmt.Errorf("contact %d has no name", c.ContactID.Int64())
	}

	var company, contactName string
	if c.ContactType == "person" {
		company = fmt.Sprintf("%s %s", c.Name, c.Lastname)
		contactName = company
	} else {
		company = c.Name
		contactName = ""
	}

	customer := clearbooks.Customer{
		CompanyName: CleanText(company),
		ContactName: CleanText(contactName),
		Email:       first(c.Contacts.Email),
		Phone1:      first(c.Contacts.Phone),
		Phone2:      second(c.Contacts.Phone),
		Fax:         first(c.Contacts.Fax),
		Website:     first(c.Contacts.Website),
	}

	if len(c.Addresses) > 0 {
		a := c.Addresses[0]

		building, address1, address2 := SplitStreet(a.Street)
		customer.Building = CleanText(building)
		customer.Address1 = CleanText(address1)
		customer.Address2 = CleanText(address2)
		customer.Town = a.City
		customer.County = a.County
		customer.Postcode = a.Zipcode

		country, err := CountryCode(a.Country)
		if err != nil {
			return clearbooks.Customer{}, fmt.Errorf("contact %d: %w", c.ContactID.Int64(), err)
		}
		customer.Country = country

		if a.ContactID != 0 {
			customer.ExternalID = strconv.FormatInt(a.ContactID.Int64(), 10)
		}
	}

	return customer, nil
}
