package mapping

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/biter777/countries"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var latin1 = runes.Remove(runes.Predicate(func(r rune) bool {
	return r > unicode.MaxLatin1
}))

// CleanText reduces s to the Latin-1 character set expected by the ClearBooks
// payloads. The pound sign survives Latin-1, so it is substituted with its
// currency code rather than silently dropped.
func CleanText(s string) string {
	out, _, err := transform.String(latin1, s)
	if err != nil {
		// runes.Remove never fails on valid UTF-8; fall back to the input
		out = s
	}
	return strings.ReplaceAll(out, "£", "GBP")
}

// CountryCode converts a country given as a full name or 3-letter ISO code to
// its 2-letter equivalent. An empty input yields an empty code.
func CountryCode(country string) (string, error) {
	if country == "" {
		return "", nil
	}
	// Scoro stores the UK by name rather than code
	if country == "United Kingdom" {
		country = "GBR"
	}
	cc := countries.ByName(strings.ToUpper(country))
	if cc == countries.Unknown {
		return "", fmt.Errorf("unrecognized country %q", country)
	}
	return cc.Alpha2(), nil
}

// SplitStreet breaks a free-text street into the building/address1/address2
// fields ClearBooks expects. One line fills address1 alone; two lines fill
// address1 and address2; three or more promote the first line to building.
func SplitStreet(street string) (building, address1, address2 string) {
	normalized := strings.ReplaceAll(street, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	address1 = lines[0]
	if len(lines) > 1 {
		address2 = strings.Join(lines[1:], " ")
	}
	if len(lines) > 2 {
		building = lines[0]
		address1 = lines[1]
		address2 = strings.Join(lines[2:], " ")
	}
	return building, address1, address2
}

// truncate clips s to at most n characters
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// first returns the first entry of a list field, or empty
func first(values []string) string {
	if len(values) > 0 {
		return values[0]
	}
	return ""
}

// second returns the second entry of a list field, or empty
func second(values []string) string {
	if len(values) > 1 {
		return values[1]
	}
	return ""
}
