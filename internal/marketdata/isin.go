package marketdata

import "regexp"

// isinPattern is the strict ISIN shape: 2-letter country prefix, 9
// alphanumerics, 1 check digit. Checksum verification is intentionally not
// applied; format validity alone gates acceptance pending a product
// decision on re-enabling the check digit.
var isinPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// IsISINFormat reports whether identifier has the strict 12-character ISIN
// shape. Input must already be trimmed and upper-cased.
func IsISINFormat(identifier string) bool {
	return len(identifier) == 12 && isinPattern.MatchString(identifier)
}

// isinCountryNames maps ISIN country prefixes to display names for
// synthetic bond labels when the reference source is unavailable.
var isinCountryNames = map[string]string{
	"US": "United States",
	"GB": "United Kingdom",
	"DE": "Germany",
	"FR": "France",
	"IT": "Italy",
	"ES": "Spain",
	"NL": "Netherlands",
	"CH": "Switzerland",
	"JP": "Japan",
	"CN": "China",
	"HK": "Hong Kong",
	"SG": "Singapore",
	"CA": "Canada",
	"AU": "Australia",
	"LU": "Luxembourg",
	"IE": "Ireland",
}

// isinCountryCurrencies maps ISIN country prefixes to their likely trading
// currency for the synthetic fallback.
var isinCountryCurrencies = map[string]string{
	"US": "USD",
	"GB": "GBP",
	"DE": "EUR",
	"FR": "EUR",
	"IT": "EUR",
	"ES": "EUR",
	"NL": "EUR",
	"LU": "EUR",
	"IE": "EUR",
	"CH": "CHF",
	"JP": "JPY",
	"CN": "CNY",
	"HK": "HKD",
	"SG": "SGD",
	"CA": "CAD",
	"AU": "AUD",
}

// CountryName returns the display name for an ISIN country prefix, or the
// prefix itself when unknown.
func CountryName(prefix string) string {
	if name, ok := isinCountryNames[prefix]; ok {
		return name
	}
	return prefix
}

// CountryCurrency returns the likely currency for an ISIN country prefix,
// defaulting to USD.
func CountryCurrency(prefix string) string {
	if ccy, ok := isinCountryCurrencies[prefix]; ok {
		return ccy
	}
	return "USD"
}
