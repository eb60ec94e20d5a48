package collector

import "strings"

// exchangeSuffixes are the listing suffixes that are kept as given.
var exchangeSuffixes = []string{".NS", ".BO"}

// IndexAliases maps common index names to their Yahoo-style tickers.
var IndexAliases = map[string]string{
	"NIFTY":     "^NSEI",
	"NIFTY50":   "^NSEI",
	"BANKNIFTY": "^NSEBANK",
	"SENSEX":    "^BSESN",
}

// NormalizeSymbol trims and upper-cases input, resolves index aliases and
// appends defaultSuffix when no exchange suffix is present. Index tickers
// (leading '^') are left alone.
func NormalizeSymbol(input, defaultSuffix string) string {
	raw := strings.ToUpper(strings.TrimSpace(input))
	if alias, ok := IndexAliases[raw]; ok {
		return alias
	}
	if raw == "" || strings.HasPrefix(raw, "^") {
		return raw
	}
	for _, s := range exchangeSuffixes {
		if strings.HasSuffix(raw, s) {
			return raw
		}
	}
	return raw + strings.ToUpper(defaultSuffix)
}
