package schemas

import "strings"

// PascalIdent derives a stable exported-identifier slug from free text:
// alphanumeric runs are kept, each run's first letter is upcased and
// interior capitals survive, everything else is dropped. A slug that
// would start with a digit is prefixed so it stays a legal identifier.
// "All payment journals" becomes "AllPaymentJournals";
// "SalesTableListPage" is unchanged.
func PascalIdent(s string) string {
	var b strings.Builder
	start := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			if start {
				r += 'A' - 'a'
				start = false
			}
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			start = false
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if b.Len() == 0 {
				b.WriteByte('N')
			}
			start = false
			b.WriteRune(r)
		default:
			start = true
		}
	}
	return b.String()
}

// CamelIdent is PascalIdent with the leading capital run lowered, the
// form used for field and method names. A run longer than one keeps
// its final capital when it opens the next word, so "URL settings"
// becomes "urlSettings" rather than "urlsettings".
func CamelIdent(s string) string {
	p := PascalIdent(s)
	if p == "" {
		return ""
	}
	runes := []rune(p)
	n := 0
	for n < len(runes) && runes[n] >= 'A' && runes[n] <= 'Z' {
		n++
	}
	if n == 0 {
		return p
	}
	if n < len(runes) && n > 1 {
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] += 'a' - 'A'
	}
	return string(runes)
}
