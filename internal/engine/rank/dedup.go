package rank

import (
	"regexp"
	"strings"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

var (
	punctRe  = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	suffixRe = regexp.MustCompile(`\b(ltda|me|eireli|s\.?a\.?|restaurante|lanchonete|bar|oficina)\b`)
)

// NormalizedNameKey reduces a business name to a comparison key:
// lowercase, punctuation stripped, common legal and category suffix
// words removed, whitespace collapsed.
func NormalizedNameKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = suffixRe.ReplaceAllString(s, " ")
	s = punctRe.ReplaceAllString(s, "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NameAddressKey is the coarse cross-cell key: the same name at the
// same address is the same business regardless of which search cell
// surfaced it.
func NameAddressKey(b model.Business) string {
	return strings.ToLower(b.Name + "-" + b.Address)
}

// Deduplicate keeps the first business seen per key. Order is
// preserved, so callers that sort before deduplicating keep the
// best-ranked duplicate.
func Deduplicate(list []model.Business, key func(model.Business) string) []model.Business {
	seen := make(map[string]struct{}, len(list))
	out := make([]model.Business, 0, len(list))
	for _, b := range list {
		k := key(b)
		if k == "" {
			out = append(out, b)
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, b)
	}
	return out
}
