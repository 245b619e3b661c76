package scroll

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// End-of-list phrases, checked lowercase. Maps renders the results
// panel in the account language, so both Portuguese and English
// variants are recognized.
var defaultEndPhrases = []string{
	"final da lista",
	"chegou ao final",
	"reached the end of the list",
}

// endDetectionScript checks three places for an end-of-list marker,
// cheapest first: an XPath text query, the visible result cards, and
// finally a broad sweep over small text nodes. Returns the name of
// the method that matched, or an empty string.
const endDetectionScript = `((phrases) => {
	const matches = (text) => {
		const t = (text || '').toLowerCase();
		return phrases.some((p) => t.includes(p));
	};

	for (const p of phrases) {
		const hit = document.evaluate(
			"//*[contains(translate(text(), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), '" + p + "')]",
			document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
		if (hit.singleNodeValue) return 'xpath-text';
	}

	for (const el of document.querySelectorAll("div[role='feed'] > div")) {
		if (matches(el.textContent)) return 'result-container';
	}

	for (const el of document.querySelectorAll('span, p, div')) {
		if (el.children.length === 0 && matches(el.textContent)) return 'broad-sweep';
	}

	return '';
})`

// evalWithArg turns an IIFE-style script template into a call
// expression with its single argument JSON-encoded.
func evalWithArg(script string, arg any) (string, error) {
	enc, err := json.Marshal(arg)
	if err != nil {
		return "", err
	}
	return script + "(" + string(enc) + ")", nil
}

func buildEndDetectionExpr(phrases []string) (string, error) {
	lowered := make([]string, len(phrases))
	for i, p := range phrases {
		lowered[i] = strings.ToLower(p)
	}
	return evalWithArg(endDetectionScript, lowered)
}

// detectEnd reports whether an end-of-list phrase is visible, and via
// which method it was found.
func (c *Controller) detectEnd(ctx context.Context) (bool, string, error) {
	expr, err := buildEndDetectionExpr(c.cfg.EndPhrases)
	if err != nil {
		return false, "", fmt.Errorf("building end detection script: %w", err)
	}
	var method string
	if err := c.page.Evaluate(ctx, expr, &method); err != nil {
		return false, "", fmt.Errorf("end detection: %w", err)
	}
	return method != "", method, nil
}

// MatchesEndPhrase reports whether text contains any known
// end-of-list phrase.
func MatchesEndPhrase(text string, phrases []string) bool {
	t := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(t, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
