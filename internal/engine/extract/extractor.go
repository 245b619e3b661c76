package extract

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/pedrogrisolia/maps-business-finder/internal/engine/rank"
	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

// Page is the slice of a browser session the extractor needs.
type Page interface {
	Evaluate(ctx context.Context, expr string, out any) error
}

// Extractor pulls business candidates out of the rendered results
// panel and validates them into Business records.
type Extractor struct {
	page  Page
	log   *log.Logger
	stats model.ExtractionStats
}

func New(page Page, logger *log.Logger) *Extractor {
	return &Extractor{page: page, log: logger}
}

func (e *Extractor) Stats() model.ExtractionStats {
	return e.stats
}

// candidateScript walks every result card anchored by an aria-labelled
// outbound link. A card with neither a rating nor review text is
// discarded in-page so partially rendered tiles never reach Go.
const candidateScript = `(() => {
	const out = [];
	const snap = document.evaluate(
		"//a[@aria-label and starts-with(@href, 'http')]/ancestor::div[1]",
		document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	for (let i = 0; i < snap.snapshotLength; i++) {
		const card = snap.snapshotItem(i);
		const anchor = card.querySelector("a[aria-label][href^='http']");
		if (!anchor) continue;
		const name = (anchor.getAttribute('aria-label') || '').trim();
		if (!name) continue;

		let rating = '';
		let reviews = '';
		const img = card.querySelector("span[role='img']");
		if (img) {
			const parts = img.querySelectorAll('span');
			if (parts.length > 0) rating = (parts[0].textContent || '').trim();
			if (parts.length > 1) reviews = (parts[parts.length - 1].textContent || '').trim();
		}

		// the last separator-bearing leaf block holds the address;
		// earlier ones carry category and rating fragments
		let address = '';
		for (const div of card.querySelectorAll('div')) {
			const text = (div.textContent || '').trim();
			if (!text.includes('·')) continue;
			if (/Abre|Fechado|Fecha/.test(text)) continue;
			if (div.querySelector('div')) continue;
			address = text;
		}

		if (!rating && !reviews) continue;
		out.push({
			name: name,
			rating: rating,
			reviews: reviews,
			address: address,
			link: anchor.href,
		});
	}
	return out;
})()`

// Extract runs the in-page collection script, resolves coordinates
// from each result link, and validates the candidates. A page-level
// evaluation failure yields an empty list, not an error; the scroll
// cycle may still surface the results on a later pass.
func (e *Extractor) Extract(ctx context.Context) ([]model.Business, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cands []model.Candidate
	if err := e.page.Evaluate(ctx, candidateScript, &cands); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.stats.Attempts++
		e.log.Warn("candidate script failed", "err", err)
		return nil, nil
	}

	for i := range cands {
		if lat, lng, ok := ParseCoordinates(cands[i].Link); ok {
			cands[i].Lat = lat
			cands[i].Lng = lng
		}
	}

	businesses := rank.ValidateAll(cands, &e.stats)
	e.log.Debug("extraction pass", "candidates", len(cands), "valid", len(businesses))
	return businesses, nil
}
