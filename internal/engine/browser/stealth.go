package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

// stealthScript runs before any page script and hides the usual
// automation tells: the webdriver flag, an empty plugin list, and a
// missing window.chrome object. Permission queries for notifications
// answer with the default prompt state instead of the headless denial.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['pt-BR', 'pt', 'en'] });
window.chrome = window.chrome || { runtime: {} };

const originalQuery = window.navigator.permissions.query;
window.navigator.permissions.query = (parameters) => (
	parameters.name === 'notifications'
		? Promise.resolve({ state: Notification.permission })
		: originalQuery(parameters)
);
`

// geolocationScript pins the browser's location APIs to the mocked
// coordinates so the map centers where the search cell says, not where
// the machine runs.
const geolocationScriptTpl = `
(() => {
	const mock = { latitude: %f, longitude: %f, accuracy: 10 };
	const position = { coords: mock, timestamp: Date.now() };
	navigator.geolocation.getCurrentPosition = (ok) => ok(position);
	navigator.geolocation.watchPosition = (ok) => { ok(position); return 1; };
})();
`

// Without a mocked position the location APIs deny outright instead
// of leaking the machine's real fix.
const geolocationDenyScript = `
(() => {
	const denial = { code: 1, message: 'User denied Geolocation' };
	navigator.geolocation.getCurrentPosition = (_ok, fail) => { if (fail) fail(denial); };
	navigator.geolocation.watchPosition = (_ok, fail) => { if (fail) fail(denial); return 1; };
})();
`

// fetchGuardScriptTpl rejects outbound requests to location-looking
// endpoints unless they carry the mocked coordinates verbatim, so
// nothing can confirm the real position out of band.
const fetchGuardScriptTpl = `
(() => {
	const lat = %q;
	const lng = %q;
	const origFetch = window.fetch;
	window.fetch = function(resource, init) {
		const url = String(resource);
		if (url.includes('geolocation') || url.includes('location')) {
			if (!lat || !(url.includes(lat) && url.includes(lng))) {
				return Promise.reject(new TypeError('Failed to fetch'));
			}
		}
		return origFetch.apply(this, arguments);
	};
})();
`

func fetchGuardScript(lat, lng string) string {
	return fmt.Sprintf(fetchGuardScriptTpl, lat, lng)
}

const verifyScript = `({
	webdriverHidden: navigator.webdriver === undefined,
	pluginCount: navigator.plugins.length,
	chromeRuntime: !!(window.chrome && window.chrome.runtime),
})`

type stealthProbe struct {
	WebdriverHidden bool `json:"webdriverHidden"`
	PluginCount     int  `json:"pluginCount"`
	ChromeRuntime   bool `json:"chromeRuntime"`
}

func geolocationScript(lat, lng float64) string {
	return fmt.Sprintf(geolocationScriptTpl, lat, lng)
}

// VerifyStealth probes the loaded page for the automation tells the
// injected script is supposed to hide.
func (s *Session) VerifyStealth(ctx context.Context) (model.StealthReport, error) {
	var probe stealthProbe
	if err := s.run(ctx, chromedp.Evaluate(verifyScript, &probe)); err != nil {
		return model.StealthReport{}, fmt.Errorf("stealth probe: %w", err)
	}

	report := model.StealthReport{
		WebdriverHidden: probe.WebdriverHidden,
		PluginCount:     probe.PluginCount,
		ChromeRuntime:   probe.ChromeRuntime,
	}
	if !probe.WebdriverHidden {
		report.Issues = append(report.Issues, "navigator.webdriver is exposed")
	}
	if probe.PluginCount == 0 {
		report.Issues = append(report.Issues, "plugin list is empty")
	}
	if !probe.ChromeRuntime {
		report.Issues = append(report.Issues, "window.chrome.runtime is missing")
	}
	report.Passed = len(report.Issues) == 0
	return report, nil
}
