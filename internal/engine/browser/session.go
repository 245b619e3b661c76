package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config controls how the Chrome instance is launched.
type Config struct {
	Headless      bool
	UserAgent     string
	Width         int
	Height        int
	Language      string
	Geolocation   *model.Coordinate
	ScreenshotDir string
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Width <= 0 {
		c.Width = 1366
	}
	if c.Height <= 0 {
		c.Height = 768
	}
	if c.Language == "" {
		c.Language = "pt-BR"
	}
	return c
}

// Session owns one Chrome instance and the single tab the scan runs
// in. All methods are safe to call after Cleanup; they fail instead
// of panicking.
type Session struct {
	cfg Config
	log *log.Logger

	mu          sync.Mutex
	id          string
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	ready       bool
}

func NewSession(cfg Config, logger *log.Logger) *Session {
	return &Session{cfg: cfg.withDefaults(), log: logger}
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Initialize launches Chrome, injects the stealth script, applies the
// geolocation mock, and verifies the automation tells are hidden.
func (s *Session) Initialize(ctx context.Context) model.InitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return model.InitResult{Success: true, SessionID: s.id}
	}
	if err := ctx.Err(); err != nil {
		return model.InitResult{Error: err.Error()}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("lang", s.cfg.Language),
		chromedp.UserAgent(s.cfg.UserAgent),
		chromedp.WindowSize(s.cfg.Width, s.cfg.Height),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, tabCancel := chromedp.NewContext(allocCtx)

	inject := stealthScript
	if s.cfg.Geolocation != nil {
		lat := strconv.FormatFloat(s.cfg.Geolocation.Lat, 'f', -1, 64)
		lng := strconv.FormatFloat(s.cfg.Geolocation.Lng, 'f', -1, 64)
		inject += geolocationScript(s.cfg.Geolocation.Lat, s.cfg.Geolocation.Lng)
		inject += fetchGuardScript(lat, lng)
	} else {
		inject += geolocationDenyScript
		inject += fetchGuardScript("", "")
	}

	actions := []chromedp.Action{
		chromedp.ActionFunc(func(cctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(inject).Do(cctx)
			return err
		}),
		emulation.SetDeviceMetricsOverride(int64(s.cfg.Width), int64(s.cfg.Height), 1, false),
	}
	if s.cfg.Geolocation != nil {
		actions = append(actions, emulation.SetGeolocationOverride().
			WithLatitude(s.cfg.Geolocation.Lat).
			WithLongitude(s.cfg.Geolocation.Lng).
			WithAccuracy(10))
	}

	if err := chromedp.Run(tab, actions...); err != nil {
		tabCancel()
		allocCancel()
		return model.InitResult{Error: fmt.Sprintf("launching browser: %v", err)}
	}

	s.tab = tab
	s.tabCancel = tabCancel
	s.allocCancel = allocCancel
	s.id = fmt.Sprintf("session_%d", time.Now().UnixMilli())
	s.ready = true

	s.log.Info("browser session started", "session", s.id, "headless", s.cfg.Headless)
	return model.InitResult{Success: true, SessionID: s.id}
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	tab := s.tab
	ready := s.ready
	s.mu.Unlock()
	if !ready {
		return fmt.Errorf("browser session is not initialized")
	}
	return chromedp.Run(tab, actions...)
}

// Navigate loads url and waits for the document to settle. The page
// title is checked so a consent wall or captcha page fails fast.
func (s *Session) Navigate(ctx context.Context, url string) model.NavigationResult {
	var title, loc string
	err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.Title(&title),
		chromedp.Location(&loc),
	)
	if err != nil {
		return model.NavigationResult{Error: fmt.Sprintf("navigating to %s: %v", url, err)}
	}
	if !strings.Contains(title, "Google Maps") {
		return model.NavigationResult{
			Title: title,
			URL:   loc,
			Error: fmt.Sprintf("unexpected page title %q", title),
		}
	}
	return model.NavigationResult{Success: true, Title: title, URL: loc}
}

// Evaluate runs expr in the page and decodes the result into out.
// Pass nil to discard the result.
func (s *Session) Evaluate(ctx context.Context, expr string, out any) error {
	return s.run(ctx, chromedp.Evaluate(expr, out))
}

// Wheel dispatches a mouse wheel event at (x, y) scrolling down by
// deltaY device pixels.
func (s *Session) Wheel(ctx context.Context, x, y, deltaY float64) error {
	return s.run(ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, x, y).
			WithDeltaX(0).
			WithDeltaY(deltaY).
			Do(cctx)
	}))
}

// MouseMove nudges the pointer, used between scroll bursts so the
// session produces organic-looking input events.
func (s *Session) MouseMove(ctx context.Context, x, y float64) error {
	return s.run(ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(cctx)
	}))
}

// Screenshot captures the current viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return buf, nil
}

// SaveScreenshot captures the viewport and writes it under the
// configured screenshot directory. Failures are logged and swallowed;
// the returned path is empty when nothing was written.
func (s *Session) SaveScreenshot(ctx context.Context, name string) string {
	if s.cfg.ScreenshotDir == "" {
		return ""
	}
	buf, err := s.Screenshot(ctx)
	if err != nil {
		s.log.Warn("screenshot capture failed", "name", name, "error", err)
		return ""
	}
	if err := os.MkdirAll(s.cfg.ScreenshotDir, 0o755); err != nil {
		s.log.Warn("screenshot dir unavailable", "dir", s.cfg.ScreenshotDir, "error", err)
		return ""
	}
	path := filepath.Join(s.cfg.ScreenshotDir, name+".png")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		s.log.Warn("screenshot write failed", "path", path, "error", err)
		return ""
	}
	return path
}

// Restart tears the browser down and brings up a fresh instance with
// the same configuration.
func (s *Session) Restart(ctx context.Context) model.InitResult {
	s.Cleanup()
	return s.Initialize(ctx)
}

// Cleanup shuts the browser down. Safe to call more than once.
func (s *Session) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return
	}
	if s.tabCancel != nil {
		s.tabCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	s.tab = nil
	s.tabCancel = nil
	s.allocCancel = nil
	s.ready = false
	s.log.Info("browser session closed", "session", s.id)
}
