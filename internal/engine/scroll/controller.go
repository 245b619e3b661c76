package scroll

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

// Page is the slice of a browser session the controller drives.
type Page interface {
	Evaluate(ctx context.Context, expr string, out any) error
	MouseMove(ctx context.Context, x, y float64) error
	Wheel(ctx context.Context, x, y, deltaY float64) error
}

// Config tunes the scroll loop. Zero values fall back to defaults.
type Config struct {
	MaxAttempts         int
	ScrollDelay         time.Duration
	WheelDelta          float64
	AggressiveThreshold int
	ContainerSelectors  []string
	EndPhrases          []string
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 50
	}
	if c.ScrollDelay <= 0 {
		c.ScrollDelay = 2 * time.Second
	}
	if c.WheelDelta <= 0 {
		c.WheelDelta = 800
	}
	if c.AggressiveThreshold <= 0 {
		c.AggressiveThreshold = 3
	}
	if len(c.ContainerSelectors) == 0 {
		c.ContainerSelectors = []string{
			"div[role='feed']",
			"div[aria-label][tabindex='-1']",
			".m6QErb[aria-label]",
		}
	}
	if len(c.EndPhrases) == 0 {
		c.EndPhrases = defaultEndPhrases
	}
	return c
}

// Controller loads the full result list by scrolling the results
// panel until the end-of-list marker appears or growth stops.
type Controller struct {
	page  Page
	cfg   Config
	log   *log.Logger
	stats model.ScrollStats
}

func New(page Page, cfg Config, logger *log.Logger) *Controller {
	return &Controller{page: page, cfg: cfg.withDefaults(), log: logger}
}

func (c *Controller) Stats() model.ScrollStats {
	return c.stats
}

type containerInfo struct {
	Found        bool    `json:"found"`
	Selector     string  `json:"selector"`
	ScrollHeight float64 `json:"scrollHeight"`
	CenterX      float64 `json:"centerX"`
	CenterY      float64 `json:"centerY"`
}

const containerScriptTpl = `((selectors) => {
	for (const sel of selectors) {
		const el = document.querySelector(sel);
		if (!el) continue;
		const rect = el.getBoundingClientRect();
		if (rect.height === 0) continue;
		if (el.scrollHeight <= el.clientHeight) continue;
		return {
			found: true,
			selector: sel,
			scrollHeight: el.scrollHeight,
			centerX: rect.left + rect.width / 2,
			centerY: rect.top + rect.height / 2,
		};
	}
	return { found: false };
})`

func (c *Controller) findContainer(ctx context.Context) (containerInfo, error) {
	expr, err := evalWithArg(containerScriptTpl, c.cfg.ContainerSelectors)
	if err != nil {
		return containerInfo{}, err
	}
	var info containerInfo
	if err := c.page.Evaluate(ctx, expr, &info); err != nil {
		return containerInfo{}, fmt.Errorf("locating results container: %w", err)
	}
	return info, nil
}

const forceScrollScriptTpl = `((sel) => {
	const el = document.querySelector(sel);
	if (!el) return 0;
	el.scrollTop = el.scrollHeight;
	return el.scrollHeight;
})`

func (c *Controller) containerHeight(ctx context.Context, selector string) (float64, error) {
	expr, err := evalWithArg(`((sel) => {
	const el = document.querySelector(sel);
	return el ? el.scrollHeight : 0;
})`, selector)
	if err != nil {
		return 0, err
	}
	var h float64
	if err := c.page.Evaluate(ctx, expr, &h); err != nil {
		return 0, fmt.Errorf("measuring container: %w", err)
	}
	return h, nil
}

// Run drives the scroll loop until one of the terminal states is hit.
// A nil sink disables progress reporting.
func (c *Controller) Run(ctx context.Context, sink func(model.ScrollProgress)) model.ScrollResult {
	result := model.ScrollResult{}

	container, err := c.findContainer(ctx)
	if err != nil {
		result.Outcome = model.ScrollExhausted
		result.Error = err.Error()
		return result
	}
	if !container.Found {
		c.log.Error("results container not found")
		result.Outcome = model.ScrollContainerMissing
		result.Error = "results container not found"
		return result
	}

	lastHeight := container.ScrollHeight
	noGrowth := 0

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			result.Attempts = attempt - 1
			result.Outcome = model.ScrollExhausted
			result.Error = err.Error()
			return result
		}

		done, method, err := c.detectEnd(ctx)
		if err != nil {
			c.log.Warn("end detection failed", "err", err)
		} else if done {
			c.stats.EndDetections++
			c.log.Debug("end of list detected", "method", method, "attempt", attempt)
			result.Success = true
			result.EndDetected = true
			result.Attempts = attempt - 1
			result.Outcome = model.ScrollEndDetected
			c.emit(sink, attempt-1, true, false)
			return result
		}

		aggressive := noGrowth >= c.cfg.AggressiveThreshold
		delay := c.cfg.ScrollDelay
		if aggressive {
			c.stats.FallbacksUsed++
			delay *= 2
			expr, err := evalWithArg(forceScrollScriptTpl, container.Selector)
			if err == nil {
				var h float64
				if err := c.page.Evaluate(ctx, expr, &h); err != nil {
					c.log.Warn("forced scroll failed", "err", err)
				}
			}
		} else {
			if err := c.page.MouseMove(ctx, container.CenterX, container.CenterY); err != nil {
				c.log.Warn("mouse move failed", "err", err)
			}
			if err := c.page.Wheel(ctx, container.CenterX, container.CenterY, c.cfg.WheelDelta); err != nil {
				c.log.Warn("wheel scroll failed", "err", err)
			}
		}
		c.stats.TotalScrolls++

		select {
		case <-ctx.Done():
			result.Attempts = attempt
			result.Outcome = model.ScrollExhausted
			result.Error = ctx.Err().Error()
			return result
		case <-time.After(delay):
		}

		height, err := c.containerHeight(ctx, container.Selector)
		if err != nil {
			c.log.Warn("height check failed", "err", err)
			height = lastHeight
		}

		grew := height > lastHeight
		if grew {
			c.stats.HeightChanges++
			c.stats.SuccessfulScrolls++
			noGrowth = 0
			lastHeight = height
		} else {
			noGrowth++
		}
		c.emit(sink, attempt, false, grew)

		if noGrowth >= c.cfg.AggressiveThreshold+2 {
			result.Success = true
			result.Attempts = attempt
			result.Outcome = model.ScrollExhausted
			return result
		}
	}

	result.Success = true
	result.Attempts = c.cfg.MaxAttempts
	result.MaxAttemptsReached = true
	result.Outcome = model.ScrollMaxAttempts
	return result
}

func (c *Controller) emit(sink func(model.ScrollProgress), attempt int, end, grew bool) {
	if sink == nil {
		return
	}
	sink(model.ScrollProgress{
		Attempt:       attempt,
		MaxAttempts:   c.cfg.MaxAttempts,
		Progress:      float64(attempt) / float64(c.cfg.MaxAttempts) * 100,
		EndDetected:   end,
		HeightChanged: grew,
	})
}
