package model

import "time"

// Stage identifies a point in the session state machine.
type Stage string

const (
	StageSessionStarted       Stage = "session_started"
	StageInitializingBrowser  Stage = "initializing_browser"
	StageNavigating           Stage = "navigating"
	StageExtractingInitial    Stage = "extracting_initial_data"
	StageSmartScrolling       Stage = "smart_scrolling"
	StageScrolling            Stage = "scrolling"
	StageExtractingFinal      Stage = "extracting_final_data"
	StageProcessingResults    Stage = "processing_results"
	StageExportingResults     Stage = "exporting_results"
	StageCompleted            Stage = "completed"
	StageError                Stage = "error"
)

// ProgressEvent is an immutable progress message pushed to the caller's
// sink. Never persisted.
type ProgressEvent struct {
	Stage     Stage          `json:"stage"`
	Progress  float64        `json:"progress"` // 0-100, -1 when not meaningful
	Data      map[string]any `json:"data,omitempty"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
}

// ProgressSink receives ProgressEvents for one run. Must not block.
type ProgressSink func(ProgressEvent)

// ScrollProgress is reported once per scroll attempt.
type ScrollProgress struct {
	Attempt       int
	MaxAttempts   int
	Progress      float64 // 0-100 within the scroll sub-stage
	EndDetected   bool
	HeightChanged bool
}

// Scroll cycle terminal states. Only a missing container is an error.
const (
	ScrollEndDetected      = "end-detected"
	ScrollExhausted        = "exhausted-without-signal"
	ScrollMaxAttempts      = "max-attempts-reached"
	ScrollContainerMissing = "container-not-found"
)

// ScrollResult is the outcome of one pagination cycle.
type ScrollResult struct {
	Success            bool
	EndDetected        bool
	Attempts           int
	MaxAttemptsReached bool
	Outcome            string
	Error              string
}

// StealthReport is the self-check run after session initialization.
type StealthReport struct {
	Passed          bool     `json:"passed"`
	WebdriverHidden bool     `json:"webdriver_hidden"`
	PluginCount     int      `json:"plugin_count"`
	ChromeRuntime   bool     `json:"chrome_runtime"`
	Issues          []string `json:"issues,omitempty"`
}

// InitResult reports browser session initialization.
type InitResult struct {
	Success   bool
	SessionID string
	Stealth   StealthReport
	Error     string
}

// NavigationResult reports one page load.
type NavigationResult struct {
	Success bool
	Title   string
	URL     string
	Error   string
}

// ExtractionStats counts extractor activity for observability.
type ExtractionStats struct {
	Attempts           int `json:"attempts"`
	Successes          int `json:"successes"`
	ValidationFailures int `json:"validation_failures"`
}

// ScrollStats counts scroll controller activity across a run.
type ScrollStats struct {
	TotalScrolls      int `json:"total_scrolls"`
	SuccessfulScrolls int `json:"successful_scrolls"`
	HeightChanges     int `json:"height_changes"`
	EndDetections     int `json:"end_detections"`
	FallbacksUsed     int `json:"fallbacks_used"`
}

// ProcessingStats counts ranking pipeline activity.
type ProcessingStats struct {
	TotalProcessed int `json:"total_processed"`
	Deduplicated   int `json:"deduplicated"`
	Enriched       int `json:"enriched"`
	Filtered       int `json:"filtered"`
	Sorted         int `json:"sorted"`
}

// ExportFile describes one produced export file.
type ExportFile struct {
	Success  bool   `json:"success"`
	Path     string `json:"path,omitempty"`
	Filename string `json:"filename,omitempty"`
	Count    int    `json:"count"`
	Error    string `json:"error,omitempty"`
}

// ExportOutcome maps format name to its file result.
type ExportOutcome struct {
	Success bool                  `json:"success"`
	Files   map[string]ExportFile `json:"files,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// ExportMetadata accompanies an export delegation.
type ExportMetadata struct {
	SessionID      string    `json:"session_id"`
	SearchTerm     string    `json:"search_term"`
	TotalResults   int       `json:"total_results"`
	ScrollAttempts int       `json:"scroll_attempts"`
	ExportedAt     time.Time `json:"exported_at"`
}

// ResultSet is the businesses half of a RunResult.
type ResultSet struct {
	Businesses []Business `json:"businesses"`
	Summary    Summary    `json:"summary"`
	Total      int        `json:"total"`
}

// ScrollOutcome summarizes scrolling across all cells of a run.
type ScrollOutcome struct {
	Attempts    int  `json:"attempts"`
	EndDetected bool `json:"end_detected"`
	Success     bool `json:"success"`
}

// Performance carries per-component statistics for the final payload.
type Performance struct {
	Duration      time.Duration   `json:"duration"`
	DurationHuman string          `json:"duration_human"`
	Extraction    ExtractionStats `json:"extraction"`
	Scrolling     ScrollStats     `json:"scrolling"`
	Processing    ProcessingStats `json:"processing"`
}

// SessionInfo is the session half of a RunResult.
type SessionInfo struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Errors    []string  `json:"errors"`
	Warnings  []string  `json:"warnings"`
}

// RunResult is the terminal payload of one orchestrated run.
type RunResult struct {
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	SessionID   string        `json:"session_id"`
	SearchTerm  string        `json:"search_term"`
	Results     ResultSet     `json:"results"`
	Scrolling   ScrollOutcome `json:"scrolling"`
	Export      ExportOutcome `json:"export"`
	Performance Performance   `json:"performance"`
	Session     SessionInfo   `json:"session"`
}
