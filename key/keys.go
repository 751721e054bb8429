// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 39

// Page Range and Politeness - these keys select the catalog pages and the floor delays between operations.
const (
	ScrapeStartPage = "scrape.start_page"
	ScrapeEndPage   = "scrape.end_page"
	ScrapePageDelay = "scrape.page_delay_ms"
	ScrapeItemDelay = "scrape.item_delay_ms"
)

// Readiness Budgets - these keys bound the condition polling performed after each navigation.
const (
	WaitPageTimeout       = "wait.page_timeout_ms"
	WaitItemTimeout       = "wait.item_timeout_ms"
	WaitNavigationTimeout = "wait.navigation_timeout_ms"
	WaitPollInterval      = "wait.poll_interval_ms"
	WaitMinCards          = "wait.min_cards"
)

// Failure Policy - these keys govern per-page retries and the early abort ceiling.
const (
	RetryMaxAttempts           = "retry.max_attempts"
	RetryDelay                 = "retry.delay_ms"
	RetryFailureCeiling        = "retry.failure_ceiling"
	RetryMaxItemFailurePercent = "retry.max_item_failure_percent"
	RetryFailedCardsLimit      = "retry.failed_cards_limit"
)

// Output Persistence - these keys configure where and how the output document is written.
const (
	OutputLiveSave        = "output.live_save"
	OutputPretty          = "output.pretty"
	OutputIncludeMetadata = "output.include_metadata"
	OutputDir             = "output.dir"
)

// Resume - these keys control reuse of previously completed pages.
const (
	ResumeEnable = "resume.enable"
)

// Extraction Rules - these keys tune how a rendered detail page becomes a card record.
const (
	ExtractPreferHighRes     = "extract.prefer_high_res"
	ExtractSkipInvalid       = "extract.skip_invalid"
	ExtractBoundarySelectors = "extract.boundary_selectors"
)

// Site Topology - these keys describe the single catalog this application targets.
const (
	SiteBaseURL       = "site.base_url"
	SiteURL           = "site.url"
	SiteAPIBase       = "site.api_base"
	SiteCardSelectors = "site.card_selectors"
)

// Browser Engine - these keys select and configure the page rendering backend.
const (
	BrowserEngine         = "browser.engine"
	BrowserHeadless       = "browser.headless"
	BrowserStealth        = "browser.stealth"
	BrowserRemoteURL      = "browser.remote_url"
	BrowserBlockResources = "browser.block_resources"
	BrowserUserAgent      = "browser.user_agent"
	BrowserTLSFingerprint = "browser.tls_fingerprint"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// CLI Execution Environment - these flags and settings govern the non-interactive application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
