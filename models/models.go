// Package models defines the data structures shared across the scraper.
package models

import "time"

// Currency is the ISO-ish currency code attached to a parsed price.
type Currency string

const (
	CurrencyTRY Currency = "TRY"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Region tags where a listed product is redeemable.
type Region string

const (
	RegionTR     Region = "TR"
	RegionEU     Region = "EU"
	RegionUS     Region = "US"
	RegionGlobal Region = "GLOBAL"
)

// SelectorSet holds the prioritized CSS selector lists for one site.
// Each list is evaluated in order, first match wins.
type SelectorSet struct {
	Container     []string
	Title         []string
	Price         []string
	OriginalPrice []string
}

// SiteProfile is the per-domain scraping configuration. Profiles are
// loaded once at startup and never mutated afterwards.
type SiteProfile struct {
	Domain            string
	DisplayName       string
	Selectors         SelectorSet
	WaitCondition     string // selector to wait for after navigation, empty for none
	InterRequestDelay time.Duration
	MaxRetries        int
	RequiresRendering bool
	// FullAssets keeps image/stylesheet loading enabled and forces a
	// scroll-to-bottom pass for sites that lazy-load their product grid.
	FullAssets bool
}

// ScrapedItem is one extracted product offer. Immutable once built.
type ScrapedItem struct {
	Title        string   `json:"title"`
	RawPriceText string   `json:"raw_price_text"`
	Currency     Currency `json:"currency"`
	Region       Region   `json:"region"`
	SourceURL    string   `json:"source_url"`
	SiteDomain   string   `json:"site_domain"`
	GameCategory string   `json:"game_category"`
}

// ScrapeOutcome is the per-URL result record.
type ScrapeOutcome struct {
	URL          string        `json:"url"`
	Succeeded    bool          `json:"succeeded"`
	Items        []ScrapedItem `json:"items"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`
	SiteDomain   string        `json:"site_domain"`
}

// BatchReport aggregates one orchestrator invocation. It is assembled
// once after all URLs are processed and read-only afterwards.
type BatchReport struct {
	BatchID           string          `json:"batch_id"`
	StartedAt         time.Time       `json:"started_at"`
	RequestedURLCount int             `json:"requested_url_count"`
	SucceededCount    int             `json:"succeeded_count"`
	FailedCount       int             `json:"failed_count"`
	TotalItemCount    int             `json:"total_item_count"`
	Outcomes          []ScrapeOutcome `json:"outcomes"`
	ErrorMessages     []string        `json:"error_messages,omitempty"`
}
