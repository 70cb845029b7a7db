// Package scraper orchestrates batch scraping across the two extraction
// strategies and aggregates per-URL outcomes into a batch report.
package scraper

import (
	"context"

	"epin-scraper/models"
	"epin-scraper/profiles"
)

// Extractor is the contract shared by the rendering and bypass-proxy
// strategies. Scrape never returns an error; every failure mode is
// folded into the outcome.
type Extractor interface {
	Scrape(ctx context.Context, url string, profile models.SiteProfile) models.ScrapeOutcome
}

// Deliverer forwards a finished batch downstream. Both methods are
// advisory: a false return never fails the batch.
type Deliverer interface {
	SendBatchData(ctx context.Context, report *models.BatchReport) bool
	TestConnection(ctx context.Context) bool
}

// ClassifyFunc decides which strategy serves a domain; true selects the
// bypass-proxy extractor.
type ClassifyFunc func(domain string) bool

// DefaultClassify routes domains in the bypass set to the bypass-proxy
// strategy and everything else, registered or not, to rendering.
func DefaultClassify(domain string) bool {
	return profiles.RequiresBypass(domain)
}
