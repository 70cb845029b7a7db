// Package profiles maps storefront domains to their scraping profiles
// and decides which extraction strategy serves each domain.
package profiles

import (
	"fmt"
	"time"

	"epin-scraper/models"
)

// Resolve returns the profile registered for domain, or a synthesized
// generic profile with broad selectors for unknown domains.
func Resolve(domain string) models.SiteProfile {
	if p, ok := siteProfiles[domain]; ok {
		return p
	}
	return models.SiteProfile{
		Domain:            domain,
		DisplayName:       domain,
		Selectors:         genericSelectors,
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: false,
	}
}

// RequiresBypass reports whether domain must be scraped through the
// bypass-proxy strategy. Every other domain, registered or not, uses
// the rendering strategy.
func RequiresBypass(domain string) bool {
	_, ok := bypassDomains[domain]
	return ok
}

// Domains returns all registered domains.
func Domains() []string {
	out := make([]string, 0, len(siteProfiles))
	for d := range siteProfiles {
		out = append(out, d)
	}
	return out
}

// Validate checks the static configuration invariants: profile keys match
// their Domain field, selector cascades are non-empty, and no bypass
// domain is simultaneously flagged for rendering.
func Validate() error {
	for key, p := range siteProfiles {
		if key != p.Domain {
			return fmt.Errorf("profile key %q does not match domain %q", key, p.Domain)
		}
		if len(p.Selectors.Container) == 0 || len(p.Selectors.Title) == 0 || len(p.Selectors.Price) == 0 {
			return fmt.Errorf("profile %q is missing selector cascades", key)
		}
		if p.MaxRetries <= 0 {
			return fmt.Errorf("profile %q has non-positive max retries", key)
		}
	}
	for d := range bypassDomains {
		p, ok := siteProfiles[d]
		if !ok {
			return fmt.Errorf("bypass domain %q has no registered profile", d)
		}
		if p.RequiresRendering {
			return fmt.Errorf("domain %q is in both the bypass and rendering sets", d)
		}
	}
	return nil
}
