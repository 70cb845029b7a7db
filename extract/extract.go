// Package extract implements the selector-cascade extraction shared by
// both scraping strategies: the rendering extractor feeds it rendered
// HTML, the bypass extractor feeds it the proxied response body.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"epin-scraper/models"
	"epin-scraper/services"
)

// maxItemsPerPage caps how many container elements are inspected on a
// single page.
const maxItemsPerPage = 50

// fallbackPriceRegex matches "<number><space?><currency token>" inside an
// element's full text when the selector cascades come up empty.
var fallbackPriceRegex = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s?(₺|TL\b|\$|€)`)

// titleAttrs are inspected, in order, when no title selector matches.
var titleAttrs = []string{"title", "alt", "data-title"}

// Items runs the cascade against a parsed document and returns the
// surviving product offers found on pageURL.
func Items(doc *goquery.Document, pageURL, domain string, selectors models.SelectorSet) []models.ScrapedItem {
	containers := findContainers(doc, selectors.Container)
	if containers == nil {
		return nil
	}

	var items []models.ScrapedItem
	containers.EachWithBreak(func(i int, el *goquery.Selection) bool {
		if i >= maxItemsPerPage {
			return false
		}
		if item, ok := buildItem(el, pageURL, domain, selectors); ok {
			items = append(items, item)
		}
		return true
	})
	return items
}

// findContainers tries each container selector in order and stops at the
// first one yielding any matches.
func findContainers(doc *goquery.Document, cascade []string) *goquery.Selection {
	for _, sel := range cascade {
		if found := doc.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func buildItem(el *goquery.Selection, pageURL, domain string, selectors models.SelectorSet) (models.ScrapedItem, bool) {
	title := firstText(el, selectors.Title)
	if title == "" {
		title = firstAttr(el, titleAttrs)
	}
	priceText := firstText(el, selectors.Price)

	// Last resort: scan the element's full text for a price token and
	// treat whatever precedes it as the title.
	if title == "" || priceText == "" {
		fullText := strings.TrimSpace(el.Text())
		if loc := fallbackPriceRegex.FindStringIndex(fullText); loc != nil {
			if priceText == "" {
				priceText = strings.TrimSpace(fullText[loc[0]:loc[1]])
			}
			if title == "" {
				title = strings.TrimSpace(fullText[:loc[0]])
			}
		}
	}

	title = services.SanitizeText(title)
	if utf8.RuneCountInString(title) <= 3 || strings.TrimSpace(priceText) == "" {
		return models.ScrapedItem{}, false
	}

	value, currency := services.ParsePrice(priceText)
	if !services.IsValidPrice(value) {
		return models.ScrapedItem{}, false
	}

	return models.ScrapedItem{
		Title:        title,
		RawPriceText: services.SanitizeText(priceText),
		Currency:     currency,
		Region:       services.DetectRegion(pageURL, title),
		SourceURL:    pageURL,
		SiteDomain:   domain,
		GameCategory: services.ExtractGameCategory(pageURL, title),
	}, true
}

// firstText returns the first non-empty text produced by the cascade.
func firstText(el *goquery.Selection, cascade []string) string {
	for _, sel := range cascade {
		if text := strings.TrimSpace(el.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstAttr returns the first non-empty attribute value among attrs.
func firstAttr(el *goquery.Selection, attrs []string) string {
	for _, attr := range attrs {
		if val, ok := el.Attr(attr); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// Parse is a convenience wrapper turning raw HTML into items.
func Parse(html, pageURL, domain string, selectors models.SelectorSet) ([]models.ScrapedItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return Items(doc, pageURL, domain, selectors), nil
}
