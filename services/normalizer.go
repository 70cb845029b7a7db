// Package services contains the pure text-normalization helpers that turn
// raw page text into price, currency, region and category values.
package services

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mazen160/go-random"

	"epin-scraper/models"
)

var (
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	allowedCharsRegex = regexp.MustCompile("[^\\w\\s\\-_.,₺$€]")
	bareNumberRegex   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)`)
)

// currencyPatterns are tried in order; the first match wins.
var currencyPatterns = []struct {
	re       *regexp.Regexp
	currency models.Currency
}{
	{regexp.MustCompile(`₺\s*([\d.,]+)`), models.CurrencyTRY},
	{regexp.MustCompile(`([\d.,]+)\s*(?:₺|TL\b)`), models.CurrencyTRY},
	{regexp.MustCompile(`\$\s*([\d.,]+)`), models.CurrencyUSD},
	{regexp.MustCompile(`([\d.,]+)\s*\$`), models.CurrencyUSD},
	{regexp.MustCompile(`€\s*([\d.,]+)`), models.CurrencyEUR},
	{regexp.MustCompile(`([\d.,]+)\s*€`), models.CurrencyEUR},
}

// regionKeywords is checked top to bottom; earlier rows take priority.
var regionKeywords = []struct {
	region  models.Region
	tokens  []string
	phrases []string
}{
	{models.RegionGlobal, []string{"global"}, nil},
	{models.RegionEU, []string{"eu"}, []string{"europe"}},
	{models.RegionUS, []string{"us", "na"}, []string{"america"}},
}

// gameCategories maps keyword sets to category slugs, checked in table order.
var gameCategories = []struct {
	slug    string
	tokens  []string
	phrases []string
}{
	{"pubg", []string{"pubg", "uc"}, nil},
	{"mobile-legends", []string{"mlbb"}, []string{"mobile legends", "mobile-legends"}},
	{"valorant", []string{"valorant", "vp"}, nil},
	{"lol", []string{"lol"}, []string{"league of legends", "riot points"}},
	{"free-fire", nil, []string{"free fire", "free-fire", "freefire"}},
	{"genshin-impact", nil, []string{"genshin"}},
	{"honor-of-kings", []string{"hok"}, []string{"honor of kings"}},
	{"roblox", []string{"roblox", "robux"}, nil},
	{"steam", []string{"steam"}, nil},
	{"razer-gold", nil, []string{"razer"}},
}

// ExtractDomain returns the hostname of rawURL with a leading "www."
// stripped. It returns "" for anything unparseable and never panics.
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return ""
	}
	return strings.TrimPrefix(host, "www.")
}

// ParsePrice extracts a numeric value and currency from raw price text.
// Currency symbol patterns are tried in order; a bare number defaults to
// TRY. Text without digits yields {0, TRY}.
func ParsePrice(text string) (float64, models.Currency) {
	cleaned := strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))

	for _, p := range currencyPatterns {
		if m := p.re.FindStringSubmatch(cleaned); len(m) >= 2 {
			return parseDecimal(m[1]), p.currency
		}
	}
	if m := bareNumberRegex.FindStringSubmatch(cleaned); len(m) >= 2 {
		return parseDecimal(m[1]), models.CurrencyTRY
	}
	return 0, models.CurrencyTRY
}

// parseDecimal handles Turkish-style decimals: "1.299,90" and "149,90"
// both parse as expected. A lone comma is a decimal separator.
func parseDecimal(s string) float64 {
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val
}

// IsValidPrice reports whether value is a plausible listing price.
func IsValidPrice(value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	return value > 0 && value < 1_000_000
}

// DetectRegion classifies the redemption region from the URL and title.
// Priority order is GLOBAL > EU > US; everything else defaults to TR.
func DetectRegion(rawURL, title string) models.Region {
	haystack := strings.ToLower(rawURL + " " + title)
	tokens := tokenize(haystack)

	for _, row := range regionKeywords {
		if matchesKeywords(haystack, tokens, row.tokens, row.phrases) {
			return row.region
		}
	}
	return models.RegionTR
}

// ExtractGameCategory tags the item with a game franchise slug from a
// fixed keyword table; the first matching row wins.
func ExtractGameCategory(rawURL, title string) string {
	haystack := strings.ToLower(rawURL + " " + title)
	tokens := tokenize(haystack)

	for _, row := range gameCategories {
		if matchesKeywords(haystack, tokens, row.tokens, row.phrases) {
			return row.slug
		}
	}
	return "unknown"
}

func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func matchesKeywords(haystack string, tokens map[string]struct{}, wantTokens, wantPhrases []string) bool {
	for _, t := range wantTokens {
		if _, ok := tokens[t]; ok {
			return true
		}
	}
	for _, p := range wantPhrases {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}

// SanitizeText collapses whitespace, strips characters outside the
// whitelist and caps the result at 200 characters.
func SanitizeText(text string) string {
	text = allowedCharsRegex.ReplaceAllString(text, "")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > 200 {
		text = string([]rune(text)[:200])
	}
	return text
}

// GenerateBatchID returns an id unique within a process lifetime:
// a timestamp prefix plus a random suffix. Best effort, not cryptographic.
func GenerateBatchID() string {
	suffix, err := random.String(8)
	if err != nil {
		suffix = strconv.FormatInt(time.Now().UnixNano()%100000000, 10)
	}
	return fmt.Sprintf("batch_%s_%s", time.Now().Format("20060102150405"), strings.ToLower(suffix))
}
