package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epin-scraper/models"
)

var testSelectors = models.SelectorSet{
	Container: []string{".product-card", ".item"},
	Title:     []string{".product-title", "h3"},
	Price:     []string{".price", ".amount"},
}

func TestParseExtractsValidItemsOnly(t *testing.T) {
	// Three containers: one complete, one with an unparseable price, one
	// complete. Exactly the two valid offers must survive.
	html := `
	<html><body>
	  <div class="product-card">
	    <h3 class="product-title">PUBG Mobile 60 UC</h3>
	    <span class="price">₺24,90</span>
	  </div>
	  <div class="product-card">
	    <h3 class="product-title">Valorant 475 VP</h3>
	    <span class="price">fiyat bekleniyor</span>
	  </div>
	  <div class="product-card">
	    <h3 class="product-title">Steam Wallet 100 TL</h3>
	    <span class="price">104,50 TL</span>
	  </div>
	</body></html>`

	items, err := Parse(html, "https://turkpin.com/epin", "turkpin.com", testSelectors)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "PUBG Mobile 60 UC", items[0].Title)
	assert.Equal(t, "₺24,90", items[0].RawPriceText)
	assert.Equal(t, models.CurrencyTRY, items[0].Currency)
	assert.Equal(t, models.RegionTR, items[0].Region)
	assert.Equal(t, "pubg", items[0].GameCategory)
	assert.Equal(t, "turkpin.com", items[0].SiteDomain)
	assert.Equal(t, "https://turkpin.com/epin", items[0].SourceURL)

	assert.Equal(t, "Steam Wallet 100 TL", items[1].Title)
	assert.Equal(t, "steam", items[1].GameCategory)
}

func TestContainerCascadeOrder(t *testing.T) {
	// The second selector only fires when the first yields nothing.
	html := `
	<html><body>
	  <div class="item">
	    <h3>Razer Gold 10 USD</h3>
	    <span class="price">$10.00</span>
	  </div>
	</body></html>`

	items, err := Parse(html, "https://shop.example/razer", "shop.example", testSelectors)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.CurrencyUSD, items[0].Currency)
	assert.Equal(t, "razer-gold", items[0].GameCategory)
}

func TestNoContainerMatches(t *testing.T) {
	items, err := Parse("<html><body><p>maintenance</p></body></html>",
		"https://shop.example", "shop.example", testSelectors)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTitleAttributeFallback(t *testing.T) {
	html := `
	<html><body>
	  <div class="product-card" title="Mobile Legends 278 Elmas">
	    <span class="price">₺89,90</span>
	  </div>
	</body></html>`

	items, err := Parse(html, "https://shop.example", "shop.example", testSelectors)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mobile Legends 278 Elmas", items[0].Title)
	assert.Equal(t, "mobile-legends", items[0].GameCategory)
}

func TestFullTextPriceFallback(t *testing.T) {
	// No title or price selector matches; the price token is found in the
	// element's text and everything before it becomes the title.
	html := `
	<html><body>
	  <div class="product-card">Genshin Impact 300 Kristal 149,90 TL</div>
	</body></html>`

	items, err := Parse(html, "https://shop.example", "shop.example", testSelectors)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Genshin Impact 300 Kristal", items[0].Title)
	assert.Equal(t, models.CurrencyTRY, items[0].Currency)
	assert.InDelta(t, 149.90, mustParsePrice(t, items[0].RawPriceText), 0.001)
}

func TestShortTitlesAreDropped(t *testing.T) {
	html := `
	<html><body>
	  <div class="product-card">
	    <h3 class="product-title">UC</h3>
	    <span class="price">₺24,90</span>
	  </div>
	</body></html>`

	items, err := Parse(html, "https://shop.example", "shop.example", testSelectors)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestItemCapPerPage(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < maxItemsPerPage+20; i++ {
		fmt.Fprintf(&sb, `<div class="product-card"><h3 class="product-title">Steam Key %d</h3><span class="price">₺%d,00</span></div>`, i, i+10)
	}
	sb.WriteString("</body></html>")

	items, err := Parse(sb.String(), "https://shop.example", "shop.example", testSelectors)
	require.NoError(t, err)
	assert.Len(t, items, maxItemsPerPage)
}

func mustParsePrice(t *testing.T, raw string) float64 {
	t.Helper()
	var intPart, fracPart int
	_, err := fmt.Sscanf(strings.NewReplacer(" TL", "", "₺", "").Replace(raw), "%d,%d", &intPart, &fracPart)
	require.NoError(t, err)
	return float64(intPart) + float64(fracPart)/100
}
