package profiles

import (
	"time"

	"epin-scraper/models"
)

// siteProfiles is the static per-domain configuration. Keys must equal
// the profile's Domain field; Validate checks this at startup.
var siteProfiles = map[string]models.SiteProfile{
	"turkpin.com": {
		Domain:      "turkpin.com",
		DisplayName: "TurkPin",
		Selectors: models.SelectorSet{
			Container:     []string{".product-item", ".game-list .item", "div[class*='product']"},
			Title:         []string{".product-name", ".item-title", "h3 a", "h3"},
			Price:         []string{".product-price", ".price .current", ".price"},
			OriginalPrice: []string{".price .old", ".old-price"},
		},
		WaitCondition:     ".product-item",
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"oyunfor.com": {
		Domain:      "oyunfor.com",
		DisplayName: "Oyunfor",
		Selectors: models.SelectorSet{
			Container:     []string{".productCard", ".product-card", "div[class*='productList'] > div"},
			Title:         []string{".productCard .title", ".product-name", "h3"},
			Price:         []string{".productCard .price", ".discountPrice", ".price"},
			OriginalPrice: []string{".firstPrice", ".list-price"},
		},
		WaitCondition:     ".productCard",
		InterRequestDelay: 3 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
		FullAssets:        true,
	},
	"bynogame.com": {
		Domain:      "bynogame.com",
		DisplayName: "ByNoGame",
		Selectors: models.SelectorSet{
			Container: []string{".product-box", ".card.product", "div[class*='product-list'] .card"},
			Title:     []string{".product-box .name", ".card-title", "h5"},
			Price:     []string{".product-box .price", ".card .price", "span[class*='price']"},
		},
		InterRequestDelay: 4 * time.Second,
		MaxRetries:        2,
		RequiresRendering: false,
	},
	"gamesatis.com": {
		Domain:      "gamesatis.com",
		DisplayName: "GameSatis",
		Selectors: models.SelectorSet{
			Container:     []string{".product-list-item", ".shop-item", "div[class*='product']"},
			Title:         []string{".product-list-item .name", ".shop-item-title", "h4"},
			Price:         []string{".product-list-item .price", ".shop-item-price", ".price"},
			OriginalPrice: []string{".price-old"},
		},
		WaitCondition:     ".product-list-item",
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"perdigital.com": {
		Domain:      "perdigital.com",
		DisplayName: "Perdigital",
		Selectors: models.SelectorSet{
			Container: []string{".urun_liste", ".product-box", "div[class*='urun']"},
			Title:     []string{".urun_liste .baslik", ".product-title", "h3"},
			Price:     []string{".urun_liste .fiyat", ".product-price", ".price"},
		},
		WaitCondition:     ".urun_liste",
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"vatangame.com": {
		Domain:      "vatangame.com",
		DisplayName: "VatanGame",
		Selectors: models.SelectorSet{
			Container: []string{".product-card", ".vg-product", "div[class*='product']"},
			Title:     []string{".product-card .title", ".product-name", "h3"},
			Price:     []string{".product-card .price", ".current-price", ".price"},
		},
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"kabasakalonline.com": {
		Domain:      "kabasakalonline.com",
		DisplayName: "Kabasakal Online",
		Selectors: models.SelectorSet{
			Container: []string{".product", ".item-box", "div[class*='product']"},
			Title:     []string{".product .name", ".item-title", "h3", "h4"},
			Price:     []string{".product .price", ".item-price", ".price"},
		},
		WaitCondition:     ".product",
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"mtcgame.com": {
		Domain:      "mtcgame.com",
		DisplayName: "MTC Game",
		Selectors: models.SelectorSet{
			Container:     []string{".product-item-box", ".category-product", "div[class*='product']"},
			Title:         []string{".product-item-box .name", ".product-title", "h3"},
			Price:         []string{".product-item-box .price", ".sale-price", ".price"},
			OriginalPrice: []string{".regular-price"},
		},
		WaitCondition:     ".product-item-box",
		InterRequestDelay: 3 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"kopazar.com": {
		Domain:      "kopazar.com",
		DisplayName: "Kopazar",
		Selectors: models.SelectorSet{
			Container: []string{".market-item", ".product-card", "div[class*='item']"},
			Title:     []string{".market-item .title", ".product-name", "h3"},
			Price:     []string{".market-item .price", ".price"},
		},
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"foxngame.com": {
		Domain:      "foxngame.com",
		DisplayName: "FoxNGame",
		Selectors: models.SelectorSet{
			Container: []string{".product-box", ".oyun-item", "div[class*='product']"},
			Title:     []string{".product-box .title", ".oyun-name", "h3"},
			Price:     []string{".product-box .price", ".fiyat", ".price"},
		},
		WaitCondition:     ".product-box",
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"klasgame.com": {
		Domain:      "klasgame.com",
		DisplayName: "KlasGame",
		Selectors: models.SelectorSet{
			Container: []string{".product-wrapper", ".klas-product", "div[class*='product']"},
			Title:     []string{".product-wrapper .name", ".product-title", "h3", "h4"},
			Price:     []string{".product-wrapper .price", ".new-price", ".price"},
		},
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"itemsatis.com": {
		Domain:      "itemsatis.com",
		DisplayName: "ItemSatis",
		Selectors: models.SelectorSet{
			Container: []string{".item-card", ".satis-item", "div[class*='item']"},
			Title:     []string{".item-card .title", ".item-name", "h3"},
			Price:     []string{".item-card .price", ".item-price", ".price"},
		},
		WaitCondition:     ".item-card",
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"dijipin.com": {
		Domain:      "dijipin.com",
		DisplayName: "Dijipin",
		Selectors: models.SelectorSet{
			Container: []string{".epin-card", ".product-item", "div[class*='product']"},
			Title:     []string{".epin-card .title", ".product-name", "h3"},
			Price:     []string{".epin-card .price", ".price"},
		},
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"oyuneks.com": {
		Domain:      "oyuneks.com",
		DisplayName: "Oyuneks",
		Selectors: models.SelectorSet{
			Container: []string{".product-list .product", ".oyuneks-item", "div[class*='product']"},
			Title:     []string{".product .title", ".product-name", "h3", "h4"},
			Price:     []string{".product .price", ".satis-fiyat", ".price"},
		},
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"bursagb.com": {
		Domain:      "bursagb.com",
		DisplayName: "BursaGB",
		Selectors: models.SelectorSet{
			Container:     []string{".product-item", ".epin-product", "div[class*='product']"},
			Title:         []string{".product-item .name", ".product-title", "h3"},
			Price:         []string{".product-item .price", ".sale-price", ".price"},
			OriginalPrice: []string{".old-price"},
		},
		WaitCondition:     ".product-item",
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"gamermarkt.com": {
		Domain:      "gamermarkt.com",
		DisplayName: "GamerMarkt",
		Selectors: models.SelectorSet{
			Container: []string{".product-card", ".market-product", "div[class*='product']"},
			Title:     []string{".product-card .title", ".product-name", "h3"},
			Price:     []string{".product-card .price", ".price"},
		},
		InterRequestDelay: 4 * time.Second,
		MaxRetries:        2,
		RequiresRendering: false,
	},
	"hesap.com.tr": {
		Domain:      "hesap.com.tr",
		DisplayName: "Hesap",
		Selectors: models.SelectorSet{
			Container: []string{".listing-item", ".hesap-product", "div[class*='listing']"},
			Title:     []string{".listing-item .title", ".listing-name", "h3"},
			Price:     []string{".listing-item .price", ".price"},
		},
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
	"epindigital.com": {
		Domain:      "epindigital.com",
		DisplayName: "EpinDigital",
		Selectors: models.SelectorSet{
			Container: []string{".product-box", ".epin-item", "div[class*='product']"},
			Title:     []string{".product-box .name", ".epin-title", "h3"},
			Price:     []string{".product-box .price", ".price"},
		},
		WaitCondition:     ".product-box",
		InterRequestDelay: 2 * time.Second,
		MaxRetries:        3,
		RequiresRendering: true,
	},
}

// bypassDomains are served from behind aggressive bot challenges and must
// go through the bypass-proxy strategy instead of the rendering strategy.
var bypassDomains = map[string]struct{}{
	"bynogame.com":   {},
	"gamermarkt.com": {},
}

// genericSelectors are the broad low-precision fallbacks applied to
// domains without a registered profile.
var genericSelectors = models.SelectorSet{
	Container: []string{
		".product", ".product-item", ".product-card", ".product-box",
		".item", ".card", "article", "li[class*='product']", "div[class*='product']",
	},
	Title: []string{
		".product-name", ".product-title", ".title", ".name",
		"h2", "h3", "h4", "a[title]",
	},
	Price: []string{
		".price", ".product-price", ".current-price", ".sale-price",
		"span[class*='price']", "div[class*='price']", "strong",
	},
	OriginalPrice: []string{".old-price", ".list-price", "del", "s"},
}
