// Package bypass implements the extraction strategy for domains that
// block headless browsers. Pages are fetched through a challenge-solving
// proxy service; when no service is configured, a direct HTTP client with
// a Cloudflare-aware transport is used instead.
package bypass

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	fakeua "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"

	"epin-scraper/config"
	"epin-scraper/extract"
	"epin-scraper/models"
	"epin-scraper/services"
)

type proxyRequest struct {
	Cmd        string `json:"cmd"`
	URL        string `json:"url,omitempty"`
	Session    string `json:"session,omitempty"`
	MaxTimeout int    `json:"maxTimeout,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
}

type proxyResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Solution struct {
		URL      string `json:"url"`
		Status   int    `json:"status"`
		Response string `json:"response"`
	} `json:"solution"`
}

// Extractor fetches pages through the bypass proxy and runs the shared
// selector cascade over the returned HTML.
type Extractor struct {
	cfg    *config.Config
	client *resty.Client
	direct *resty.Client

	sessionOnce sync.Once
}

// New creates a bypass extractor. The proxy session is established
// lazily on the first scrape.
func New(cfg *config.Config) *Extractor {
	client := resty.New().
		SetTimeout(cfg.BypassTimeout + 10*time.Second).
		SetHeader("Content-Type", "application/json")

	direct := resty.New().SetTimeout(cfg.BypassTimeout)
	direct.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(direct.GetClient().Transport)

	return &Extractor{cfg: cfg, client: client, direct: direct}
}

// Scrape fetches url through the configured proxy, or directly when no
// proxy is configured. Zero extracted items is a failure, same as the
// rendering strategy.
func (e *Extractor) Scrape(ctx context.Context, url string, profile models.SiteProfile) models.ScrapeOutcome {
	start := time.Now()
	domain := services.ExtractDomain(url)
	fail := func(msg string) models.ScrapeOutcome {
		return models.ScrapeOutcome{
			URL:          url,
			Succeeded:    false,
			ErrorMessage: msg,
			Elapsed:      time.Since(start),
			SiteDomain:   domain,
		}
	}

	var (
		html string
		err  error
	)
	if e.cfg.BypassURL != "" {
		html, err = e.fetchViaProxy(ctx, url)
	} else {
		html, err = e.fetchDirect(ctx, url)
	}
	if err != nil {
		return fail(err.Error())
	}

	items, err := extract.Parse(html, url, domain, profile.Selectors)
	if err != nil {
		return fail(fmt.Sprintf("parse fetched html: %v", err))
	}
	if len(items) == 0 {
		return fail("no items matched the selector cascade")
	}

	return models.ScrapeOutcome{
		URL:        url,
		Succeeded:  true,
		Items:      items,
		Elapsed:    time.Since(start),
		SiteDomain: domain,
	}
}

// fetchViaProxy asks the challenge-solving service to load the page and
// returns the solved HTML.
func (e *Extractor) fetchViaProxy(ctx context.Context, url string) (string, error) {
	e.sessionOnce.Do(func() { e.createSession(ctx) })

	req := proxyRequest{
		Cmd:        "request.get",
		URL:        url,
		Session:    e.cfg.BypassSession,
		MaxTimeout: int(e.cfg.BypassTimeout.Milliseconds()),
		UserAgent:  e.userAgent(),
	}

	var parsed proxyResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&parsed).
		Post(e.cfg.BypassURL)
	if err != nil {
		return "", fmt.Errorf("bypass service request: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("bypass service returned HTTP %d", resp.StatusCode())
	}
	if parsed.Status != "ok" {
		return "", fmt.Errorf("bypass service could not solve page: %s", parsed.Message)
	}
	if parsed.Solution.Status >= 400 {
		return "", fmt.Errorf("target site returned HTTP %d via bypass", parsed.Solution.Status)
	}
	if parsed.Solution.Response == "" {
		return "", fmt.Errorf("bypass service returned an empty page")
	}
	return parsed.Solution.Response, nil
}

// createSession registers a named browser session with the proxy so
// cookies persist across requests. Best effort: the service also works
// sessionless.
func (e *Extractor) createSession(ctx context.Context) {
	_, err := e.client.R().
		SetContext(ctx).
		SetBody(proxyRequest{Cmd: "sessions.create", Session: e.cfg.BypassSession}).
		Post(e.cfg.BypassURL)
	if err != nil {
		slog.Warn("bypass session create failed, continuing sessionless", slog.Any("error", err))
		return
	}
	slog.Debug("bypass session ready", slog.String("session", e.cfg.BypassSession))
}

// fetchDirect pulls the page with the Cloudflare-aware transport.
func (e *Extractor) fetchDirect(ctx context.Context, url string) (string, error) {
	resp, err := e.direct.R().
		SetContext(ctx).
		SetHeader("User-Agent", e.userAgent()).
		SetHeader("Accept-Language", "tr-TR,tr;q=0.9,en;q=0.8").
		Get(url)
	if err != nil {
		return "", fmt.Errorf("direct fetch: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("direct fetch returned HTTP %d", resp.StatusCode())
	}
	return resp.String(), nil
}

func (e *Extractor) userAgent() string {
	if e.cfg.UserAgent != "" {
		return e.cfg.UserAgent
	}
	return fakeua.Random()
}
