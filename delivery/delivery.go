// Package delivery forwards finished batch reports to a configured
// webhook endpoint.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"epin-scraper/config"
	"epin-scraper/models"
	"epin-scraper/services"
	"epin-scraper/utils"
)

const (
	requestTimeout = 30 * time.Second
	maxAttempts    = 2
)

// payload is the wire format consumed by the downstream aggregator.
type payload struct {
	BatchID   string        `json:"batchId"`
	Timestamp string        `json:"timestamp"`
	Items     []payloadItem `json:"items"`
	Metadata  metadata      `json:"metadata"`
}

type payloadItem struct {
	Price          float64 `json:"price"`
	Currency       string  `json:"currency"`
	Region         string  `json:"region"`
	ProductName    string  `json:"product_name"`
	URL            string  `json:"url"`
	BatchTimestamp string  `json:"batch_timestamp"`
}

type metadata struct {
	TotalURLs    int `json:"totalUrls"`
	SuccessCount int `json:"successCount"`
	FailedCount  int `json:"failedCount"`
	TotalItems   int `json:"totalItems"`
}

// Client posts batch payloads to the webhook. A nil-safe zero value is
// not provided; construct with New.
type Client struct {
	cfg    *config.Config
	client *resty.Client
}

// New creates a webhook delivery client.
func New(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		client: resty.New().
			SetTimeout(requestTimeout).
			SetHeader("Content-Type", "application/json"),
	}
}

// SendBatchData posts the report's items downstream. It retries once on
// failure and reports success as a boolean; delivery is advisory and
// never propagates an error into the batch.
func (c *Client) SendBatchData(ctx context.Context, report *models.BatchReport) bool {
	if c.cfg.WebhookURL == "" {
		slog.Debug("no webhook configured, skipping delivery")
		return false
	}

	body := buildPayload(report)
	err := utils.RetryWithBackoff(ctx, maxAttempts, func() error {
		return c.post(ctx, body)
	})
	if err != nil {
		slog.Error("webhook delivery failed",
			slog.String("batch_id", report.BatchID),
			slog.Any("error", err),
		)
		return false
	}
	slog.Info("webhook delivery succeeded",
		slog.String("batch_id", report.BatchID),
		slog.Int("items", len(body.Items)),
	)
	return true
}

// TestConnection posts an empty sentinel batch to verify the webhook is
// reachable and accepts our payload shape.
func (c *Client) TestConnection(ctx context.Context) bool {
	if c.cfg.WebhookURL == "" {
		return false
	}
	probe := payload{
		BatchID:   "batch_connection_test",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Items:     []payloadItem{},
	}
	if err := c.post(ctx, probe); err != nil {
		slog.Warn("webhook probe failed", slog.Any("error", err))
		return false
	}
	return true
}

func (c *Client) post(ctx context.Context, body payload) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.cfg.WebhookURL)
	if err != nil {
		return fmt.Errorf("post webhook: %v", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode())
	}
	return nil
}

// buildPayload flattens every successful outcome's items into the wire
// format, re-parsing each raw price text into its numeric value.
func buildPayload(report *models.BatchReport) payload {
	stamp := report.StartedAt.UTC().Format(time.RFC3339)
	items := make([]payloadItem, 0, report.TotalItemCount)
	for _, outcome := range report.Outcomes {
		if !outcome.Succeeded {
			continue
		}
		for _, item := range outcome.Items {
			value, currency := services.ParsePrice(item.RawPriceText)
			if item.Currency != "" {
				currency = item.Currency
			}
			items = append(items, payloadItem{
				Price:          value,
				Currency:       string(currency),
				Region:         string(item.Region),
				ProductName:    item.Title,
				URL:            item.SourceURL,
				BatchTimestamp: stamp,
			})
		}
	}
	return payload{
		BatchID:   report.BatchID,
		Timestamp: stamp,
		Items:     items,
		Metadata: metadata{
			TotalURLs:    report.RequestedURLCount,
			SuccessCount: report.SucceededCount,
			FailedCount:  report.FailedCount,
			TotalItems:   len(items),
		},
	}
}
