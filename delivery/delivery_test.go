package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epin-scraper/config"
	"epin-scraper/models"
)

const webhookURL = "https://hooks.example/epin"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := New(&config.Config{WebhookURL: webhookURL})
	httpmock.ActivateNonDefault(c.client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func sampleReport() *models.BatchReport {
	return &models.BatchReport{
		BatchID:           "batch_20260831120000_abcd1234",
		StartedAt:         time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		RequestedURLCount: 2,
		SucceededCount:    1,
		FailedCount:       1,
		TotalItemCount:    2,
		Outcomes: []models.ScrapeOutcome{
			{
				URL:        "https://turkpin.com/pubg-uc",
				Succeeded:  true,
				SiteDomain: "turkpin.com",
				Items: []models.ScrapedItem{
					{
						Title:        "PUBG Mobile 60 UC",
						RawPriceText: "₺24,90",
						Currency:     models.CurrencyTRY,
						Region:       models.RegionTR,
						SourceURL:    "https://turkpin.com/pubg-uc",
						SiteDomain:   "turkpin.com",
						GameCategory: "pubg",
					},
					{
						Title:        "PUBG Mobile 325 UC",
						RawPriceText: "₺124,90",
						Currency:     models.CurrencyTRY,
						Region:       models.RegionTR,
						SourceURL:    "https://turkpin.com/pubg-uc",
						SiteDomain:   "turkpin.com",
						GameCategory: "pubg",
					},
				},
			},
			{
				URL:          "https://broken.example/x",
				Succeeded:    false,
				ErrorMessage: "navigation failed",
				SiteDomain:   "broken.example",
			},
		},
	}
}

func TestSendBatchData(t *testing.T) {
	c := newTestClient(t)

	var received payload
	httpmock.RegisterResponder("POST", webhookURL, func(req *http.Request) (*http.Response, error) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&received))
		return httpmock.NewStringResponse(200, `{"ok":true}`), nil
	})

	ok := c.SendBatchData(context.Background(), sampleReport())
	require.True(t, ok)

	assert.Equal(t, "batch_20260831120000_abcd1234", received.BatchID)
	assert.Equal(t, "2026-08-31T12:00:00Z", received.Timestamp)
	require.Len(t, received.Items, 2)
	assert.InDelta(t, 24.90, received.Items[0].Price, 0.001)
	assert.Equal(t, "TRY", received.Items[0].Currency)
	assert.Equal(t, "PUBG Mobile 60 UC", received.Items[0].ProductName)
	assert.Equal(t, "https://turkpin.com/pubg-uc", received.Items[0].URL)
	assert.Equal(t, received.Timestamp, received.Items[0].BatchTimestamp)

	assert.Equal(t, 2, received.Metadata.TotalURLs)
	assert.Equal(t, 1, received.Metadata.SuccessCount)
	assert.Equal(t, 1, received.Metadata.FailedCount)
	assert.Equal(t, 2, received.Metadata.TotalItems)
}

func TestSendBatchDataRetriesOnce(t *testing.T) {
	c := newTestClient(t)

	attempts := 0
	httpmock.RegisterResponder("POST", webhookURL, func(req *http.Request) (*http.Response, error) {
		attempts++
		if attempts == 1 {
			return httpmock.NewStringResponse(500, "boom"), nil
		}
		return httpmock.NewStringResponse(200, "ok"), nil
	})

	ok := c.SendBatchData(context.Background(), sampleReport())
	assert.True(t, ok)
	assert.Equal(t, 2, attempts)
}

func TestSendBatchDataGivesUpAfterTwoAttempts(t *testing.T) {
	c := newTestClient(t)

	attempts := 0
	httpmock.RegisterResponder("POST", webhookURL, func(req *http.Request) (*http.Response, error) {
		attempts++
		return httpmock.NewStringResponse(500, "boom"), nil
	})

	ok := c.SendBatchData(context.Background(), sampleReport())
	assert.False(t, ok)
	assert.Equal(t, 2, attempts)
}

func TestSendBatchDataWithoutWebhook(t *testing.T) {
	c := New(&config.Config{})
	assert.False(t, c.SendBatchData(context.Background(), sampleReport()))
}

func TestTestConnection(t *testing.T) {
	c := newTestClient(t)

	var received payload
	httpmock.RegisterResponder("POST", webhookURL, func(req *http.Request) (*http.Response, error) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&received))
		return httpmock.NewStringResponse(200, "ok"), nil
	})

	assert.True(t, c.TestConnection(context.Background()))
	assert.Equal(t, "batch_connection_test", received.BatchID)
	assert.Empty(t, received.Items)
}

func TestTestConnectionFailure(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder("POST", webhookURL,
		httpmock.NewStringResponder(500, "down"))

	assert.False(t, c.TestConnection(context.Background()))
}

func TestBuildPayloadSkipsFailedOutcomes(t *testing.T) {
	report := sampleReport()
	body := buildPayload(report)

	assert.Len(t, body.Items, 2)
	for _, item := range body.Items {
		assert.NotEmpty(t, item.ProductName)
		assert.Positive(t, item.Price)
	}
}
