package geotrack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/sitecrew-hq/siteops-backend-go/internal/config"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/geofence"
)

// Client pulls geofence events from the external mobile-geofencing vendor
// API. Requests authenticate with an OAuth2 client-credentials token; the
// token source caches and refreshes tokens as needed.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.ProviderConfig) *Client {
	ccConfig := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	httpClient := ccConfig.Client(context.Background())
	httpClient.Timeout = 30 * time.Second

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
	}
}

// providerEvent is the vendor's wire shape for a geofence crossing.
type providerEvent struct {
	ExternalID    string   `json:"id"`
	EmployeeRef   string   `json:"employee_ref"`
	SiteRef       string   `json:"site_ref"`
	EventType     string   `json:"event_type"`
	TriggerMethod string   `json:"trigger_method"`
	OccurredAt    string   `json:"occurred_at"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

type providerEventsResponse struct {
	Events []providerEvent `json:"events"`
	Next   string          `json:"next_cursor"`
}

// PullTenantEvents fetches all events recorded for a tenant on one date and
// maps them to ingestion requests. The vendor paginates with a cursor.
func (c *Client) PullTenantEvents(ctx context.Context, tenantRef string, date time.Time) ([]geofence.IngestEventRequest, error) {
	day := date.UTC().Format("2006-01-02")

	var out []geofence.IngestEventRequest
	cursor := ""

	for {
		page, err := c.fetchPage(ctx, tenantRef, day, cursor)
		if err != nil {
			return nil, err
		}

		for _, ev := range page.Events {
			out = append(out, geofence.IngestEventRequest{
				EmployeeID:    ev.EmployeeRef,
				SiteID:        ev.SiteRef,
				Type:          ev.EventType,
				TriggerMethod: ev.TriggerMethod,
				OccurredAt:    ev.OccurredAt,
				Latitude:      ev.Latitude,
				Longitude:     ev.Longitude,
			})
		}

		if page.Next == "" {
			return out, nil
		}
		cursor = page.Next
	}
}

func (c *Client) fetchPage(ctx context.Context, tenantRef, day, cursor string) (*providerEventsResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/tenants/%s/geofence-events", c.baseURL, url.PathEscape(tenantRef))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}

	q := req.URL.Query()
	q.Set("date", day)
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d for tenant %s", resp.StatusCode, tenantRef)
	}

	var page providerEventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	return &page, nil
}
