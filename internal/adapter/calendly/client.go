// Package calendly implements a minimal paginating client for the Calendly
// REST API (token-based pagination, bearer auth).
package calendly

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mottahub/sync-backend/internal/config"
)

// Client is a stateless Calendly API client. Enabled reports whether
// credentials are configured; a disabled client fetches nothing.
type Client struct {
	baseURL    string
	token      string
	orgURI     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client from CalendlyConfig.
func NewClient(cfg config.CalendlyConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		orgURI:     cfg.OrganizationURI,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.With("adapter", "calendly"),
	}
}

// Enabled reports whether the client has credentials configured.
func (c *Client) Enabled() bool { return c.token != "" }

func (c *Client) get(ctx context.Context, reqURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("calendly: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendly: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("calendly: unexpected status %d: %s", resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("calendly: read body: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("calendly: decode json: %w", err)
	}
	return nil
}

// FetchScheduledEvents returns all scheduled events for the configured
// organization, following page tokens until exhausted. A failed page aborts
// the whole fetch.
func (c *Client) FetchScheduledEvents(ctx context.Context) ([]Event, error) {
	q := url.Values{}
	q.Set("organization", c.orgURI)
	q.Set("count", "100")

	var events []Event
	pageToken := ""
	for {
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}
		var page collection[Event]
		if err := c.get(ctx, c.baseURL+"/scheduled_events?"+q.Encode(), &page); err != nil {
			return nil, err
		}
		events = append(events, page.Collection...)

		if page.Pagination.NextPageToken == nil || *page.Pagination.NextPageToken == "" {
			break
		}
		pageToken = *page.Pagination.NextPageToken
	}

	c.log.DebugContext(ctx, "calendly fetch", slog.Int("events", len(events)))
	return events, nil
}

// FetchInvitees returns the invitees of one scheduled event. eventURI is the
// full event URI as returned by FetchScheduledEvents.
func (c *Client) FetchInvitees(ctx context.Context, eventURI string) ([]Invitee, error) {
	// The invitee listing lives under the event's own URI.
	reqURL := strings.TrimSuffix(eventURI, "/") + "/invitees"
	var page collection[Invitee]
	if err := c.get(ctx, reqURL, &page); err != nil {
		return nil, err
	}
	return page.Collection, nil
}
