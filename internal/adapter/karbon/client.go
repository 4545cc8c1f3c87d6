// Package karbon implements a minimal paginating client for the Karbon
// OData-flavored REST API. The client knows nothing about the local schema;
// it returns raw vendor records for the field mapper to normalize.
package karbon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mottahub/sync-backend/internal/config"
)

// Collection endpoint paths.
const (
	PathContacts      = "/Contacts"
	PathOrganizations = "/Organizations"
	PathClientGroups  = "/ClientGroups"
	PathWorkItems     = "/WorkItems"
	PathInvoices      = "/Invoices"
)

// Client is a stateless Karbon API client. All fetches aggregate the full
// paginated result in memory; a failed page aborts the whole fetch rather
// than silently returning a truncated set. The client does not retry —
// the caller decides whether to rerun the operation.
type Client struct {
	baseURL       string
	bearerToken   string
	accessKey     string
	pageSize      int
	subFetchBatch int
	subFetchPause time.Duration
	httpClient    *http.Client
	log           *slog.Logger
}

// NewClient creates a Client from KarbonConfig.
func NewClient(cfg config.KarbonConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:       cfg.BaseURL,
		bearerToken:   cfg.BearerToken,
		accessKey:     cfg.AccessKey,
		pageSize:      cfg.PageSize,
		subFetchBatch: cfg.SubFetchBatch,
		subFetchPause: cfg.SubFetchPause,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		log:           logger.With("adapter", "karbon"),
	}
}

// get performs one authenticated GET and decodes the body into dst.
func (c *Client) get(ctx context.Context, reqURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("karbon: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("AccessKey", c.accessKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("karbon: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the error message; vendors put
		// useful detail in 4xx payloads.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("karbon: unexpected status %d: %s", resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("karbon: read body: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("karbon: decode json: %w", err)
	}
	return nil
}

// fetchPages follows @odata.nextLink until exhausted, aggregating all raw
// records. Any failed page surfaces as an error for the whole fetch.
func (c *Client) fetchPages(ctx context.Context, entityPath string, opts ListOptions) ([]json.RawMessage, error) {
	if opts.Top == 0 {
		opts.Top = c.pageSize
	}

	reqURL := c.baseURL + entityPath
	if q := opts.query(); len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	var records []json.RawMessage
	pages := 0
	for reqURL != "" {
		var env envelope
		if err := c.get(ctx, reqURL, &env); err != nil {
			return nil, fmt.Errorf("%s page %d: %w", entityPath, pages+1, err)
		}
		records = append(records, env.Value...)
		pages++
		reqURL = env.NextLink
	}

	c.log.DebugContext(ctx, "karbon fetch",
		slog.String("path", entityPath),
		slog.Int("pages", pages),
		slog.Int("records", len(records)),
	)
	return records, nil
}

// fetchAll fetches and decodes a whole collection.
func fetchAll[T any](ctx context.Context, c *Client, entityPath string, opts ListOptions) ([]T, error) {
	raw, err := c.fetchPages(ctx, entityPath, opts)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, msg := range raw {
		var rec T
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("karbon: decode %s record: %w", entityPath, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// fetchOne fetches and decodes a single entity by key: GET /Entities('key').
func fetchOne[T any](ctx context.Context, c *Client, entityPath, key, expand string) (*T, error) {
	reqURL := fmt.Sprintf("%s%s('%s')", c.baseURL, entityPath, url.PathEscape(key))
	if expand != "" {
		reqURL += "?$expand=" + url.QueryEscape(expand)
	}
	var rec T
	if err := c.get(ctx, reqURL, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FetchContacts returns all contacts matching opts.
func (c *Client) FetchContacts(ctx context.Context, opts ListOptions) ([]Contact, error) {
	return fetchAll[Contact](ctx, c, PathContacts, opts)
}

// FetchOrganizations returns all organizations matching opts.
func (c *Client) FetchOrganizations(ctx context.Context, opts ListOptions) ([]Organization, error) {
	return fetchAll[Organization](ctx, c, PathOrganizations, opts)
}

// FetchClientGroups returns all client groups matching opts.
func (c *Client) FetchClientGroups(ctx context.Context, opts ListOptions) ([]ClientGroup, error) {
	return fetchAll[ClientGroup](ctx, c, PathClientGroups, opts)
}

// FetchWorkItems returns all work items matching opts.
func (c *Client) FetchWorkItems(ctx context.Context, opts ListOptions) ([]WorkItem, error) {
	return fetchAll[WorkItem](ctx, c, PathWorkItems, opts)
}

// FetchInvoices returns all invoices matching opts.
func (c *Client) FetchInvoices(ctx context.Context, opts ListOptions) ([]Invoice, error) {
	return fetchAll[Invoice](ctx, c, PathInvoices, opts)
}

// FetchContact returns a single contact by key (webhook path).
func (c *Client) FetchContact(ctx context.Context, key string) (*Contact, error) {
	return fetchOne[Contact](ctx, c, PathContacts, key, "BusinessCards")
}

// FetchOrganization returns a single organization by key (webhook path).
func (c *Client) FetchOrganization(ctx context.Context, key string) (*Organization, error) {
	return fetchOne[Organization](ctx, c, PathOrganizations, key, "BusinessCards,RegistrationNumbers")
}

// FetchWorkItem returns a single work item by key (webhook path).
func (c *Client) FetchWorkItem(ctx context.Context, key string) (*WorkItem, error) {
	return fetchOne[WorkItem](ctx, c, PathWorkItems, key, "")
}

// SubFetchResult aggregates a throttled nested-resource fetch. A failed
// sub-fetch is recorded and skipped, not fatal to the whole run.
type SubFetchResult[T any] struct {
	ByWorkItem map[string][]T
	Errors     []string
}

// FetchWorkItemTasks fetches the task list of each work item in throttled
// batches (SubFetchBatch items, SubFetchPause between batches).
func (c *Client) FetchWorkItemTasks(ctx context.Context, workItemKeys []string) (SubFetchResult[Task], error) {
	return subFetch[Task](ctx, c, workItemKeys, "Tasks")
}

// FetchWorkItemNotes fetches the timeline notes of each work item in
// throttled batches.
func (c *Client) FetchWorkItemNotes(ctx context.Context, workItemKeys []string) (SubFetchResult[Note], error) {
	return subFetch[Note](ctx, c, workItemKeys, "Notes")
}

func subFetch[T any](ctx context.Context, c *Client, workItemKeys []string, subPath string) (SubFetchResult[T], error) {
	result := SubFetchResult[T]{ByWorkItem: make(map[string][]T, len(workItemKeys))}

	for i := 0; i < len(workItemKeys); i += c.subFetchBatch {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := min(i+c.subFetchBatch, len(workItemKeys))
		for _, key := range workItemKeys[i:end] {
			path := fmt.Sprintf("%s('%s')/%s", PathWorkItems, url.PathEscape(key), subPath)
			items, err := fetchAll[T](ctx, c, path, ListOptions{})
			if err != nil {
				c.log.WarnContext(ctx, "sub-fetch failed",
					slog.String("work_item", key),
					slog.String("sub", subPath),
					slog.String("error", err.Error()),
				)
				result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", key, subPath, err))
				continue
			}
			result.ByWorkItem[key] = items
		}

		if end < len(workItemKeys) {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(c.subFetchPause):
			}
		}
	}

	return result, nil
}
