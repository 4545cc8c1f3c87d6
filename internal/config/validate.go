package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Karbon.BearerToken == "" || c.Karbon.AccessKey == "" {
		return fmt.Errorf("karbon: both bearer_token and access_key must be set")
	}
	if c.Karbon.PageSize <= 0 || c.Karbon.PageSize > 1000 {
		return fmt.Errorf("karbon: page_size must be in (0, 1000] (got %d)", c.Karbon.PageSize)
	}
	if c.Karbon.SubFetchBatch <= 0 {
		return fmt.Errorf("karbon: sub_fetch_batch must be > 0 (got %d)", c.Karbon.SubFetchBatch)
	}
	if c.Sync.ChunkSize <= 0 {
		return fmt.Errorf("sync: chunk_size must be > 0 (got %d)", c.Sync.ChunkSize)
	}
	if c.Sync.RunTimeout <= 0 {
		return fmt.Errorf("sync: run_timeout must be > 0 (got %v)", c.Sync.RunTimeout)
	}
	if c.Calendly.Token != "" && c.Calendly.OrganizationURI == "" {
		return fmt.Errorf("calendly: organization_uri is required when a token is configured")
	}
	return nil
}
