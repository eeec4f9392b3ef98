package mis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client queries the MIS portal source services.
type Client struct {
	httpc          *http.Client
	proposalURL    string
	publicationURL string
}

// NewClient creates a source client for the given endpoint URLs.
// A zero timeout defaults to 30 seconds.
func NewClient(proposalURL, publicationURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpc:          &http.Client{Timeout: timeout},
		proposalURL:    proposalURL,
		publicationURL: publicationURL,
	}
}

// Window selects a date range and optional filters for a source query.
// SubmitDateAfter drives "new" batches, ModificationDate drives "modify"
// batches; PACNumber and PubYear narrow manual re-runs.
type Window struct {
	SubmitDateAfter  string
	SubmitDateBefore string
	ModificationDate string
	PACNumber        string
	PubYear          string
}

// envelope is the common response wrapper of both source services.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Proposals fetches proposal records for the window.
// A non-2xx response aborts the whole batch step: no partial result is
// returned.
func (c *Client) Proposals(ctx context.Context, w Window) ([]Proposal, error) {
	params := url.Values{
		"pac_number":         {w.PACNumber},
		"type_id":            {""},
		"submit_date_after":  {w.SubmitDateAfter},
		"submit_date_before": {w.SubmitDateBefore},
		"modification_date":  {w.ModificationDate},
	}
	var out []Proposal
	if err := c.getJSONData(ctx, c.proposalURL, params, &out); err != nil {
		return nil, fmt.Errorf("query proposals: %w", err)
	}
	return out, nil
}

// PublicationSummaries fetches the publication search result for the window.
// Each summary's JSONRecordURL must be fetched separately via Publication to
// obtain the full record body.
func (c *Client) PublicationSummaries(ctx context.Context, w Window) ([]PublicationSummary, error) {
	params := url.Values{
		"action":                     {"search"},
		"commit":                     {"Search"},
		"controller":                 {"publ_mains"},
		"json_download":              {"true"},
		"search[pub_year]":           {w.PubYear},
		"search[published_only]":     {"N"},
		"search[submit_date_after]":  {w.SubmitDateAfter},
		"search[submit_date_before]": {w.SubmitDateBefore},
		"search[modification_date]":  {w.ModificationDate},
		"utf8":                       {"✓"},
	}
	var out []PublicationSummary
	if err := c.getJSONData(ctx, c.publicationURL, params, &out); err != nil {
		return nil, fmt.Errorf("query publications: %w", err)
	}
	return out, nil
}

// Publication fetches one full publication record by its portal JSON URL.
func (c *Client) Publication(ctx context.Context, recordURL string) (*Publication, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch publication record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch publication record: status %d: %s", resp.StatusCode, body)
	}

	var pub Publication
	if err := json.NewDecoder(resp.Body).Decode(&pub); err != nil {
		return nil, fmt.Errorf("decode publication record: %w", err)
	}
	return &pub, nil
}

// getJSONData performs a GET and decodes the "data" array of the response
// envelope into out.
func (c *Client) getJSONData(ctx context.Context, baseURL string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data array: %w", err)
	}
	return nil
}
