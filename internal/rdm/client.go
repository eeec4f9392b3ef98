// Package rdm talks to the target curated-records repository (an InvenioRDM
// records API) and drives the create/version lifecycle of a deposit.
//
// The package has two layers: Client, a thin bearer-token JSON client with
// one method per API step, and Upserter, the state machine that sequences
// those steps idempotently against a record's natural key.
package rdm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Stage names one step of the upsert protocol. Failed outcomes carry the
// stage at which processing stopped.
type Stage string

const (
	StageLookup  Stage = "lookup"
	StageCreate  Stage = "create"
	StageReview  Stage = "review"
	StageSubmit  Stage = "submit"
	StageAccept  Stage = "accept"
	StageVersion Stage = "version"
	StageUpdate  Stage = "update"
	StagePublish Stage = "publish"
)

// StepError is a repository response outside the expected status set for a
// protocol step. It carries the full response context for logging.
type StepError struct {
	Stage  Stage
	URL    string
	Status int
	Body   string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d from %s: %s", e.Stage, e.Status, e.URL, e.Body)
}

// Client is a bearer-token JSON client for the repository API.
type Client struct {
	httpc   *http.Client
	baseURL string
	token   string
}

// NewClient creates a repository client. baseURL is the host root, without
// the /api prefix. A zero timeout defaults to 30 seconds.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// SearchHit is one existing record matched by a natural-key lookup.
type SearchHit struct {
	ID string `json:"id"`
}

// searchResponse is the subset of the search envelope the upsert needs.
type searchResponse struct {
	Hits struct {
		Total int         `json:"total"`
		Hits  []SearchHit `json:"hits"`
	} `json:"hits"`
}

// Search looks up records by natural key. keyField is the namespaced custom
// field ("rdm:pubID"); the colon is escaped for the query parser.
func (c *Client) Search(ctx context.Context, keyField, key string) (total int, first SearchHit, err error) {
	q := fmt.Sprintf(`custom_fields.%s:%q`, strings.Replace(keyField, ":", `\:`, 1), key)
	u := fmt.Sprintf("%s/api/records?q=%s&l=list&p=1&s=10&sort=bestmatch", c.baseURL, url.QueryEscape(q))

	body, _, err := c.do(ctx, http.MethodGet, u, nil, StageLookup, http.StatusOK)
	if err != nil {
		return 0, SearchHit{}, err
	}
	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return 0, SearchHit{}, fmt.Errorf("lookup: decode search response: %w", err)
	}
	if len(sr.Hits.Hits) > 0 {
		first = sr.Hits.Hits[0]
	}
	return sr.Hits.Total, first, nil
}

// actionLinks is the links section of draft/review responses.
type actionLinks struct {
	Links struct {
		Actions map[string]string `json:"actions"`
	} `json:"links"`
}

// CreateDraft creates a new draft record. Expects 201, returns the draft id.
func (c *Client) CreateDraft(ctx context.Context, payload any) (string, error) {
	u := c.baseURL + "/api/records"
	body, _, err := c.do(ctx, http.MethodPost, u, payload, StageCreate, http.StatusCreated)
	if err != nil {
		return "", err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("create: decode response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create: response carries no record id")
	}
	return created.ID, nil
}

// Review opens a community review on the draft. Expects 200, returns the
// submit action URL.
func (c *Client) Review(ctx context.Context, recordID, communityID string) (string, error) {
	u := fmt.Sprintf("%s/api/records/%s/draft/review", c.baseURL, recordID)
	payload := map[string]any{
		"receiver": map[string]string{"community": communityID},
		"type":     "community-submission",
	}
	body, _, err := c.do(ctx, http.MethodPut, u, payload, StageReview, http.StatusOK)
	if err != nil {
		return "", err
	}
	return actionURL(body, StageReview, "submit")
}

// SubmitReview submits the draft for review via the action URL returned by
// Review. Expects 200 or 202, returns the accept action URL.
func (c *Client) SubmitReview(ctx context.Context, submitURL string) (string, error) {
	payload := map[string]any{
		"payload": map[string]string{
			"content": "Thank you in advance for the review.",
			"format":  "html",
		},
	}
	body, _, err := c.do(ctx, http.MethodPost, submitURL, payload, StageSubmit, http.StatusOK, http.StatusAccepted)
	if err != nil {
		return "", err
	}
	return actionURL(body, StageSubmit, "accept")
}

// Accept accepts the submission into the community. Expects 200 or 202.
func (c *Client) Accept(ctx context.Context, acceptURL string) error {
	payload := map[string]any{
		"payload": map[string]string{"content": "You are in!", "format": "html"},
	}
	_, _, err := c.do(ctx, http.MethodPost, acceptURL, payload, StageAccept, http.StatusOK, http.StatusAccepted)
	return err
}

// VersionDraft is the draft created by opening a new version: the full draft
// representation plus the self and publish URLs extracted from its links.
type VersionDraft struct {
	ID      string
	Self    string
	Publish string

	// Body is the draft as returned by the API; the merge step rewrites
	// its metadata and custom_fields in place before the update.
	Body map[string]any
}

// NewVersion opens a new version of a published record. Expects 200 or 201.
func (c *Client) NewVersion(ctx context.Context, recordID string) (*VersionDraft, error) {
	u := fmt.Sprintf("%s/api/records/%s/versions", c.baseURL, recordID)
	body, _, err := c.do(ctx, http.MethodPost, u, map[string]any{}, StageVersion, http.StatusOK, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	var draft map[string]any
	if err := json.Unmarshal(body, &draft); err != nil {
		return nil, fmt.Errorf("version: decode draft: %w", err)
	}
	vd := &VersionDraft{Body: draft}
	vd.ID, _ = draft["id"].(string)
	if links, ok := draft["links"].(map[string]any); ok {
		vd.Self, _ = links["self"].(string)
		vd.Publish, _ = links["publish"].(string)
	}
	if vd.Self == "" {
		return nil, fmt.Errorf("version: draft carries no self link")
	}
	return vd, nil
}

// UpdateDraft PUTs the merged draft body to its self URL. Expects 200 and
// returns the publish URL (preferring the updated draft's links over the one
// captured at version time).
func (c *Client) UpdateDraft(ctx context.Context, draft *VersionDraft) (string, error) {
	body, _, err := c.do(ctx, http.MethodPut, draft.Self, draft.Body, StageUpdate, http.StatusOK)
	if err != nil {
		return "", err
	}
	var updated struct {
		Links struct {
			Publish string `json:"publish"`
		} `json:"links"`
	}
	if err := json.Unmarshal(body, &updated); err == nil && updated.Links.Publish != "" {
		return updated.Links.Publish, nil
	}
	if draft.Publish == "" {
		return "", fmt.Errorf("update: no publish link available")
	}
	return draft.Publish, nil
}

// Publish publishes the draft via its publish URL. Expects 202.
func (c *Client) Publish(ctx context.Context, publishURL string) error {
	_, _, err := c.do(ctx, http.MethodPost, publishURL, nil, StagePublish, http.StatusAccepted)
	return err
}

// actionURL extracts links.actions[name] from a response body.
func actionURL(body []byte, stage Stage, name string) (string, error) {
	var al actionLinks
	if err := json.Unmarshal(body, &al); err != nil {
		return "", fmt.Errorf("%s: decode links: %w", stage, err)
	}
	u := al.Links.Actions[name]
	if u == "" {
		return "", fmt.Errorf("%s: response carries no %s action URL", stage, name)
	}
	return u, nil
}

// do performs one protocol step. A response status outside want yields a
// *StepError with the full response context; transport errors are wrapped
// with the stage name.
func (c *Client) do(ctx context.Context, method, u string, payload any, stage Stage, want ...int) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: encode payload: %w", stage, err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: build request: %w", stage, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", stage, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s: read response: %w", stage, err)
	}
	for _, w := range want {
		if resp.StatusCode == w {
			return body, resp.StatusCode, nil
		}
	}
	return nil, resp.StatusCode, &StepError{
		Stage:  stage,
		URL:    u,
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(body)),
	}
}
