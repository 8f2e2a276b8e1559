// Package ai wraps the external estimation service. Plan generation never
// fails the caller: when the service is down the client degrades to a
// deterministic local plan so configuration can continue.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient() *Client {
	baseURL := os.Getenv("AI_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8100"
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithBaseURL is for tests pointing at a stub server.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type PlanRequest struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
}

type ProductPlan struct {
	Label     string         `json:"label"`
	Rationale string         `json:"rationale"`
	Variables []PlanVariable `json:"variables"`
	// SceneConfig drives the 3D configurator; opaque to this service.
	SceneConfig json.RawMessage `json:"scene_config,omitempty"`
}

type PlanVariable struct {
	Name    string  `json:"name"`
	Unit    string  `json:"unit"`
	Default float64 `json:"default"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// GenerateProductPlan asks the service for a component plan. Any transport
// or upstream failure yields the fallback plan and a nil error.
func (c *Client) GenerateProductPlan(ctx context.Context, req PlanRequest) (*ProductPlan, error) {
	plan := &ProductPlan{}
	err := c.post(ctx, "/generate-product-plan", req, plan)
	if err != nil {
		return FallbackPlan(req), nil
	}
	return plan, nil
}

// FallbackPlan builds the deterministic default used when generation fails:
// a parametric door leaf sized from standard UK joinery dimensions.
func FallbackPlan(req PlanRequest) *ProductPlan {
	label := req.Label
	if label == "" {
		label = "Custom product"
	}
	return &ProductPlan{
		Label:     label,
		Rationale: fmt.Sprintf("Fallback: generated default plan for %q; the estimation service was unavailable.", label),
		Variables: []PlanVariable{
			{Name: "width", Unit: "mm", Default: 838, Min: 400, Max: 1200},
			{Name: "height", Unit: "mm", Default: 1981, Min: 1500, Max: 2400},
			{Name: "thickness", Unit: "mm", Default: 44, Min: 35, Max: 54},
		},
	}
}

type EstimateRequest struct {
	Plan       ProductPlan        `json:"plan"`
	Variables  map[string]float64 `json:"variables"`
	ProductRef string             `json:"product_ref,omitempty"`
}

type ComponentEstimate struct {
	Components []EstimatedComponent `json:"components"`
	TotalCost  float64              `json:"total_cost"`
}

type EstimatedComponent struct {
	Name     string  `json:"name"`
	Material string  `json:"material"`
	Qty      float64 `json:"qty"`
	Unit     string  `json:"unit"`
	Cost     float64 `json:"cost"`
}

// EstimateComponents has no fallback; upstream failures surface to the
// caller.
func (c *Client) EstimateComponents(ctx context.Context, req EstimateRequest) (*ComponentEstimate, error) {
	estimate := &ComponentEstimate{}
	if err := c.post(ctx, "/estimate-components", req, estimate); err != nil {
		return nil, err
	}
	return estimate, nil
}

type EnrichRequest struct {
	CompanyName string `json:"company_name"`
	Website     string `json:"website"`
}

type EnrichResult struct {
	TradingName    string   `json:"trading_name"`
	Phone          string   `json:"phone"`
	Address        string   `json:"address"`
	Certifications []string `json:"certifications"`
}

func (c *Client) EnrichProfile(ctx context.Context, req EnrichRequest) (*EnrichResult, error) {
	result := &EnrichResult{}
	if err := c.post(ctx, "/enrich-profile", req, result); err != nil {
		return nil, err
	}
	return result, nil
}

type ParsedPdf struct {
	Name        string          `json:"name"`
	PageCount   int             `json:"page_count"`
	Annotations json.RawMessage `json:"annotations"`
	Lines       []ParsedLine    `json:"lines"`
}

type ParsedLine struct {
	Description string          `json:"description"`
	Qty         float64         `json:"qty"`
	UnitPrice   float64         `json:"unit_price"`
	Attributes  json.RawMessage `json:"attributes"`
}

// ParseQuotePdf sends raw PDF bytes for layout extraction.
func (c *Client) ParseQuotePdf(ctx context.Context, filename string, pdf []byte) (*ParsedPdf, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/parse-quote-pdf", bytes.NewReader(pdf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("X-Filename", filename)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdf parse request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("pdf parse service returned %d: %s", resp.StatusCode, body)
	}

	parsed := &ParsedPdf{}
	if err := json.NewDecoder(resp.Body).Decode(parsed); err != nil {
		return nil, fmt.Errorf("bad pdf parse response: %w", err)
	}
	return parsed, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ai service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ai service returned %d: %s", resp.StatusCode, respBody)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("bad ai service response: %w", err)
	}
	return nil
}
