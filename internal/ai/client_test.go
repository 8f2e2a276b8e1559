package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProductPlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate-product-plan", r.URL.Path)
		var req PlanRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Oak front door", req.Label)

		json.NewEncoder(w).Encode(ProductPlan{
			Label:     req.Label,
			Rationale: "Standard oak external door set",
			Variables: []PlanVariable{{Name: "width", Unit: "mm", Default: 900}},
		})
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	plan, err := client.GenerateProductPlan(context.Background(), PlanRequest{Label: "Oak front door"})
	require.NoError(t, err)
	assert.Equal(t, "Oak front door", plan.Label)
	assert.Len(t, plan.Variables, 1)
	assert.False(t, strings.HasPrefix(plan.Rationale, "Fallback:"))
}

func TestGenerateProductPlanFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	plan, err := client.GenerateProductPlan(context.Background(), PlanRequest{Label: "Sash window"})
	require.NoError(t, err, "fallback must not surface an error")
	require.NotNil(t, plan)
	assert.True(t, strings.HasPrefix(plan.Rationale, "Fallback:"), "rationale: %q", plan.Rationale)
	assert.Equal(t, "Sash window", plan.Label)
	assert.NotEmpty(t, plan.Variables, "fallback plan carries default dimensions")
}

func TestGenerateProductPlanFallsBackWhenUnreachable(t *testing.T) {
	client := NewClientWithBaseURL("http://127.0.0.1:1")
	plan, err := client.GenerateProductPlan(context.Background(), PlanRequest{Label: "Stable door"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(plan.Rationale, "Fallback:"))
}

func TestEstimateComponentsSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	_, err := client.EstimateComponents(context.Background(), EstimateRequest{})
	assert.Error(t, err, "estimation has no fallback")
}

func TestParseQuotePdf(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/parse-quote-pdf", r.URL.Path)
		assert.Equal(t, "supplier.pdf", r.Header.Get("X-Filename"))

		json.NewEncoder(w).Encode(ParsedPdf{
			Name:      "Supplier quote",
			PageCount: 2,
			Lines: []ParsedLine{
				{Description: "FD30 door blank", Qty: 4, UnitPrice: 120},
			},
		})
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	parsed, err := client.ParseQuotePdf(context.Background(), "supplier.pdf", pdf)
	require.NoError(t, err)
	assert.Equal(t, 2, parsed.PageCount)
	require.Len(t, parsed.Lines, 1)
	assert.Equal(t, 4.0, parsed.Lines[0].Qty)
}
