package automation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"joinworks/internal/database"
)

func TestFollowUpTemplateFallsBackToDefault(t *testing.T) {
	settings := &database.TenantSettings{}

	template := followUpTemplate(settings)
	assert.Equal(t, "quote_follow_up", template.Key)
	assert.Contains(t, template.Subject, "{{reference}}")
}

func TestFollowUpTemplatePrefersTenantTemplate(t *testing.T) {
	settings := &database.TenantSettings{
		Automation: database.Automation{TemplateKey: "gentle_nudge"},
		EmailTemplates: []database.EmailTemplate{
			{Key: "quote_follow_up", Subject: "ignored"},
			{Key: "gentle_nudge", Subject: "Any thoughts on {{reference}}?", Body: "..."},
		},
	}

	template := followUpTemplate(settings)
	assert.Equal(t, "gentle_nudge", template.Key)
	assert.Equal(t, "Any thoughts on {{reference}}?", template.Subject)
}

func TestRenderTemplate(t *testing.T) {
	settings := &database.TenantSettings{CompanyName: "Oak & Ash Joinery"}
	quote := database.Quote{Reference: "Q-1001", TotalGross: 1234.5}

	got := renderTemplate("Re {{reference}} for {{total}} from {{company_name}}", settings, quote)
	assert.Equal(t, "Re Q-1001 for 1234.50 from Oak & Ash Joinery", got)
}
