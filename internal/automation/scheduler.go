// Package automation runs the per-tenant follow-up job: quotes sent and
// unanswered after the configured number of days get a follow-up email
// built from the tenant's template.
package automation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"joinworks/internal/database"
	"joinworks/internal/email"
)

const defaultFollowUpDays = 7

type Scheduler struct {
	db         database.Service
	cron       *cron.Cron
	mailConfig email.Config
	mailReady  bool
}

func NewScheduler(db database.Service) *Scheduler {
	config, ready := email.ConfigFromEnv()
	return &Scheduler{
		db:         db,
		cron:       cron.New(),
		mailConfig: config,
		mailReady:  ready,
	}
}

// Start schedules the daily run. Without SMTP configuration the scheduler
// stays idle.
func (s *Scheduler) Start() {
	if !s.mailReady {
		log.Printf("automation: SMTP not configured, follow-up emails disabled")
		return
	}

	_, err := s.cron.AddFunc("0 8 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.RunFollowUps(ctx)
	})
	if err != nil {
		log.Printf("automation: failed to schedule follow-up job: %v", err)
		return
	}
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunFollowUps processes every tenant with automation enabled once.
func (s *Scheduler) RunFollowUps(ctx context.Context) {
	tenants, err := s.db.ListTenants(ctx)
	if err != nil {
		log.Printf("automation: failed to list tenants: %v", err)
		return
	}

	for _, tenant := range tenants {
		if err := s.runTenant(ctx, tenant); err != nil {
			log.Printf("automation: tenant %s follow-ups failed: %v", tenant.ID, err)
		}
	}
}

func (s *Scheduler) runTenant(ctx context.Context, tenant database.Tenant) error {
	settings, err := s.db.GetTenantSettings(ctx, tenant.ID)
	if err != nil {
		return err
	}
	if !settings.Automation.Enabled {
		return nil
	}

	days := settings.Automation.FollowUpDays
	if days <= 0 {
		days = defaultFollowUpDays
	}

	quotes, err := s.db.ListQuotesForFollowUp(ctx, tenant.ID, days)
	if err != nil {
		return err
	}

	template := followUpTemplate(settings)
	for _, quote := range quotes {
		if quote.ClientEmail == "" {
			continue
		}
		message := email.Message{
			To:      []string{quote.ClientEmail},
			Subject: renderTemplate(template.Subject, settings, quote),
			Body:    renderTemplate(template.Body, settings, quote),
		}
		if err := email.Send(s.mailConfig, message); err != nil {
			log.Printf("automation: follow-up for quote %s failed: %v", quote.Reference, err)
		}
	}
	return nil
}

func followUpTemplate(settings *database.TenantSettings) database.EmailTemplate {
	key := settings.Automation.TemplateKey
	if key == "" {
		key = "quote_follow_up"
	}
	for _, template := range settings.EmailTemplates {
		if template.Key == key {
			return template
		}
	}
	return database.EmailTemplate{
		Key:     key,
		Subject: "Following up on quote {{reference}}",
		Body:    "Hi,\n\nJust checking you received our quote {{reference}}. We're happy to answer any questions.\n\n{{company_name}}",
	}
}

func renderTemplate(text string, settings *database.TenantSettings, quote database.Quote) string {
	replacer := strings.NewReplacer(
		"{{reference}}", quote.Reference,
		"{{company_name}}", settings.CompanyName,
		"{{total}}", fmt.Sprintf("%.2f", quote.TotalGross),
	)
	return replacer.Replace(text)
}
