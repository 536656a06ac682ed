package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/vitalmed-app/clinica-automation/internal/infra/database"
	"github.com/vitalmed-app/clinica-automation/internal/usecase"
)

// Seeder: cria as tabelas (se não existirem) e grava as campanhas e
// templates de sistema no banco, com os ids reservados deles.
func main() {
	godotenv.Load()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("❌ Banco indisponível: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	schema := []string{
		`CREATE TABLE IF NOT EXISTS saas_leads (
			id UUID PRIMARY KEY,
			name TEXT,
			email TEXT NOT NULL UNIQUE,
			phone TEXT,
			clinic_name TEXT,
			stage TEXT NOT NULL DEFAULT 'novo',
			source TEXT,
			estimated_value NUMERIC NOT NULL DEFAULT 0,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS marketing_campaigns (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			trigger_type TEXT NOT NULL,
			trigger_config JSONB NOT NULL DEFAULT '{}'::jsonb,
			steps JSONB NOT NULL DEFAULT '[]'::jsonb,
			stats JSONB NOT NULL DEFAULT '{}'::jsonb,
			folder TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS marketing_templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			channel TEXT NOT NULL,
			content TEXT NOT NULL,
			subject TEXT,
			is_ai_powered BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS automation_runs (
			id UUID PRIMARY KEY,
			campaign_id TEXT NOT NULL,
			lead JSONB NOT NULL,
			context JSONB NOT NULL DEFAULT '{}'::jsonb,
			attachments JSONB NOT NULL DEFAULT '[]'::jsonb,
			chain JSONB NOT NULL DEFAULT '[]'::jsonb,
			next_step INT NOT NULL,
			resume_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'WAITING',
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_automation_runs_due ON automation_runs (status, resume_at)`,
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("❌ Falha ao criar schema: %v", err)
		}
	}

	campaignRepo := database.NewCampaignRepository(db)
	templateRepo := database.NewTemplateRepository(db)

	for _, campaign := range usecase.SystemCampaigns() {
		c := campaign
		if _, err := campaignRepo.Save(ctx, &c); err != nil {
			log.Fatalf("❌ Falha ao gravar campanha %s: %v", c.ID, err)
		}
		log.Printf("✅ Campanha %q gravada (%s)", c.Name, c.ID)
	}

	for _, template := range usecase.SystemTemplates() {
		t := template
		if _, err := templateRepo.Save(ctx, &t); err != nil {
			log.Fatalf("❌ Falha ao gravar template %s: %v", t.ID, err)
		}
		log.Printf("✅ Template %q gravado (%s)", t.Name, t.ID)
	}

	log.Println("🌱 Seed concluído")
}
