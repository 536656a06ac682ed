package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vitalmed-app/clinica-automation/internal/infra/database"
	"github.com/vitalmed-app/clinica-automation/internal/infra/http/handlers"
	appmiddleware "github.com/vitalmed-app/clinica-automation/internal/infra/http/middleware"
	"github.com/vitalmed-app/clinica-automation/internal/infra/integration/openai"
	"github.com/vitalmed-app/clinica-automation/internal/infra/integration/whatsapp"
	"github.com/vitalmed-app/clinica-automation/internal/infra/mail"
	"github.com/vitalmed-app/clinica-automation/internal/infra/queue"
	"github.com/vitalmed-app/clinica-automation/internal/usecase"
)

func main() {
	godotenv.Load()

	// Abertura preguiçosa: se o Postgres estiver fora, o motor segue com
	// as campanhas padrão em memória.
	db, err := sql.Open("pgx", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	var rabbitConn *queue.RabbitMQ
	rabbitConn, err = queue.NewRabbitMQ(
		os.Getenv("RABBITMQ_USER"), os.Getenv("RABBITMQ_PASS"),
		os.Getenv("RABBITMQ_HOST"), os.Getenv("RABBITMQ_PORT"),
	)
	if err != nil {
		log.Printf("⚠️ RabbitMQ indisponível (%v), delays serão retomados só pelo scheduler", err)
	} else {
		defer rabbitConn.Conn.Close()
		defer rabbitConn.Ch.Close()
	}

	// 1. Repositórios
	leadRepo := database.NewLeadRepository(db)
	campaignRepo := database.NewCampaignRepository(db)
	templateRepo := database.NewTemplateRepository(db)
	runRepo := database.NewRunRepository(db)

	// 2. Fontes e Adapters
	campaignSource := usecase.NewStoreCampaignSource(campaignRepo)

	mailPort, _ := strconv.Atoi(os.Getenv("MAIL_PORT"))
	if mailPort == 0 {
		mailPort = 587
	}
	mailSender := mail.NewEmailSender(
		os.Getenv("MAIL_HOST"), mailPort, os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		os.Getenv("MAIL_FROM"),
	)
	whatsappSender := mail.NewWhatsAppSender(whatsapp.NewClient())
	generator := openai.NewClient()

	// 3. Motor
	executor := usecase.NewExecutor(
		templateRepo, campaignSource, mailSender, whatsappSender, generator,
		runRepo, campaignRepo,
	)
	processConversionUC := usecase.NewProcessConversionUseCase(leadRepo, campaignSource, executor)

	// 4. Handlers
	conversionHandler := handlers.NewConversionHandler(processConversionUC)
	campaignHandler := handlers.NewCampaignHandler(campaignSource, campaignRepo)
	templateHandler := handlers.NewTemplateHandler(templateRepo)

	healthHandler := handlers.NewHealthHandler(db, rabbitConnOrNil(rabbitConn))

	// 5. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Post("/conversions", conversionHandler.Handle)
	r.Get("/campaigns", campaignHandler.HandleList)
	r.Post("/campaigns", campaignHandler.HandleSave)
	r.Get("/templates", templateHandler.HandleList)
	r.Post("/templates", templateHandler.HandleSave)
	r.Delete("/templates/{id}", templateHandler.HandleDelete)
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := ":8080"
	log.Printf("🔥 Motor de automação rodando na porta %s", port)
	http.ListenAndServe(port, r)
}

func rabbitConnOrNil(r *queue.RabbitMQ) *amqp.Connection {
	if r == nil {
		return nil
	}
	return r.Conn
}
