package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vitalmed-app/clinica-automation/internal/infra/database"
	"github.com/vitalmed-app/clinica-automation/internal/infra/integration/openai"
	"github.com/vitalmed-app/clinica-automation/internal/infra/integration/whatsapp"
	"github.com/vitalmed-app/clinica-automation/internal/infra/mail"
	"github.com/vitalmed-app/clinica-automation/internal/infra/queue"
	"github.com/vitalmed-app/clinica-automation/internal/infra/worker"
	"github.com/vitalmed-app/clinica-automation/internal/usecase"
)

// O worker precisa de banco e fila de verdade: sem eles não há retomada
// durável, então aqui a falha de conexão é fatal.
func main() {
	godotenv.Load()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("❌ Banco indisponível: %v", err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		os.Getenv("RABBITMQ_USER"), os.Getenv("RABBITMQ_PASS"),
		os.Getenv("RABBITMQ_HOST"), os.Getenv("RABBITMQ_PORT"),
	)
	if err != nil {
		log.Fatalf("❌ RabbitMQ indisponível: %v", err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	campaignRepo := database.NewCampaignRepository(db)
	templateRepo := database.NewTemplateRepository(db)
	runRepo := database.NewRunRepository(db)

	campaignSource := usecase.NewStoreCampaignSource(campaignRepo)

	mailSender := mail.NewEmailSender(
		os.Getenv("MAIL_HOST"), 587, os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		os.Getenv("MAIL_FROM"),
	)
	whatsappSender := mail.NewWhatsAppSender(whatsapp.NewClient())
	generator := openai.NewClient()

	// O executor do worker também agenda: um run retomado pode suspender de
	// novo num WAIT_DELAY seguinte.
	executor := usecase.NewExecutor(
		templateRepo, campaignSource, mailSender, whatsappSender, generator,
		runRepo, campaignRepo,
	)
	resumeUC := usecase.NewResumeRunUseCase(campaignSource, executor, runRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := worker.NewRunSchedulerWorker(runRepo, queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch))
	go scheduler.Start(ctx)

	consumer := queue.NewWorker(rabbitMQ.Ch, resumeUC)
	go consumer.Start(queue.QueueName)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("⚠️ Encerrando workers...")
	cancel()
}
