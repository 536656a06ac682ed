package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

// RunResumer é implementado pelo usecase de retomada de runs.
type RunResumer interface {
	Execute(ctx context.Context, run entity.AutomationRun) error
}

type Worker struct {
	Channel *amqp.Channel
	Resumer RunResumer
}

func NewWorker(ch *amqp.Channel, resumer RunResumer) *Worker {
	return &Worker{
		Channel: ch,
		Resumer: resumer,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName, // fila
		"",        // consumer
		false,     // auto-ack (manual é mais seguro)
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		log.Fatalf("❌ Falha ao registrar consumidor RabbitMQ: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload ResumptionPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("❌ [WORKER] JSON inválido: %s", err)
				// Mensagem podre. Rejeita sem requeue para não travar a fila.
				d.Nack(false, false)
				continue
			}

			log.Printf("📥 [WORKER] Retomada recebida: run=%s campanha=%s", payload.Run.ID, payload.Run.CampaignID)

			if err := w.Resumer.Execute(context.Background(), payload.Run); err != nil {
				log.Printf("❌ [WORKER] Erro ao retomar run %s: %s", payload.Run.ID, err)
				// O run já foi marcado como FAILED; manda pra DLQ para inspeção.
				d.Nack(false, false)
			} else {
				d.Ack(false)
			}
		}
	}()

	log.Printf(" [*] Worker de retomadas aguardando na fila '%s'", queueName)
	<-forever
}
