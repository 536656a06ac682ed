package worker

import (
	"context"
	"log"
	"time"

	"github.com/vitalmed-app/clinica-automation/internal/infra/queue"
	"github.com/vitalmed-app/clinica-automation/internal/usecase"
)

// RunSchedulerWorker varre os runs suspensos cujo resume_at venceu e publica
// cada um na fila de retomadas. O sleep do WAIT_DELAY vira uma linha no banco
// e sobrevive a restart do processo.
type RunSchedulerWorker struct {
	runs         usecase.RunRepositoryInterface
	producer     queue.ResumptionProducerInterface
	tickInterval time.Duration
	batchSize    int
}

func NewRunSchedulerWorker(runs usecase.RunRepositoryInterface, producer queue.ResumptionProducerInterface) *RunSchedulerWorker {
	return &RunSchedulerWorker{
		runs:         runs,
		producer:     producer,
		tickInterval: 30 * time.Second,
		batchSize:    50,
	}
}

func (w *RunSchedulerWorker) Start(ctx context.Context) {
	log.Printf("🕒 Scheduler de retomadas iniciado (tick %s)", w.tickInterval)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.dispatchDue(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Scheduler de retomadas encerrado")
			return
		case <-ticker.C:
			w.dispatchDue(ctx)
		}
	}
}

func (w *RunSchedulerWorker) dispatchDue(ctx context.Context) {
	runs, err := w.runs.ClaimDue(ctx, w.batchSize)
	if err != nil {
		log.Printf("❌ Erro ao buscar runs vencidos: %v", err)
		return
	}

	for _, run := range runs {
		err := w.producer.PublishResumption(ctx, queue.ResumptionPayload{Run: run})
		if err != nil {
			log.Printf("⚠️ Falha ao publicar retomada do run %s: %v", run.ID, err)
			// Volta para WAITING e tenta no próximo tick
			if relErr := w.runs.Release(ctx, run.ID); relErr != nil {
				log.Printf("⚠️ Falha ao liberar run %s: %v", run.ID, relErr)
			}
			continue
		}
		log.Printf("⏱️ Run %s despachado para retomada (campanha %s)", run.ID, run.CampaignID)
	}

	if len(runs) > 0 {
		log.Printf("✅ %d run(s) despachados", len(runs))
	}
}
