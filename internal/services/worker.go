package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"practimatch/job-match-api/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(cvID uuid.UUID)
}

type worker struct {
	cvRepo      repositories.CVRepository
	processor   CVProcessor
	jobQueue    chan uuid.UUID
	concurrency int
	wg          sync.WaitGroup
	stopChan    chan struct{}
}

func NewWorker(
	cvRepo repositories.CVRepository,
	processor CVProcessor,
	concurrency int,
) Worker {
	return &worker{
		cvRepo:      cvRepo,
		processor:   processor,
		jobQueue:    make(chan uuid.UUID, 100),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting worker with %d concurrent workers\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	// Pick up CVs left queued across restarts
	w.wg.Add(1)
	go w.pollPendingJobs(ctx)

	log.Println("✅ Worker started successfully")
}

// Stop implements Worker.
func (w *worker) Stop() {
	log.Println("🛑 Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	log.Println("✅ Worker stopped")
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(cvID uuid.UUID) {
	select {
	case w.jobQueue <- cvID:
		log.Printf("📥 CV %s enqueued\n", cvID)
	case <-w.stopChan:
		log.Printf("⚠️  Worker stopped, cannot enqueue CV %s\n", cvID)
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log.Printf("🚀 Worker %d started processing jobs\n", workerID)

	for {
		select {
		case <-w.stopChan:
			log.Printf("👷 Worker #%d stopped\n", workerID)
			return
		case cvID := <-w.jobQueue:
			log.Printf("👷 Worker #%d processing CV %s\n", workerID, cvID)
			if err := w.processor.ProcessCV(ctx, cvID); err != nil {
				log.Printf("❌ Worker #%d failed to process CV %s: %v\n", workerID, cvID, err)
			} else {
				log.Printf("✅ Worker #%d completed CV %s\n", workerID, cvID)
			}
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	log.Println("🔄 Starting pending jobs poller")

	for {
		select {
		case <-w.stopChan:
			log.Println("🔄 Pending jobs poller stopped")
			return
		case <-ticker.C:
			pendingJobs, err := w.cvRepo.FindPendingJobs(10)
			if err != nil {
				log.Printf("⚠️  Failed to fetch pending CVs: %v\n", err)
				continue
			}

			if len(pendingJobs) > 0 {
				log.Printf("📋 Found %d pending CVs\n", len(pendingJobs))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
