package cognitive

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/metrics"
	"github.com/word-munch/backend/pkg/logger"
)

const recordWriteTimeout = 10 * time.Second

type recordJob struct {
	userID string
	input  RecordInput
}

// Recorder writes records off the request path. Enqueue never blocks the
// caller; when the queue is full the record is dropped and counted.
type Recorder struct {
	service *ProfileService
	jobs    chan recordJob
	wg      sync.WaitGroup
	once    sync.Once
}

func NewRecorder(service *ProfileService, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	r := &Recorder{
		service: service,
		jobs:    make(chan recordJob, queueSize),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Enqueue hands an analysis event to the background worker. Returns false
// when the queue is full and the event was dropped.
func (r *Recorder) Enqueue(userID string, input RecordInput) bool {
	select {
	case r.jobs <- recordJob{userID: userID, input: input}:
		return true
	default:
		metrics.CognitiveRecordsDropped.Inc()
		logger.Warn("Cognitive record dropped, queue full", zap.String("user_id", userID))
		return false
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for job := range r.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), recordWriteTimeout)
		_, err := r.service.RecordAnalysis(ctx, job.userID, job.input)
		cancel()
		if err != nil {
			logger.Error("Background record write failed",
				zap.String("user_id", job.userID),
				zap.Error(err),
			)
		}
	}
}

// Close stops accepting new records and drains the queue.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.jobs)
	})
	r.wg.Wait()
}
