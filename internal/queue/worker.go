package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/stylearchive/catalog-scraper/internal/models"
)

// Extractor is the slice of the extraction engine the worker needs.
type Extractor interface {
	ExtractSingle(ctx context.Context, url string) models.ExtractionResult
}

// Worker drains the task queue in the background. Failed tasks go back on
// the queue until their retry budget is spent.
type Worker struct {
	tasks      Queue
	extractor  Extractor
	maxRetries int
	logger     *slog.Logger
}

func NewWorker(tasks Queue, ext Extractor, maxRetries int) *Worker {
	return &Worker{
		tasks:      tasks,
		extractor:  ext,
		maxRetries: maxRetries,
		logger:     slog.Default().With("component", "worker"),
	}
}

// Run blocks until the context is cancelled or the queue closes.
func (w *Worker) Run(ctx context.Context) error {
	for {
		task, err := w.tasks.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrQueueClosed) {
				return nil
			}
			if errors.Is(err, ErrQueueEmpty) {
				continue
			}
			w.logger.Error("failed to pop task", "error", err)
			continue
		}

		result := w.extractor.ExtractSingle(ctx, task.URL)
		if result.Success {
			w.logger.Info("task extracted",
				"task_id", task.ID, "url", task.URL, "score", result.Score)
			continue
		}

		if task.Retries < w.maxRetries {
			task.Retries++
			if err := w.tasks.Push(ctx, task); err != nil {
				w.logger.Error("failed to requeue task", "error", err, "task_id", task.ID)
				continue
			}
			w.logger.Warn("task failed, requeued",
				"task_id", task.ID, "url", task.URL, "retry", task.Retries)
			continue
		}

		w.logger.Error("task failed permanently",
			"task_id", task.ID, "url", task.URL, "error", result.Error)
	}
}
