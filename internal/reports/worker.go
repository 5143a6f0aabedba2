package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mercapi/mercapi-backend/pkg/db/models"
	"github.com/mercapi/mercapi-backend/pkg/logger"
	"github.com/mercapi/mercapi-backend/pkg/metrics"
	"github.com/mercapi/mercapi-backend/pkg/redis"
)

const workerJobName = "report-worker"

// Worker drains the report queue into the reports tables. Malformed
// payloads are logged and dropped so one bad message cannot wedge the
// queue.
type Worker struct {
	queue      redis.Queue
	queueKey   string
	db         *gorm.DB
	metrics    *metrics.JobMetrics
	logg       *logger.Logger
	popTimeout time.Duration
}

func NewWorker(queue redis.Queue, queueKey string, db *gorm.DB, jobMetrics *metrics.JobMetrics, logg *logger.Logger) (*Worker, error) {
	if queue == nil {
		return nil, fmt.Errorf("report queue required")
	}
	if queueKey == "" {
		return nil, fmt.Errorf("report queue key required")
	}
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	return &Worker{
		queue:      queue,
		queueKey:   queueKey,
		db:         db,
		metrics:    jobMetrics,
		logg:       logg,
		popTimeout: 5 * time.Second,
	}, nil
}

// Run consumes the queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.logg != nil {
		w.logg.Info(w.logg.WithField(ctx, "queue", w.queueKey), "report worker started")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := w.queue.Dequeue(ctx, w.queueKey, w.popTimeout)
		if redis.IsEmpty(err) {
			continue
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if w.logg != nil {
				w.logg.Error(ctx, "dequeueing report", err)
			}
			w.metrics.IncFailure(workerJobName)
			continue
		}
		w.handle(ctx, raw)
	}
}

// handle persists one queued report.
func (w *Worker) handle(ctx context.Context, raw string) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		w.drop(ctx, raw, err)
		return
	}

	var err error
	switch env.Kind {
	case kindWrongMatch:
		var report WrongMatchReport
		if err = json.Unmarshal(env.Payload, &report); err == nil {
			err = w.db.WithContext(ctx).Create(&models.MatchReport{
				ID:            env.ID,
				OriginalName:  report.OriginalName,
				OriginalPrice: report.OriginalPrice,
				WrongMatchID:  report.WrongMatchID,
			}).Error
		}
	case kindWrongNutrition:
		var report WrongNutritionReport
		if err = json.Unmarshal(env.Payload, &report); err == nil {
			err = w.db.WithContext(ctx).Create(&models.NutritionReport{
				ID:          env.ID,
				ProductID:   report.ProductID,
				NutritionID: report.NutritionID,
			}).Error
		}
	default:
		w.drop(ctx, raw, fmt.Errorf("unknown report kind %q", env.Kind))
		return
	}

	if err != nil {
		w.drop(ctx, raw, err)
		return
	}
	w.metrics.IncProcessed(workerJobName, env.Kind)
	if w.logg != nil {
		w.logg.Info(w.logg.WithFields(ctx, map[string]any{
			"report_id": env.ID.String(),
			"kind":      env.Kind,
		}), "report persisted")
	}
}

func (w *Worker) drop(ctx context.Context, raw string, err error) {
	w.metrics.IncProcessed(workerJobName, "dropped")
	if w.logg != nil {
		w.logg.Error(w.logg.WithField(ctx, "payload", raw), "dropping report", err)
	}
}
