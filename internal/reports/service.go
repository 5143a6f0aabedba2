// Package reports collects user feedback about wrong matches and wrong
// nutrition facts. Submissions go onto a redis list and are persisted
// out of band by the report worker.
package reports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mercapi/mercapi-backend/pkg/logger"
	"github.com/mercapi/mercapi-backend/pkg/redis"
)

const (
	kindWrongMatch     = "wrong_match"
	kindWrongNutrition = "wrong_nutrition"
)

// WrongMatchReport is a user flagging a bad receipt-item match.
type WrongMatchReport struct {
	OriginalName  string  `json:"original_name" validate:"required"`
	OriginalPrice float64 `json:"original_price" validate:"required,gt=0"`
	WrongMatchID  string  `json:"wrong_match_id" validate:"required"`
}

// WrongNutritionReport is a user flagging bad nutrition facts.
type WrongNutritionReport struct {
	ProductID   string `json:"product_id" validate:"required"`
	NutritionID int64  `json:"nutrition_id" validate:"required"`
}

// envelope is the queue wire format. Kind selects the payload type on
// the consuming side.
type envelope struct {
	ID      uuid.UUID       `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Service enqueues report submissions.
type Service struct {
	queue    redis.Queue
	queueKey string
	logg     *logger.Logger
}

func NewService(queue redis.Queue, queueKey string, logg *logger.Logger) (*Service, error) {
	if queue == nil {
		return nil, fmt.Errorf("report queue required")
	}
	if queueKey == "" {
		return nil, fmt.Errorf("report queue key required")
	}
	return &Service{queue: queue, queueKey: queueKey, logg: logg}, nil
}

// SubmitWrongMatch queues a wrong-match report and returns its id.
func (s *Service) SubmitWrongMatch(ctx context.Context, report WrongMatchReport) (uuid.UUID, error) {
	return s.submit(ctx, kindWrongMatch, report)
}

// SubmitWrongNutrition queues a wrong-nutrition report and returns its id.
func (s *Service) SubmitWrongNutrition(ctx context.Context, report WrongNutritionReport) (uuid.UUID, error) {
	return s.submit(ctx, kindWrongNutrition, report)
}

func (s *Service) submit(ctx context.Context, kind string, payload any) (uuid.UUID, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding %s report: %w", kind, err)
	}
	env := envelope{ID: uuid.New(), Kind: kind, Payload: raw}
	wire, err := json.Marshal(env)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding %s envelope: %w", kind, err)
	}
	if err := s.queue.Enqueue(ctx, s.queueKey, string(wire)); err != nil {
		return uuid.Nil, fmt.Errorf("queueing %s report: %w", kind, err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"report_id": env.ID.String(),
			"kind":      kind,
		}), "report queued")
	}
	return env.ID, nil
}
