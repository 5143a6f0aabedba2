package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mercapi/mercapi-backend/api/responses"
	"github.com/mercapi/mercapi-backend/api/validators"
	"github.com/mercapi/mercapi-backend/internal/reports"
	pkgerrors "github.com/mercapi/mercapi-backend/pkg/errors"
	"github.com/mercapi/mercapi-backend/pkg/logger"
)

// ReportService queues user feedback for out-of-band persistence.
type ReportService interface {
	SubmitWrongMatch(ctx context.Context, report reports.WrongMatchReport) (uuid.UUID, error)
	SubmitWrongNutrition(ctx context.Context, report reports.WrongNutritionReport) (uuid.UUID, error)
}

type reportAccepted struct {
	ID string `json:"id"`
}

// SubmitWrongMatch queues a wrong-match report.
func SubmitWrongMatch(svc ReportService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		var report reports.WrongMatchReport
		if err := validators.DecodeJSONBody(r, &report); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := svc.SubmitWrongMatch(r.Context(), report)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, reportAccepted{ID: id.String()})
	}
}

// SubmitWrongNutrition queues a wrong-nutrition report.
func SubmitWrongNutrition(svc ReportService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		var report reports.WrongNutritionReport
		if err := validators.DecodeJSONBody(r, &report); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := svc.SubmitWrongNutrition(r.Context(), report)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, reportAccepted{ID: id.String()})
	}
}
