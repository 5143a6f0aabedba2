package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/mercapi/mercapi-backend/api/responses"
	"github.com/mercapi/mercapi-backend/internal/tickets"
	pkgerrors "github.com/mercapi/mercapi-backend/pkg/errors"
	"github.com/mercapi/mercapi-backend/pkg/logger"
)

const (
	maxTicketUploadBytes = 15 << 20
	ticketFileField      = "file"
	ticketURLField       = "image_url"
)

// TicketService turns a receipt image on disk into stats.
type TicketService interface {
	ProcessImage(ctx context.Context, path string) (*tickets.TicketStats, error)
}

// ProcessTicket accepts a receipt image as a multipart "file" part or an
// "image_url" form value, stages it in a temp file and runs the ticket
// pipeline. The staged file is removed before responding.
func ProcessTicket(svc TicketService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ticket service unavailable"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxTicketUploadBytes)
		if err := r.ParseMultipartForm(maxTicketUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart request"))
			return
		}

		path, err := stageTicketImage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer os.Remove(path)

		stats, err := svc.ProcessImage(r.Context(), path)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func stageTicketImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile(ticketFileField)
	if err == nil {
		defer file.Close()
		return writeTempImage(file, header.Filename)
	}

	rawURL := strings.TrimSpace(r.FormValue(ticketURLField))
	if rawURL == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "either file or image_url is required")
	}
	return downloadTicketImage(r.Context(), rawURL)
}

func writeTempImage(src io.Reader, name string) (string, error) {
	pattern := "mercapi-ticket-*.jpg"
	if strings.HasSuffix(strings.ToLower(name), ".png") {
		pattern = "mercapi-ticket-*.png"
	}
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "staging receipt image")
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "staging receipt image")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "staging receipt image")
	}
	return tmp.Name(), nil
}

func downloadTicketImage(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image url")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "downloading receipt image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("receipt image download returned status %d", resp.StatusCode))
	}
	return writeTempImage(io.LimitReader(resp.Body, maxTicketUploadBytes), rawURL)
}
