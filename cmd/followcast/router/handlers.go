package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/HatiCode/followcast/pkg/analytics"
	"github.com/HatiCode/followcast/pkg/changelog"
	"github.com/HatiCode/followcast/pkg/export"
	"github.com/HatiCode/followcast/pkg/httpx"
	"github.com/HatiCode/followcast/pkg/storage"
	"github.com/HatiCode/followcast/pkg/tracker"
	"github.com/HatiCode/followcast/pkg/validation"
)

const (
	defaultPageLimit = 50
	maxUploadBytes   = 10 << 20
)

var errInvalidJSON = errors.New("request body must be valid JSON")

type handlers struct {
	svc    *tracker.Service
	notes  []changelog.Entry
	logger *slog.Logger
}

type entryResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type pageResponse struct {
	Entries []entryResponse `json:"entries"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type createEntryRequest struct {
	Date  string `json:"date" validate:"required,isodate"`
	Count *int   `json:"count" validate:"required,min=0"`
}

type updateEntryRequest struct {
	Count   *int   `json:"count" validate:"required,min=0"`
	NewDate string `json:"new_date" validate:"omitempty,isodate"`
}

func toEntries(samples []storage.Sample) []entryResponse {
	out := make([]entryResponse, len(samples))
	for i, s := range samples {
		out[i] = entryResponse{Date: s.Key(), Count: s.Count}
	}
	return out
}

func (h *handlers) listEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("page") && !q.Has("limit") {
		samples, err := h.svc.List(r.Context())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		_ = httpx.WriteJSON(w, http.StatusOK, toEntries(samples))
		return
	}

	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := intParam(q.Get("limit"), defaultPageLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	samples, total, err := h.svc.Page(r.Context(), page, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, pageResponse{
		Entries: toEntries(samples),
		Total:   total,
		Page:    page,
		Limit:   limit,
	})
}

func (h *handlers) addEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	smp, err := storage.NewSample(req.Date, *req.Count)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Add(r.Context(), smp); err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, messageResponse{Message: "Entry added successfully."})
}

func (h *handlers) updateEntry(w http.ResponseWriter, r *http.Request) {
	date, err := storage.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateEntryRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	newDate := date
	if req.NewDate != "" {
		if newDate, err = storage.ParseDate(req.NewDate); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	if err := h.svc.Update(r.Context(), date, newDate, *req.Count); err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Entry updated successfully"})
}

func (h *handlers) deleteEntry(w http.ResponseWriter, r *http.Request) {
	date, err := storage.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), date); err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Entry deleted successfully"})
}

func (h *handlers) clearEntries(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "All entries deleted successfully!"})
}

func (h *handlers) alert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.svc.Alert(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, alert)
}

func (h *handlers) detailedAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.svc.DetailedAlert(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, alert)
}

func (h *handlers) insight(w http.ResponseWriter, r *http.Request) {
	in, err := h.svc.Insight(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, in)
}

func (h *handlers) forecast(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, r, fmt.Errorf("%w: days must be a positive integer, got %q", analytics.ErrInvalidHorizon, raw))
			return
		}
		days = n
	}

	points, err := h.svc.Forecast(r.Context(), days)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, points)
}

func (h *handlers) download(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), &buf); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// upload accepts either a raw CSV body or a multipart form with a "file" part.
func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var body io.Reader = r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: missing file part: %v", export.ErrMalformed, err))
			return
		}
		defer file.Close()
		body = file
	}

	n, err := h.svc.Import(r.Context(), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, map[string]int{"imported": n})
}

func (h *handlers) changelog(w http.ResponseWriter, r *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, h.notes)
}

// writeError maps domain errors onto status codes and error codes.
func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     *validation.Error
		tooLarge *http.MaxBytesError
	)

	switch {
	case errors.As(err, &tooLarge):
		httpx.WriteErrorCode(w, http.StatusRequestEntityTooLarge, "invalid_request", err)
	case errors.Is(err, storage.ErrDuplicateKey):
		httpx.WriteErrorCode(w, http.StatusBadRequest, "duplicate_key", err)
	case errors.Is(err, storage.ErrNotFound):
		httpx.WriteErrorCode(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, analytics.ErrInsufficientData):
		httpx.WriteErrorCode(w, http.StatusBadRequest, "insufficient_data", err)
	case errors.Is(err, storage.ErrUnavailable):
		h.logger.Error("storage unavailable", "method", r.Method, "path", r.URL.Path, "error", err)
		httpx.WriteErrorCode(w, http.StatusInternalServerError, "storage_unavailable", storage.ErrUnavailable)
	case errors.As(err, &verr),
		errors.Is(err, errInvalidJSON),
		errors.Is(err, storage.ErrInvalidSample),
		errors.Is(err, storage.ErrInvalidPage),
		errors.Is(err, analytics.ErrInvalidHorizon),
		errors.Is(err, export.ErrMalformed):
		httpx.WriteErrorCode(w, http.StatusBadRequest, "invalid_request", err)
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	return validation.Struct(v)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", storage.ErrInvalidPage, raw)
	}
	return n, nil
}
