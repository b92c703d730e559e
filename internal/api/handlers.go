package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"battery_sizer/internal/catalog"
	"battery_sizer/internal/metrics"
	"battery_sizer/internal/model"
	"battery_sizer/internal/narrative"
	"battery_sizer/internal/sizing"
	"battery_sizer/internal/ws"
)

type handlers struct {
	store  *catalog.Store
	calc   *sizing.Calculator
	logger *zap.Logger
}

// SizingRequest is the JSON body of POST /api/sizing.
type SizingRequest struct {
	Input  model.SizingInput `json:"input"`
	Tariff *sizing.Tariff    `json:"tariff,omitempty"`
}

type HealthReply struct {
	Status string `json:"status"`
}

type CatalogReply struct {
	ws.CatalogPayload
}

type SizingReply struct {
	RequestID     string             `json:"request_id"`
	Configuration string             `json:"configuration"`
	Result        model.SizingResult `json:"result"`
	Clipboard     string             `json:"clipboard"`
}

type ErrorReply struct {
	HTTPStatusCode int                 `json:"-"`
	RequestID      string              `json:"request_id,omitempty"`
	Message        string              `json:"message"`
	Errors         []sizing.FieldError `json:"errors,omitempty"`
}

func (HealthReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (CatalogReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (SizingReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (e *ErrorReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	_ = render.Render(w, r, HealthReply{Status: "ok"})
}

func (h *handlers) catalog(w http.ResponseWriter, r *http.Request) {
	_ = render.Render(w, r, CatalogReply{ws.CatalogFromTables(h.store.Tables())})
}

func (h *handlers) sizeJSON(w http.ResponseWriter, r *http.Request) {
	var req SizingRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		metrics.IncreaseValidationFailuresTotalMetric(metrics.TransportHTTP)
		_ = render.Render(w, r, &ErrorReply{
			HTTPStatusCode: http.StatusBadRequest,
			RequestID:      middleware.GetReqID(r.Context()),
			Message:        "malformed request body: " + err.Error(),
		})
		return
	}

	calc := h.calc
	if req.Tariff != nil {
		calc = calc.WithTariff(*req.Tariff)
	}
	h.respond(w, r, calc, sizing.FillDefaults(req.Input))
}

func (h *handlers) sizeForm(w http.ResponseWriter, r *http.Request) {
	in, err := sizing.ParseForm(sizing.FormFromValues(r.URL.Query()))
	if err != nil {
		h.reject(w, r, err)
		return
	}
	h.respond(w, r, h.calc, in)
}

func (h *handlers) respond(w http.ResponseWriter, r *http.Request, calc *sizing.Calculator, in model.SizingInput) {
	result, err := calc.Calculate(in)
	if err != nil {
		h.reject(w, r, err)
		return
	}

	metrics.IncreaseCalculationsTotalMetric(string(result.Chemistry), metrics.TransportHTTP)
	_ = render.Render(w, r, SizingReply{
		RequestID:     middleware.GetReqID(r.Context()),
		Configuration: result.Configuration(),
		Result:        result,
		Clipboard:     narrative.Clipboard(result),
	})
}

func (h *handlers) reject(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())

	var verr *sizing.ValidationError
	if !errors.As(err, &verr) {
		h.logger.Error("sizing failed", zap.String("request_id", reqID), zap.Error(err))
		_ = render.Render(w, r, &ErrorReply{
			HTTPStatusCode: http.StatusInternalServerError,
			RequestID:      reqID,
			Message:        "sizing failed",
		})
		return
	}

	metrics.IncreaseValidationFailuresTotalMetric(metrics.TransportHTTP)
	_ = render.Render(w, r, &ErrorReply{
		HTTPStatusCode: http.StatusUnprocessableEntity,
		RequestID:      reqID,
		Message:        sizing.ErrNotCalculated.Error(),
		Errors:         verr.Fields,
	})
}
