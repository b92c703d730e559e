package ws

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"battery_sizer/internal/catalog"
	"battery_sizer/internal/metrics"
	"battery_sizer/internal/narrative"
	"battery_sizer/internal/sizing"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and answers sizing requests. Replies
// go to the requesting client only; catalog reloads reach everyone through
// the hub.
type Handler struct {
	hub    *Hub
	calc   *sizing.Calculator
	store  *catalog.Store
	logger *zap.Logger
}

func NewHandler(hub *Hub, calc *sizing.Calculator, store *catalog.Store, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, calc: calc, store: store, logger: logger.Named("ws")}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h.hub, conn, sendBuffer)

	h.hub.Register(client)
	go client.writePump()

	h.sendCatalog(client)

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		h.handleMessage(c, msg)
	}
}

func (h *Handler) handleMessage(c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.logger.Warn("invalid message", zap.Error(err))
		return
	}

	switch env.Type {
	case TypeSizingCalculate:
		var p CalculatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			metrics.IncreaseValidationFailuresTotalMetric(metrics.TransportWS)
			h.reply(c, TypeSizingInvalid, InvalidPayload{
				RequestID: p.RequestID,
				Errors:    []sizing.FieldError{{Field: "payload", Rule: "json", Message: err.Error()}},
			})
			return
		}
		if p.RequestID == "" {
			p.RequestID = uuid.NewString()
		}
		h.calculate(c, p)

	case TypeCatalogGet:
		h.sendCatalog(c)

	default:
		h.logger.Warn("unknown message type", zap.String("type", env.Type))
	}
}

func (h *Handler) calculate(c *Client, p CalculatePayload) {
	calc := h.calc
	if p.Tariff != nil {
		calc = calc.WithTariff(*p.Tariff)
	}
	in := sizing.FillDefaults(p.Input)
	log := h.logger.With(zap.String("client", c.id), zap.String("request_id", p.RequestID))

	result, err := calc.Calculate(in)
	if err != nil {
		metrics.IncreaseValidationFailuresTotalMetric(metrics.TransportWS)
		var verr *sizing.ValidationError
		if !errors.As(err, &verr) {
			log.Error("sizing failed", zap.Error(err))
			verr = &sizing.ValidationError{Fields: []sizing.FieldError{{Rule: "error", Message: err.Error()}}}
		}
		log.Debug("sizing rejected", zap.Error(err))
		h.reply(c, TypeSizingInvalid, InvalidPayload{RequestID: p.RequestID, Errors: verr.Fields})
		return
	}

	metrics.IncreaseCalculationsTotalMetric(string(result.Chemistry), metrics.TransportWS)
	log.Debug("sizing calculated",
		zap.String("configuration", result.Configuration()),
		zap.Float64("usable_kwh", result.UsableCapacityKWh))
	h.reply(c, TypeSizingResult, ResultPayload{
		RequestID: p.RequestID,
		Result:    result,
		Clipboard: narrative.Clipboard(result),
	})
}

func (h *Handler) sendCatalog(c *Client) {
	h.reply(c, TypeCatalogLoaded, CatalogFromTables(h.store.Tables()))
}

func (h *Handler) reply(c *Client, msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		h.logger.Error("marshaling reply", zap.String("type", msgType), zap.Error(err))
		return
	}
	if !c.trySend(msg) {
		h.logger.Warn("client buffer full, dropping reply", zap.String("client", c.id), zap.String("type", msgType))
	}
}
