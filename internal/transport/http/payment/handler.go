package payment

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/petalworks/bloom/internal/dto"
	"github.com/petalworks/bloom/internal/presentation/http/response"
	service "github.com/petalworks/bloom/internal/service/payment"
	"github.com/petalworks/bloom/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/petalworks/bloom/transport/http/payment")

// Module wires HTTP payment handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)

// Handler exposes payment endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a payment Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.POST("/orders/:id/payments", h.record)
	e.GET("/orders/:id/payments", h.listByOrder)
	e.POST("/payments/:id/verify", h.verify)
}

func pathID(c echo.Context, what string) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errorbank.BadRequest("invalid "+what+" id", errorbank.WithCause(err))
	}
	return id, nil
}

func (h *Handler) record(c echo.Context) error {
	b := response.New(c)

	orderID, err := pathID(c, "order")
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		Method string `json:"method"`
		Amount int64  `json:"amount"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "payments.record",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	p, err := h.svc.Record(ctx, orderID, payload.Method, payload.Amount)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.FromPayment(p)).Build()
}

func (h *Handler) listByOrder(c echo.Context) error {
	b := response.New(c)

	orderID, err := pathID(c, "order")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "payments.listByOrder",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	rows, err := h.svc.ListByOrder(ctx, orderID)
	if err != nil {
		return b.WithError(err).Build()
	}
	out := make([]dto.PaymentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromPayment(&rows[i]))
	}
	return b.WithData(out).Build()
}

func (h *Handler) verify(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c, "payment")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "payments.verify",
		trace.WithAttributes(attribute.Int64("payment.id", id)))
	defer span.End()

	p, err := h.svc.Verify(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromPayment(p)).Build()
}
