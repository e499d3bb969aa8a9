package catalog

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/petalworks/bloom/internal/dto"
	"github.com/petalworks/bloom/internal/entity"
	"github.com/petalworks/bloom/internal/presentation/http/response"
	service "github.com/petalworks/bloom/internal/service/catalog"
	"github.com/petalworks/bloom/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/petalworks/bloom/transport/http/catalog")

// Module wires HTTP catalog handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)

// Handler exposes catalog endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a catalog Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/products")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.deactivate)

	e.GET("/occasions", h.occasions)
}

func productID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errorbank.BadRequest("invalid product id", errorbank.WithCause(err))
	}
	return id, nil
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	occasionID, _ := strconv.ParseInt(c.QueryParam("occasion_id"), 10, 64)
	take, _ := strconv.Atoi(c.QueryParam("take"))
	skip, _ := strconv.Atoi(c.QueryParam("skip"))

	ctx, span := httpTracer.Start(c.Request().Context(), "products.list")
	defer span.End()

	rows, err := h.svc.ListProducts(ctx, occasionID, take, skip)
	if err != nil {
		return b.WithError(err).Build()
	}
	out := make([]dto.ProductResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromProduct(&rows[i]))
	}
	return b.WithData(out).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := productID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.getByID",
		trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	p, err := h.svc.GetProduct(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.FromProduct(p)).Build()
}

type productPayload struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         int64  `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
	OccasionID    int64  `json:"occasion_id"`
	ImageURL      string `json:"image_url"`
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.create",
		trace.WithAttributes(attribute.String("product.name", payload.Name)))
	defer span.End()

	p := &entity.Product{
		Name:          payload.Name,
		Description:   payload.Description,
		Price:         payload.Price,
		StockQuantity: payload.StockQuantity,
		Active:        true,
		OccasionID:    payload.OccasionID,
		ImageURL:      payload.ImageURL,
	}
	if err := h.svc.CreateProduct(ctx, p); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.FromProduct(p)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := productID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	data := map[string]any{}
	if err := c.Bind(&data); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if len(data) == 0 {
		return b.WithError(errorbank.BadRequest("nothing to update")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.update",
		trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if err := h.svc.UpdateProduct(ctx, id, data); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(map[string]any{"id": id}).Build()
}

func (h *Handler) deactivate(c echo.Context) error {
	b := response.New(c)

	id, err := productID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "products.deactivate",
		trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if err := h.svc.DeactivateProduct(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}

func (h *Handler) occasions(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "occasions.list")
	defer span.End()

	rows, err := h.svc.ListOccasions(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	out := make([]dto.OccasionResponse, 0, len(rows))
	for _, o := range rows {
		out = append(out, dto.OccasionResponse{ID: o.ID, Name: o.Name, Slug: o.Slug})
	}
	return b.WithData(out).Build()
}
