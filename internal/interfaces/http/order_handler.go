package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/fulfillment"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// OrderHandler maneja el ciclo de vida de las órdenes de cumplimiento (protegido).
type OrderHandler struct {
	engine *fulfillment.Engine
}

// NewOrderHandler construye el handler.
func NewOrderHandler(engine *fulfillment.Engine) *OrderHandler {
	return &OrderHandler{engine: engine}
}

// Create godoc
// @Summary      Crear orden y reservar stock (todo o nada)
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "Referencia externa y líneas"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	lines := make([]fulfillment.LineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, fulfillment.LineInput{ProductID: l.ProductID, LocationID: l.LocationID, Quantity: l.Quantity})
	}
	order, err := h.engine.CreateOrder(c.UserContext(), fulfillment.CreateOrderInput{
		Reference: in.Reference,
		ActorID:   GetUserID(c),
		Lines:     lines,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(order))
}

// GetByID godoc
// @Summary      Obtener orden por ID
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.engine.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toOrderResponse(order))
}

// Cancel godoc
// @Summary      Cancelar orden (entrada compensatoria por línea)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	order, err := h.engine.CancelOrder(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toOrderResponse(order))
}

// Complete godoc
// @Summary      Completar orden (sin cambio de stock)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/complete [post]
func (h *OrderHandler) Complete(c *fiber.Ctx) error {
	order, err := h.engine.CompleteOrder(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toOrderResponse(order))
}

// Return godoc
// @Summary      Devolver líneas de una orden completada
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.ReturnOrderRequest  true  "Líneas y cantidades devueltas"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/returns [post]
func (h *OrderHandler) Return(c *fiber.Ctx) error {
	var in dto.ReturnOrderRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	lines := make([]fulfillment.ReturnLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, fulfillment.ReturnLine{LineID: l.LineID, Quantity: l.Quantity})
	}
	order, err := h.engine.ReturnOrderLines(c.UserContext(), c.Params("id"), fulfillment.ReturnInput{
		ActorID: GetUserID(c),
		Lines:   lines,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toOrderResponse(order))
}

func toOrderResponse(o *entity.Order) dto.OrderResponse {
	out := dto.OrderResponse{
		ID:        o.ID,
		Reference: o.Reference,
		Status:    string(o.Status),
		ActorID:   o.ActorID,
		Lines:     make([]dto.OrderLineResponse, 0, len(o.Lines)),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, l := range o.Lines {
		out.Lines = append(out.Lines, dto.OrderLineResponse{
			ID:               l.ID,
			ProductID:        l.ProductID,
			LocationID:       l.LocationID,
			Quantity:         l.Quantity,
			ReturnedQuantity: l.ReturnedQuantity,
			MovementID:       l.MovementID,
		})
	}
	return out
}
