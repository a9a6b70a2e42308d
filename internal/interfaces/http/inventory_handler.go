package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/ledger"
	"github.com/jhoicas/stockledger-api/internal/application/transfer"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// InventoryHandler maneja movimientos, traslados e historial del ledger (protegido).
type InventoryHandler struct {
	ledger   *ledger.Ledger
	transfer *transfer.Engine
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(l *ledger.Ledger, t *transfer.Engine) *InventoryHandler {
	return &InventoryHandler{ledger: l, transfer: t}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, type, quantity (o target_quantity para ADJUSTMENT), location_id o from/to para TRANSFER"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	m, err := h.ledger.ApplyMovement(c.UserContext(), ledger.MovementInput{
		ProductID:      in.ProductID,
		Type:           entity.MovementType(in.Type),
		Quantity:       in.Quantity,
		LocationID:     in.LocationID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		TargetQuantity: in.TargetQuantity,
		UnitCost:       in.UnitCost,
		Reason:         in.Reason,
		Reference:      in.Reference,
		ActorID:        GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// Transfer godoc
// @Summary      Trasladar stock entre ubicaciones
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Producto, origen, destino y cantidad"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	res, err := h.transfer.TransferStock(c.UserContext(), transfer.Input{
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Reason:         in.Reason,
		Reference:      in.Reference,
		ActorID:        GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		Movement:       toMovementResponse(res.Movement),
		FromStockAfter: res.FromStockAfter,
		ToStockAfter:   res.ToStockAfter,
	})
}

// ListMovements godoc
// @Summary      Historial de movimientos de un producto (más reciente primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        limit   query  int     false  "Límite (1..100)"  default(20)
// @Param        offset  query  int     false  "Offset"           default(0)
// @Success      200     {object}  dto.MovementListResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/products/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	page, ok, err := pageFromQuery(c)
	if !ok {
		return err
	}
	res, err := h.ledger.GetStockMovements(c.UserContext(), c.Params("id"), ledger.Page{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.MovementResponse, 0, len(res.Items))
	for _, m := range res.Items {
		items = append(items, toMovementResponse(m))
	}
	return c.JSON(dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: res.Limit, Offset: res.Offset, NextOffset: res.NextOffset},
	})
}

// Verify godoc
// @Summary      Reconstruir el stock de un producto desde el ledger y compararlo con la proyección
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.VerifyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/verify [get]
func (h *InventoryHandler) Verify(c *fiber.Ctx) error {
	report, err := h.ledger.VerifyProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := dto.VerifyResponse{
		ProductID:     report.ProductID,
		Movements:     report.Movements,
		Consistent:    report.Consistent,
		Aggregate:     report.Aggregate,
		ByLocation:    report.ByLocation,
		Mismatches:    make([]dto.MismatchResponse, 0, len(report.Mismatches)),
		NegativeAfter: report.NegativeAfter,
	}
	for _, m := range report.Mismatches {
		out.Mismatches = append(out.Mismatches, dto.MismatchResponse{
			LocationID: m.LocationID,
			Projected:  m.Projected,
			Replayed:   m.Replayed,
		})
	}
	return c.JSON(out)
}

// LocationStock godoc
// @Summary      Stock de todos los productos en una ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la ubicación"
// @Success      200  {object}  dto.LocationStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/locations/{id}/stock [get]
func (h *InventoryHandler) LocationStock(c *fiber.Ctx) error {
	id := c.Params("id")
	items, err := h.ledger.GetLocationStock(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.LocationStockResponse{LocationID: id, Items: make([]dto.LocationStockItemResponse, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, dto.LocationStockItemResponse{
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Name:      it.Name,
			Quantity:  it.Quantity,
		})
	}
	return c.JSON(out)
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                m.ID,
		Type:              string(m.Type),
		Quantity:          m.Quantity,
		ProductID:         m.ProductID,
		FromLocationID:    m.FromLocationID,
		ToLocationID:      m.ToLocationID,
		Reason:            m.Reason,
		Reference:         m.Reference,
		ActorID:           m.ActorID,
		ResultingQuantity: m.ResultingQuantity,
		UnitCost:          m.UnitCost,
		CreatedAt:         m.CreatedAt,
	}
}
