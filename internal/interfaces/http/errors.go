package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
)

var validate = validator.New()

func init() {
	// decimal.Decimal se valida como número (min=0, gt=0).
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// errorMapping estado HTTP y código de cada error de dominio, en orden de prioridad.
var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrSameLocation, fiber.StatusBadRequest, "SAME_LOCATION"},
	{domain.ErrLocationInactive, fiber.StatusBadRequest, "LOCATION_INACTIVE"},
	{domain.ErrValidation, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrLocationHasStock, fiber.StatusConflict, "LOCATION_HAS_STOCK"},
	{domain.ErrInvalidOrderState, fiber.StatusConflict, "INVALID_ORDER_STATE"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrConfiguration, fiber.StatusUnprocessableEntity, "CONFIGURATION"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
}

// respondError traduce err a dto.ErrorResponse. Las fallas de infraestructura responden 500
// sin exponer el detalle.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno en handler")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// bindJSON parsea el body y aplica las reglas validate; escribe la respuesta 400 si falla.
// Devuelve false cuando el handler debe retornar sin escribir otra respuesta.
func bindJSON(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return validateStruct(c, req)
}

// bindQuery parsea los query params y aplica las reglas validate.
func bindQuery(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.QueryParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAMS", Message: "parámetros de consulta inválidos"})
	}
	return validateStruct(c, req)
}

func validateStruct(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return false, respondError(c, err)
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+":"+fe.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: "campos inválidos: " + strings.Join(fields, ", "),
		})
	}
	return true, nil
}

func pageFromQuery(c *fiber.Ctx) (dto.PageRequest, bool, error) {
	var page dto.PageRequest
	ok, err := bindQuery(c, &page)
	return page, ok, err
}
