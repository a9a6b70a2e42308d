package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los adaptadores y casos de uso los envuelven con fmt.Errorf("%w: ...") para dar contexto;
// la capa HTTP los compara con errors.Is.
var (
	ErrValidation        = errors.New("entrada inválida")
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrSameLocation      = errors.New("la ubicación de origen y destino es la misma")
	ErrConflict          = errors.New("conflicto de concurrencia, reintente la operación")
	ErrConfiguration     = errors.New("configuración inconsistente")
	ErrLocationInactive  = errors.New("la ubicación está inactiva")
	ErrLocationHasStock  = errors.New("la ubicación tiene stock distinto de cero")
	ErrInvalidOrderState = errors.New("estado de la orden no permite la operación")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
)

var businessErrors = []error{
	ErrValidation,
	ErrNotFound,
	ErrInsufficientStock,
	ErrSameLocation,
	ErrConflict,
	ErrConfiguration,
	ErrLocationInactive,
	ErrLocationHasStock,
	ErrInvalidOrderState,
	ErrDuplicate,
	ErrUnauthorized,
}

// IsBusinessError indica si err es una regla de negocio (reportable al cliente)
// y no una falla de infraestructura.
func IsBusinessError(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
