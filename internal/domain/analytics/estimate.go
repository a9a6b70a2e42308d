// Package analytics contiene la matemática pura de analítica de inventario:
// rotación, días hasta quiebre de stock, alertas de reorden y pronóstico lineal.
// Todas las funciones son deterministas: mismo ledger + mismo asOf = mismo resultado.
package analytics

import (
	"encoding/json"
	"math"
)

// Estimate valor derivado que puede ser desconocido (p. ej. división por una tasa cero).
// Se serializa como null cuando Known es false, nunca como infinito.
type Estimate struct {
	Value float64
	Known bool
}

// Unknown devuelve el centinela "desconocido".
func Unknown() Estimate { return Estimate{} }

// KnownValue devuelve un estimado conocido, redondeado a 4 decimales.
func KnownValue(v float64) Estimate { return Estimate{Value: round4(v), Known: true} }

// MarshalJSON implementa json.Marshaler.
func (e Estimate) MarshalJSON() ([]byte, error) {
	if !e.Known {
		return []byte("null"), nil
	}
	return json.Marshal(e.Value)
}

// UnmarshalJSON implementa json.Unmarshaler.
func (e *Estimate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*e = Unknown()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*e = KnownValue(v)
	return nil
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
