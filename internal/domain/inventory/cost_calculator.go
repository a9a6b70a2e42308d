package inventory

import "github.com/shopspring/decimal"

// WeightedCost implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func WeightedCost(currentQty int64, currentCost decimal.Decimal, inQty int64, unitCost decimal.Decimal) decimal.Decimal {
	if currentQty < 0 {
		currentQty = 0
	}
	sum := currentQty + inQty
	if sum <= 0 {
		return currentCost
	}
	num := decimal.NewFromInt(currentQty).Mul(currentCost).Add(decimal.NewFromInt(inQty).Mul(unitCost))
	return num.Div(decimal.NewFromInt(sum)).Round(4)
}
