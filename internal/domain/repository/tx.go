package repository

// TxRepos repositorios atados a una misma transacción de base de datos.
type TxRepos struct {
	Products  ProductRepository
	Locations LocationRepository
	Stock     ProductStockRepository
	Movements StockMovementRepository
	Orders    OrderRepository
}
