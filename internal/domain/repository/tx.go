package repository

// TxRepos repositorios del ledger atados a una misma transacción.
type TxRepos struct {
	Products  ProductRepository
	Locations LocationRepository
	Stock     ProductLocationRepository
	Movements MovementRepository
	Loans     LoanRepository
	Sales     SaleRepository
}
