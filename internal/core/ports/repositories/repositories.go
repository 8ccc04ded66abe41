package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	Tx            TransactionManager
	BuildingRepo  BuildingRepositoryFacade
	ApartmentRepo ApartmentRepositoryFacade
	OccupancyRepo OccupancyRepositoryFacade
	ExpenseRepo   ExpenseRepositoryFacade
	PaymentRepo   PaymentRepositoryFacade
	LedgerRepo    LedgerRepositoryFacade
	UserRepo      UserRepositoryFacade
}
