package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Building     BuildingSvcFacade
	Apartment    ApartmentSvcFacade
	Occupancy    OccupancySvcFacade
	Expense      ExpenseSvcFacade
	Payment      PaymentSvcFacade
	Reversal     ReversalSvcFacade
	Subscription SubscriptionSvcFacade
	Ledger       LedgerSvcFacade
	User         UserSvcFacade
	Auth         AuthSvcFacade
}
