package audithook

// Action constants for audit events.
const (
	// Lifecycle actions
	ActionEngineStarted = "engine.started"
	ActionEngineStopped = "engine.stopped"

	// Balance actions
	ActionFundsAdded = "funds.added"

	// Funding actions
	ActionInvoiceFunded    = "invoice.funded"
	ActionInvoiceRepaid    = "invoice.repaid"
	ActionFundingRejected  = "funding.rejected"
	ActionFundingConflict  = "funding.conflict"
	ActionFundingIneligible = "funding.ineligible"

	// Administration actions
	ActionFeeChanged       = "fee.changed"
	ActionAdminTransferred = "admin.transferred"
)

// Resource constants for audit events.
const (
	ResourceEngine  = "engine"
	ResourceBalance = "balance"
	ResourceFunding = "funding"
	ResourceSetting = "setting"
)

// Category constants for audit events.
const (
	CategoryLifecycle = "lifecycle"
	CategoryFunding   = "funding"
	CategoryPayment   = "payment"
	CategoryAccess    = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
