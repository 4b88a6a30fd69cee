package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldMonthID     = "month_id"
	FieldAccount     = "account"
	FieldEntryID     = "entry_id"
	FieldEntryType   = "entry_type"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldSubcategory = "subcategory"
	FieldTransferGrp = "transfer_group"
	FieldBalance     = "balance_cents"
	FieldProjected   = "projected_cents"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentLifecycle = "lifecycle"
	ComponentStorage   = "storage"
	ComponentEvents    = "events"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentTrace     = "trace"
)

// Operations defines standard operation names
const (
	OpAdd         = "add"
	OpUpdate      = "update"
	OpDelete      = "delete"
	OpClose       = "close"
	OpReopen      = "reopen"
	OpEnsure      = "ensure"
	OpRecalculate = "recalculate"
	OpAudit       = "audit"
	OpStartup     = "startup"
	OpShutdown    = "shutdown"
)
