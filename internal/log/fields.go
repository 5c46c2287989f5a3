package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldRunID        = "run_id"
	FieldDigest       = "digest"
	FieldInstrument   = "instrument"
	FieldTransactions = "transactions"
	FieldRejected     = "rejected"
	FieldDuplicates   = "duplicates"
	FieldWindows      = "windows"
	FieldAmountPaise  = "amount_paise"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentEngine  = "engine"
	ComponentRuns    = "runs"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
	ComponentCache   = "cache"
)

// Operations defines standard operation names.
const (
	OpCompute  = "compute"
	OpValidate = "validate"
	OpProject  = "project"
	OpRecord   = "record"
	OpExport   = "export"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
