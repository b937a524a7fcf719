package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldCustomerID    = "customer_id"
	FieldEventType     = "event_type"
	FieldPartition     = "partition"
	FieldQueue         = "queue"
	FieldYearMonth     = "year_month"
	FieldCurrency      = "currency"
	FieldBaseCurrency  = "base_currency"
	FieldAmount        = "amount"
	FieldAttempt       = "attempt"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentIngestor = "ingestor"
	ComponentWorker   = "worker"
	ComponentQuery    = "query"
	ComponentRates    = "rates"
	ComponentCache    = "cache"
	ComponentAuth     = "auth"
)

// Operations defines standard operation names
const (
	OpUpsert   = "upsert"
	OpDelete   = "delete"
	OpQuery    = "query"
	OpResolve  = "resolve"
	OpConsume  = "consume"
	OpPublish  = "publish"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
