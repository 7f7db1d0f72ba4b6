package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldUserID      = "user_id"
	FieldPeriod      = "period"
	FieldSalaryDay   = "salary_day"
	FieldBreakDay    = "break_day"
	FieldTemplateID  = "template_id"
	FieldExpenseID   = "expense_id"
	FieldAmountCents = "amount_cents"
	FieldProcessed   = "processed"
	FieldSkipped     = "skipped"
)

// Standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentScheduler = "scheduler"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentIncome    = "income"
)
