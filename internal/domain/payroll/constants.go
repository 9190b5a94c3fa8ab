package payroll

const (
	RecordStatusDraft     = "draft"
	RecordStatusCompleted = "completed"

	EmailStatusPending = "pending"
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"

	WarningMissingBank  = "missing_bank_account"
	WarningNegativeNet  = "negative_net"
	WarningMissingEmail = "missing_email"

	TypeFixed      = "fixed"
	TypePercentage = "percentage"

	dateLayout = "2006-01-02"
)
