package amqp

import (
	"encoding/json"
	"time"

	"bilancio/internal/core"
)

// ExpenseCreatedMessage notifies downstream consumers that an expense row
// was materialized. It carries the identifiers plus the display fields a
// notification needs; consumers fetch the full row when they need more.
type ExpenseCreatedMessage struct {
	ExpenseID          string    `json:"expense_id"`
	UserID             string    `json:"user_id"`
	RecurringExpenseID string    `json:"recurring_expense_id,omitempty"`
	Date               string    `json:"date"` // YYYY-MM-DD
	AmountCents        int64     `json:"amount_cents"`
	Description        string    `json:"description"`
	Timestamp          time.Time `json:"timestamp"`
}

// NewExpenseCreatedMessage builds the event for a materialized expense.
func NewExpenseCreatedMessage(e core.Expense) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		ExpenseID:          e.ID,
		UserID:             e.UserID,
		RecurringExpenseID: e.RecurringExpenseID,
		Date:               e.Date.Format("2006-01-02"),
		AmountCents:        e.Amount.Cents,
		Description:        e.Description,
		Timestamp:          time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseCreatedMessageFromJSON parses a message from JSON bytes.
func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
