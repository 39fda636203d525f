package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vegakash/internal/core"
)

// Action names what happened to an expense.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

func (a Action) valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	}
	return false
}

// ExpenseSnapshot is the wire form of an expense inside an event.
// Amounts travel as integer cents so consumers never see float rounding.
type ExpenseSnapshot struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
	Date        string    `json:"date"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func SnapshotOf(e core.Expense) *ExpenseSnapshot {
	return &ExpenseSnapshot{
		ID:          e.ID,
		Title:       e.Title,
		Category:    e.Category.String(),
		AmountCents: e.Amount.Cents,
		Date:        e.Date.String(),
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// Expense converts the snapshot back into a domain record.
func (s ExpenseSnapshot) Expense() (core.Expense, error) {
	d, err := core.ParseDate(s.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("snapshot %d: %w", s.ID, err)
	}
	return core.Expense{
		ID:          s.ID,
		Title:       s.Title,
		Category:    core.Category(s.Category),
		Amount:      core.Money{Cents: s.AmountCents},
		Date:        d,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}, nil
}

// ExpenseEvent is published after every successful write.
type ExpenseEvent struct {
	MessageID string           `json:"message_id"`
	Action    Action           `json:"action"`
	ExpenseID int64            `json:"expense_id"`
	Expense   *ExpenseSnapshot `json:"expense"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewExpenseEvent builds an event for e. Deletes carry no snapshot.
func NewExpenseEvent(action Action, e core.Expense) *ExpenseEvent {
	ev := &ExpenseEvent{
		MessageID: uuid.NewString(),
		Action:    action,
		ExpenseID: e.ID,
		Timestamp: time.Now().UTC(),
	}
	if action != ActionDeleted {
		ev.Expense = SnapshotOf(e)
	}
	return ev
}

func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and sanity-checks an event body.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if !ev.Action.valid() {
		return nil, fmt.Errorf("unknown action %q", ev.Action)
	}
	if ev.ExpenseID <= 0 {
		return nil, fmt.Errorf("missing expense id")
	}
	if ev.Action != ActionDeleted && ev.Expense == nil {
		return nil, fmt.Errorf("%s event for expense %d has no snapshot", ev.Action, ev.ExpenseID)
	}
	return &ev, nil
}
