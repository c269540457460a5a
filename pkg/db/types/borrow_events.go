package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// BorrowEvent records a single loan of a book. The history is append-only;
// events are never edited or removed once written.
type BorrowEvent struct {
	BorrowerID string     `json:"borrower_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// BorrowEvents stores the ordered loan history as a jsonb column.
type BorrowEvents []BorrowEvent

// Value marshals the history into jsonb.
func (b BorrowEvents) Value() (driver.Value, error) {
	if b == nil {
		b = BorrowEvents{}
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshal borrow history: %w", err)
	}
	return string(data), nil
}

// Scan decodes a jsonb payload into the history slice.
func (b *BorrowEvents) Scan(value any) error {
	if value == nil {
		*b = BorrowEvents{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported borrow history type %T", value)
	}

	if len(data) == 0 {
		*b = BorrowEvents{}
		return nil
	}
	return json.Unmarshal(data, b)
}

// GormDataType tells GORM which column type to use.
func (BorrowEvents) GormDataType() string {
	return "jsonb"
}
