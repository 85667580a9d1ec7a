package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusGenerated InvoiceStatus = "generated"
)

// Sentinel identity used for admin-issued consolidated invoices covering
// several students at once.
const (
	ConsolidatedStudentID = "CONSOLIDATED"
	ConsolidatedIssuerID  = "superadmin"
)

// InvoiceLine is one breakdown entry: the billed sessions of one student in
// one subject. Student and teacher names are only populated on consolidated
// invoices.
type InvoiceLine struct {
	StudentName   string          `json:"student_name,omitempty"`
	TeacherName   string          `json:"teacher_name,omitempty"`
	SubjectName   string          `json:"subject_name"`
	Sessions      int             `json:"sessions"`
	DurationHours float64         `json:"duration_hours"`
	Rate          decimal.Decimal `json:"rate"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// InvoiceDetails is the nested breakdown document persisted as jsonb.
type InvoiceDetails struct {
	Breakdown  []InvoiceLine   `json:"breakdown"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	StudentIDs []string        `json:"student_ids,omitempty"`
}

// Value implements driver.Valuer for jsonb storage.
func (d InvoiceDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for jsonb storage.
func (d *InvoiceDetails) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = InvoiceDetails{}
		return nil
	default:
		return fmt.Errorf("unsupported invoice details type %T", src)
	}
}

// Invoice is the billing document for one (student, teacher, month, year)
// key, or for the consolidated sentinel key. At most one row exists per key;
// regeneration overwrites in place.
type Invoice struct {
	ID          string          `db:"id" json:"id"`
	StudentID   string          `db:"student_id" json:"student_id"`
	TeacherID   string          `db:"teacher_id" json:"teacher_id"`
	Month       int             `db:"month" json:"month"`
	Year        int             `db:"year" json:"year"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      InvoiceStatus   `db:"status" json:"status"`
	GeneratedAt time.Time       `db:"generated_at" json:"generated_at"`
	Details     InvoiceDetails  `db:"details" json:"details"`
	Description *string         `db:"description" json:"description,omitempty"`
}

// InvoiceFilter describes query params for listing invoices.
type InvoiceFilter struct {
	TeacherID string
	StudentID string
	Month     int
	Year      int
	Page      int
	PageSize  int
}
