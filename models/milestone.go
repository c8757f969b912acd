package models

import "time"

// Checkpoint одна из шести отметок прогресса заявки.
// Значение совпадает с именем колонки в enquiry_milestones.
type Checkpoint string

const (
	QuoteGiven             Checkpoint = "quote_given"
	AdvanceInvoiceGiven    Checkpoint = "advance_invoice_given"
	AdvanceInvoiceCredited Checkpoint = "advance_invoice_credited"
	WorkStarted            Checkpoint = "work_started"
	WorkCompleted          Checkpoint = "work_completed"
	RectificationRequired  Checkpoint = "rectification_required"
)

// Checkpoints в порядке отображения. Порядок не навязывается при переключении.
var Checkpoints = []Checkpoint{
	QuoteGiven,
	AdvanceInvoiceGiven,
	AdvanceInvoiceCredited,
	WorkStarted,
	WorkCompleted,
	RectificationRequired,
}

func ParseCheckpoint(s string) (Checkpoint, bool) {
	for _, c := range Checkpoints {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Сущность отметок прогресса (одна на заявку)
type Milestone struct {
	ID        string `db:"id" json:"id"`
	EnquiryID string `db:"enquiry_id" json:"enquiry_id"`

	QuoteGiven   bool       `db:"quote_given" json:"quote_given"`
	QuoteGivenAt *time.Time `db:"quote_given_at" json:"quote_given_at"`
	QuoteGivenBy *string    `db:"quote_given_by" json:"quote_given_by"`

	AdvanceInvoiceGiven   bool       `db:"advance_invoice_given" json:"advance_invoice_given"`
	AdvanceInvoiceGivenAt *time.Time `db:"advance_invoice_given_at" json:"advance_invoice_given_at"`
	AdvanceInvoiceGivenBy *string    `db:"advance_invoice_given_by" json:"advance_invoice_given_by"`

	AdvanceInvoiceCredited   bool       `db:"advance_invoice_credited" json:"advance_invoice_credited"`
	AdvanceInvoiceCreditedAt *time.Time `db:"advance_invoice_credited_at" json:"advance_invoice_credited_at"`
	AdvanceInvoiceCreditedBy *string    `db:"advance_invoice_credited_by" json:"advance_invoice_credited_by"`

	WorkStarted   bool       `db:"work_started" json:"work_started"`
	WorkStartedAt *time.Time `db:"work_started_at" json:"work_started_at"`
	WorkStartedBy *string    `db:"work_started_by" json:"work_started_by"`

	WorkCompleted   bool       `db:"work_completed" json:"work_completed"`
	WorkCompletedAt *time.Time `db:"work_completed_at" json:"work_completed_at"`
	WorkCompletedBy *string    `db:"work_completed_by" json:"work_completed_by"`

	RectificationRequired   bool       `db:"rectification_required" json:"rectification_required"`
	RectificationRequiredAt *time.Time `db:"rectification_required_at" json:"rectification_required_at"`
	RectificationRequiredBy *string    `db:"rectification_required_by" json:"rectification_required_by"`
	RectificationNote       *string    `db:"rectification_note" json:"rectification_note"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	UpdatedBy *string   `db:"updated_by" json:"updated_by"`
}

// События оркестрации исправления
type RectificationEvent string

const (
	RectificationFlagged RectificationEvent = "RectificationFlagged"
	TaskCreated          RectificationEvent = "TaskCreated"
)

type RectificationResult struct {
	Events []RectificationEvent `json:"events"`
	TaskID string               `json:"taskId"`
}
