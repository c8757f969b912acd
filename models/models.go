package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Тип приоритета: почему заявка попала в список
type PriorityType string

const (
	PriorityDrawing PriorityType = "drawing"
	PriorityQuote   PriorityType = "quote"
	PriorityWork    PriorityType = "work"
)

// PriorityTypes в каноническом порядке
var PriorityTypes = []PriorityType{PriorityDrawing, PriorityQuote, PriorityWork}

func (t PriorityType) Valid() bool {
	switch t {
	case PriorityDrawing, PriorityQuote, PriorityWork:
		return true
	}
	return false
}

// FilterPriorityTypes оставляет только допустимые теги, без повторов,
// в каноническом порядке. Пустой результат возвращается как nil.
func FilterPriorityTypes(raw []string) pq.StringArray {
	seen := make(map[PriorityType]bool, len(raw))
	for _, v := range raw {
		t := PriorityType(v)
		if t.Valid() {
			seen[t] = true
		}
	}
	var out pq.StringArray
	for _, t := range PriorityTypes {
		if seen[t] {
			out = append(out, string(t))
		}
	}
	return out
}

// Сущность Клиента
type Client struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Company   string    `db:"company" json:"company"`
	Address   string    `db:"address" json:"address"`
	Notes     string    `db:"notes" json:"notes"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Сущность Заявки
type Enquiry struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"-"`
	ClientID      *string        `db:"client_id" json:"clientId"`
	Code          string         `db:"code" json:"code"`
	JobName       string         `db:"job_name" json:"jobName"`
	Description   *string        `db:"description" json:"description"`
	Stage         string         `db:"stage" json:"stage"`
	DueDate       *time.Time     `db:"due_date" json:"dueDate"`
	IsPriority    bool           `db:"is_priority" json:"isPriority"`
	PriorityRank  *int           `db:"priority_rank" json:"priorityRank"`
	PriorityTypes pq.StringArray `db:"priority_types" json:"priorityTypes"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"-"`
}

// PrioritySummary это ответ на добавление/удаление из списка приоритетов
type PrioritySummary struct {
	ID            string         `json:"id"`
	IsPriority    bool           `json:"isPriority"`
	PriorityRank  *int           `json:"priorityRank"`
	PriorityTypes pq.StringArray `json:"priorityTypes"`
}

func (e *Enquiry) PrioritySummary() *PrioritySummary {
	return &PrioritySummary{
		ID:            e.ID,
		IsPriority:    e.IsPriority,
		PriorityRank:  e.PriorityRank,
		PriorityTypes: e.PriorityTypes,
	}
}

// Строка списка приоритетов с именем клиента
type PriorityListItem struct {
	ID            string         `db:"id" json:"id"`
	Code          string         `db:"code" json:"code"`
	JobName       string         `db:"job_name" json:"jobName"`
	ClientName    string         `db:"client_name" json:"clientName"`
	Stage         string         `db:"stage" json:"stage"`
	DueDate       *time.Time     `db:"due_date" json:"dueDate"`
	PriorityRank  *int           `db:"priority_rank" json:"priorityRank"`
	PriorityTypes pq.StringArray `db:"priority_types" json:"priorityTypes"`
}

type ReorderItem struct {
	EnquiryID string `json:"enquiryId"`
	NewRank   int    `json:"newRank"`
}

// EnquiryCode формирует код вида BMC-MMYY-0001
func EnquiryCode(t time.Time, seq int) string {
	return fmt.Sprintf("BMC-%02d%02d-%04d", int(t.Month()), t.Year()%100, seq)
}

// Сущность задачи в расписании
type Schedule struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"-"`
	EnquiryID   *string   `db:"enquiry_id" json:"enquiryId"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Status      string    `db:"status" json:"status"`
	Priority    string    `db:"priority" json:"priority"`
	StartDate   time.Time `db:"start_date" json:"startDate"`
	EndDate     time.Time `db:"end_date" json:"endDate"`
	Notes       string    `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

const (
	ScheduleStatusScheduled = "scheduled"
	SchedulePriorityHigh    = "high"
)
