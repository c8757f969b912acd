package handlers

import (
	"context"
	"time"

	"brigadez/models"
)

type StorageInterface interface {
	Ping(ctx context.Context) error

	CreateClient(ctx context.Context, client *models.Client) error
	GetClients(ctx context.Context, userID string) ([]models.Client, error)

	CreateEnquiry(ctx context.Context, enquiry *models.Enquiry, now time.Time) error
	GetEnquiry(ctx context.Context, userID, enquiryID string) (*models.Enquiry, error)
	GetEnquiries(ctx context.Context, userID string, limit, offset int) ([]models.Enquiry, error)

	GetSchedulesForEnquiry(ctx context.Context, userID, enquiryID string) ([]models.Schedule, error)
}

type PriorityService interface {
	AddOrTag(ctx context.Context, userID, enquiryID string, wantPriority bool, tags []string) (*models.PrioritySummary, error)
	List(ctx context.Context, userID string) ([]models.PriorityListItem, error)
	Reorder(ctx context.Context, userID string, items []models.ReorderItem) (int, error)
}

type MilestoneService interface {
	Get(ctx context.Context, userID, enquiryID string) (*models.Milestone, error)
	ToggleCheckpoint(ctx context.Context, userID, enquiryID, checkpointKey, actorID string) (bool, error)
	SetRectificationNote(ctx context.Context, userID, enquiryID, note, actorID string) error
	CreateRectificationTask(ctx context.Context, userID, enquiryID, note string) (string, error)
	FlagRectification(ctx context.Context, userID, enquiryID, note, actorID string) (*models.RectificationResult, error)
}
