package analytics

import (
	"context"

	"github.com/uptrace/bun"

	"rsvp-service/internal/models"
)

// Service handles host-dashboard aggregation queries
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// AttendanceSummary aggregates headcounts across all records. Every primary
// respondent counts as one attending adult on top of their attendee rows.
type AttendanceSummary struct {
	TotalRSVPs     int `json:"total_rsvps"`
	TotalAttending int `json:"total_attending"`
	Adults         int `json:"adults"`
	Children       int `json:"children"`
}

func (s *Service) GetAttendanceSummary(ctx context.Context) (*AttendanceSummary, error) {
	totalRSVPs, err := s.db.NewSelect().
		Model((*models.RSVP)(nil)).
		Count(ctx)
	if err != nil {
		return nil, err
	}

	adultAttendees, err := s.db.NewSelect().
		Model((*models.Attendee)(nil)).
		Where("age = ?", models.AgeAdult).
		Count(ctx)
	if err != nil {
		return nil, err
	}

	childAttendees, err := s.db.NewSelect().
		Model((*models.Attendee)(nil)).
		Where("age = ?", models.AgeChild).
		Count(ctx)
	if err != nil {
		return nil, err
	}

	return &AttendanceSummary{
		TotalRSVPs:     totalRSVPs,
		TotalAttending: totalRSVPs + adultAttendees + childAttendees,
		Adults:         totalRSVPs + adultAttendees,
		Children:       childAttendees,
	}, nil
}
