package seed

import (
	"context"
	"time"

	"backend-alpineconnect/internal/db"

	"github.com/google/uuid"
)

// Summary reports what a seed run inserted. Zero counts mean the
// tables already had data and were left alone.
type Summary struct {
	Tours     int `json:"tours"`
	Materials int `json:"materials"`
}

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

type sampleTour struct {
	title, location, description, duration string
	limit, elevation                       int
	fee                                    float64
	daysOut                                int
}

type sampleMaterial struct {
	name, description string
	quantity          int
	price             float64
}

var sampleTours = []sampleTour{
	{"Watzmann Crossing", "Berchtesgaden", "Two day crossing with hut overnight.", "2 days", 12, 1700, 45, 21},
	{"Zugspitze via Höllental", "Garmisch", "Classic via ferrata route over the glacier.", "1 day", 8, 2200, 30, 35},
	{"Beginner Rock Course", "Frankenjura", "Top rope basics for new members.", "1 day", 10, 150, 15, 14},
}

var sampleMaterials = []sampleMaterial{
	{"Climbing Helmet", "Adjustable club helmet", 12, 2},
	{"60m Single Rope", "9.8mm, checked annually", 6, 5},
	{"Via Ferrata Set", "Y-lanyard with screw carabiner", 10, 4},
}

// Run populates empty tours and materials tables with demo data so a
// fresh install has something to show. Existing rows are never touched.
func (s *Service) Run(ctx context.Context, leaderID string) (Summary, error) {
	var summary Summary

	var tourCount int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM tours`).Scan(&tourCount); err != nil {
		return Summary{}, err
	}
	if tourCount == 0 {
		now := time.Now()
		for _, t := range sampleTours {
			start := now.AddDate(0, 0, t.daysOut)
			_, err := s.db.Exec(ctx, `
				INSERT INTO tours (id, title, location, description, start_date, end_date,
					registration_deadline, participant_limit, duration, elevation_gain, fee, leader_id)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			`, uuid.NewString(), t.title, t.location, t.description, start, start.AddDate(0, 0, 1),
				start.AddDate(0, 0, -3), t.limit, t.duration, t.elevation, t.fee, leaderID)
			if err != nil {
				return Summary{}, err
			}
			summary.Tours++
		}
	}

	var materialCount int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM materials`).Scan(&materialCount); err != nil {
		return Summary{}, err
	}
	if materialCount == 0 {
		for _, m := range sampleMaterials {
			_, err := s.db.Exec(ctx, `
				INSERT INTO materials (id, name, description, quantity_available, price)
				VALUES ($1,$2,$3,$4,$5)
			`, uuid.NewString(), m.name, m.description, m.quantity, m.price)
			if err != nil {
				return Summary{}, err
			}
			summary.Materials++
		}
	}

	return summary, nil
}
