package tour

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend-alpineconnect/internal/db"
	"backend-alpineconnect/internal/stream"

	"github.com/google/uuid"
)

var (
	ErrTourFull           = errors.New("tour is full")
	ErrRegistrationClosed = errors.New("registration deadline has passed")
	ErrAlreadyJoined      = errors.New("already joined this tour")
	ErrNotJoined          = errors.New("not joined this tour")
)

var timeNow = time.Now

type Service struct {
	db  db.TxQuerier
	hub *stream.Hub
}

func NewService(db db.TxQuerier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

func (s *Service) CreateTour(ctx context.Context, input Tour) (Tour, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO tours (id, title, location, description, start_date, end_date, registration_deadline,
		                   participant_limit, duration, elevation_gain, fee, leader_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at
	`, input.ID, input.Title, input.Location, input.Description, timePtr(input.StartDate), timePtr(input.EndDate),
		input.RegistrationDeadline, input.ParticipantLimit, input.Duration, input.ElevationGain, input.Fee, input.LeaderID)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Tour{}, err
	}
	return input, nil
}

func (s *Service) UpdateTour(ctx context.Context, id string, patch TourUpdate) (Tour, error) {
	tour, err := s.GetTour(ctx, id)
	if err != nil {
		return Tour{}, err
	}
	if patch.Title != "" {
		tour.Title = patch.Title
	}
	if patch.Location != "" {
		tour.Location = patch.Location
	}
	if patch.Description != "" {
		tour.Description = patch.Description
	}
	if !patch.StartDate.IsZero() {
		tour.StartDate = patch.StartDate
	}
	if !patch.EndDate.IsZero() {
		tour.EndDate = patch.EndDate
	}
	if !patch.RegistrationDeadline.IsZero() {
		tour.RegistrationDeadline = patch.RegistrationDeadline
	}
	if patch.ParticipantLimit > 0 {
		tour.ParticipantLimit = patch.ParticipantLimit
	}
	if patch.Duration != "" {
		tour.Duration = patch.Duration
	}
	if patch.ElevationGain != nil {
		tour.ElevationGain = *patch.ElevationGain
	}
	if patch.Fee != nil {
		tour.Fee = *patch.Fee
	}
	if patch.LeaderID != "" {
		tour.LeaderID = patch.LeaderID
	}

	_, err = s.db.Exec(ctx, `
		UPDATE tours
		SET title=$2, location=$3, description=$4, start_date=$5, end_date=$6, registration_deadline=$7,
		    participant_limit=$8, duration=$9, elevation_gain=$10, fee=$11, leader_id=$12
		WHERE id=$1
	`, tour.ID, tour.Title, tour.Location, tour.Description, timePtr(tour.StartDate), timePtr(tour.EndDate),
		tour.RegistrationDeadline, tour.ParticipantLimit, tour.Duration, tour.ElevationGain, tour.Fee, tour.LeaderID)
	if err != nil {
		return Tour{}, err
	}
	return tour, nil
}

func (s *Service) GetTour(ctx context.Context, id string) (Tour, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, title, location, description, start_date, end_date, registration_deadline,
		       participant_limit, duration, elevation_gain, fee, leader_id, created_at
		FROM tours WHERE id=$1
	`, id)
	return scanTour(row.Scan)
}

func (s *Service) ListTours(ctx context.Context) ([]Tour, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, location, description, start_date, end_date, registration_deadline,
		       participant_limit, duration, elevation_gain, fee, leader_id, created_at
		FROM tours
		ORDER BY start_date
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []Tour
	for rows.Next() {
		t, err := scanTour(rows.Scan)
		if err != nil {
			return nil, err
		}
		tours = append(tours, t)
	}
	return tours, nil
}

func scanTour(scan func(...any) error) (Tour, error) {
	var t Tour
	if err := scan(&t.ID, &t.Title, &t.Location, &t.Description, &t.StartDate, &t.EndDate,
		&t.RegistrationDeadline, &t.ParticipantLimit, &t.Duration, &t.ElevationGain, &t.Fee,
		&t.LeaderID, &t.CreatedAt); err != nil {
		return Tour{}, err
	}
	return t, nil
}

// DeleteTour removes the tour and its roster in one transaction so no
// orphaned participant rows remain.
func (s *Service) DeleteTour(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM tour_participants WHERE tour_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tours WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Join admits the user if the deadline has not passed, the roster is below
// the limit and no membership row exists. The tour row is locked so two
// concurrent joins on a near-full tour serialize instead of both passing
// the count check.
func (s *Service) Join(ctx context.Context, tourID, userID string) (Participant, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Participant{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var limit int
	var deadline time.Time
	row := tx.QueryRow(ctx, `
		SELECT participant_limit, registration_deadline
		FROM tours WHERE id=$1
		FOR UPDATE
	`, tourID)
	if err := row.Scan(&limit, &deadline); err != nil {
		return Participant{}, err
	}
	if timeNow().After(deadline) {
		return Participant{}, ErrRegistrationClosed
	}

	var joined bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tour_participants WHERE tour_id=$1 AND user_id=$2)
	`, tourID, userID).Scan(&joined); err != nil {
		return Participant{}, err
	}
	if joined {
		return Participant{}, ErrAlreadyJoined
	}

	var count int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM tour_participants WHERE tour_id=$1
	`, tourID).Scan(&count); err != nil {
		return Participant{}, err
	}
	if count >= limit {
		return Participant{}, ErrTourFull
	}

	participant := Participant{TourID: tourID, UserID: userID}
	if err := tx.QueryRow(ctx, `
		INSERT INTO tour_participants (tour_id, user_id)
		VALUES ($1,$2)
		RETURNING joined_at
	`, tourID, userID).Scan(&participant.JoinedAt); err != nil {
		return Participant{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Participant{}, err
	}

	s.broadcast(tourID, "participant_joined", participant)
	return participant, nil
}

// Leave deletes the membership row unconditionally; members may leave after
// the registration deadline.
func (s *Service) Leave(ctx context.Context, tourID, userID string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM tour_participants WHERE tour_id=$1 AND user_id=$2
	`, tourID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotJoined
	}

	s.broadcast(tourID, "participant_left", Participant{TourID: tourID, UserID: userID})
	return nil
}

func (s *Service) Status(ctx context.Context, tourID, userID string) (string, error) {
	var joined bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tour_participants WHERE tour_id=$1 AND user_id=$2)
	`, tourID, userID).Scan(&joined)
	if err != nil {
		return "", err
	}
	if joined {
		return StatusJoined, nil
	}
	return StatusNotJoined, nil
}

func (s *Service) Participants(ctx context.Context, tourID string) ([]Participant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT tour_id, user_id, joined_at
		FROM tour_participants WHERE tour_id=$1
		ORDER BY joined_at
	`, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.TourID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func (s *Service) broadcast(tourID, event string, participant Participant) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"event":       event,
		"participant": participant,
	})
	s.hub.Broadcast("tours:"+tourID, payload)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
