package gear

import (
	"context"
	"encoding/json"
	"errors"

	"backend-alpineconnect/internal/db"
	"backend-alpineconnect/internal/stream"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidDateRange  = errors.New("end date must be on or after the start date")
	ErrInsufficientStock = errors.New("not enough stock for the requested dates")
	ErrAlreadyDecided    = errors.New("reservation already decided")
	ErrInvalidDecision   = errors.New("decision must be approved or rejected")
)

type Service struct {
	db  db.TxQuerier
	hub *stream.Hub
}

func NewService(db db.TxQuerier, hub *stream.Hub) *Service {
	return &Service{db: db, hub: hub}
}

func (s *Service) CreateMaterial(ctx context.Context, input Material) (Material, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO materials (id, name, description, quantity_available, price, sizes)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, input.ID, input.Name, input.Description, input.QuantityAvailable, input.Price, sizesJSON(input.Sizes))
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Material{}, err
	}
	return input, nil
}

func (s *Service) UpdateMaterial(ctx context.Context, id string, patch MaterialUpdate) (Material, error) {
	material, err := s.GetMaterial(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if patch.Name != "" {
		material.Name = patch.Name
	}
	if patch.Description != "" {
		material.Description = patch.Description
	}
	if patch.QuantityAvailable != nil {
		material.QuantityAvailable = *patch.QuantityAvailable
	}
	if patch.Price != nil {
		material.Price = *patch.Price
	}
	if patch.Sizes != nil {
		material.Sizes = patch.Sizes
	}

	_, err = s.db.Exec(ctx, `
		UPDATE materials
		SET name=$2, description=$3, quantity_available=$4, price=$5, sizes=$6
		WHERE id=$1
	`, material.ID, material.Name, material.Description, material.QuantityAvailable, material.Price, sizesJSON(material.Sizes))
	if err != nil {
		return Material{}, err
	}
	return material, nil
}

func (s *Service) GetMaterial(ctx context.Context, id string) (Material, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, description, quantity_available, price, sizes, created_at
		FROM materials WHERE id=$1
	`, id)
	return scanMaterial(row.Scan)
}

func (s *Service) ListMaterials(ctx context.Context) ([]Material, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, quantity_available, price, sizes, created_at
		FROM materials
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []Material
	for rows.Next() {
		m, err := scanMaterial(rows.Scan)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, nil
}

// DeleteMaterial removes the material together with its reservations so no
// reservation rows point at a missing material.
func (s *Service) DeleteMaterial(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM material_reservations WHERE material_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM materials WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RequestReservation records a pending request. It holds no stock; the
// stock check happens again at approval time. Input is re-validated here
// regardless of what any form enforced.
func (s *Service) RequestReservation(ctx context.Context, userID, materialID string, req ReservationRequest) (Reservation, error) {
	if req.Quantity < 1 {
		return Reservation{}, ErrInvalidQuantity
	}
	if req.EndDate.Before(req.StartDate) {
		return Reservation{}, ErrInvalidDateRange
	}

	var available int
	if err := s.db.QueryRow(ctx, `
		SELECT quantity_available FROM materials WHERE id=$1
	`, materialID).Scan(&available); err != nil {
		return Reservation{}, err
	}
	if req.Quantity > available {
		return Reservation{}, ErrInsufficientStock
	}

	reservation := Reservation{
		ID:               uuid.NewString(),
		UserID:           userID,
		MaterialID:       materialID,
		QuantityReserved: req.Quantity,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Status:           StatusPending,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO material_reservations (id, user_id, material_id, quantity_reserved, start_date, end_date, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING reservation_date
	`, reservation.ID, reservation.UserID, reservation.MaterialID, reservation.QuantityReserved,
		reservation.StartDate, reservation.EndDate, reservation.Status)
	if err := row.Scan(&reservation.ReservationDate); err != nil {
		return Reservation{}, err
	}
	return reservation, nil
}

// Decide moves a pending reservation to approved or rejected. Terminal
// states are immutable. Approval locks the material row and checks that
// approved reservations overlapping the requested dates stay within
// quantity_available; quantity_available itself is never decremented, it
// is the authoritative total from which availability is derived.
func (s *Service) Decide(ctx context.Context, reservationID, decision string) (Reservation, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return Reservation{}, ErrInvalidDecision
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Reservation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var r Reservation
	row := tx.QueryRow(ctx, `
		SELECT id, user_id, material_id, quantity_reserved, start_date, end_date, status, reservation_date
		FROM material_reservations WHERE id=$1
		FOR UPDATE
	`, reservationID)
	if err := row.Scan(&r.ID, &r.UserID, &r.MaterialID, &r.QuantityReserved, &r.StartDate, &r.EndDate,
		&r.Status, &r.ReservationDate); err != nil {
		return Reservation{}, err
	}
	if r.Status != StatusPending {
		return Reservation{}, ErrAlreadyDecided
	}

	if decision == StatusApproved {
		var available int
		if err := tx.QueryRow(ctx, `
			SELECT quantity_available FROM materials WHERE id=$1
			FOR UPDATE
		`, r.MaterialID).Scan(&available); err != nil {
			return Reservation{}, err
		}

		var reserved int
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(quantity_reserved), 0)
			FROM material_reservations
			WHERE material_id=$1 AND status=$2 AND start_date <= $3 AND end_date >= $4
		`, r.MaterialID, StatusApproved, r.EndDate, r.StartDate).Scan(&reserved); err != nil {
			return Reservation{}, err
		}
		if reserved+r.QuantityReserved > available {
			return Reservation{}, ErrInsufficientStock
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE material_reservations SET status=$2 WHERE id=$1
	`, r.ID, decision); err != nil {
		return Reservation{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Reservation{}, err
	}

	r.Status = decision
	s.broadcast("reservation_"+decision, r)
	return r, nil
}

// ReservationsForMaterial serves the admin view with one indexed query
// keyed by material_id.
func (s *Service) ReservationsForMaterial(ctx context.Context, materialID string) ([]Reservation, error) {
	return s.reservations(ctx, `
		SELECT id, user_id, material_id, quantity_reserved, start_date, end_date, status, reservation_date
		FROM material_reservations WHERE material_id=$1
		ORDER BY reservation_date DESC
	`, materialID)
}

func (s *Service) ReservationsForUser(ctx context.Context, userID string) ([]Reservation, error) {
	return s.reservations(ctx, `
		SELECT id, user_id, material_id, quantity_reserved, start_date, end_date, status, reservation_date
		FROM material_reservations WHERE user_id=$1
		ORDER BY reservation_date DESC
	`, userID)
}

func (s *Service) reservations(ctx context.Context, sql string, arg any) ([]Reservation, error) {
	rows, err := s.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.UserID, &r.MaterialID, &r.QuantityReserved, &r.StartDate, &r.EndDate,
			&r.Status, &r.ReservationDate); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, nil
}

func (s *Service) broadcast(event string, reservation Reservation) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"event":       event,
		"reservation": reservation,
	})
	s.hub.Broadcast("reservations", payload)
}

func sizesJSON(sizes map[string]int) []byte {
	if sizes == nil {
		return nil
	}
	raw, _ := json.Marshal(sizes)
	return raw
}

func scanMaterial(scan func(...any) error) (Material, error) {
	var m Material
	var sizesRaw []byte
	if err := scan(&m.ID, &m.Name, &m.Description, &m.QuantityAvailable, &m.Price, &sizesRaw, &m.CreatedAt); err != nil {
		return Material{}, err
	}
	if len(sizesRaw) > 0 {
		_ = json.Unmarshal(sizesRaw, &m.Sizes)
	}
	return m, nil
}
