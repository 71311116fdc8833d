package gear

import "time"

type Material struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	QuantityAvailable int            `json:"quantity_available"`
	Price             float64        `json:"price"`
	Sizes             map[string]int `json:"sizes,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// MaterialUpdate is a partial update; zero-valued fields stay unchanged.
// Quantity and price are pointers because zero is a legal value to set
// them to (all units out for repair, free loan items).
type MaterialUpdate struct {
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	QuantityAvailable *int           `json:"quantity_available"`
	Price             *float64       `json:"price"`
	Sizes             map[string]int `json:"sizes"`
}

// Reservation lifecycle: pending until an admin decides, then terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Reservation struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	MaterialID       string    `json:"material_id"`
	QuantityReserved int       `json:"quantity_reserved"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	Status           string    `json:"status"`
	ReservationDate  time.Time `json:"reservation_date"`
}

type ReservationRequest struct {
	Quantity  int       `json:"quantity"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type DecisionRequest struct {
	Decision string `json:"decision"`
}
