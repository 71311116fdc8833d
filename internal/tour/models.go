package tour

import "time"

type Tour struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Location             string    `json:"location"`
	Description          string    `json:"description"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	ParticipantLimit     int       `json:"participant_limit"`
	Duration             string    `json:"duration"`
	ElevationGain        int       `json:"elevation_gain"`
	Fee                  float64   `json:"fee"`
	LeaderID             string    `json:"leader_id"`
	CreatedAt            time.Time `json:"created_at"`
}

// TourUpdate is a partial update; zero-valued fields stay unchanged.
// Elevation gain and fee are pointers because zero is a legal value
// to set them to.
type TourUpdate struct {
	Title                string    `json:"title"`
	Location             string    `json:"location"`
	Description          string    `json:"description"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	ParticipantLimit     int       `json:"participant_limit"`
	Duration             string    `json:"duration"`
	ElevationGain        *int      `json:"elevation_gain"`
	Fee                  *float64  `json:"fee"`
	LeaderID             string    `json:"leader_id"`
}

type Participant struct {
	TourID   string    `json:"tour_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// Participation states per (user, tour). Existence of the row is membership.
const (
	StatusJoined    = "joined"
	StatusNotJoined = "not_joined"
)
