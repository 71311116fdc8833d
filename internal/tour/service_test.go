package tour

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

var errQuery = errors.New("query error")

const tourCols = `SELECT id, title, location, description, start_date, end_date, registration_deadline`

func tourRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "title", "location", "description", "start_date", "end_date",
		"registration_deadline", "participant_limit", "duration", "elevation_gain", "fee", "leader_id", "created_at"})
}

func expectJoinChecks(mock pgxmock.PgxPoolIface, tourID, userID string, limit, count int, deadline time.Time, joined bool) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT participant_limit, registration_deadline`).
		WithArgs(tourID).
		WillReturnRows(pgxmock.NewRows([]string{"participant_limit", "registration_deadline"}).AddRow(limit, deadline))
	if time.Now().After(deadline) {
		mock.ExpectRollback()
		return
	}
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(tourID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(joined))
	if joined {
		mock.ExpectRollback()
		return
	}
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(tourID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(count))
	if count >= limit {
		mock.ExpectRollback()
		return
	}
	mock.ExpectQuery(`INSERT INTO tour_participants`).
		WithArgs(tourID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"joined_at"}).AddRow(time.Now()))
	mock.ExpectCommit()
}

func TestCreateAndGetTour(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	deadline := time.Now().Add(48 * time.Hour)
	createdAt := time.Now()

	mock.ExpectQuery(`INSERT INTO tours`).
		WithArgs(pgxmock.AnyArg(), "Watzmann Crossing", "Berchtesgaden", "desc", pgxmock.AnyArg(), pgxmock.AnyArg(),
			deadline, 12, "2 days", 1200, 35.0, "leader-1").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	svc := NewService(mock, nil)
	created, err := svc.CreateTour(context.Background(), Tour{
		Title:                "Watzmann Crossing",
		Location:             "Berchtesgaden",
		Description:          "desc",
		StartDate:            time.Now().Add(72 * time.Hour),
		EndDate:              time.Now().Add(96 * time.Hour),
		RegistrationDeadline: deadline,
		ParticipantLimit:     12,
		Duration:             "2 days",
		ElevationGain:        1200,
		Fee:                  35,
		LeaderID:             "leader-1",
	})
	if err != nil {
		t.Fatalf("create tour: %v", err)
	}

	mock.ExpectQuery(tourCols).
		WithArgs(created.ID).
		WillReturnRows(tourRows().
			AddRow(created.ID, created.Title, created.Location, created.Description, created.StartDate, created.EndDate,
				created.RegistrationDeadline, created.ParticipantLimit, created.Duration, created.ElevationGain,
				created.Fee, created.LeaderID, created.CreatedAt))

	loaded, err := svc.GetTour(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get tour: %v", err)
	}
	if loaded.ID != created.ID || loaded.ParticipantLimit != 12 {
		t.Fatalf("unexpected tour loaded")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateTourPatchFields(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	deadline := time.Now().Add(24 * time.Hour)

	mock.ExpectQuery(tourCols).
		WithArgs("tour-1").
		WillReturnRows(tourRows().
			AddRow("tour-1", "Tour", "Alps", "desc", time.Now(), time.Now(), deadline, 10, "1 day", 500, 10.0, "leader-1", time.Now()))

	mock.ExpectExec(`UPDATE tours`).
		WithArgs("tour-1", "Tour Renamed", "Alps", "desc", pgxmock.AnyArg(), pgxmock.AnyArg(), deadline,
			8, "1 day", 500, 10.0, "leader-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock, nil)
	updated, err := svc.UpdateTour(context.Background(), "tour-1", TourUpdate{Title: "Tour Renamed", ParticipantLimit: 8})
	if err != nil {
		t.Fatalf("update tour: %v", err)
	}
	if updated.Title != "Tour Renamed" || updated.ParticipantLimit != 8 {
		t.Fatalf("unexpected update")
	}
}

// Fee and elevation gain can be reset to zero, so the patch must tell
// "set to 0" apart from "leave alone".
func TestUpdateTourResetsFeeAndElevation(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	deadline := time.Now().Add(24 * time.Hour)

	mock.ExpectQuery(tourCols).
		WithArgs("tour-1").
		WillReturnRows(tourRows().
			AddRow("tour-1", "Tour", "Alps", "desc", time.Now(), time.Now(), deadline, 10, "1 day", 500, 10.0, "leader-1", time.Now()))

	mock.ExpectExec(`UPDATE tours`).
		WithArgs("tour-1", "Tour", "Alps", "desc", pgxmock.AnyArg(), pgxmock.AnyArg(), deadline,
			10, "1 day", 0, 0.0, "leader-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	zeroGain := 0
	zeroFee := 0.0
	svc := NewService(mock, nil)
	updated, err := svc.UpdateTour(context.Background(), "tour-1", TourUpdate{ElevationGain: &zeroGain, Fee: &zeroFee})
	if err != nil {
		t.Fatalf("update tour: %v", err)
	}
	if updated.ElevationGain != 0 || updated.Fee != 0 {
		t.Fatalf("expected zeroed fee and elevation, got %+v", updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteTourCascadesParticipants(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tour_participants`).WithArgs("tour-1").WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM tours`).WithArgs("tour-1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	svc := NewService(mock, nil)
	if err := svc.DeleteTour(context.Background(), "tour-1"); err != nil {
		t.Fatalf("delete tour: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestJoinAdmits(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectJoinChecks(mock, "tour-1", "user-1", 2, 0, time.Now().Add(24*time.Hour), false)

	svc := NewService(mock, nil)
	participant, err := svc.Join(context.Background(), "tour-1", "user-1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if participant.UserID != "user-1" || participant.JoinedAt.IsZero() {
		t.Fatalf("unexpected participant: %+v", participant)
	}
}

func TestJoinTourFull(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectJoinChecks(mock, "tour-1", "user-3", 2, 2, time.Now().Add(24*time.Hour), false)

	svc := NewService(mock, nil)
	_, err = svc.Join(context.Background(), "tour-1", "user-3")
	if !errors.Is(err, ErrTourFull) {
		t.Fatalf("expected ErrTourFull, got %v", err)
	}
}

func TestJoinRegistrationClosed(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	// capacity remaining is irrelevant once the deadline has passed
	expectJoinChecks(mock, "tour-1", "user-1", 10, 0, time.Now().Add(-time.Hour), false)

	svc := NewService(mock, nil)
	_, err = svc.Join(context.Background(), "tour-1", "user-1")
	if !errors.Is(err, ErrRegistrationClosed) {
		t.Fatalf("expected ErrRegistrationClosed, got %v", err)
	}
}

func TestJoinAlreadyJoined(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	expectJoinChecks(mock, "tour-1", "user-1", 2, 1, time.Now().Add(24*time.Hour), true)

	svc := NewService(mock, nil)
	_, err = svc.Join(context.Background(), "tour-1", "user-1")
	if !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
}

func TestJoinLeaveJoinRoundTrip(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	deadline := time.Now().Add(24 * time.Hour)
	svc := NewService(mock, nil)

	expectJoinChecks(mock, "tour-1", "user-1", 5, 0, deadline, false)
	if _, err := svc.Join(context.Background(), "tour-1", "user-1"); err != nil {
		t.Fatalf("first join: %v", err)
	}

	mock.ExpectExec(`DELETE FROM tour_participants`).
		WithArgs("tour-1", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	if err := svc.Leave(context.Background(), "tour-1", "user-1"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	expectJoinChecks(mock, "tour-1", "user-1", 5, 0, deadline, false)
	if _, err := svc.Join(context.Background(), "tour-1", "user-1"); err != nil {
		t.Fatalf("second join: %v", err)
	}
}

// Limit 2: A and B get in, C is rejected, A leaves, C gets the freed slot.
func TestCapacityScenario(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	deadline := time.Now().Add(24 * time.Hour)
	svc := NewService(mock, nil)

	expectJoinChecks(mock, "tour-1", "user-a", 2, 0, deadline, false)
	if _, err := svc.Join(context.Background(), "tour-1", "user-a"); err != nil {
		t.Fatalf("join A: %v", err)
	}

	expectJoinChecks(mock, "tour-1", "user-b", 2, 1, deadline, false)
	if _, err := svc.Join(context.Background(), "tour-1", "user-b"); err != nil {
		t.Fatalf("join B: %v", err)
	}

	expectJoinChecks(mock, "tour-1", "user-c", 2, 2, deadline, false)
	if _, err := svc.Join(context.Background(), "tour-1", "user-c"); !errors.Is(err, ErrTourFull) {
		t.Fatalf("expected ErrTourFull for C, got %v", err)
	}

	mock.ExpectExec(`DELETE FROM tour_participants`).
		WithArgs("tour-1", "user-a").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	if err := svc.Leave(context.Background(), "tour-1", "user-a"); err != nil {
		t.Fatalf("leave A: %v", err)
	}

	expectJoinChecks(mock, "tour-1", "user-c", 2, 1, deadline, false)
	if _, err := svc.Join(context.Background(), "tour-1", "user-c"); err != nil {
		t.Fatalf("join C after slot freed: %v", err)
	}
}

func TestLeaveNotJoined(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM tour_participants`).
		WithArgs("tour-1", "user-9").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	svc := NewService(mock, nil)
	if err := svc.Leave(context.Background(), "tour-1", "user-9"); !errors.Is(err, ErrNotJoined) {
		t.Fatalf("expected ErrNotJoined, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService(mock, nil)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("tour-1", "user-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	status, err := svc.Status(context.Background(), "tour-1", "user-1")
	if err != nil || status != StatusJoined {
		t.Fatalf("expected joined, got %q (%v)", status, err)
	}

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("tour-1", "user-2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	status, err = svc.Status(context.Background(), "tour-1", "user-2")
	if err != nil || status != StatusNotJoined {
		t.Fatalf("expected not_joined, got %q (%v)", status, err)
	}
}

func TestParticipants(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT tour_id, user_id, joined_at`).
		WithArgs("tour-1").
		WillReturnRows(pgxmock.NewRows([]string{"tour_id", "user_id", "joined_at"}).
			AddRow("tour-1", "user-1", time.Now()).
			AddRow("tour-1", "user-2", time.Now()))

	svc := NewService(mock, nil)
	participants, err := svc.Participants(context.Background(), "tour-1")
	if err != nil || len(participants) != 2 {
		t.Fatalf("participants: %v", err)
	}
}

func TestListToursQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(tourCols).WillReturnError(errQuery)

	svc := NewService(mock, nil)
	if _, err := svc.ListTours(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestJoinTourLookupError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT participant_limit, registration_deadline`).
		WithArgs("missing").
		WillReturnError(errQuery)
	mock.ExpectRollback()

	svc := NewService(mock, nil)
	if _, err := svc.Join(context.Background(), "missing", "user-1"); err == nil {
		t.Fatalf("expected error")
	}
}
