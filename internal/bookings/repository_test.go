package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/wolfman30/clinic-slots/internal/scheduling"
)

func TestListOverlapping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	from := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	tenAM := from.Add(10 * time.Hour)

	mock.ExpectQuery("FROM appointments").
		WithArgs("clinic-1", from, to).
		WillReturnRows(pgxmock.NewRows([]string{"id", "start_time", "end_time", "staff_id", "status"}).
			AddRow("appt-1", tenAM, tenAM.Add(time.Hour), "staff-a", "confirmed").
			AddRow("appt-2", tenAM.Add(3*time.Hour), tenAM.Add(4*time.Hour), nil, "pending_payment"))

	repo := NewRepository(mock)
	appts, err := repo.ListOverlapping(context.Background(), "clinic-1", from, to)
	if err != nil {
		t.Fatalf("ListOverlapping returned error: %v", err)
	}
	if len(appts) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(appts))
	}
	if appts[0].StaffID != "staff-a" || appts[0].Status != scheduling.StatusConfirmed {
		t.Fatalf("unexpected first appointment: %+v", appts[0])
	}
	if !appts[0].StartTime.Equal(tenAM) {
		t.Fatalf("start mismatch, got %s want %s", appts[0].StartTime, tenAM)
	}
	if appts[1].StaffID != "" {
		t.Fatalf("expected unassigned staff, got %q", appts[1].StaffID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListOverlappingQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM appointments").WillReturnError(errors.New("timeout"))

	_, err = NewRepository(mock).ListOverlapping(context.Background(), "clinic-1", time.Now(), time.Now().Add(time.Hour))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewRepositoryRequiresDB(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for nil db")
		}
	}()
	NewRepository(nil)
}
