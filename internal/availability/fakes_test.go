package availability

import (
	"context"
	"time"

	"github.com/wolfman30/clinic-slots/internal/pricing"
	"github.com/wolfman30/clinic-slots/internal/scheduling"
)

const (
	clinicID  = "6f1c2d3e-4a5b-4c6d-8e7f-901234567890"
	serviceID = "0a1b2c3d-4e5f-4a6b-9c8d-7e6f5a4b3c2d"
	staffA    = "aaaaaaaa-0000-4000-8000-000000000001"
	staffB    = "bbbbbbbb-0000-4000-8000-000000000002"
)

var (
	// 2026-10-18 is a Sunday, 2026-10-19 a Monday, 2026-10-17 a Saturday.
	monday   = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	lastWeek = time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)
)

type fakeSchedules struct {
	schedules map[string]*scheduling.ClinicSchedule
	err       error
}

func (f *fakeSchedules) Get(_ context.Context, id string) (*scheduling.ClinicSchedule, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.schedules[id]
	if !ok {
		return nil, &scheduling.NotFoundError{Resource: "clinic", ID: id}
	}
	copied := *s
	return &copied, nil
}

type fakeCatalog struct {
	services map[string]*scheduling.Service
}

func (f *fakeCatalog) GetService(_ context.Context, clinic, id string) (*scheduling.Service, error) {
	svc, ok := f.services[id]
	if !ok || svc.ClinicID != clinic || !svc.IsActive {
		return nil, &scheduling.NotFoundError{Resource: "service", ID: id}
	}
	return svc, nil
}

type fakeAppointments struct {
	appointments []scheduling.Appointment
	err          error
	from, to     time.Time
}

func (f *fakeAppointments) ListOverlapping(_ context.Context, _ string, from, to time.Time) ([]scheduling.Appointment, error) {
	f.from, f.to = from, to
	return f.appointments, f.err
}

type fakeBlocks struct {
	blocks []scheduling.UnavailabilityBlock
	err    error
}

func (f *fakeBlocks) ListBlocks(context.Context, string, time.Time, time.Time) ([]scheduling.UnavailabilityBlock, error) {
	return f.blocks, f.err
}

type fakeRules struct {
	rules []pricing.Rule
	err   error
	calls int
}

func (f *fakeRules) ListActive(context.Context, string) ([]pricing.Rule, error) {
	f.calls++
	return f.rules, f.err
}

type fixture struct {
	schedules    *fakeSchedules
	catalog      *fakeCatalog
	appointments *fakeAppointments
	blocks       *fakeBlocks
	rules        *fakeRules
	now          time.Time
}

// newFixture builds a clinic open Mon-Sat 09:00-12:00 on a 30 minute grid with
// a 60 minute service priced at 1000.
func newFixture() *fixture {
	open := scheduling.DayHours{Enabled: true, Open: "09:00", Close: "12:00"}
	schedule := &scheduling.ClinicSchedule{
		ClinicID: clinicID,
		Timezone: "UTC",
		WorkingHours: scheduling.WorkingHours{
			"sunday":    {Enabled: false},
			"monday":    open,
			"tuesday":   open,
			"wednesday": open,
			"thursday":  open,
			"friday":    open,
			"saturday":  open,
		},
		Policy: scheduling.BookingPolicy{SlotDurationMinutes: 30},
	}
	return &fixture{
		schedules: &fakeSchedules{schedules: map[string]*scheduling.ClinicSchedule{clinicID: schedule}},
		catalog: &fakeCatalog{services: map[string]*scheduling.Service{
			serviceID: {ID: serviceID, ClinicID: clinicID, Name: "HydraFacial", DurationMinutes: 60, Price: 1000, IsActive: true},
		}},
		appointments: &fakeAppointments{},
		blocks:       &fakeBlocks{},
		rules:        &fakeRules{},
		now:          lastWeek,
	}
}

func (f *fixture) schedule() *scheduling.ClinicSchedule {
	return f.schedules.schedules[clinicID]
}

func (f *fixture) service(opts ...Option) *Service {
	stores := Stores{
		Schedules:    f.schedules,
		Services:     f.catalog,
		Appointments: f.appointments,
		Blocks:       f.blocks,
		Rules:        f.rules,
	}
	opts = append([]Option{WithClock(func() time.Time { return f.now })}, opts...)
	return NewService(stores, nil, opts...)
}

func at(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

func slotMap(slots []Slot) map[string]bool {
	out := make(map[string]bool, len(slots))
	for _, s := range slots {
		out[s.Time] = s.Available
	}
	return out
}
