// Package availability answers slot, price and slot-check queries by reading
// clinic data from the stores and running the pure scheduling and pricing core.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/clinic-slots/internal/observability/metrics"
	"github.com/wolfman30/clinic-slots/internal/pricing"
	"github.com/wolfman30/clinic-slots/internal/scheduling"
	"github.com/wolfman30/clinic-slots/pkg/logging"
)

var availabilityTracer = otel.Tracer("clinic.internal.availability")

// ScheduleStore returns a clinic's working hours, policy and time zone.
type ScheduleStore interface {
	Get(ctx context.Context, clinicID string) (*scheduling.ClinicSchedule, error)
}

// ServiceCatalog returns bookable services.
type ServiceCatalog interface {
	GetService(ctx context.Context, clinicID, serviceID string) (*scheduling.Service, error)
}

// AppointmentStore returns non-cancelled appointments intersecting a range.
type AppointmentStore interface {
	ListOverlapping(ctx context.Context, clinicID string, from, to time.Time) ([]scheduling.Appointment, error)
}

// BlockStore returns unavailability blocks intersecting a range.
type BlockStore interface {
	ListBlocks(ctx context.Context, clinicID string, from, to time.Time) ([]scheduling.UnavailabilityBlock, error)
}

// RuleStore returns a clinic's active pricing rules.
type RuleStore interface {
	ListActive(ctx context.Context, clinicID string) ([]pricing.Rule, error)
}

// Stores groups the read-only collaborators the service queries.
type Stores struct {
	Schedules    ScheduleStore
	Services     ServiceCatalog
	Appointments AppointmentStore
	Blocks       BlockStore
	Rules        RuleStore
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used for advance-notice checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics records computations on m.
func WithMetrics(m *metrics.SlotMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service computes availability and prices for clinic services.
type Service struct {
	stores  Stores
	logger  *logging.Logger
	metrics *metrics.SlotMetrics
	now     func() time.Time
}

// NewService constructs an availability service.
func NewService(stores Stores, logger *logging.Logger, opts ...Option) *Service {
	if stores.Schedules == nil || stores.Services == nil || stores.Appointments == nil ||
		stores.Blocks == nil || stores.Rules == nil {
		panic("availability: all stores are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		stores: stores,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Slot is a candidate slot, priced when the caller asked for prices and the
// slot is available.
type Slot struct {
	scheduling.CandidateSlot
	Price *pricing.Quote `json:"price,omitempty"`
}

// SlotsResult is the answer to a SlotsRequest.
type SlotsResult struct {
	Date            string `json:"date"`
	ServiceID       string `json:"service_id"`
	ServiceDuration int    `json:"service_duration"`
	Timezone        string `json:"timezone"`
	Slots           []Slot `json:"slots"`
	Closed          bool   `json:"closed,omitempty"`
	Message         string `json:"message,omitempty"`
}

// CheckResult confirms that a specific slot can be booked.
type CheckResult struct {
	Available bool          `json:"available"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	StaffID   string        `json:"staff_id,omitempty"`
	Quote     pricing.Quote `json:"quote"`
}

// SlotUnavailableError explains why CheckSlot rejected a slot. It unwraps to
// scheduling.ErrSlotUnavailable.
type SlotUnavailableError struct {
	Reason scheduling.UnavailableReason
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", scheduling.ErrSlotUnavailable, e.Reason)
}

func (e *SlotUnavailableError) Unwrap() error {
	return scheduling.ErrSlotUnavailable
}

// AvailableSlots lists every candidate start for the service on the requested
// date, each marked available or not. A closed weekday yields an empty list
// with Closed set.
func (s *Service) AvailableSlots(ctx context.Context, req SlotsRequest) (result *SlotsResult, err error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.slots")
	defer span.End()
	started := time.Now()
	defer func() { s.finish(span, "slots", result != nil && result.Closed, err, started) }()

	q, err := req.parse()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("clinic.id", q.clinicID),
		attribute.String("clinic.service_id", q.serviceID),
		attribute.String("clinic.date", req.Date),
	)

	schedule, svc, err := s.load(ctx, q.clinicID, q.serviceID)
	if err != nil {
		return nil, err
	}

	result = &SlotsResult{
		Date:            q.date.Format(dateLayout),
		ServiceID:       svc.ID,
		ServiceDuration: svc.DurationMinutes,
		Timezone:        schedule.Location().String(),
		Slots:           []Slot{},
	}

	window, open, err := schedule.WindowFor(q.date)
	if err != nil {
		return nil, err
	}
	if !open {
		result.Closed = true
		result.Message = scheduling.ClosedDayMessage
		return result, nil
	}

	starts, err := scheduling.GenerateSlots(window, schedule.Policy.SlotDurationMinutes, svc.DurationMinutes, schedule.Policy.BufferMinutes)
	if err != nil {
		return nil, tagClinic(err, q.clinicID)
	}

	loc := schedule.Location()
	check, err := s.conflicts(ctx, schedule, q.date, q.staffID)
	if err != nil {
		return nil, err
	}
	candidates := scheduling.FilterConflicts(scheduling.Candidates(q.date, starts, loc), svc.Duration(), check)

	var rules []pricing.Rule
	if q.includePrices {
		if rules, err = s.stores.Rules.ListActive(ctx, q.clinicID); err != nil {
			return nil, err
		}
	}

	available := 0
	for _, c := range candidates {
		slot := Slot{CandidateSlot: c}
		if c.Available {
			available++
			if q.includePrices {
				quote := s.quote(svc, schedule.Policy, c.Start, check.Now, rules)
				slot.Price = &quote
			}
		}
		result.Slots = append(result.Slots, slot)
	}
	s.metrics.ObserveSlots(available, len(candidates)-available)
	s.logger.WithClinic(q.clinicID).Debug("slots computed",
		"service_id", q.serviceID, "date", result.Date, "candidates", len(candidates), "available", available)
	return result, nil
}

// SlotPrice prices the service at the requested time against the clinic's
// active rules. The quote carries the deposit the booking policy asks for.
func (s *Service) SlotPrice(ctx context.Context, req PriceRequest) (quote *pricing.Quote, err error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.price")
	defer span.End()
	started := time.Now()
	defer func() { s.finish(span, "price", false, err, started) }()

	q, err := req.parse()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("clinic.id", q.clinicID),
		attribute.String("clinic.service_id", q.serviceID),
	)

	schedule, svc, err := s.load(ctx, q.clinicID, q.serviceID)
	if err != nil {
		return nil, err
	}
	at, err := parseDateTime(q.raw, schedule.Location())
	if err != nil {
		return nil, err
	}
	rules, err := s.stores.Rules.ListActive(ctx, q.clinicID)
	if err != nil {
		return nil, err
	}

	result := s.quote(svc, schedule.Policy, at, s.now(), rules)
	return &result, nil
}

// CheckSlot verifies that one start time is inside working hours and free of
// conflicts and booking-window violations. The start does not need to sit on
// the slot grid. A rejected slot is reported as *SlotUnavailableError.
func (s *Service) CheckSlot(ctx context.Context, req CheckRequest) (result *CheckResult, err error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.check")
	defer span.End()
	started := time.Now()
	defer func() { s.finish(span, "check", false, err, started) }()

	q, err := req.parse()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("clinic.id", q.clinicID),
		attribute.String("clinic.service_id", q.serviceID),
		attribute.String("clinic.date", req.Date),
		attribute.String("clinic.time", req.Time),
	)

	schedule, svc, err := s.load(ctx, q.clinicID, q.serviceID)
	if err != nil {
		return nil, err
	}

	window, open, err := schedule.WindowFor(q.date)
	if err != nil {
		return nil, err
	}
	if !open || !window.Contains(q.minutes, svc.DurationMinutes) {
		return nil, &SlotUnavailableError{Reason: scheduling.ReasonOutsideHours}
	}

	check, err := s.conflicts(ctx, schedule, q.date, q.staffID)
	if err != nil {
		return nil, err
	}
	start, exists := scheduling.WallClock(q.date, q.minutes, schedule.Location())
	if !exists {
		return nil, &SlotUnavailableError{Reason: scheduling.ReasonOutsideHours}
	}
	end := start.Add(svc.Duration())
	if reason := check.Evaluate(start, end); reason != "" {
		return nil, &SlotUnavailableError{Reason: reason}
	}

	rules, err := s.stores.Rules.ListActive(ctx, q.clinicID)
	if err != nil {
		return nil, err
	}
	return &CheckResult{
		Available: true,
		Start:     start,
		End:       end,
		StaffID:   q.staffID,
		Quote:     s.quote(svc, schedule.Policy, start, check.Now, rules),
	}, nil
}

func (s *Service) load(ctx context.Context, clinicID, serviceID string) (*scheduling.ClinicSchedule, *scheduling.Service, error) {
	schedule, err := s.stores.Schedules.Get(ctx, clinicID)
	if err != nil {
		return nil, nil, err
	}
	svc, err := s.stores.Services.GetService(ctx, clinicID, serviceID)
	if err != nil {
		return nil, nil, err
	}
	if svc.DurationMinutes <= 0 {
		return nil, nil, &scheduling.ConfigError{ClinicID: clinicID, Reason: fmt.Sprintf("service %s has no duration", svc.ID)}
	}
	return schedule, svc, nil
}

// conflicts reads the day's appointments and blocks once and builds the check
// every slot of that day is evaluated against.
func (s *Service) conflicts(ctx context.Context, schedule *scheduling.ClinicSchedule, date time.Time, staffID string) (scheduling.ConflictCheck, error) {
	from, to := scheduling.DayBounds(date, schedule.Location())
	appointments, err := s.stores.Appointments.ListOverlapping(ctx, schedule.ClinicID, from, to)
	if err != nil {
		return scheduling.ConflictCheck{}, err
	}
	blocks, err := s.stores.Blocks.ListBlocks(ctx, schedule.ClinicID, from, to)
	if err != nil {
		return scheduling.ConflictCheck{}, err
	}
	return scheduling.ConflictCheck{
		Appointments:   appointments,
		Blocks:         blocks,
		StaffID:        staffID,
		Now:            s.now(),
		MinAdvance:     schedule.Policy.MinAdvance(),
		MaxAdvanceDays: schedule.Policy.MaxAdvanceDays,
	}, nil
}

func (s *Service) quote(svc *scheduling.Service, policy scheduling.BookingPolicy, at, now time.Time, rules []pricing.Rule) pricing.Quote {
	q := pricing.Evaluate(pricing.Target{
		ServiceID: svc.ID,
		BasePrice: svc.Price,
		At:        at,
		Now:       now,
	}, rules)
	s.metrics.ObserveRulesApplied(len(q.AppliedRules))
	return q.WithDeposit(policy, svc.DepositRequired)
}

func (s *Service) finish(span trace.Span, operation string, closed bool, err error, started time.Time) {
	outcome := Outcome(err)
	if closed {
		outcome = "closed"
	}
	if err != nil && outcome != "unavailable" {
		span.RecordError(err)
	}
	span.SetAttributes(attribute.String("clinic.outcome", outcome))
	s.metrics.ObserveRequest(operation, outcome, time.Since(started).Seconds())
}

// Outcome classifies an error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case scheduling.IsValidation(err):
		return "invalid"
	case scheduling.IsNotFound(err):
		return "not_found"
	case errors.Is(err, scheduling.ErrSlotUnavailable):
		return "unavailable"
	case scheduling.IsConfig(err):
		return "config_error"
	default:
		return "error"
	}
}

// tagClinic fills in the clinic id on config errors raised by the pure core.
func tagClinic(err error, clinicID string) error {
	var cfgErr *scheduling.ConfigError
	if errors.As(err, &cfgErr) && cfgErr.ClinicID == "" {
		cfgErr.ClinicID = clinicID
	}
	return err
}
