package clinic

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/wolfman30/clinic-slots/internal/http/middleware"
	"github.com/wolfman30/clinic-slots/internal/scheduling"
	"github.com/wolfman30/clinic-slots/pkg/logging"
)

// ScheduleStore is the persistence the admin handler needs.
type ScheduleStore interface {
	Get(ctx context.Context, clinicID string) (*scheduling.ClinicSchedule, error)
	Set(ctx context.Context, schedule *scheduling.ClinicSchedule) error
	Delete(ctx context.Context, clinicID string) error
}

// Handler provides HTTP endpoints for clinic schedule management.
type Handler struct {
	store           ScheduleStore
	defaultTimezone string
	logger          *logging.Logger
}

// NewHandler creates a new clinic schedule HTTP handler. defaultTimezone
// seeds schedules created through a partial update.
func NewHandler(store ScheduleStore, defaultTimezone string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:           store,
		defaultTimezone: defaultTimezone,
		logger:          logger,
	}
}

// Routes returns a chi router with clinic admin routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{clinicID}/schedule", h.GetSchedule)
	r.Put("/{clinicID}/schedule", h.UpdateSchedule)
	r.Post("/{clinicID}/schedule", h.UpdateSchedule) // Allow POST as well
	r.Delete("/{clinicID}/schedule", h.DeleteSchedule)
	return r
}

// GetSchedule returns the schedule for a clinic.
// GET /admin/clinics/{clinicID}/schedule
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := clinicIDParam(w, r)
	if !ok {
		return
	}

	schedule, err := h.store.Get(r.Context(), clinicID)
	if err != nil {
		h.writeStoreError(w, clinicID, "failed to get clinic schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// UpdateScheduleRequest is the request body for updating a clinic schedule.
// Only the weekdays present in WorkingHours are replaced.
type UpdateScheduleRequest struct {
	Name         string                    `json:"name,omitempty"`
	Timezone     string                    `json:"timezone,omitempty"`
	WorkingHours scheduling.WorkingHours   `json:"working_hours,omitempty"`
	Policy       *scheduling.BookingPolicy `json:"policy,omitempty"`
}

// UpdateSchedule creates or updates the schedule for a clinic.
// PUT /admin/clinics/{clinicID}/schedule
func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := clinicIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	schedule, err := h.store.Get(r.Context(), clinicID)
	switch {
	case scheduling.IsNotFound(err), scheduling.IsConfig(err):
		// A broken stored schedule can be repaired by overwriting it.
		schedule = DefaultSchedule(clinicID, h.defaultTimezone)
	case err != nil:
		h.writeStoreError(w, clinicID, "failed to get clinic schedule", err)
		return
	}

	if err := applyUpdate(schedule, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.Set(r.Context(), schedule); err != nil {
		h.writeStoreError(w, clinicID, "failed to save clinic schedule", err)
		return
	}

	h.logger.WithClinic(clinicID).Info("clinic schedule updated", "timezone", schedule.Timezone, "admin", adminSubject(r))
	writeJSON(w, http.StatusOK, schedule)
}

// DeleteSchedule removes the schedule for a clinic.
// DELETE /admin/clinics/{clinicID}/schedule
func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := clinicIDParam(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), clinicID); err != nil {
		h.writeStoreError(w, clinicID, "failed to delete clinic schedule", err)
		return
	}
	h.logger.WithClinic(clinicID).Info("clinic schedule deleted", "admin", adminSubject(r))
	w.WriteHeader(http.StatusNoContent)
}

// clinicIDParam returns the canonical lowercase form of the {clinicID} path
// parameter so admin writes land on the key the booking API reads.
func clinicIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "clinicID")
	if raw == "" {
		http.Error(w, `{"error": "clinic_id required"}`, http.StatusBadRequest)
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, `{"error": "invalid clinic_id: expected UUID"}`, http.StatusBadRequest)
		return "", false
	}
	return id.String(), true
}

func adminSubject(r *http.Request) string {
	claims, ok := httpmiddleware.AdminClaimsFromContext(r.Context())
	if !ok {
		return ""
	}
	return claims.Subject
}

func applyUpdate(schedule *scheduling.ClinicSchedule, req UpdateScheduleRequest) error {
	if req.Name != "" {
		schedule.Name = req.Name
	}
	if req.Timezone != "" {
		schedule.Timezone = req.Timezone
	}
	for day, hours := range req.WorkingHours {
		if !isWeekdayKey(day) {
			return &scheduling.ValidationError{Field: "working_hours." + day, Reason: "unknown weekday"}
		}
		if schedule.WorkingHours == nil {
			schedule.WorkingHours = scheduling.WorkingHours{}
		}
		schedule.WorkingHours[day] = hours
	}
	if req.Policy != nil {
		schedule.Policy = *req.Policy
	}
	return nil
}

func isWeekdayKey(key string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if scheduling.WeekdayKey(d) == key {
			return true
		}
	}
	return false
}

func (h *Handler) writeStoreError(w http.ResponseWriter, clinicID, msg string, err error) {
	switch {
	case scheduling.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case scheduling.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.logger.Error(msg, "clinic_id", clinicID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
