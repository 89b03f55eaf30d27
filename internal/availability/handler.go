package availability

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-slots/internal/scheduling"
	"github.com/wolfman30/clinic-slots/pkg/logging"
)

// Handler exposes the booking slot endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a booking slot HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns a chi router with the public booking routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/slots", h.GetSlots)
	r.Get("/price", h.GetPrice)
	r.Post("/check", h.CheckSlot)
	return r
}

// GetSlots lists candidate slots for a service on a date.
// GET /api/booking/slots?clinic_id=&service_id=&date=YYYY-MM-DD[&staff_id=][&include_prices=true]
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := SlotsRequest{
		ClinicID:  query.Get("clinic_id"),
		ServiceID: query.Get("service_id"),
		Date:      query.Get("date"),
		StaffID:   query.Get("staff_id"),
	}
	if raw := query.Get("include_prices"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, `{"error": "invalid include_prices: expected true or false"}`, http.StatusBadRequest)
			return
		}
		req.IncludePrices = include
	}

	result, err := h.service.AvailableSlots(r.Context(), req)
	if err != nil {
		h.writeError(w, req.ClinicID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetPrice prices a service at a specific time.
// GET /api/booking/price?clinic_id=&service_id=&datetime=YYYY-MM-DDTHH:MM
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := PriceRequest{
		ClinicID:  query.Get("clinic_id"),
		ServiceID: query.Get("service_id"),
		DateTime:  query.Get("datetime"),
	}

	quote, err := h.service.SlotPrice(r.Context(), req)
	if err != nil {
		h.writeError(w, req.ClinicID, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// CheckSlot verifies that a specific start time can be booked.
// POST /api/booking/check
func (h *Handler) CheckSlot(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	result, err := h.service.CheckSlot(r.Context(), req)
	if err != nil {
		h.writeError(w, req.ClinicID, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeError(w http.ResponseWriter, clinicID string, err error) {
	var unavailable *SlotUnavailableError
	switch {
	case scheduling.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case scheduling.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":  err.Error(),
			"reason": string(unavailable.Reason),
		})
	case scheduling.IsConfig(err):
		h.logger.Error("clinic configuration error", "clinic_id", clinicID, "error", err)
		http.Error(w, `{"error": "clinic configuration error"}`, http.StatusInternalServerError)
	default:
		h.logger.Error("booking request failed", "clinic_id", clinicID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
