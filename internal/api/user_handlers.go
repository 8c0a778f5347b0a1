package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"surgepark/internal/entities"
	"surgepark/internal/service"
)

type UserReservationHandler struct {
	Service  *service.ReservationService
	Notifier service.Notifier
}

func NewUserReservationHandler(svc *service.ReservationService, notifier service.Notifier) *UserReservationHandler {
	return &UserReservationHandler{Service: svc, Notifier: notifier}
}

func (h *UserReservationHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req entities.WindowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.Service.CheckAvailability(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserReservationHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req entities.WindowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.Service.Quote(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// FindNearby reads lat, lng, radius (meters), date, start_time and end_time
// from the query string.
func (h *UserReservationHandler) FindNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := entities.NearbyRequest{
		Date:      q.Get("date"),
		StartTime: q.Get("start_time"),
		EndTime:   q.Get("end_time"),
	}
	var err error
	if req.Lat, err = strconv.ParseFloat(q.Get("lat"), 64); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "lat must be a number"})
		return
	}
	if req.Lng, err = strconv.ParseFloat(q.Get("lng"), 64); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "lng must be a number"})
		return
	}
	if radius := q.Get("radius"); radius != "" {
		if req.RadiusMeters, err = strconv.ParseFloat(radius, 64); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "radius must be a number"})
			return
		}
	}

	locations, err := h.Service.FindNearby(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

func (h *UserReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.Service.Book(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *UserReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserReservationHandler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.RescheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.Service.Reschedule(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Service.Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserReservationHandler) ReportViolation(w http.ResponseWriter, r *http.Request) {
	var req entities.ViolationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Notifier.SendViolationReport(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Violation reported"})
}
