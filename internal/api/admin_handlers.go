package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"surgepark/internal/db"
	"surgepark/internal/entities"
	"surgepark/internal/service"
)

type AdminHandler struct {
	Locations    *service.AdminService
	Reservations *service.ReservationService
}

func NewAdminHandler(locations *service.AdminService, reservations *service.ReservationService) *AdminHandler {
	return &AdminHandler{Locations: locations, Reservations: reservations}
}

func locationResponse(l db.Location) entities.LocationResponse {
	return entities.LocationResponse{
		ID:             l.ID,
		Address:        l.Address,
		Lat:            l.Lat,
		Lng:            l.Lng,
		NumberOfSpots:  l.NumberOfSpots,
		HourlyRate:     l.HourlyRate,
		Status:         string(l.Status),
		DynamicPricing: l.DynamicPricing,
		Category:       string(l.Category),
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func (h *AdminHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Locations.ListLocations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]entities.LocationResponse, 0, len(locations))
	for _, l := range locations {
		resp = append(resp, locationResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req entities.LocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	loc, err := h.Locations.CreateLocation(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, locationResponse(*loc))
}

func (h *AdminHandler) SetDynamicPricing(w http.ResponseWriter, r *http.Request) {
	var req entities.DynamicPricingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Locations.SetDynamicPricing(r.Context(), mux.Vars(r)["id"], req.Enabled); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Dynamic pricing updated"})
}

func (h *AdminHandler) SetCategory(w http.ResponseWriter, r *http.Request) {
	var req entities.CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Locations.SetCategory(r.Context(), mux.Vars(r)["id"], req.Category); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Category updated"})
}

func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req entities.StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Locations.SetStatus(r.Context(), mux.Vars(r)["id"], req.Status); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Status updated"})
}

// ListReservations accepts date, location_id and status query parameters.
func (h *AdminHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.Reservations.List(r.Context(), q.Get("date"), q.Get("location_id"), q.Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) FailReservation(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Reservations.MarkFailed(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
