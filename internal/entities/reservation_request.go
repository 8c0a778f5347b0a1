package entities

type ReservationRequest struct {
	WindowRequest
	Plate     string `json:"plate"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	UserPhone string `json:"user_phone"`
	Language  string `json:"language"`
}

// RescheduleRequest moves a reservation to a new slot at the same location.
type RescheduleRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type ViolationRequest struct {
	Plate     string `json:"plate"`
	Address   string `json:"address"`
	Timestamp string `json:"timestamp"`
	Notes     string `json:"notes"`
}
