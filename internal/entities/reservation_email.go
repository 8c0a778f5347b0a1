package entities

type EmailLabels struct {
	Code     string
	Address  string
	Plate    string
	CheckIn  string
	CheckOut string
	Amount   string
	Pay      string
}

type ReservationEmailData struct {
	Language           string
	Heading            string
	Greeting           string
	UserName           string
	Intro              string
	Labels             EmailLabels
	ReservationCode    string
	Address            string
	Plate              string
	StartTimeFormatted string
	EndTimeFormatted   string
	AmountFormatted    string
	CheckoutURL        string
	CurrentYear        int
}

type ViolationEmailData struct {
	Plate     string
	Address   string
	Timestamp string
	Notes     string
}
