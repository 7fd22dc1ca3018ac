package model

// Coordinates is a raw latitude/longitude pair as strings, matching the
// marketplace API wire format.
type Coordinates struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// SellerProfile is the registration payload assembled at the terminal step
// of the registration flow.
type SellerProfile struct {
	TelegramID  int64       `json:"id_tlg"`
	Coordinates Coordinates `json:"coordinates"`
	Region      string      `json:"region"`
	Address     string      `json:"address"`
	WorkStart   string      `json:"working_time_start"`
	WorkEnd     string      `json:"working_time_end"`
	Blocked     bool        `json:"blocked"`
}

// SellerInfo is what the marketplace API reports about an already registered
// user. Lookup of an unknown user yields domain.ErrNotFound instead.
type SellerInfo struct {
	Blocked   bool   `json:"blocked"`
	Region    string `json:"region"`
	Address   string `json:"address"`
	WorkStart string `json:"working_time_start"`
	WorkEnd   string `json:"working_time_end"`
}

// WorkingHours is one of the fixed shift options offered during registration.
type WorkingHours struct {
	Start string
	End   string
}

// The two shift presets the working-time keyboard offers.
var (
	WorkingHoursLong  = WorkingHours{Start: "08:00:00", End: "22:00:00"}
	WorkingHoursShort = WorkingHours{Start: "10:00:00", End: "21:00:00"}
)

// Place is a reverse-geocoding result. Address is the resolved object name
// (street level), Region the locality it belongs to.
type Place struct {
	CountryCode string
	Address     string
	Region      string
}
