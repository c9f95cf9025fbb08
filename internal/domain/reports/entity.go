package reports

import "time"

// ReportID identifier type
type ReportID string

// DefaultSubmitterID is used when a submission carries no user id.
const DefaultSubmitterID = "demo_user"

// InjuryReport links a stored animal photo, where it was taken and the raw
// assessment returned by the analysis provider. Reports are insert-only.
type InjuryReport struct {
	ID          ReportID  `json:"report_id"`
	SubmitterID string    `json:"user_id"`
	ImageKey    string    `json:"-"`
	ImageURL    string    `json:"image_url"`
	LocationRaw string    `json:"location"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Analysis    string    `json:"report_data"` // raw provider text, never rewritten
	CreatedAt   time.Time `json:"created_at"`
}
