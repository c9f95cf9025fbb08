package animals

import "time"

// AnimalID identifier type
type AnimalID int64

// Animal is a photo posted with free-text details and classification tags.
type Animal struct {
	ID         AnimalID  `json:"animal_id"`
	ImageKey   string    `json:"-"`
	ImageURL   string    `json:"image_url"`
	Tags       []string  `json:"tags"`
	Details    string    `json:"details"`
	UploadedAt time.Time `json:"uploaded_at"`
}
