package models

import "time"

// FAQ categories presented in the FAQ menu.
const (
	CategoryDates     = "dates_schedule"
	CategoryFares     = "fares"
	CategoryRoute     = "route"
	CategoryReturn    = "return_service"
	CategoryLuggage   = "luggage"
	CategoryLocations = "locations"
	CategorySeats     = "seats"
	CategoryGeneral   = "general"
)

// FAQRow is a free-text FAQ entry maintained by admins, merged with the
// flattened business settings when the knowledge base index is rebuilt.
type FAQRow struct {
	ID       string    `json:"id" gorm:"primaryKey"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Keywords []string  `json:"keywords" gorm:"serializer:json"`
	Category string    `json:"category"`
	Active   bool      `json:"active"`
	Created  time.Time `json:"created_at"`
}
