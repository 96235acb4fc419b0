package models

import "time"

// Trip is one bus departure on a route: the unit users pick a date from.
type Trip struct {
	ID         string `json:"id" gorm:"primaryKey"`
	Route      string `json:"route"` // "GIKI-Multan" or "Multan-GIKI" etc.
	TravelDate string `json:"travel_date"`

	BusName       string `json:"bus_name"`
	BusType       string `json:"bus_type"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`

	Price      int  `json:"price"` // rupees per seat
	TotalSeats int  `json:"total_seats"`
	Active     bool `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
