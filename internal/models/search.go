package models

// FlightClass is the cabin class of a flight offer.
type FlightClass string

// Cabin classes.
const (
	ClassEconomy  FlightClass = "economy"
	ClassBusiness FlightClass = "business"
	ClassFirst    FlightClass = "first"
)

// FlightEndpoint is one end of a flight leg.
type FlightEndpoint struct {
	Airport string `json:"airport"`
	City    string `json:"city"`
	Time    string `json:"time"` // "HH:MM"
	Date    string `json:"date"` // "YYYY-MM-DD"
}

// Flight is an immutable flight search result.
type Flight struct {
	ID           string         `json:"id"`
	Airline      string         `json:"airline"`
	FlightNumber string         `json:"flightNumber"`
	Departure    FlightEndpoint `json:"departure"`
	Arrival      FlightEndpoint `json:"arrival"`
	Duration     string         `json:"duration"`
	Price        float64        `json:"price"`
	Currency     string         `json:"currency"`
	Class        FlightClass    `json:"class"`
}

// Hotel is an immutable hotel search result. Price is per night.
type Hotel struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Location    Location `json:"location"`
	Rating      float64  `json:"rating"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	Amenities   []string `json:"amenities"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
	ReviewCount int      `json:"reviewCount"`
	CheckIn     string   `json:"checkIn"`
	CheckOut    string   `json:"checkOut"`
}
