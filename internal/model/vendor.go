package model

import "time"

type Vendor struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Service   string    `json:"service"` // recruiting / facility / translation / incentives
	Contact   string    `json:"contact"`
	Rating    int       `json:"rating"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
