package domain

// Request bodies for the attendant command surface.

type SetupDTO struct {
	Capacity    int      `json:"capacity" binding:"required,gt=0"`
	RatePerHour *float64 `json:"rate_per_hour"`
}

type ParkDTO struct {
	Plate string `json:"plate" binding:"required"`
}

type RemoveDTO struct {
	Spot int `json:"spot" binding:"required,gt=0"`
}

type RateDTO struct {
	RatePerHour *float64 `json:"rate_per_hour" binding:"required"`
}

type SpotCommentsDTO struct {
	Comments string `json:"comments"`
}

// EditTransactionDTO carries a partial edit; nil fields are untouched.
type EditTransactionDTO struct {
	Amount   *float64 `json:"amount"`
	Paid     *bool    `json:"paid"`
	Comments *string  `json:"comments"`
}

type SnapshotPathDTO struct {
	Path string `json:"path" binding:"required"`
}

// StateDTO is the summary the UI polls.
type StateDTO struct {
	Capacity       int           `json:"capacity"`
	RatePerHour    float64       `json:"rate_per_hour"`
	AvailableSpots int           `json:"available_spots"`
	ParkedCars     []ParkedCar   `json:"parked_cars"`
	Transactions   []Transaction `json:"transactions"`
}
