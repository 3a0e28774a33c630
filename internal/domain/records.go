package domain

// OccupancyRecord is the live state of a vehicle currently parked at a
// spot. The spot number itself is the key of the occupancy mapping.
type OccupancyRecord struct {
	Plate    string `json:"plate"`
	TimeIn   string `json:"time_in"`
	Comments string `json:"comments"`
}

// ParkedCar is an occupancy record together with its spot number, the
// shape handed out by list and search queries.
type ParkedCar struct {
	Spot int `json:"spot"`
	OccupancyRecord
}

// Transaction is the closed-stay billing record, created exactly once per
// completed stay. Amount, paid and comments may be edited afterwards;
// deletion is not supported.
type Transaction struct {
	Spot     int     `json:"spot"`
	Plate    string  `json:"plate"`
	TimeIn   string  `json:"time_in"`
	TimeOut  string  `json:"time_out"`
	Amount   float64 `json:"amount"`
	Paid     bool    `json:"paid"`
	Comments string  `json:"comments"`
}

// SearchResult groups occupancy and ledger matches for one query.
type SearchResult struct {
	ParkedCars   []ParkedCar   `json:"parked_cars"`
	Transactions []Transaction `json:"transactions"`
}
