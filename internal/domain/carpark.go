package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Timezone is the fixed offset all engine timestamps are generated in (GMT+7).
var Timezone = time.FixedZone("UTC+7", 7*60*60)

// DefaultRatePerHour is the fee rate a new car park starts with.
const DefaultRatePerHour = 2.0

// TimeLayout is the wire form of every timestamp the engine produces.
const TimeLayout = time.RFC3339

// Clock supplies the current time. Injected so tests can pin timestamps.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().In(Timezone)
}

// CarPark is the aggregate root of the whole system: a fixed number of
// numbered spots, the cars currently occupying them, the fee rate and the
// ledger of completed stays. It owns both collections exclusively; every
// query hands out copies, never internal references.
//
// The aggregate itself is not safe for concurrent use; the service layer
// serializes access to its single instance.
type CarPark struct {
	capacity     int
	ratePerHour  float64
	parkedCars   map[int]OccupancyRecord
	transactions []Transaction
	now          Clock
}

// New creates an empty car park with the given number of spots and the
// default rate. Capacity must be positive.
func New(capacity int) (*CarPark, error) {
	return NewWithClock(capacity, nil)
}

// NewWithClock is New with an explicit clock. A nil clock means wall time
// in the fixed UTC+7 zone.
func NewWithClock(capacity int, now Clock) (*CarPark, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if now == nil {
		now = systemClock
	}
	return &CarPark{
		capacity:    capacity,
		ratePerHour: DefaultRatePerHour,
		parkedCars:  make(map[int]OccupancyRecord),
		now:         now,
	}, nil
}

// Restore rebuilds a car park from previously persisted state. Occupied
// spots outside 1..capacity indicate a corrupted document and are rejected.
func Restore(capacity int, ratePerHour float64, parkedCars map[int]OccupancyRecord, transactions []Transaction, now Clock) (*CarPark, error) {
	p, err := NewWithClock(capacity, now)
	if err != nil {
		return nil, err
	}
	if ratePerHour < 0 {
		return nil, ErrInvalidRate
	}
	p.ratePerHour = ratePerHour
	for spot, rec := range parkedCars {
		if spot < 1 || spot > capacity {
			return nil, fmt.Errorf("restore: spot %d outside 1..%d", spot, capacity)
		}
		p.parkedCars[spot] = rec
	}
	p.transactions = append(p.transactions, transactions...)
	return p, nil
}

// Capacity returns the fixed number of spots.
func (p *CarPark) Capacity() int { return p.capacity }

// RatePerHour returns the current fee rate.
func (p *CarPark) RatePerHour() float64 { return p.ratePerHour }

// SetRate changes the fee rate for stays closed from now on. Fees of
// already recorded transactions are never recomputed.
func (p *CarPark) SetRate(rate float64) error {
	if rate < 0 {
		return ErrInvalidRate
	}
	p.ratePerHour = rate
	return nil
}

// Park assigns the plate to the lowest-numbered free spot and records the
// entry time. Returns the spot and true, or 0 and false when the park is
// full. A full park is an ordinary outcome, not an error, and leaves the
// state untouched.
func (p *CarPark) Park(plate string) (int, bool) {
	if len(p.parkedCars) >= p.capacity {
		return 0, false
	}
	for spot := 1; spot <= p.capacity; spot++ {
		if _, taken := p.parkedCars[spot]; !taken {
			p.parkedCars[spot] = OccupancyRecord{
				Plate:  plate,
				TimeIn: p.now().In(Timezone).Format(TimeLayout),
			}
			return spot, true
		}
	}
	return 0, false
}

// Remove closes the stay at the given spot: the occupancy record is popped,
// the exit time stamped and the fee computed from the elapsed time at the
// current rate, rounded to two decimals. A stored entry time that no longer
// parses (corrupted persisted state) degrades the amount to 0.0 instead of
// failing the removal. The resulting transaction is appended to the ledger
// and returned.
func (p *CarPark) Remove(spot int) (Transaction, error) {
	rec, ok := p.parkedCars[spot]
	if !ok {
		return Transaction{}, ErrSpotNotOccupied
	}
	delete(p.parkedCars, spot)

	timeOut := p.now().In(Timezone)
	amount := 0.0
	if timeIn, err := ParseTimestamp(rec.TimeIn); err == nil {
		hours := timeOut.Sub(timeIn).Seconds() / 3600.0
		if hours < 0 {
			hours = 0
		}
		amount = round2(hours * p.ratePerHour)
	}

	tx := Transaction{
		Spot:    spot,
		Plate:   rec.Plate,
		TimeIn:  rec.TimeIn,
		TimeOut: timeOut.Format(TimeLayout),
		Amount:  amount,
	}
	p.transactions = append(p.transactions, tx)
	return tx, nil
}

// AvailableSpots returns how many spots are currently free.
func (p *CarPark) AvailableSpots() int {
	return p.capacity - len(p.parkedCars)
}

// SetSpotComments edits the comments on the live occupancy record of an
// occupied spot. The ledger is not touched.
func (p *CarPark) SetSpotComments(spot int, comments string) error {
	rec, ok := p.parkedCars[spot]
	if !ok {
		return ErrSpotNotOccupied
	}
	rec.Comments = comments
	p.parkedCars[spot] = rec
	return nil
}

// EditTransaction field-edits an existing ledger entry. Only amount, paid
// and comments may change; nil fields are left as they are. Entries are
// never deleted.
func (p *CarPark) EditTransaction(index int, amount *float64, paid *bool, comments *string) (Transaction, error) {
	if index < 0 || index >= len(p.transactions) {
		return Transaction{}, ErrTransactionNotFound
	}
	if amount != nil && *amount < 0 {
		return Transaction{}, ErrInvalidAmount
	}
	tx := &p.transactions[index]
	if amount != nil {
		tx.Amount = round2(*amount)
	}
	if paid != nil {
		tx.Paid = *paid
	}
	if comments != nil {
		tx.Comments = *comments
	}
	return *tx, nil
}

// ParkedCars returns the current occupancy in ascending spot order.
func (p *CarPark) ParkedCars() []ParkedCar {
	out := make([]ParkedCar, 0, len(p.parkedCars))
	for spot, rec := range p.parkedCars {
		out = append(out, ParkedCar{Spot: spot, OccupancyRecord: rec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Spot < out[j].Spot })
	return out
}

// Occupancy returns a copy of the spot -> record mapping.
func (p *CarPark) Occupancy() map[int]OccupancyRecord {
	out := make(map[int]OccupancyRecord, len(p.parkedCars))
	for spot, rec := range p.parkedCars {
		out[spot] = rec
	}
	return out
}

// Transactions returns a copy of the ledger in creation order.
func (p *CarPark) Transactions() []Transaction {
	out := make([]Transaction, len(p.transactions))
	copy(out, p.transactions)
	return out
}

// Search matches a query against the occupancy and the ledger. A query
// that parses as an integer matches spot numbers exactly; anything else is
// a case-insensitive plate substring.
func (p *CarPark) Search(query string) SearchResult {
	query = strings.TrimSpace(query)
	var res SearchResult

	if spot, err := strconv.Atoi(query); err == nil {
		if rec, ok := p.parkedCars[spot]; ok {
			res.ParkedCars = append(res.ParkedCars, ParkedCar{Spot: spot, OccupancyRecord: rec})
		}
		for _, tx := range p.transactions {
			if tx.Spot == spot {
				res.Transactions = append(res.Transactions, tx)
			}
		}
		return res
	}

	needle := strings.ToLower(query)
	for _, pc := range p.ParkedCars() {
		if strings.Contains(strings.ToLower(pc.Plate), needle) {
			res.ParkedCars = append(res.ParkedCars, pc)
		}
	}
	for _, tx := range p.transactions {
		if strings.Contains(strings.ToLower(tx.Plate), needle) {
			res.Transactions = append(res.Transactions, tx)
		}
	}
	return res
}

// ParseTimestamp parses a persisted timestamp. Older documents may carry
// naive or space-separated forms, so several layouts are tried.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, s, Timezone); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", s)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
