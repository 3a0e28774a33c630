// Package storage implements the structured-file form of a car park: a
// single JSON document holding capacity, rate, occupancy and the full
// transaction ledger. JSON object keys are text, so integer spot numbers
// are coerced to strings on encode and re-parsed on decode; that coercion
// lives only in this package.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"carpark_manager/internal/domain"
)

// Snapshot is the on-disk document. Field names match the original
// carpark file format so existing saves stay loadable.
type Snapshot struct {
	Capacity     int                               `json:"capacity"`
	ParkedCars   map[string]domain.OccupancyRecord `json:"parked_cars"`
	Transactions []domain.Transaction              `json:"transactions"`
	RatePerHour  float64                           `json:"rate_per_hour"`
}

// Encode exports a car park into its document form.
func Encode(park *domain.CarPark) Snapshot {
	return Snapshot{
		Capacity:     park.Capacity(),
		ParkedCars:   EncodeOccupancy(park.Occupancy()),
		Transactions: park.Transactions(),
		RatePerHour:  park.RatePerHour(),
	}
}

// Decode rebuilds a car park from a document. A nil clock means wall time.
func Decode(snap Snapshot, now domain.Clock) (*domain.CarPark, error) {
	occupancy, err := DecodeOccupancy(snap.ParkedCars)
	if err != nil {
		return nil, err
	}
	return domain.Restore(snap.Capacity, snap.RatePerHour, occupancy, snap.Transactions, now)
}

// EncodeOccupancy converts spot keys to strings for the text-keyed format.
func EncodeOccupancy(occupancy map[int]domain.OccupancyRecord) map[string]domain.OccupancyRecord {
	out := make(map[string]domain.OccupancyRecord, len(occupancy))
	for spot, rec := range occupancy {
		out[strconv.Itoa(spot)] = rec
	}
	return out
}

// DecodeOccupancy parses string spot keys back to integers.
func DecodeOccupancy(parked map[string]domain.OccupancyRecord) (map[int]domain.OccupancyRecord, error) {
	out := make(map[int]domain.OccupancyRecord, len(parked))
	for key, rec := range parked {
		spot, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("parked_cars key %q is not a spot number: %w", key, err)
		}
		out[spot] = rec
	}
	return out, nil
}

// Save writes the car park to path as indented JSON. The write is atomic:
// a tmp file is written first, then renamed over the target, so a crash
// mid-write never corrupts an existing save.
func Save(path string, park *domain.CarPark) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", tmp, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Encode(park)); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("storage: encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage: close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// Load reads a car park back from path. A missing file is "no saved
// state", not an error: found is false and the park nil so the caller can
// fall back to a fresh one.
func Load(path string, now domain.Clock) (park *domain.CarPark, found bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("storage: open %s: %w", path, err)
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, false, fmt.Errorf("storage: decode %s: %w", path, err)
	}
	park, err = Decode(snap, now)
	if err != nil {
		return nil, false, fmt.Errorf("storage: restore from %s: %w", path, err)
	}
	return park, true, nil
}
