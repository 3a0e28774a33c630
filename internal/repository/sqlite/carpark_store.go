package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"carpark_manager/internal/domain"
	"carpark_manager/internal/repository"
	"carpark_manager/internal/storage"
)

type carParkStore struct {
	db *sql.DB
}

func NewCarParkRepository(db *sql.DB) repository.CarParkRepository {
	return &carParkStore{db: db}
}

// Save replaces the stored state with the current in-memory one: the
// single state row and the whole transaction table are rewritten inside
// one transaction, so a crash mid-save leaves the previous state intact
// rather than a half-replaced store.
func (s *carParkStore) Save(ctx context.Context, park *domain.CarPark) error {
	parkedJSON, err := json.Marshal(storage.EncodeOccupancy(park.Occupancy()))
	if err != nil {
		return fmt.Errorf("CarParkRepository.Save: encode parked cars: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("CarParkRepository.Save: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM carpark_state`); err != nil {
		return fmt.Errorf("CarParkRepository.Save: clear state: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO carpark_state (capacity, rate_per_hour, parked_cars) VALUES (?, ?, ?)`,
		park.Capacity(), park.RatePerHour(), string(parkedJSON))
	if err != nil {
		return fmt.Errorf("CarParkRepository.Save: insert state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("CarParkRepository.Save: clear transactions: %w", err)
	}
	for _, t := range park.Transactions() {
		paid := 0
		if t.Paid {
			paid = 1
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO transactions (spot, plate, time_in, time_out, amount, paid, comments)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.Spot, t.Plate, t.TimeIn, t.TimeOut, t.Amount, paid, t.Comments)
		if err != nil {
			return fmt.Errorf("CarParkRepository.Save: insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("CarParkRepository.Save: commit: %w", err)
	}
	return nil
}

// Load rebuilds a car park from the newest state row and all transaction
// rows in insertion order. An empty store yields ErrNoSavedState.
func (s *carParkStore) Load(ctx context.Context, now domain.Clock) (*domain.CarPark, error) {
	var (
		capacity    int
		ratePerHour float64
		parkedJSON  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT capacity, rate_per_hour, parked_cars FROM carpark_state
		 ORDER BY created_at DESC, id DESC LIMIT 1`).
		Scan(&capacity, &ratePerHour, &parkedJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoSavedState
	}
	if err != nil {
		return nil, fmt.Errorf("CarParkRepository.Load: state row: %w", err)
	}

	// A state row with an unreadable occupancy blob is still loadable;
	// the occupancy just comes back empty.
	var parked map[string]domain.OccupancyRecord
	if err := json.Unmarshal([]byte(parkedJSON), &parked); err != nil {
		log.Printf("CarParkRepository.Load: parked_cars blob unreadable, loading empty occupancy: %v", err)
		parked = nil
	}
	occupancy, err := storage.DecodeOccupancy(parked)
	if err != nil {
		log.Printf("CarParkRepository.Load: %v, loading empty occupancy", err)
		occupancy = nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT spot, plate, time_in, time_out, amount, paid, comments
		 FROM transactions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("CarParkRepository.Load: transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var (
			t        domain.Transaction
			paid     int
			comments sql.NullString
		)
		if err := rows.Scan(&t.Spot, &t.Plate, &t.TimeIn, &t.TimeOut, &t.Amount, &paid, &comments); err != nil {
			return nil, fmt.Errorf("CarParkRepository.Load: scan transaction: %w", err)
		}
		t.Paid = paid != 0
		t.Comments = comments.String
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CarParkRepository.Load: transactions: %w", err)
	}

	park, err := domain.Restore(capacity, ratePerHour, occupancy, transactions, now)
	if err != nil {
		return nil, fmt.Errorf("CarParkRepository.Load: %w", err)
	}
	return park, nil
}
