package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"carpark_manager/internal/domain"
	"carpark_manager/internal/invoice"
	"carpark_manager/internal/repository"
	"carpark_manager/internal/storage"
)

var ErrNoCarPark = errors.New("no car park has been set up")

// CarParkService owns the single in-process car park and coordinates it
// with the embedded store, the snapshot files and the print sink. All
// commands go through its mutex, so the aggregate itself stays a
// single-owner structure.
type CarParkService struct {
	mu      sync.Mutex
	park    *domain.CarPark
	repo    repository.CarParkRepository
	printer invoice.Printer
	clock   domain.Clock
}

func NewCarParkService(repo repository.CarParkRepository, printer invoice.Printer, clock domain.Clock) *CarParkService {
	if clock == nil {
		clock = func() time.Time { return time.Now().In(domain.Timezone) }
	}
	return &CarParkService{repo: repo, printer: printer, clock: clock}
}

// LoadOrCreate restores the car park from the embedded store, falling back
// to a fresh one with the given defaults when the store is empty or
// unreadable. Called once at startup.
func (s *CarParkService) LoadOrCreate(ctx context.Context, capacity int, ratePerHour float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	park, err := s.repo.Load(ctx, s.clock)
	switch {
	case err == nil:
		s.park = park
		log.Printf("restored car park from database: capacity=%d, %d parked, %d transactions",
			park.Capacity(), len(park.ParkedCars()), len(park.Transactions()))
		return nil
	case errors.Is(err, repository.ErrNoSavedState):
		log.Printf("no saved state, creating fresh car park with capacity %d", capacity)
	default:
		log.Printf("could not restore car park (%v), creating fresh one with capacity %d", err, capacity)
	}

	park, err = domain.NewWithClock(capacity, s.clock)
	if err != nil {
		return err
	}
	if err := park.SetRate(ratePerHour); err != nil {
		return err
	}
	s.park = park
	return nil
}

// Setup replaces the current car park with a new empty one. The previous
// ledger is discarded, exactly like re-creating the park in the UI.
func (s *CarParkService) Setup(ctx context.Context, dto domain.SetupDTO) (domain.StateDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	park, err := domain.NewWithClock(dto.Capacity, s.clock)
	if err != nil {
		return domain.StateDTO{}, err
	}
	if dto.RatePerHour != nil {
		if err := park.SetRate(*dto.RatePerHour); err != nil {
			return domain.StateDTO{}, err
		}
	}
	s.park = park
	s.autosave(ctx)
	return s.stateLocked(), nil
}

// Park assigns the lowest free spot to the plate. ok is false when the
// park is full.
func (s *CarParkService) Park(ctx context.Context, plate string) (spot int, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.park == nil {
		return 0, false, ErrNoCarPark
	}
	spot, ok = s.park.Park(plate)
	if ok {
		s.autosave(ctx)
	}
	return spot, ok, nil
}

// Remove closes the stay at spot and returns the new transaction.
func (s *CarParkService) Remove(ctx context.Context, spot int) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.park == nil {
		return domain.Transaction{}, ErrNoCarPark
	}
	tx, err := s.park.Remove(spot)
	if err != nil {
		return domain.Transaction{}, err
	}
	s.autosave(ctx)
	return tx, nil
}

// State returns the summary the UI polls.
func (s *CarParkService) State() (domain.StateDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.park == nil {
		return domain.StateDTO{}, ErrNoCarPark
	}
	return s.stateLocked(), nil
}

func (s *CarParkService) stateLocked() domain.StateDTO {
	return domain.StateDTO{
		Capacity:       s.park.Capacity(),
		RatePerHour:    s.park.RatePerHour(),
		AvailableSpots: s.park.AvailableSpots(),
		ParkedCars:     s.park.ParkedCars(),
		Transactions:   s.park.Transactions(),
	}
}

// Transactions returns the ledger in creation order.
func (s *CarParkService) Transactions() ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.park == nil {
		return nil, ErrNoCarPark
	}
	return s.park.Transactions(), nil
}

// Search matches a spot number or plate substring against occupancy and
// ledger.
func (s *CarParkService) Search(query string) (domain.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.park == nil {
		return domain.SearchResult{}, ErrNoCarPark
	}
	return s.park.Search(query), nil
}

// SetRate changes the fee rate for future removals.
func (s *CarParkService) SetRate(ctx context.Context, rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.park == nil {
		return ErrNoCarPark
	}
	if err := s.park.SetRate(rate); err != nil {
		return err
	}
	s.autosave(ctx)
	return nil
}

// SetSpotComments edits the comments on a currently parked car.
func (s *CarParkService) SetSpotComments(ctx context.Context, spot int, comments string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.park == nil {
		return ErrNoCarPark
	}
	if err := s.park.SetSpotComments(spot, comments); err != nil {
		return err
	}
	s.autosave(ctx)
	return nil
}

// EditTransaction field-edits a ledger entry by index.
func (s *CarParkService) EditTransaction(ctx context.Context, index int, dto domain.EditTransactionDTO) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.park == nil {
		return domain.Transaction{}, ErrNoCarPark
	}
	tx, err := s.park.EditTransaction(index, dto.Amount, dto.Paid, dto.Comments)
	if err != nil {
		return domain.Transaction{}, err
	}
	s.autosave(ctx)
	return tx, nil
}

// SaveSnapshot writes the current state to a JSON document at path.
func (s *CarParkService) SaveSnapshot(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.park == nil {
		return ErrNoCarPark
	}
	return storage.Save(path, s.park)
}

// LoadSnapshot replaces the current state with the one stored at path.
// A missing file means "no saved state": found is false and the in-memory
// state is left untouched, as it is on any load failure.
func (s *CarParkService) LoadSnapshot(ctx context.Context, path string) (found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	park, found, err := storage.Load(path, s.clock)
	if err != nil || !found {
		return found, err
	}
	s.park = park
	s.autosave(ctx)
	return true, nil
}

// Invoice renders the invoice for the ledger entry at index.
func (s *CarParkService) Invoice(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.park == nil {
		return "", ErrNoCarPark
	}
	transactions := s.park.Transactions()
	if index < 0 || index >= len(transactions) {
		return "", domain.ErrTransactionNotFound
	}
	return invoice.Render(transactions[index], s.clock()), nil
}

// DailyInvoice renders the rollup for the given calendar day (today when
// day is zero).
func (s *CarParkService) DailyInvoice(day time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.park == nil {
		return "", ErrNoCarPark
	}
	now := s.clock()
	if day.IsZero() {
		day = now
	}
	return invoice.RenderDaily(s.park.Transactions(), day, now), nil
}

// PrintInvoice renders the invoice at index and hands it to the print
// sink.
func (s *CarParkService) PrintInvoice(index int) error {
	text, err := s.Invoice(index)
	if err != nil {
		return err
	}
	return s.printer.Print(text)
}

// Shutdown writes the final state to the embedded store.
func (s *CarParkService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.park == nil {
		return nil
	}
	return s.repo.Save(ctx, s.park)
}

// autosave mirrors the state to the embedded store after a mutation. The
// command itself has already succeeded, so a failing save is logged and
// surfaced on the next explicit save rather than failing the command.
func (s *CarParkService) autosave(ctx context.Context) {
	if err := s.repo.Save(ctx, s.park); err != nil {
		log.Printf("autosave failed: %v", err)
	}
}
