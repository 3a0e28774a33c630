package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carpark_manager/internal/domain"
	"carpark_manager/internal/service"
)

type CarParkHandler struct {
	carParkService *service.CarParkService
}

func NewCarParkHandler(cs *service.CarParkService) *CarParkHandler {
	return &CarParkHandler{carParkService: cs}
}

// GET /api/state
func (h *CarParkHandler) GetState(c *gin.Context) {
	state, err := h.carParkService.State()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// POST /api/setup (admin only) — replaces the car park with a fresh one.
func (h *CarParkHandler) Setup(c *gin.Context) {
	var dto domain.SetupDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state, err := h.carParkService.Setup(c.Request.Context(), dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, state)
}

// POST /api/park
func (h *CarParkHandler) Park(c *gin.Context) {
	var dto domain.ParkDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	spot, ok, err := h.carParkService.Park(c.Request.Context(), dto.Plate)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		// A full park is an ordinary outcome the attendant sees, not a
		// server error.
		c.JSON(http.StatusOK, gin.H{"parked": false, "message": "car park is full"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"parked": true, "spot": spot})
}

// POST /api/remove
func (h *CarParkHandler) Remove(c *gin.Context) {
	var dto domain.RemoveDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := h.carParkService.Remove(c.Request.Context(), dto.Spot)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// GET /api/transactions
func (h *CarParkHandler) ListTransactions(c *gin.Context) {
	transactions, err := h.carParkService.Transactions()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// PUT /api/transactions/:index
func (h *CarParkHandler) EditTransaction(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction index"})
		return
	}
	var dto domain.EditTransactionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := h.carParkService.EditTransaction(c.Request.Context(), index, dto)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// PUT /api/spot/:spot/comments
func (h *CarParkHandler) SetSpotComments(c *gin.Context) {
	spot, err := strconv.Atoi(c.Param("spot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot number"})
		return
	}
	var dto domain.SpotCommentsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.carParkService.SetSpotComments(c.Request.Context(), spot, dto.Comments); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"spot": spot, "comments": dto.Comments})
}

// GET /api/search?q=...
func (h *CarParkHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	result, err := h.carParkService.Search(query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// POST /api/rate (admin only)
func (h *CarParkHandler) SetRate(c *gin.Context) {
	var dto domain.RateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.carParkService.SetRate(c.Request.Context(), *dto.RatePerHour); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rate_per_hour": *dto.RatePerHour})
}

// POST /api/save — write a JSON snapshot to the given path.
func (h *CarParkHandler) SaveSnapshot(c *gin.Context) {
	var dto domain.SnapshotPathDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.carParkService.SaveSnapshot(dto.Path); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": dto.Path})
}

// POST /api/load — replace the state from a JSON snapshot.
func (h *CarParkHandler) LoadSnapshot(c *gin.Context) {
	var dto domain.SnapshotPathDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	found, err := h.carParkService.LoadSnapshot(c.Request.Context(), dto.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load snapshot", "details": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no saved state at " + dto.Path})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loaded": dto.Path})
}

// GET /api/invoice/tx/:index
func (h *CarParkHandler) GetInvoice(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction index"})
		return
	}
	text, err := h.carParkService.Invoice(index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

// POST /api/invoice/tx/:index/print
func (h *CarParkHandler) PrintInvoice(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction index"})
		return
	}
	if err := h.carParkService.PrintInvoice(index); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not print invoice", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"printed": index})
}

// GET /api/invoice/daily?date=2006-01-02 (today when omitted)
func (h *CarParkHandler) GetDailyInvoice(c *gin.Context) {
	var day time.Time
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, domain.Timezone)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	text, err := h.carParkService.DailyInvoice(day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

// respondError maps domain and service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSpotNotOccupied),
		errors.Is(err, domain.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCapacity),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoCarPark):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
