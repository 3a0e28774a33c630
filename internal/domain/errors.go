package domain

import "errors"

var (
	ErrInvalidCapacity     = errors.New("capacity must be a positive integer")
	ErrInvalidRate         = errors.New("rate per hour must not be negative")
	ErrInvalidAmount       = errors.New("amount must not be negative")
	ErrSpotNotOccupied     = errors.New("no car parked at the given spot")
	ErrTransactionNotFound = errors.New("transaction not found")
)
