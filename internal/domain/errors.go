package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock to dispatch")
	ErrOrderNotPending   = errors.New("order is not pending")
	ErrLotBlocked        = errors.New("lot is blocked")
	ErrDuplicateProduct  = errors.New("sku already exists")
	ErrInvalidInput      = errors.New("invalid input")
)

// Invalidf builds an ErrInvalidInput carrying a formatted detail message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
