package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrTransactionFailed = errors.New("transaction failed")
)

// ProductError names the product a checkout was rejected for.
// Err is ErrProductNotFound or ErrInsufficientStock.
type ProductError struct {
	Err         error
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *ProductError) Error() string {
	if errors.Is(e.Err, ErrInsufficientStock) {
		return fmt.Sprintf("insufficient stock for %s (requested %d, available %d)", e.ProductName, e.Requested, e.Available)
	}
	if e.ProductName == "" {
		return fmt.Sprintf("product #%d not found", e.ProductID)
	}
	return fmt.Sprintf("product %s not found", e.ProductName)
}

func (e *ProductError) Unwrap() error { return e.Err }

// TransactionError wraps any backend failure of the commit.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTransactionFailed, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

func (e *TransactionError) Is(target error) bool { return target == ErrTransactionFailed }
