package orderbookv1

import "errors"

var (
	// ErrNilOrder is returned when a nil order is handed to the book.
	ErrNilOrder = errors.New("order cannot be nil")
	// ErrDuplicateOrder is returned when an order id already rests in the book.
	ErrDuplicateOrder = errors.New("order id already exists in book")
	// ErrSymbolMismatch is returned when an order is routed to a book of a different symbol.
	ErrSymbolMismatch = errors.New("order symbol does not match book symbol")
	// ErrInactiveOrder is returned when a terminal order is added to the book.
	ErrInactiveOrder = errors.New("order is not active")
	// ErrCurrencyMismatch is returned when an order price currency differs from the book quote currency.
	ErrCurrencyMismatch = errors.New("price currency does not match book quote currency")
	// ErrPriceMismatch is returned when an order is appended to a level at a different price.
	ErrPriceMismatch = errors.New("order price does not match level price")
	// ErrInvalidDepth is returned when a market depth query asks for a non-positive level count.
	ErrInvalidDepth = errors.New("depth levels must be positive")
)
