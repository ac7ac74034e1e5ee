package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPositionNotOpen  = errors.New("position is not open")
	ErrInsufficientData = errors.New("insufficient price data")
)
