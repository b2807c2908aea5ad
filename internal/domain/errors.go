package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmptyPool    = errors.New("wallet pool is empty")
	ErrInvalidData  = errors.New("invalid market data")
)
