package repository

import (
	"errors"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrMetricsNotFound  = errors.New("metrics not found")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrDuplicateSession = errors.New("session already bound to an account")
)
