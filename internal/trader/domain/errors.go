package domain

import "errors"

var (
	ErrUnsupportedMovingAverageKind = errors.New("unsupported moving average kind")
	ErrInvalidPeriod                = errors.New("moving average period must be positive")
	ErrInvalidPeriodOrder           = errors.New("short period must be less than long period")
	ErrNegativeBalance              = errors.New("balances must not be negative")
	ErrTraderNotFound               = errors.New("trader not found")
	ErrUnknownEventType             = errors.New("unknown event type")
)
