package utils

import "errors"

var (
	ErrMissingAPIKey     = errors.New("google sheets api key is required")
	ErrEmptyBatch        = errors.New("uploaded file is empty")
	ErrMalformedBatch    = errors.New("uploaded file is not a readable csv or xlsx")
	ErrStaleLoad         = errors.New("load superseded by a newer data source selection")
	ErrAccountOutOfRange = errors.New("account index out of range")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrUnknownMode       = errors.New("mode must be one of day, week, month")
	ErrSourceNotSet      = errors.New("no spreadsheet connection configured")
)
