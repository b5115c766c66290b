package models

import (
	"errors"
	"fmt"
)

// Application-wide standard errors
var (
	// Startup
	ErrConfiguration = errors.New("configuration error")

	// Pipeline stages
	ErrCapture   = errors.New("photo capture failed")
	ErrDetection = errors.New("card detection failed")
	ErrAnalysis  = errors.New("hand analysis failed")

	// Storage
	ErrPhotoNotFound = errors.New("photo not found")

	// Device link
	ErrDeviceDisconnected = errors.New("device disconnected")
	ErrDeviceRejected     = errors.New("device rejected request")

	// Sessions
	ErrSessionNotFound = errors.New("session not found")
	ErrPipelineBusy    = errors.New("pipeline already running for session")
	ErrPressQueueFull  = errors.New("press queue is full")
)

// ValidationMismatchError - число распознанных карт не совпало с ожидаемым.
// Не является сбоем: контроллер просит переснять фото.
type ValidationMismatchError struct {
	Street   Street
	Expected int
	Got      int
}

func (e *ValidationMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d cards, detected %d", e.Street, e.Expected, e.Got)
}

// ValidateCount returns a *ValidationMismatchError when the number of labels
// differs from the street's expected count.
func ValidateCount(street Street, labels []string) error {
	expected := street.ExpectedCards()
	if len(labels) != expected {
		return &ValidationMismatchError{Street: street, Expected: expected, Got: len(labels)}
	}
	return nil
}
