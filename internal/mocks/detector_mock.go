package mocks

import (
	"context"

	"poker-coach/internal/detector"

	"github.com/stretchr/testify/mock"
)

// MockDetector is a mock type for the Detector type
type MockDetector struct {
	mock.Mock
}

// Detect provides a mock function with given fields: ctx, imageURL
func (_m *MockDetector) Detect(ctx context.Context, imageURL string) ([]string, error) {
	ret := _m.Called(ctx, imageURL)

	var r0 []string
	if rf, ok := ret.Get(0).(func(context.Context, string) []string); ok {
		r0 = rf(ctx, imageURL)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, imageURL)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockDetector creates a new instance of MockDetector.
func NewMockDetector(t interface {
	mock.TestingT
	Helper()
}) *MockDetector {
	m := &MockDetector{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ detector.Detector = (*MockDetector)(nil)
