package mocks

import (
	"context"

	"poker-coach/internal/messaging"
	"poker-coach/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockHandEventPublisher is a mock type for the HandEventPublisher type
type MockHandEventPublisher struct {
	mock.Mock
}

// PublishHandEvent provides a mock function with given fields: ctx, event
func (_m *MockHandEventPublisher) PublishHandEvent(ctx context.Context, event models.HandEvent) error {
	ret := _m.Called(ctx, event)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, models.HandEvent) error); ok {
		r0 = rf(ctx, event)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Close provides a mock function with given fields:
func (_m *MockHandEventPublisher) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

// NewMockHandEventPublisher creates a new instance of MockHandEventPublisher.
func NewMockHandEventPublisher(t interface {
	mock.TestingT
	Helper()
}) *MockHandEventPublisher {
	m := &MockHandEventPublisher{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ messaging.HandEventPublisher = (*MockHandEventPublisher)(nil)
