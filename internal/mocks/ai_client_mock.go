package mocks

import (
	"context"

	"poker-coach/internal/analyzer"
	"poker-coach/internal/conversation"

	"github.com/stretchr/testify/mock"
)

// MockAIClient is a mock type for the AIClient type
type MockAIClient struct {
	mock.Mock
}

// Chat provides a mock function with given fields: ctx, userID, messages
func (_m *MockAIClient) Chat(ctx context.Context, userID string, messages []conversation.Message) (string, analyzer.UsageInfo, error) {
	ret := _m.Called(ctx, userID, messages)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, []conversation.Message) string); ok {
		r0 = rf(ctx, userID, messages)
	} else {
		r0 = ret.String(0)
	}

	var r1 analyzer.UsageInfo
	if rf, ok := ret.Get(1).(func(context.Context, string, []conversation.Message) analyzer.UsageInfo); ok {
		r1 = rf(ctx, userID, messages)
	} else if ret.Get(1) != nil {
		r1 = ret.Get(1).(analyzer.UsageInfo)
	}

	var r2 error
	if rf, ok := ret.Get(2).(func(context.Context, string, []conversation.Message) error); ok {
		r2 = rf(ctx, userID, messages)
	} else {
		r2 = ret.Error(2)
	}

	return r0, r1, r2
}

// Model provides a mock function with given fields:
func (_m *MockAIClient) Model() string {
	ret := _m.Called()
	return ret.String(0)
}

// NewMockAIClient creates a new instance of MockAIClient. It also registers a testing interface on the mock.
// The first argument is typically a *testing.T value.
func NewMockAIClient(t interface {
	mock.TestingT
	Helper()
}) *MockAIClient {
	m := &MockAIClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ analyzer.AIClient = (*MockAIClient)(nil)
