package mocks

import (
	"context"

	"script-server/internal/llm"

	"github.com/stretchr/testify/mock"
)

// MockAIClient is a mock type for the llm.AIClient type
type MockAIClient struct {
	mock.Mock
}

// GenerateText provides a mock function with given fields: ctx, systemPrompt, userInput, params
func (_m *MockAIClient) GenerateText(ctx context.Context, systemPrompt string, userInput string, params llm.GenerationParams) (llm.Completion, error) {
	ret := _m.Called(ctx, systemPrompt, userInput, params)

	var r0 llm.Completion
	if rf, ok := ret.Get(0).(func(context.Context, string, string, llm.GenerationParams) llm.Completion); ok {
		r0 = rf(ctx, systemPrompt, userInput, params)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(llm.Completion)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string, llm.GenerationParams) error); ok {
		r1 = rf(ctx, systemPrompt, userInput, params)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockAIClient creates a new instance of MockAIClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockAIClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAIClient {
	m := &MockAIClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ llm.AIClient = (*MockAIClient)(nil)
