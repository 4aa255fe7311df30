package mocks

import (
	context "context"

	domain "github.com/bnema/taskgate/internal/domain"
	mock "github.com/stretchr/testify/mock"
)

// MockCredentialVerifier is a testify mock of ports.CredentialVerifier with mockery-style typed expectations
type MockCredentialVerifier struct {
	mock.Mock
}

type MockCredentialVerifier_Expecter struct {
	mock *mock.Mock
}

func (_m *MockCredentialVerifier) EXPECT() *MockCredentialVerifier_Expecter {
	return &MockCredentialVerifier_Expecter{mock: &_m.Mock}
}

// Verify provides a mock function with given fields: ctx, username, password
func (_m *MockCredentialVerifier) Verify(ctx context.Context, username string, password string) (domain.Principal, error) {
	ret := _m.Called(ctx, username, password)

	if len(ret) == 0 {
		panic("no return value specified for Verify")
	}

	var r0 domain.Principal
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) (domain.Principal, error)); ok {
		return rf(ctx, username, password)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, string) domain.Principal); ok {
		r0 = rf(ctx, username, password)
	} else {
		r0 = ret.Get(0).(domain.Principal)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, username, password)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockCredentialVerifier_Verify_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Verify'
type MockCredentialVerifier_Verify_Call struct {
	*mock.Call
}

// Verify is a helper method to define mock.On call
//   - ctx context.Context
//   - username string
//   - password string
func (_e *MockCredentialVerifier_Expecter) Verify(ctx interface{}, username interface{}, password interface{}) *MockCredentialVerifier_Verify_Call {
	return &MockCredentialVerifier_Verify_Call{Call: _e.mock.On("Verify", ctx, username, password)}
}

func (_c *MockCredentialVerifier_Verify_Call) Run(run func(ctx context.Context, username string, password string)) *MockCredentialVerifier_Verify_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(string), args[2].(string))
	})
	return _c
}

func (_c *MockCredentialVerifier_Verify_Call) Return(_a0 domain.Principal, _a1 error) *MockCredentialVerifier_Verify_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockCredentialVerifier_Verify_Call) RunAndReturn(run func(context.Context, string, string) (domain.Principal, error)) *MockCredentialVerifier_Verify_Call {
	_c.Call.Return(run)
	return _c
}

// NewMockCredentialVerifier creates a new instance of MockCredentialVerifier. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockCredentialVerifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCredentialVerifier {
	mock := &MockCredentialVerifier{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
