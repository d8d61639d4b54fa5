package mocks

import (
	"context"

	"github.com/dukex/clawtomations/pkg/browser"
	"github.com/stretchr/testify/mock"
)

// MockDriver is a mock implementation of browser.Driver interface.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Browser, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(browser.Browser), args.Error(1)
}

// MockBrowser is a mock implementation of browser.Browser interface.
type MockBrowser struct {
	mock.Mock
}

func (m *MockBrowser) NewContext(opts browser.ContextOptions) (browser.BrowserContext, error) {
	args := m.Called(opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(browser.BrowserContext), args.Error(1)
}

func (m *MockBrowser) Close() error {
	args := m.Called()

	return args.Error(0)
}

// MockBrowserContext is a mock implementation of browser.BrowserContext interface.
type MockBrowserContext struct {
	mock.Mock
}

func (m *MockBrowserContext) NewPage() (browser.Page, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(browser.Page), args.Error(1)
}

func (m *MockBrowserContext) StorageState(path string) error {
	args := m.Called(path)

	return args.Error(0)
}

func (m *MockBrowserContext) Close() error {
	args := m.Called()

	return args.Error(0)
}

// MockPage is a mock implementation of browser.Page interface.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) Goto(url string, opts browser.GotoOptions) error {
	args := m.Called(url, opts)

	return args.Error(0)
}

func (m *MockPage) Click(selector string, timeout float64) error {
	args := m.Called(selector, timeout)

	return args.Error(0)
}

func (m *MockPage) Fill(selector, value string, timeout float64) error {
	args := m.Called(selector, value, timeout)

	return args.Error(0)
}

func (m *MockPage) Press(selector, key string, timeout float64) error {
	args := m.Called(selector, key, timeout)

	return args.Error(0)
}

func (m *MockPage) Check(selector string, timeout float64) error {
	args := m.Called(selector, timeout)

	return args.Error(0)
}

func (m *MockPage) Uncheck(selector string, timeout float64) error {
	args := m.Called(selector, timeout)

	return args.Error(0)
}

func (m *MockPage) SelectOption(selector string, values []string, timeout float64) error {
	args := m.Called(selector, values, timeout)

	return args.Error(0)
}

func (m *MockPage) WaitForSelector(selector, state string, timeout float64) error {
	args := m.Called(selector, state, timeout)

	return args.Error(0)
}

func (m *MockPage) Screenshot(path string, fullPage bool) error {
	args := m.Called(path, fullPage)

	return args.Error(0)
}

func (m *MockPage) Attribute(selector, name string, timeout float64) (string, error) {
	args := m.Called(selector, name, timeout)

	return args.String(0), args.Error(1)
}

func (m *MockPage) Text(selector string, timeout float64) (string, error) {
	args := m.Called(selector, timeout)

	return args.String(0), args.Error(1)
}

func (m *MockPage) SetInputFiles(selector string, files []string, timeout float64) error {
	args := m.Called(selector, files, timeout)

	return args.Error(0)
}

func (m *MockPage) Evaluate(script string) (any, error) {
	args := m.Called(script)

	return args.Get(0), args.Error(1)
}

func (m *MockPage) Focus(selector string, timeout float64) error {
	args := m.Called(selector, timeout)

	return args.Error(0)
}

func (m *MockPage) Hover(selector string, timeout float64) error {
	args := m.Called(selector, timeout)

	return args.Error(0)
}

func (m *MockPage) Close() error {
	args := m.Called()

	return args.Error(0)
}
