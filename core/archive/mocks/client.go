package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of archive.Client
type Client struct {
	mock.Mock
}

func (m *Client) ListUnitDirs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if dirs, ok := args.Get(0).([]string); ok {
		return dirs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) FetchLogfile(ctx context.Context, unitKey string) ([]string, error) {
	args := m.Called(ctx, unitKey)
	if lines, ok := args.Get(0).([]string); ok {
		return lines, args.Error(1)
	}
	return nil, args.Error(1)
}
