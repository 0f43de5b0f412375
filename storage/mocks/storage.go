package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(ctx context.Context, encodedImage, mimeType string) (string, error) {
	args := m.Called()
	return args.Get(0).(string), args.Error(1)
}

func (m *MockStorage) Get(ctx context.Context, filePath string) (string, error) {
	args := m.Called()
	return args.Get(0).(string), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, filePath string) error {
	args := m.Called(filePath)
	return args.Error(0)
}
