package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/envsense/airwatch/internal/models"
)

// MockFileOperations is a mock implementation of file.FileOperations.
type MockFileOperations struct {
	mock.Mock
}

func (m *MockFileOperations) IsFileExists(filePath string) (bool, error) {
	args := m.Called(filePath)
	return args.Bool(0), args.Error(1)
}

func (m *MockFileOperations) ReadFileRaw(filePath string) ([]byte, error) {
	args := m.Called(filePath)
	if b, ok := args.Get(0).([]byte); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFileOperations) ReadJsonFile(filePath string, v any) error {
	args := m.Called(filePath, v)
	return args.Error(0)
}

func (m *MockFileOperations) ReadYamlFile(filePath string, v any) error {
	args := m.Called(filePath, v)
	return args.Error(0)
}

func (m *MockFileOperations) WriteJsonFile(filePath string, data any) error {
	args := m.Called(filePath, data)
	return args.Error(0)
}

// MockAlertStore is a mock implementation of alertlog.Store.
type MockAlertStore struct {
	mock.Mock
}

func (m *MockAlertStore) Append(ctx context.Context, rec models.AlertLogRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockAlertStore) List(ctx context.Context, limit int) ([]models.AlertLogRecord, error) {
	args := m.Called(ctx, limit)
	if recs, ok := args.Get(0).([]models.AlertLogRecord); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAlertStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockSettingsStore is a mock implementation of settings.Store.
type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) Current() models.Settings {
	args := m.Called()
	return args.Get(0).(models.Settings)
}

func (m *MockSettingsStore) Document() models.SettingsDocument {
	args := m.Called()
	return args.Get(0).(models.SettingsDocument)
}

func (m *MockSettingsStore) Save(doc models.SettingsDocument) error {
	args := m.Called(doc)
	return args.Error(0)
}
