package mocks

import (
	"context"

	"poker-coach/internal/models"
	"poker-coach/internal/photocache"

	"github.com/stretchr/testify/mock"
)

// MockPhotoCache is a mock type for the Cache type
type MockPhotoCache struct {
	mock.Mock
}

// Put provides a mock function with given fields: ctx, ownerID, photo
func (_m *MockPhotoCache) Put(ctx context.Context, ownerID string, photo *models.StoredPhoto) error {
	ret := _m.Called(ctx, ownerID, photo)
	return ret.Error(0)
}

// Get provides a mock function with given fields: ctx, ownerID
func (_m *MockPhotoCache) Get(ctx context.Context, ownerID string) (*models.StoredPhoto, error) {
	ret := _m.Called(ctx, ownerID)

	var r0 *models.StoredPhoto
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.StoredPhoto)
	}
	return r0, ret.Error(1)
}

// GetByRequestID provides a mock function with given fields: ctx, ownerID, requestID
func (_m *MockPhotoCache) GetByRequestID(ctx context.Context, ownerID, requestID string) (*models.StoredPhoto, error) {
	ret := _m.Called(ctx, ownerID, requestID)

	var r0 *models.StoredPhoto
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.StoredPhoto)
	}
	return r0, ret.Error(1)
}

// NewMockPhotoCache creates a new instance of MockPhotoCache.
func NewMockPhotoCache(t interface {
	mock.TestingT
	Helper()
}) *MockPhotoCache {
	m := &MockPhotoCache{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ photocache.Cache = (*MockPhotoCache)(nil)
