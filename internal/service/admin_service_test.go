package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "datamarket/internal/errors"
	"datamarket/internal/model"
)

func newTestAdminService(users *MockUserRepository, datasets *MockDatasetRepository, purchases *MockPurchaseRepository) AdminService {
	catalog := NewDatasetService(datasets, purchases, new(MockStorage), nil, zap.NewNop())
	return NewAdminService(users, datasets, purchases, catalog)
}

func TestAdminService_ChangeRole(t *testing.T) {
	tests := []struct {
		name          string
		role          string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name: "promote to admin",
			role: "admin",
			setupMock: func(m *MockUserRepository) {
				m.On("UpdateRole", mock.Anything, uint(4), model.RoleAdmin).Return(nil)
				m.On("FindByID", mock.Anything, uint(4)).Return(&model.User{ID: 4, Role: model.RoleAdmin}, nil)
			},
		},
		{
			name:          "unknown role",
			role:          "superuser",
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrInvalidRole,
		},
		{
			name: "unknown user",
			role: "user",
			setupMock: func(m *MockUserRepository) {
				m.On("UpdateRole", mock.Anything, uint(4), model.RoleUser).Return(gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tt.setupMock(users)

			svc := newTestAdminService(users, new(MockDatasetRepository), new(MockPurchaseRepository))
			user, err := svc.ChangeRole(context.Background(), 4, tt.role)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, model.RoleAdmin, user.Role)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestAdminService_DeleteUser(t *testing.T) {
	users := new(MockUserRepository)
	users.On("Delete", mock.Anything, uint(4)).Return(nil)
	users.On("Delete", mock.Anything, uint(5)).Return(gorm.ErrRecordNotFound)

	svc := newTestAdminService(users, new(MockDatasetRepository), new(MockPurchaseRepository))

	assert.NoError(t, svc.DeleteUser(context.Background(), 4))
	assert.ErrorIs(t, svc.DeleteUser(context.Background(), 5), apperrors.ErrNotFound)
}

func TestAdminService_Stats(t *testing.T) {
	users := new(MockUserRepository)
	datasets := new(MockDatasetRepository)
	users.On("Count", mock.Anything).Return(int64(3), nil)
	datasets.On("Count", mock.Anything).Return(int64(2), nil)
	datasets.On("UploadsByDate", mock.Anything).Return([]model.DailyCount{{Date: "2024-03-01", Count: 2}}, nil)

	stats, err := newTestAdminService(users, datasets, new(MockPurchaseRepository)).Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalDatasets)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Len(t, stats.UploadsByDate, 1)
}

func TestAdminService_RecentPurchases(t *testing.T) {
	purchases := new(MockPurchaseRepository)
	purchases.On("Recent", mock.Anything, RecentPurchaseLimit).Return([]model.PurchaseRecord{{ID: 1}}, nil)

	rows, err := newTestAdminService(new(MockUserRepository), new(MockDatasetRepository), purchases).RecentPurchases(context.Background())

	require.NoError(t, err)
	assert.Len(t, rows, 1)
	purchases.AssertExpectations(t)
}
