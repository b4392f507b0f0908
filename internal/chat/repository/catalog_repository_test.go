package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSummaryCache struct {
	mock.Mock
}

func (m *MockSummaryCache) Set(ctx context.Context, key string, value domain.CatalogSummary, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockSummaryCache) Get(ctx context.Context, key string) (domain.CatalogSummary, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.CatalogSummary), args.Error(1)
}

var pilates = domain.CatalogSummary{
	Kind:        domain.MessageTypeGigInvite,
	ReferenceID: "gig-7",
	Title:       "Sunday Pilates Sub",
	StudioID:    "studio-1",
	Rate:        "$65",
}

func TestCachedCatalogRepository(t *testing.T) {
	key := CatalogCacheKey(domain.MessageTypeGigInvite, "gig-7")
	assert.Equal(t, "catalog:gig_invite:gig-7", key)

	tests := []struct {
		name      string
		getErr    error
		cached    domain.CatalogSummary
		setErr    error
		expectSet bool
		refID     string
		wantErr   error
	}{
		{name: "hit", cached: pilates, refID: "gig-7"},
		{name: "miss fills cache", getErr: database.ErrCacheMiss, expectSet: true, refID: "gig-7"},
		{name: "cache down falls through", getErr: errors.New("connection refused"), expectSet: true, setErr: errors.New("connection refused"), refID: "gig-7"},
		{name: "not in catalog", getErr: database.ErrCacheMiss, refID: "gig-404", wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := new(MockSummaryCache)
			k := CatalogCacheKey(domain.MessageTypeGigInvite, tt.refID)
			cache.On("Get", mock.Anything, k).Return(tt.cached, tt.getErr)
			if tt.expectSet {
				cache.On("Set", mock.Anything, k, pilates, time.Minute).Return(tt.setErr)
			}

			repo := NewCachedCatalogRepository(NewMemoryCatalog(pilates), cache, time.Minute)
			got, err := repo.FindSummary(context.Background(), domain.MessageTypeGigInvite, tt.refID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, pilates, *got)
			cache.AssertExpectations(t)
		})
	}
}

func TestMemoryCatalog(t *testing.T) {
	catalog := NewMemoryCatalog(pilates)

	got, err := catalog.FindSummary(context.Background(), domain.MessageTypeGigInvite, "gig-7")
	require.NoError(t, err)
	assert.Equal(t, "Sunday Pilates Sub", got.Title)

	_, err = catalog.FindSummary(context.Background(), domain.MessageTypeJobOffer, "gig-7")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = catalog.FindSummary(context.Background(), domain.MessageTypeText, "gig-7")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	updated := pilates
	updated.Rate = "$70"
	catalog.Put(updated)
	got, err = catalog.FindSummary(context.Background(), domain.MessageTypeGigInvite, "gig-7")
	require.NoError(t, err)
	assert.Equal(t, "$70", got.Rate)
}

func TestCatalogRecordSummary(t *testing.T) {
	rec := CatalogRecord{ID: "job-42", Title: "Yoga Class", StartTime: "09:00", EndTime: "10:00", StudioName: "Sunrise Studio", StudioID: "studio-1"}
	s := rec.summary(domain.MessageTypeJobOffer)

	assert.Equal(t, domain.MessageTypeJobOffer, s.Kind)
	assert.Equal(t, "job-42", s.ReferenceID)
	assert.Equal(t, "09:00", s.Time)
	assert.Equal(t, "Sunrise Studio", s.Studio)
	assert.Equal(t, "jobs", JobRecord{}.TableName())
	assert.Equal(t, "gigs", GigRecord{}.TableName())
}
