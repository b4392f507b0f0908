package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"studio_marketplace/internal/chat/domain"
	"studio_marketplace/pkg/database"
	"studio_marketplace/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogRepository read-only job / gig summaries owned by the job board
type CatalogRepository interface {
	FindSummary(ctx context.Context, kind domain.MessageType, referenceID string) (*domain.CatalogSummary, error)
}

// CatalogRecord shared columns of the jobs and gigs tables
type CatalogRecord struct {
	ID          string `gorm:"primaryKey;column:id"`
	Title       string `gorm:"column:title"`
	Date        string `gorm:"column:date"`
	StartTime   string `gorm:"column:start_time"`
	EndTime     string `gorm:"column:end_time"`
	Location    string `gorm:"column:location"`
	StudioName  string `gorm:"column:studio_name"`
	StudioID    string `gorm:"column:studio_id"`
	Rate        string `gorm:"column:rate"`
	ClassType   string `gorm:"column:class_type"`
	Description string `gorm:"column:description"`
}

// JobRecord row of the jobs table
type JobRecord struct {
	CatalogRecord `gorm:"embedded"`
}

// TableName gorm table name
func (JobRecord) TableName() string { return "jobs" }

// GigRecord row of the gigs table
type GigRecord struct {
	CatalogRecord `gorm:"embedded"`
}

// TableName gorm table name
func (GigRecord) TableName() string { return "gigs" }

func (r CatalogRecord) summary(kind domain.MessageType) *domain.CatalogSummary {
	return &domain.CatalogSummary{
		Kind:        kind,
		ReferenceID: r.ID,
		Title:       r.Title,
		Date:        r.Date,
		Time:        r.StartTime,
		EndTime:     r.EndTime,
		Location:    r.Location,
		Studio:      r.StudioName,
		StudioID:    r.StudioID,
		Rate:        r.Rate,
		ClassType:   r.ClassType,
		Description: r.Description,
	}
}

type gormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository catalog read model on postgres
func NewGormCatalogRepository(db *gorm.DB) CatalogRepository {
	return &gormCatalogRepository{db: db}
}

func (r *gormCatalogRepository) FindSummary(ctx context.Context, kind domain.MessageType, referenceID string) (*domain.CatalogSummary, error) {
	var (
		rec CatalogRecord
		err error
	)
	switch kind {
	case domain.MessageTypeJobOffer:
		var job JobRecord
		err = r.db.WithContext(ctx).Where("id = ?", referenceID).First(&job).Error
		rec = job.CatalogRecord
	case domain.MessageTypeGigInvite:
		var gig GigRecord
		err = r.db.WithContext(ctx).Where("id = ?", referenceID).First(&gig).Error
		rec = gig.CatalogRecord
	default:
		return nil, fmt.Errorf("%w: catalog kind %q", domain.ErrInvalidArgument, kind)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return rec.summary(kind), nil
}

type cachedCatalogRepository struct {
	next  CatalogRepository
	cache database.RedisRepository[domain.CatalogSummary]
	ttl   time.Duration
}

// NewCachedCatalogRepository cache-first lookup; cache failures fall through to next
func NewCachedCatalogRepository(next CatalogRepository, cache database.RedisRepository[domain.CatalogSummary], ttl time.Duration) CatalogRepository {
	return &cachedCatalogRepository{next: next, cache: cache, ttl: ttl}
}

// CatalogCacheKey redis key of a summary
func CatalogCacheKey(kind domain.MessageType, referenceID string) string {
	return fmt.Sprintf("catalog:%s:%s", kind, referenceID)
}

func (r *cachedCatalogRepository) FindSummary(ctx context.Context, kind domain.MessageType, referenceID string) (*domain.CatalogSummary, error) {
	key := CatalogCacheKey(kind, referenceID)
	cached, err := r.cache.Get(ctx, key)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, database.ErrCacheMiss) {
		logger.Log.Warn("catalog cache get failed", zap.String("key", key), zap.Error(err))
	}

	summary, err := r.next.FindSummary(ctx, kind, referenceID)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, *summary, r.ttl); err != nil {
		logger.Log.Warn("catalog cache set failed", zap.String("key", key), zap.Error(err))
	}
	return summary, nil
}

// MemoryCatalog in-process catalog for local runs and tests
type MemoryCatalog struct {
	mu    sync.RWMutex
	items map[string]domain.CatalogSummary
}

// NewMemoryCatalog create MemoryCatalog
func NewMemoryCatalog(items ...domain.CatalogSummary) *MemoryCatalog {
	m := &MemoryCatalog{items: map[string]domain.CatalogSummary{}}
	for _, it := range items {
		m.Put(it)
	}
	return m
}

// Put add or replace a summary
func (m *MemoryCatalog) Put(s domain.CatalogSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[CatalogCacheKey(s.Kind, s.ReferenceID)] = s
}

// FindSummary lookup by kind and id
func (m *MemoryCatalog) FindSummary(ctx context.Context, kind domain.MessageType, referenceID string) (*domain.CatalogSummary, error) {
	if !kind.IsOffer() {
		return nil, fmt.Errorf("%w: catalog kind %q", domain.ErrInvalidArgument, kind)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.items[CatalogCacheKey(kind, referenceID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}
