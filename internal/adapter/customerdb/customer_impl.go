// Package customerdb reads dashboard-owned customer records with gorm and
// writes back their sync state.
package customerdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/user/restaurant-kb-sync/internal/entity"
	"github.com/user/restaurant-kb-sync/internal/repository"
)

type customerRow struct {
	ID              uint   `gorm:"primaryKey"`
	Slug            string `gorm:"uniqueIndex;not null"`
	Name            string `gorm:"not null"`
	WebsiteURL      string
	KnowledgeBaseID string `gorm:"column:knowledge_base_id"`
	UpdateSchedule  string `gorm:"not null;default:none"`
	UpdateHour      int
	LastDailyHash   *string
	LastUpdateDate  *time.Time
	SyncVersion     int64 `gorm:"not null;default:0"`
}

func (customerRow) TableName() string { return "customers" }

// Open connects to the customer database. driver is "postgres" or "sqlite".
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported customer db driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open customer db: %w", err)
	}
	if driver == "sqlite" {
		// In-memory sqlite gives every connection its own database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates the customers table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&customerRow{})
}

// CustomerRepoImpl implements repository.CustomerRepository.
type CustomerRepoImpl struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) *CustomerRepoImpl {
	return &CustomerRepoImpl{db: db}
}

// Create inserts a new customer record.
func (r *CustomerRepoImpl) Create(ctx context.Context, c *entity.Customer) error {
	row := toRow(c)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *CustomerRepoImpl) FindBySlug(ctx context.Context, slug string) (*entity.Customer, error) {
	var row customerRow
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return toEntity(&row), nil
}

func (r *CustomerRepoImpl) ListScheduled(ctx context.Context) ([]*entity.Customer, error) {
	var rows []customerRow
	err := r.db.WithContext(ctx).
		Where("update_schedule IN ?", []string{string(entity.ScheduleDaily), string(entity.ScheduleWeekly)}).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	customers := make([]*entity.Customer, 0, len(rows))
	for i := range rows {
		customers = append(customers, toEntity(&rows[i]))
	}
	return customers, nil
}

// UpdateSyncState is a compare-and-swap on sync_version.
func (r *CustomerRepoImpl) UpdateSyncState(ctx context.Context, slug string, expectedVersion int64, fp entity.Fingerprint, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&customerRow{}).
		Where("slug = ? AND sync_version = ?", slug, expectedVersion).
		Updates(map[string]any{
			"last_daily_hash":  string(fp),
			"last_update_date": at,
			"sync_version":     gorm.Expr("sync_version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&customerRow{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrSyncStateConflict
}

func toRow(c *entity.Customer) customerRow {
	row := customerRow{
		Slug:            c.Slug,
		Name:            c.Name,
		WebsiteURL:      c.WebsiteURL,
		KnowledgeBaseID: c.KnowledgeBaseID,
		UpdateSchedule:  string(c.UpdateSchedule),
		UpdateHour:      c.UpdateHour,
		LastUpdateDate:  c.SyncState.LastSyncAt,
		SyncVersion:     c.SyncState.Version,
	}
	if c.SyncState.LastFingerprint != nil {
		h := string(*c.SyncState.LastFingerprint)
		row.LastDailyHash = &h
	}
	return row
}

func toEntity(row *customerRow) *entity.Customer {
	c := &entity.Customer{
		Slug:            row.Slug,
		Name:            row.Name,
		WebsiteURL:      row.WebsiteURL,
		KnowledgeBaseID: row.KnowledgeBaseID,
		UpdateSchedule:  entity.UpdateSchedule(row.UpdateSchedule),
		UpdateHour:      row.UpdateHour,
		SyncState: entity.SyncState{
			LastSyncAt: row.LastUpdateDate,
			Version:    row.SyncVersion,
		},
	}
	if c.UpdateSchedule == "" {
		c.UpdateSchedule = entity.ScheduleNone
	}
	if row.LastDailyHash != nil && *row.LastDailyHash != "" {
		fp := entity.Fingerprint(*row.LastDailyHash)
		c.SyncState.LastFingerprint = &fp
	}
	return c
}
