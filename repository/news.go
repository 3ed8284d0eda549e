package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumeboard/lumeboard/backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// News source operations
func (r *GORMRepository) CreateNewsSource(ctx context.Context, source *models.NewsSource) error {
	if err := r.db.WithContext(ctx).Create(source).Error; err != nil {
		slog.Error("Failed to create news source", "error", err)
		return err
	}
	slog.Info("News source created", "source_id", source.ID, "name", source.Name)
	return nil
}

// GetNewsSources returns shared sources plus the user's private ones. An
// empty userID returns only the shared defaults.
func (r *GORMRepository) GetNewsSources(ctx context.Context, userID string) ([]models.NewsSource, error) {
	var sources []models.NewsSource
	query := r.db.WithContext(ctx)
	if userID == "" {
		query = query.Where("user_id IS NULL")
	} else {
		query = query.Where("(user_id IS NULL OR user_id = ?)", userID)
	}
	if err := query.Order("created_at").Find(&sources).Error; err != nil {
		slog.Error("Failed to get news sources", "error", err, "user_id", userID)
		return nil, err
	}
	return sources, nil
}

func (r *GORMRepository) GetEnabledNewsSources(ctx context.Context) ([]models.NewsSource, error) {
	var sources []models.NewsSource
	if err := r.db.WithContext(ctx).Where("is_enabled = ?", true).Find(&sources).Error; err != nil {
		slog.Error("Failed to get enabled news sources", "error", err)
		return nil, err
	}
	return sources, nil
}

func (r *GORMRepository) GetNewsSourceByURL(ctx context.Context, feedURL string) (*models.NewsSource, error) {
	var source models.NewsSource
	if err := r.db.WithContext(ctx).Where("feed_url = ?", feedURL).First(&source).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get news source by URL", "error", err, "feed_url", feedURL)
		return nil, err
	}
	return &source, nil
}

func (r *GORMRepository) DeleteNewsSource(ctx context.Context, sourceID, userID string) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", sourceID, userID).Delete(&models.NewsSource{}).Error; err != nil {
		slog.Error("Failed to delete news source", "error", err, "source_id", sourceID)
		return err
	}
	slog.Info("News source deleted", "source_id", sourceID)
	return nil
}

func (r *GORMRepository) TouchNewsSource(ctx context.Context, sourceID string, fetchedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.NewsSource{}).
		Where("id = ?", sourceID).
		Update("fetched_at", fetchedAt).Error
	if err != nil {
		slog.Error("Failed to touch news source", "error", err, "source_id", sourceID)
		return err
	}
	return nil
}

// News item operations

// UpsertNewsItems inserts items, ignoring guids already present for the
// source, and prunes older rows beyond the retention window.
func (r *GORMRepository) UpsertNewsItems(ctx context.Context, sourceID string, items []models.NewsItem, keep int) error {
	if len(items) > 0 {
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "source_id"}, {Name: "guid"}},
				DoNothing: true,
			}).
			Create(&items).Error
		if err != nil {
			slog.Error("Failed to upsert news items", "error", err, "source_id", sourceID)
			return err
		}
	}

	// Prune beyond the retention window, oldest first.
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.NewsItem{}).
		Where("source_id = ?", sourceID).
		Order("published_at DESC NULLS LAST, created_at DESC").
		Offset(keep).
		Pluck("id", &ids).Error
	if err != nil {
		slog.Error("Failed to list prunable news items", "error", err, "source_id", sourceID)
		return err
	}
	if len(ids) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.NewsItem{}).Error; err != nil {
			slog.Error("Failed to prune news items", "error", err, "source_id", sourceID)
			return err
		}
	}
	return nil
}

func (r *GORMRepository) GetNewsItems(ctx context.Context, sourceIDs []string, limit int) ([]models.NewsItem, error) {
	var items []models.NewsItem
	err := r.db.WithContext(ctx).
		Where("source_id IN ?", sourceIDs).
		Preload("Source").
		Order("published_at DESC NULLS LAST, created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		slog.Error("Failed to get news items", "error", err)
		return nil, err
	}
	return items, nil
}
