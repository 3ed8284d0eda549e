package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumeboard/lumeboard/backend/feeds"
	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
)

// NewsItemKeep is how many items are retained per source; older ones are
// pruned on refresh.
const NewsItemKeep = 50

type NewsService struct {
	repo     *repository.GORMRepository
	cache    *redis.Client
	cacheTTL time.Duration
	client   *http.Client
}

func NewNewsService(repo *repository.GORMRepository, cache *redis.Client, config *Config) *NewsService {
	ttl := time.Duration(config.News.CacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &NewsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// RefreshAll fetches every enabled source. Per-source failures are logged and
// skipped; the next run retries naturally.
func (s *NewsService) RefreshAll(ctx context.Context) (int, error) {
	sources, err := s.repo.GetEnabledNewsSources(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get news sources: %w", err)
	}

	refreshed := 0
	for i := range sources {
		source := &sources[i]
		if err := s.refreshSource(ctx, source); err != nil {
			slog.Error("Failed to refresh news source", "error", err, "source_id", source.ID, "url", source.FeedURL)
			continue
		}
		refreshed++
	}

	slog.Info("News refresh complete", "sources", len(sources), "refreshed", refreshed)
	return refreshed, nil
}

func (s *NewsService) refreshSource(ctx context.Context, source *models.NewsSource) error {
	req, err := http.NewRequestWithContext(ctx, "GET", source.FeedURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "lumeboard-news/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read feed body: %w", err)
	}

	parsed, err := feeds.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]models.NewsItem, 0, len(parsed))
	for _, p := range parsed {
		item := models.NewsItem{
			SourceID: source.ID,
			GUID:     p.GUID,
			Title:    p.Title,
			Link:     p.Link,
			Summary:  p.Summary,
			ImageURL: p.ImageURL,
		}
		if !p.PublishedAt.IsZero() {
			published := p.PublishedAt
			item.PublishedAt = &published
		}
		items = append(items, item)
	}

	if err := s.repo.UpsertNewsItems(ctx, source.ID, items, NewsItemKeep); err != nil {
		return fmt.Errorf("failed to store items: %w", err)
	}

	if err := s.repo.TouchNewsSource(ctx, source.ID, time.Now()); err != nil {
		return fmt.Errorf("failed to touch source: %w", err)
	}

	slog.Info("News source refreshed", "source_id", source.ID, "items", len(items))
	return nil
}

// GetItems returns the merged item list for a user's sources, served from
// Redis while the cache entry is fresh.
func (s *NewsService) GetItems(ctx context.Context, userID string, limit int) ([]models.NewsItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	cacheKey := fmt.Sprintf("news:items:%s:%d", userID, limit)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var items []models.NewsItem
			if err := json.Unmarshal([]byte(cached), &items); err == nil {
				return items, nil
			}
		} else if err != redis.Nil {
			slog.Warn("News cache read failed", "error", err)
		}
	}

	sources, err := s.repo.GetNewsSources(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get news sources: %w", err)
	}

	sourceIDs := make([]string, 0, len(sources))
	for _, source := range sources {
		if source.IsEnabled {
			sourceIDs = append(sourceIDs, source.ID)
		}
	}
	if len(sourceIDs) == 0 {
		return []models.NewsItem{}, nil
	}

	items, err := s.repo.GetNewsItems(ctx, sourceIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get news items: %w", err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				slog.Warn("News cache write failed", "error", err)
			}
		}
	}

	return items, nil
}

// AddSource registers a private feed for a user. A source with the same URL
// owned by someone else is not shared; each user manages their own rows.
func (s *NewsService) AddSource(ctx context.Context, userID, name, feedURL, category string) (*models.NewsSource, error) {
	source := &models.NewsSource{
		UserID:    &userID,
		Name:      name,
		FeedURL:   feedURL,
		Category:  category,
		IsEnabled: true,
	}

	if err := s.repo.CreateNewsSource(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to create news source: %w", err)
	}

	// Populate immediately so the widget is not empty until the next cron run
	if err := s.refreshSource(ctx, source); err != nil {
		slog.Warn("Initial fetch of new source failed", "error", err, "source_id", source.ID)
	}

	return source, nil
}
