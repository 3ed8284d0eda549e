package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
	"golang.org/x/crypto/bcrypt"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo           *repository.GORMRepository
	billingService *BillingService
}

// NewDatabaseSeeder creates a new database seeder
func NewDatabaseSeeder(repo *repository.GORMRepository, billingService *BillingService) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo, billingService: billingService}
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	if s.isSeedingComplete(ctx) {
		slog.Info("Database seeding already completed, skipping")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Demo users (no admin users for security)
	users := []models.User{
		{
			Email:     "test@example.com",
			Password:  string(hashedPassword),
			FullName:  "Test User",
			AvatarURL: "",
			Role:      "user",
		},
		{
			Email:     "demo@example.com",
			Password:  string(hashedPassword),
			FullName:  "Demo User",
			AvatarURL: "",
			Role:      "user",
		},
	}

	for _, user := range users {
		if err := s.seedUser(ctx, user); err != nil {
			slog.Error("Failed to seed user", "email", user.Email, "error", err)
		}
	}

	// Default public assistants
	defaultAgents := []models.Agent{
		{
			UserID:      nil,
			Name:        "Aria",
			Description: "A general-purpose assistant for planning your day.",
			Personality: "Warm, organized and proactive. Breaks big tasks into small steps and keeps answers short.",
			Focus:       "daily planning and productivity",
			IsPublic:    true,
			IsActive:    true,
		},
		{
			UserID:      nil,
			Name:        "Scout",
			Description: "A research assistant that digests news and technical topics.",
			Personality: "Curious and precise. Summarizes before going deep and always cites what it is summarizing.",
			Focus:       "news and research",
			IsPublic:    true,
			IsActive:    true,
		},
		{
			UserID:      nil,
			Name:        "Patch",
			Description: "A code-review companion for your open pull requests.",
			Personality: "Direct and pragmatic. Points out risks first and suggests the smallest fix that works.",
			Focus:       "code review and engineering workflow",
			IsPublic:    true,
			IsActive:    true,
		},
		{
			UserID:      nil,
			Name:        "Quill",
			Description: "A writing assistant for emails and short posts.",
			Personality: "Clear and editorial. Trims filler, keeps the author's voice, offers two variants when asked.",
			Focus:       "writing and email",
			IsPublic:    true,
			IsActive:    true,
		},
	}

	for _, agent := range defaultAgents {
		if err := s.seedAgent(ctx, agent); err != nil {
			slog.Error("Failed to seed agent", "name", agent.Name, "error", err)
		}
	}

	// Shared default news sources (visible to every user)
	defaultSources := []models.NewsSource{
		{
			UserID:    nil,
			Name:      "Hacker News",
			FeedURL:   "https://news.ycombinator.com/rss",
			Category:  "tech",
			IsEnabled: true,
		},
		{
			UserID:    nil,
			Name:      "The Go Blog",
			FeedURL:   "https://go.dev/blog/feed.atom",
			Category:  "engineering",
			IsEnabled: true,
		},
		{
			UserID:    nil,
			Name:      "BBC World",
			FeedURL:   "https://feeds.bbci.co.uk/news/world/rss.xml",
			Category:  "world",
			IsEnabled: true,
		},
	}

	for _, source := range defaultSources {
		if err := s.seedNewsSource(ctx, source); err != nil {
			slog.Error("Failed to seed news source", "name", source.Name, "error", err)
		}
	}

	// Demo users get a trial subscription like any signup
	if s.billingService != nil {
		for _, email := range []string{"test@example.com", "demo@example.com"} {
			user, err := s.repo.GetUserByEmail(ctx, email)
			if err != nil || user == nil {
				continue
			}
			if err := s.billingService.ProvisionNewUser(ctx, user.ID); err != nil {
				slog.Error("Failed to provision seeded user", "email", email, "error", err)
			}
		}
	}

	slog.Info("Database seeding completed successfully")
	return nil
}

// isSeedingComplete checks if seeding has already been completed
func (s *DatabaseSeeder) isSeedingComplete(ctx context.Context) bool {
	agents, err := s.repo.GetAgents(ctx, "", true)
	if err != nil {
		return false
	}

	publicAgentCount := 0
	for _, agent := range agents {
		if agent.UserID == nil && agent.IsPublic {
			publicAgentCount++
		}
	}

	return publicAgentCount >= 4
}

// seedUser seeds a single user (idempotent)
func (s *DatabaseSeeder) seedUser(ctx context.Context, user models.User) error {
	existingUser, err := s.repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("error checking user %s: %w", user.Email, err)
	}

	if existingUser != nil {
		slog.Info("User already exists, skipping", "email", user.Email)
		return nil
	}

	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}

	slog.Info("Created user", "email", user.Email)
	return nil
}

// seedAgent seeds a single public agent (idempotent)
func (s *DatabaseSeeder) seedAgent(ctx context.Context, agent models.Agent) error {
	agents, err := s.repo.GetAgents(ctx, "", true)
	if err != nil {
		return fmt.Errorf("error checking agents: %w", err)
	}

	for _, existingAgent := range agents {
		if existingAgent.Name == agent.Name && existingAgent.UserID == nil {
			slog.Info("Public agent already exists, skipping", "name", agent.Name)
			return nil
		}
	}

	if err := s.repo.CreateAgent(ctx, &agent); err != nil {
		return fmt.Errorf("failed to create agent %s: %w", agent.Name, err)
	}

	slog.Info("Created agent", "name", agent.Name)
	return nil
}

// seedNewsSource seeds a shared news source (idempotent)
func (s *DatabaseSeeder) seedNewsSource(ctx context.Context, source models.NewsSource) error {
	existing, err := s.repo.GetNewsSourceByURL(ctx, source.FeedURL)
	if err != nil {
		return fmt.Errorf("error checking news source %s: %w", source.FeedURL, err)
	}
	if existing != nil {
		slog.Info("News source already exists, skipping", "url", source.FeedURL)
		return nil
	}

	if err := s.repo.CreateNewsSource(ctx, &source); err != nil {
		return fmt.Errorf("failed to create news source %s: %w", source.Name, err)
	}

	slog.Info("Created news source", "name", source.Name)
	return nil
}
