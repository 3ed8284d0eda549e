package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumeboard/lumeboard/backend/models"
	"gorm.io/gorm"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.PermanentToken{},
		&models.OAuthConnection{},
		&models.Subscription{},
		&models.CreditEntry{},
		&models.Agent{},
		&models.Conversation{},
		&models.ChatMessage{},
		&models.MailAccount{},
		&models.NewsSource{},
		&models.NewsItem{},
		&models.UserSettings{},
		&models.Widget{},
	)
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create user", "error", err)
		return err
	}
	slog.Info("User created", "user_id", user.ID, "email", user.Email)
	return nil
}

func (r *GORMRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

// Token operations
func (r *GORMRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", token, time.Now()).First(&refreshToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get refresh token", "error", err)
		return nil, err
	}
	return &refreshToken, nil
}

func (r *GORMRepository) CreatePermanentToken(ctx context.Context, token *models.PermanentToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create permanent token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetPermanentToken(ctx context.Context, token string) (*models.PermanentToken, error) {
	var permanentToken models.PermanentToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&permanentToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get permanent token", "error", err)
		return nil, err
	}
	return &permanentToken, nil
}

func (r *GORMRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete user refresh tokens", "error", err, "user_id", userID)
		return err
	}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PermanentToken{}).Error; err != nil {
		slog.Error("Failed to delete user permanent tokens", "error", err, "user_id", userID)
		return err
	}
	return nil
}

// OAuth connection operations
func (r *GORMRepository) UpsertOAuthConnection(ctx context.Context, conn *models.OAuthConnection) error {
	var existing models.OAuthConnection
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", conn.UserID, conn.Provider).
		First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		slog.Error("Failed to look up oauth connection", "error", err, "user_id", conn.UserID, "provider", conn.Provider)
		return err
	}

	if err == nil {
		conn.ID = existing.ID
		conn.CreatedAt = existing.CreatedAt
		if err := r.db.WithContext(ctx).Save(conn).Error; err != nil {
			slog.Error("Failed to update oauth connection", "error", err, "user_id", conn.UserID, "provider", conn.Provider)
			return err
		}
		slog.Info("OAuth connection updated", "user_id", conn.UserID, "provider", conn.Provider)
		return nil
	}

	if err := r.db.WithContext(ctx).Create(conn).Error; err != nil {
		slog.Error("Failed to create oauth connection", "error", err, "user_id", conn.UserID, "provider", conn.Provider)
		return err
	}
	slog.Info("OAuth connection created", "user_id", conn.UserID, "provider", conn.Provider)
	return nil
}

func (r *GORMRepository) GetOAuthConnection(ctx context.Context, userID, provider string) (*models.OAuthConnection, error) {
	var conn models.OAuthConnection
	err := r.db.WithContext(ctx).Where("user_id = ? AND provider = ?", userID, provider).First(&conn).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get oauth connection", "error", err, "user_id", userID, "provider", provider)
		return nil, err
	}
	return &conn, nil
}

func (r *GORMRepository) GetOAuthConnections(ctx context.Context, userID string) ([]models.OAuthConnection, error) {
	var conns []models.OAuthConnection
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&conns).Error
	if err != nil {
		slog.Error("Failed to get oauth connections", "error", err, "user_id", userID)
		return nil, err
	}
	return conns, nil
}

func (r *GORMRepository) DeleteOAuthConnection(ctx context.Context, userID, provider string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND provider = ?", userID, provider).Delete(&models.OAuthConnection{}).Error; err != nil {
		slog.Error("Failed to delete oauth connection", "error", err, "user_id", userID, "provider", provider)
		return err
	}
	slog.Info("OAuth connection deleted", "user_id", userID, "provider", provider)
	return nil
}
