package repository

import (
	"context"
	"log/slog"

	"github.com/lumeboard/lumeboard/backend/models"
	"gorm.io/gorm"
)

// GetOrCreateUserSettings returns the user's settings row, creating it with
// model defaults on first access.
func (r *GORMRepository) GetOrCreateUserSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if err != gorm.ErrRecordNotFound {
		slog.Error("Failed to get user settings", "error", err, "user_id", userID)
		return nil, err
	}

	settings = models.UserSettings{
		UserID:       userID,
		Theme:        "system",
		AccentColor:  "#6366f1",
		Font:         "Inter",
		SidebarWidth: 280,
	}
	if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
		slog.Error("Failed to create user settings", "error", err, "user_id", userID)
		return nil, err
	}
	slog.Info("User settings created", "user_id", userID)
	return &settings, nil
}

func (r *GORMRepository) UpdateUserSettings(ctx context.Context, settings *models.UserSettings) error {
	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		slog.Error("Failed to update user settings", "error", err, "user_id", settings.UserID)
		return err
	}
	slog.Info("User settings updated", "user_id", settings.UserID, "theme", settings.Theme)
	return nil
}

// Widget operations
func (r *GORMRepository) CreateWidget(ctx context.Context, widget *models.Widget) error {
	if err := r.db.WithContext(ctx).Create(widget).Error; err != nil {
		slog.Error("Failed to create widget", "error", err, "user_id", widget.UserID)
		return err
	}
	slog.Info("Widget created", "widget_id", widget.ID, "user_id", widget.UserID, "kind", widget.Kind)
	return nil
}

func (r *GORMRepository) GetWidgets(ctx context.Context, userID string) ([]models.Widget, error) {
	var widgets []models.Widget
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("pos_y, pos_x").Find(&widgets).Error
	if err != nil {
		slog.Error("Failed to get widgets", "error", err, "user_id", userID)
		return nil, err
	}
	return widgets, nil
}

func (r *GORMRepository) GetWidget(ctx context.Context, widgetID, userID string) (*models.Widget, error) {
	var widget models.Widget
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", widgetID, userID).First(&widget).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get widget", "error", err, "widget_id", widgetID, "user_id", userID)
		return nil, err
	}
	return &widget, nil
}

func (r *GORMRepository) UpdateWidget(ctx context.Context, widget *models.Widget) error {
	if err := r.db.WithContext(ctx).Save(widget).Error; err != nil {
		slog.Error("Failed to update widget", "error", err, "widget_id", widget.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteWidget(ctx context.Context, widgetID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", widgetID).Delete(&models.Widget{}).Error; err != nil {
		slog.Error("Failed to delete widget", "error", err, "widget_id", widgetID)
		return err
	}
	slog.Info("Widget deleted", "widget_id", widgetID)
	return nil
}
