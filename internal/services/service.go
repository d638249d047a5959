package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sensor-alert-service/internal/auth"
	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/models"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

type ConfigRepository interface {
	GetCurrentConfig(ctx context.Context) (*models.ThresholdConfig, error)
	ReplaceActiveConfig(ctx context.Context, cfg *models.ThresholdConfig) (*models.ThresholdConfig, error)
	ListConfigVersions(ctx context.Context, limit int) ([]models.ThresholdConfig, error)
}

type AlertRepository interface {
	GetAlertByID(ctx context.Context, id int64) (*models.Alert, error)
	UpdateAlertStatus(ctx context.Context, id int64, from, to models.AlertStatus) error
	ListAlerts(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error)
}

type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type TokenIssuer interface {
	Issue(userID int64, username string) (string, time.Time, error)
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// Service holds the request-facing operations of the dashboard.
type Service struct {
	configs ConfigRepository
	alerts  AlertRepository
	users   UserRepository
	tokens  TokenIssuer
	logger  *logging.Logger

	checkPassword func(hash, password string) bool
}

func New(configs ConfigRepository, alerts AlertRepository, users UserRepository, tokens TokenIssuer, logger *logging.Logger) *Service {
	return &Service{
		configs: configs,
		alerts:  alerts,
		users:   users,
		tokens:  tokens,
		logger:  logger,

		checkPassword: auth.CheckPassword,
	}
}

// Login verifies credentials and issues an access token. Unknown users and
// wrong passwords both fail with models.ErrUnauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" {
		return nil, &models.FieldError{Field: "username", Reason: "username is required", Err: models.ErrInvalidArgument}
	}
	if password == "" {
		return nil, &models.FieldError{Field: "password", Reason: "password is required", Err: models.ErrInvalidArgument}
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.checkPassword(auth.DummyHash(), password)
			s.logger.Warnf("Login rejected for unknown user %q", username)
			return nil, models.ErrUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !s.checkPassword(user.PasswordHash, password) {
		s.logger.Warnf("Login rejected for user %q: bad password", username)
		return nil, models.ErrUnauthorized
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("User %q logged in", user.Username)
	return &LoginResult{Token: token, Username: user.Username, ExpiresAt: expiresAt}, nil
}

func (s *Service) GetConfig(ctx context.Context) (*models.ThresholdConfig, error) {
	return s.configs.GetCurrentConfig(ctx)
}

// UpdateConfig validates the limits and stores them as the new active version.
func (s *Service) UpdateConfig(ctx context.Context, tempMax, humidityMax float64) (*models.ThresholdConfig, error) {
	cfg, err := models.NewThresholdConfig(tempMax, humidityMax)
	if err != nil {
		return nil, err
	}
	saved, err := s.configs.ReplaceActiveConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Threshold config %d activated: tempMax=%.2f humidityMax=%.2f", saved.ID, saved.TempMax, saved.HumidityMax)
	return saved, nil
}

// ConfigHistory returns the newest versions first.
func (s *Service) ConfigHistory(ctx context.Context, limit int) ([]models.ThresholdConfig, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	versions, err := s.configs.ListConfigVersions(ctx, limit)
	if err != nil {
		return nil, err
	}
	if versions == nil {
		versions = []models.ThresholdConfig{}
	}
	return versions, nil
}

func (s *Service) ListAlerts(ctx context.Context, filter models.AlertFilter) (models.Page[models.Alert], error) {
	filter = filter.Normalize()
	rows, total, err := s.alerts.ListAlerts(ctx, filter)
	if err != nil {
		return models.Page[models.Alert]{}, err
	}
	return models.NewPage(rows, total, filter.PageNumber, filter.PageSize), nil
}

// AcknowledgeAlert moves an open alert to Acknowledged. A second
// acknowledgement, or one that loses a race, fails with models.ErrConflict.
func (s *Service) AcknowledgeAlert(ctx context.Context, id int64) (*models.Alert, error) {
	alert, err := s.alerts.GetAlertByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := alert.Acknowledge(); err != nil {
		return nil, err
	}
	if err := s.alerts.UpdateAlertStatus(ctx, id, models.AlertOpen, models.AlertAcknowledged); err != nil {
		return nil, err
	}
	s.logger.Infof("Alert %d acknowledged", id)
	return alert, nil
}
