package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-alert-service/internal/auth"
	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/models"
)

type fakeConfigRepo struct {
	versions []models.ThresholdConfig
	lastID   int64
	limit    int
}

func (f *fakeConfigRepo) GetCurrentConfig(ctx context.Context) (*models.ThresholdConfig, error) {
	for i := len(f.versions) - 1; i >= 0; i-- {
		if f.versions[i].IsActive {
			cfg := f.versions[i]
			return &cfg, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeConfigRepo) ReplaceActiveConfig(ctx context.Context, cfg *models.ThresholdConfig) (*models.ThresholdConfig, error) {
	for i := range f.versions {
		f.versions[i].Deactivate()
	}
	f.lastID++
	saved := *cfg
	saved.ID = f.lastID
	saved.IsActive = true
	f.versions = append(f.versions, saved)
	return &saved, nil
}

func (f *fakeConfigRepo) ListConfigVersions(ctx context.Context, limit int) ([]models.ThresholdConfig, error) {
	f.limit = limit
	var out []models.ThresholdConfig
	for i := len(f.versions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.versions[i])
	}
	return out, nil
}

type fakeAlertRepo struct {
	alerts      map[int64]models.Alert
	staleUpdate bool
	filter      models.AlertFilter
}

func (f *fakeAlertRepo) GetAlertByID(ctx context.Context, id int64) (*models.Alert, error) {
	a, ok := f.alerts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAlertRepo) UpdateAlertStatus(ctx context.Context, id int64, from, to models.AlertStatus) error {
	a := f.alerts[id]
	if f.staleUpdate || a.Status != from {
		return models.ErrConflict
	}
	a.Status = to
	f.alerts[id] = a
	return nil
}

func (f *fakeAlertRepo) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	f.filter = filter
	var out []models.Alert
	for _, a := range f.alerts {
		out = append(out, a)
	}
	return out, 25, nil
}

type fakeUserRepo struct {
	users map[string]models.User
	err   error
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func newTestService(t *testing.T) (*Service, *fakeConfigRepo, *fakeAlertRepo, *fakeUserRepo) {
	t.Helper()
	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)

	configs := &fakeConfigRepo{}
	alerts := &fakeAlertRepo{alerts: map[int64]models.Alert{
		1: {ID: 1, Type: models.SensorTemperature, Value: 35, Threshold: 30, Status: models.AlertOpen, CreatedAt: time.Now()},
		2: {ID: 2, Type: models.SensorHumidity, Value: 90, Threshold: 80, Status: models.AlertAcknowledged, CreatedAt: time.Now()},
	}}
	users := &fakeUserRepo{users: map[string]models.User{
		"admin": {ID: 7, Username: "admin", PasswordHash: hash},
	}}
	tokens := auth.NewTokenIssuer("test-secret", "GreenSpec", "GreenSpec", 24*time.Hour)

	return New(configs, alerts, users, tokens, logging.NewNop()), configs, alerts, users
}

func TestLogin(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	res, err := svc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "admin", res.Username)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), res.ExpiresAt, time.Minute)

	claims, err := auth.NewTokenIssuer("test-secret", "GreenSpec", "GreenSpec", time.Hour).Parse(res.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "admin", claims.Username)
}

func TestLogin_FailuresAreUniform(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, errUnknown := svc.Login(context.Background(), "ghost", "admin123")
	_, errWrong := svc.Login(context.Background(), "admin", "nope")

	assert.ErrorIs(t, errUnknown, models.ErrUnauthorized)
	assert.ErrorIs(t, errWrong, models.ErrUnauthorized)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLogin_EmptyCredentials(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "", "x")
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.Login(context.Background(), "admin", "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestLogin_StoreFailureIsNotUnauthorized(t *testing.T) {
	svc, _, _, users := newTestService(t)
	users.err = errors.New("pool closed")

	_, err := svc.Login(context.Background(), "admin", "admin123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrUnauthorized)
}

func TestConfig_UpdateCreatesNewActiveVersion(t *testing.T) {
	svc, configs, _, _ := newTestService(t)

	_, err := svc.GetConfig(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)

	first, err := svc.UpdateConfig(context.Background(), 30, 80)
	require.NoError(t, err)
	second, err := svc.UpdateConfig(context.Background(), 28, 70)
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	current, err := svc.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 28.0, current.TempMax)
	assert.Equal(t, 70.0, current.HumidityMax)

	active := 0
	for _, v := range configs.versions {
		if v.IsActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestConfig_UpdateRejectsInvalid(t *testing.T) {
	svc, configs, _, _ := newTestService(t)

	_, err := svc.UpdateConfig(context.Background(), -1, 80)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	_, err = svc.UpdateConfig(context.Background(), 30, 101)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
	assert.Empty(t, configs.versions)
}

func TestConfigHistory_ClampsLimit(t *testing.T) {
	svc, configs, _, _ := newTestService(t)

	versions, err := svc.ConfigHistory(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, versions)
	assert.Equal(t, DefaultHistoryLimit, configs.limit)

	_, err = svc.ConfigHistory(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxHistoryLimit, configs.limit)
}

func TestListAlerts_NormalizesAndPages(t *testing.T) {
	svc, _, alerts, _ := newTestService(t)

	page, err := svc.ListAlerts(context.Background(), models.AlertFilter{PageNumber: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, alerts.filter.PageNumber)
	assert.Equal(t, models.MaxPageSize, alerts.filter.PageSize)
	assert.Equal(t, 25, page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Data, 2)
}

func TestAcknowledgeAlert(t *testing.T) {
	svc, _, alerts, _ := newTestService(t)

	alert, err := svc.AcknowledgeAlert(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.AlertAcknowledged, alert.Status)
	assert.Equal(t, models.AlertAcknowledged, alerts.alerts[1].Status)

	_, err = svc.AcknowledgeAlert(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAcknowledgeAlert_Unknown(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.AcknowledgeAlert(context.Background(), 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAcknowledgeAlert_LostRace(t *testing.T) {
	svc, _, alerts, _ := newTestService(t)
	alerts.staleUpdate = true

	_, err := svc.AcknowledgeAlert(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, models.AlertOpen, alerts.alerts[1].Status)
}

func TestLogin_UnknownUserStillComparesAHash(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	var hashes []string
	svc.checkPassword = func(hash, password string) bool {
		hashes = append(hashes, hash)
		return auth.CheckPassword(hash, password)
	}

	_, err := svc.Login(context.Background(), "ghost", "admin123")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	require.Len(t, hashes, 1)
	assert.Equal(t, auth.DummyHash(), hashes[0])

	_, err = svc.Login(context.Background(), "admin", "nope")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Len(t, hashes, 2, "both rejection paths do one bcrypt comparison")
}
