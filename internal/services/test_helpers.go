package services

import (
	"context"
	"sync"
	"time"

	"github.com/vehiscan/vehiscan/internal/models"
)

// memKV is an in-memory guard.KV for service tests
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), val...), nil
}

func (m *memKV) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) DeleteByPrefix(prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for key := range m.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(m.data, key)
			count++
		}
	}
	return count, nil
}

func (m *memKV) KeysByPrefix(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0)
	for key := range m.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	CreateFunc     func(ctx context.Context, user *models.User) (*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

// MockVehicleRepository implements VehicleRepository for testing
type MockVehicleRepository struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.Vehicle, error)
	GetByChassisNumberFunc func(ctx context.Context, chassisNumber string) (*models.Vehicle, error)
	ListByOwnerFunc        func(ctx context.Context, ownerUserID string) ([]*models.Vehicle, error)
	CreateFunc             func(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error)
	UpdateFunc             func(ctx context.Context, id string, vehicle *models.Vehicle) (*models.Vehicle, error)
	DeleteFunc             func(ctx context.Context, id string) error
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockVehicleRepository) GetByChassisNumber(ctx context.Context, chassisNumber string) (*models.Vehicle, error) {
	if m.GetByChassisNumberFunc != nil {
		return m.GetByChassisNumberFunc(ctx, chassisNumber)
	}
	return nil, models.ErrNotFound
}

func (m *MockVehicleRepository) ListByOwner(ctx context.Context, ownerUserID string) ([]*models.Vehicle, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerUserID)
	}
	return []*models.Vehicle{}, nil
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, vehicle)
	}
	return nil, models.ErrInternalServer
}

func (m *MockVehicleRepository) Update(ctx context.Context, id string, vehicle *models.Vehicle) (*models.Vehicle, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, vehicle)
	}
	return nil, models.ErrInternalServer
}

func (m *MockVehicleRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return models.ErrInternalServer
}

// MockScanRepository implements ScanRepository for testing
type MockScanRepository struct {
	CreateFunc     func(ctx context.Context, scan *models.Scan) (*models.Scan, error)
	ListByUserFunc func(ctx context.Context, userID string, limit, offset int) ([]*models.Scan, error)
	CountByUserFunc func(ctx context.Context, userID string) (int, error)
}

func (m *MockScanRepository) Create(ctx context.Context, scan *models.Scan) (*models.Scan, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, scan)
	}
	scan.ID = "scan123"
	scan.ScannedAt = time.Now()
	return scan, nil
}

func (m *MockScanRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Scan, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	return []*models.Scan{}, nil
}

func (m *MockScanRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	if m.CountByUserFunc != nil {
		return m.CountByUserFunc(ctx, userID)
	}
	return 0, nil
}

// MockReminderVehicleRepository implements ReminderVehicleRepository for testing
type MockReminderVehicleRepository struct {
	ListDueBetweenFunc       func(ctx context.Context, from, to time.Time) ([]*models.Vehicle, error)
	SetRemindedThresholdFunc func(ctx context.Context, id string, threshold int) error
}

func (m *MockReminderVehicleRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*models.Vehicle, error) {
	if m.ListDueBetweenFunc != nil {
		return m.ListDueBetweenFunc(ctx, from, to)
	}
	return []*models.Vehicle{}, nil
}

func (m *MockReminderVehicleRepository) SetRemindedThreshold(ctx context.Context, id string, threshold int) error {
	if m.SetRemindedThresholdFunc != nil {
		return m.SetRemindedThresholdFunc(ctx, id, threshold)
	}
	return nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendRenewalReminderFunc func(ctx context.Context, email, plate string, dueDate time.Time, daysLeft int) error
	Sent                    []string
}

func (m *MockEmailService) SendRenewalReminder(ctx context.Context, email, plate string, dueDate time.Time, daysLeft int) error {
	if m.SendRenewalReminderFunc != nil {
		if err := m.SendRenewalReminderFunc(ctx, email, plate, dueDate, daysLeft); err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, plate)
	return nil
}

// NewTestUser builds a user with a known password hash already applied
func NewTestUser(id, email, name string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      "user",
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
}
