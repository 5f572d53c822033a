package service

import (
	"context"
	"time"

	"clinic-orders/internal/model"
	"clinic-orders/internal/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Search(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByItemNumber(ctx context.Context, itemNumber string) (*model.Product, error) {
	args := m.Called(ctx, itemNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Facets(ctx context.Context) (*model.CatalogFacets, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CatalogFacets), args.Error(1)
}

func (m *MockProductRepository) UpsertBatch(ctx context.Context, products []model.Product) error {
	return m.Called(ctx, products).Error(0)
}

// MockCartRepository is a mock implementation of CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetDraft(ctx context.Context, userID, clinic string) (*model.Cart, error) {
	args := m.Called(ctx, userID, clinic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) EnsureDraft(ctx context.Context, userID, clinic string) (*model.Cart, error) {
	args := m.Called(ctx, userID, clinic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) List(ctx context.Context, filter model.CartFilter) ([]model.Cart, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Cart), args.Error(1)
}

func (m *MockCartRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []model.CartStatus, to model.CartStatus, submittedAt *time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, submittedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItemDetail, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartItemDetail), args.Error(1)
}

func (m *MockCartRepository) GetItem(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockCartRepository) CountItems(ctx context.Context, cartID uuid.UUID) (int, int, error) {
	args := m.Called(ctx, cartID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockCartRepository) AddOrIncrementItem(ctx context.Context, cartID uuid.UUID, productID string, quantity int) (*model.CartItem, error) {
	args := m.Called(ctx, cartID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockCartRepository) SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (bool, error) {
	args := m.Called(ctx, itemID, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	args := m.Called(ctx, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) DecideItem(ctx context.Context, itemID uuid.UUID, status model.ItemStatus, approvedQuantity *int) (bool, error) {
	args := m.Called(ctx, itemID, status, approvedQuantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) AdjustItem(ctx context.Context, itemID uuid.UUID, quantity int, status model.ItemStatus, approvedQuantity *int) (bool, error) {
	args := m.Called(ctx, itemID, quantity, status, approvedQuantity)
	return args.Bool(0), args.Error(1)
}

// MockApprovalLogRepository is a mock implementation of ApprovalLogRepository.
type MockApprovalLogRepository struct {
	mock.Mock
}

func (m *MockApprovalLogRepository) Append(ctx context.Context, entry *model.ApprovalLogEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockApprovalLogRepository) ListByCart(ctx context.Context, cartID uuid.UUID) ([]model.ApprovalLogEntry, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApprovalLogEntry), args.Error(1)
}

// appended returns the entries passed to Append, in call order.
func (m *MockApprovalLogRepository) appended() []*model.ApprovalLogEntry {
	var entries []*model.ApprovalLogEntry
	for _, call := range m.Calls {
		if call.Method == "Append" {
			entries = append(entries, call.Arguments.Get(1).(*model.ApprovalLogEntry))
		}
	}
	return entries
}

// MockCompanyRepository is a mock implementation of CompanyRepository.
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) Create(ctx context.Context, company *model.Company) error {
	return m.Called(ctx, company).Error(0)
}

func (m *MockCompanyRepository) List(ctx context.Context) ([]model.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Company), args.Error(1)
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *MockCompanyRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCompanyRepository) CreateAccessCode(ctx context.Context, code *model.AccessCode) error {
	return m.Called(ctx, code).Error(0)
}

func (m *MockCompanyRepository) ListAccessCodes(ctx context.Context, companyID uuid.UUID) ([]model.AccessCode, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AccessCode), args.Error(1)
}

func (m *MockCompanyRepository) DeleteAccessCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockPolicyRepository is a mock implementation of PolicyRepository.
type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) Save(ctx context.Context, policy *model.Policy) error {
	return m.Called(ctx, policy).Error(0)
}

func (m *MockPolicyRepository) GetByID(ctx context.Context, id string) (*model.Policy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyRepository) List(ctx context.Context) ([]model.Policy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Policy), args.Error(1)
}

// MockNotifier is a mock implementation of notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event notify.EventType, data any) {
	m.Called(ctx, event, data)
}

func (m *MockNotifier) Close(ctx context.Context) error {
	return nil
}

// MockCache is a mock implementation of cache.Cache.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest any) bool {
	return m.Called(ctx, key, dest).Bool(0)
}

func (m *MockCache) Set(ctx context.Context, key string, value any) {
	m.Called(ctx, key, value)
}

func (m *MockCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockImporter is a mock implementation of Importer.
type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) Run(ctx context.Context) (*model.ImportResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportResult), args.Error(1)
}

var (
	staff   = model.Identity{UserID: "staff-1", Role: model.RoleStaff, Clinic: "Northside"}
	other   = model.Identity{UserID: "staff-2", Role: model.RoleStaff, Clinic: "Northside"}
	manager = model.Identity{UserID: "mgr-1", Role: model.RoleManager, Clinic: "Northside"}
)

func intPtr(v int) *int { return &v }
