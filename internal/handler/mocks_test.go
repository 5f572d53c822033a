package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-orders/internal/middleware"
	"clinic-orders/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// MockCatalogService is a mock implementation of CatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Search(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockCatalogService) Facets(ctx context.Context) (*model.CatalogFacets, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CatalogFacets), args.Error(1)
}

func (m *MockCatalogService) Import(ctx context.Context, identity model.Identity) (*model.ImportResult, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportResult), args.Error(1)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) GetDraft(ctx context.Context, identity model.Identity) (*model.CartView, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartView), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, identity model.Identity, req *model.AddItemRequest) (*model.CartItem, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockCartService) UpdateItemQuantity(ctx context.Context, identity model.Identity, itemID uuid.UUID, quantity int) (*model.CartView, error) {
	args := m.Called(ctx, identity, itemID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartView), args.Error(1)
}

func (m *MockCartService) Submit(ctx context.Context, identity model.Identity, cartID uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, identity, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) ListMine(ctx context.Context, identity model.Identity) ([]model.Cart, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Cart), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, identity model.Identity, cartID uuid.UUID) (*model.CartView, error) {
	args := m.Called(ctx, identity, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartView), args.Error(1)
}

func (m *MockCartService) History(ctx context.Context, identity model.Identity, cartID uuid.UUID) ([]model.ApprovalLogEntry, error) {
	args := m.Called(ctx, identity, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ApprovalLogEntry), args.Error(1)
}

func (m *MockCartService) Export(ctx context.Context, identity model.Identity, cartID uuid.UUID) (*excelize.File, error) {
	args := m.Called(ctx, identity, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*excelize.File), args.Error(1)
}

// MockReviewService is a mock implementation of ReviewService.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) ListQueue(ctx context.Context, identity model.Identity, filter model.CartFilter) ([]model.Cart, error) {
	args := m.Called(ctx, identity, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Cart), args.Error(1)
}

func (m *MockReviewService) ApproveItem(ctx context.Context, identity model.Identity, itemID uuid.UUID, quantity int, note string) (*model.CartItem, error) {
	args := m.Called(ctx, identity, itemID, quantity, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockReviewService) DenyItem(ctx context.Context, identity model.Identity, itemID uuid.UUID, note string) (*model.CartItem, error) {
	args := m.Called(ctx, identity, itemID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockReviewService) AdjustQuantity(ctx context.Context, identity model.Identity, itemID uuid.UUID, quantity int, note string) (*model.CartItem, error) {
	args := m.Called(ctx, identity, itemID, quantity, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockReviewService) ApproveCart(ctx context.Context, identity model.Identity, cartID uuid.UUID, note string) (*model.Cart, error) {
	args := m.Called(ctx, identity, cartID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockReviewService) ReturnCart(ctx context.Context, identity model.Identity, cartID uuid.UUID, note string) (*model.Cart, error) {
	args := m.Called(ctx, identity, cartID, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

// MockDirectoryService is a mock implementation of DirectoryService.
type MockDirectoryService struct {
	mock.Mock
}

func (m *MockDirectoryService) CreateCompany(ctx context.Context, identity model.Identity, req *model.CreateCompanyRequest) (*model.Company, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *MockDirectoryService) ListCompanies(ctx context.Context) ([]model.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Company), args.Error(1)
}

func (m *MockDirectoryService) DeleteCompany(ctx context.Context, identity model.Identity, companyID uuid.UUID) error {
	return m.Called(ctx, identity, companyID).Error(0)
}

func (m *MockDirectoryService) CreateAccessCode(ctx context.Context, identity model.Identity, companyID uuid.UUID, req *model.CreateAccessCodeRequest) (*model.AccessCode, error) {
	args := m.Called(ctx, identity, companyID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessCode), args.Error(1)
}

func (m *MockDirectoryService) ListAccessCodes(ctx context.Context, companyID uuid.UUID) ([]model.AccessCode, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AccessCode), args.Error(1)
}

func (m *MockDirectoryService) DeleteAccessCode(ctx context.Context, identity model.Identity, code string) error {
	return m.Called(ctx, identity, code).Error(0)
}

func (m *MockDirectoryService) CreateUser(ctx context.Context, identity model.Identity, req *model.CreateUserRequest) (*model.User, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockDirectoryService) ListUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockDirectoryService) DeleteUser(ctx context.Context, identity model.Identity, userID uuid.UUID) error {
	return m.Called(ctx, identity, userID).Error(0)
}

// MockPolicyService is a mock implementation of PolicyService.
type MockPolicyService struct {
	mock.Mock
}

func (m *MockPolicyService) Save(ctx context.Context, identity model.Identity, policyID string, req *model.SavePolicyRequest) (*model.Policy, error) {
	args := m.Called(ctx, identity, policyID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyService) Get(ctx context.Context, policyID string) (*model.Policy, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyService) List(ctx context.Context) ([]model.Policy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Policy), args.Error(1)
}

var (
	staff   = model.Identity{UserID: "staff-1", Role: model.RoleStaff, Clinic: "Northside"}
	manager = model.Identity{UserID: "mgr-1", Role: model.RoleManager}
)

// newRequest builds a request carrying identity and chi path parameters.
// A nil body sends no body; anything else is JSON encoded unless it is a string.
func newRequest(t *testing.T, method, target string, body any, who model.Identity, params map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, target, &buf)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(middleware.WithIdentity(ctx, who))
}

// decodeError reads an ErrorResponse body.
func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}
