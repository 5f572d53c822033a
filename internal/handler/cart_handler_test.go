package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinic-orders/internal/export"
	"clinic-orders/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCartHandler_AddItem(t *testing.T) {
	cartID := uuid.New()
	item := &model.CartItem{ID: uuid.New(), CartID: cartID, ProductID: "10000001", RequestedQuantity: 2, Quantity: 2, Status: model.ItemStatusPending}

	tests := []struct {
		name           string
		body           any
		mockReturn     *model.CartItem
		mockError      error
		expectedStatus int
		expectedCode   string
		expectService  bool
	}{
		{
			name:           "Success",
			body:           model.AddItemRequest{ProductID: "10000001", Quantity: 2},
			mockReturn:     item,
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Unknown product",
			body:           model.AddItemRequest{ProductID: "99999999", Quantity: 1},
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeProductNotFound,
			expectService:  true,
		},
		{
			name:           "Cart not editable",
			body:           model.AddItemRequest{ProductID: "10000001", Quantity: 1, CartID: &cartID},
			mockError:      model.ErrCartNotEditable,
			expectedStatus: http.StatusConflict,
			expectedCode:   model.ErrCodeCartNotEditable,
			expectService:  true,
		},
		{
			name:           "Zero quantity fails validation",
			body:           model.AddItemRequest{ProductID: "10000001", Quantity: 0},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeValidationFailed,
		},
		{
			name:           "Malformed JSON",
			body:           `{"productId":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Unknown field",
			body:           `{"productId":"10000001","quantity":1,"price":3}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Empty body",
			body:           nil,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCartService)
			if tt.expectService {
				svc.On("AddItem", mock.Anything, staff, mock.AnythingOfType("*model.AddItemRequest")).Return(tt.mockReturn, tt.mockError)
			}
			h := NewCartHandler(svc, zerolog.Nop())

			req := newRequest(t, http.MethodPost, "/api/cart/items", tt.body, staff, nil)
			w := httptest.NewRecorder()
			h.AddItem(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}
			if tt.expectService {
				svc.AssertExpectations(t)
			} else {
				svc.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCartHandler_UpdateItem(t *testing.T) {
	itemID := uuid.New()

	t.Run("Zero is passed through", func(t *testing.T) {
		svc := new(MockCartService)
		svc.On("UpdateItemQuantity", mock.Anything, staff, itemID, 0).Return(&model.CartView{Items: []model.CartItemDetail{}}, nil)
		h := NewCartHandler(svc, zerolog.Nop())

		req := newRequest(t, http.MethodPatch, "/api/cart/items/"+itemID.String(), map[string]int{"quantity": 0}, staff, map[string]string{"itemID": itemID.String()})
		w := httptest.NewRecorder()
		h.UpdateItem(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Missing quantity", func(t *testing.T) {
		svc := new(MockCartService)
		h := NewCartHandler(svc, zerolog.Nop())

		req := newRequest(t, http.MethodPatch, "/api/cart/items/"+itemID.String(), map[string]any{}, staff, map[string]string{"itemID": itemID.String()})
		w := httptest.NewRecorder()
		h.UpdateItem(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, model.ErrCodeValidationFailed, decodeError(t, w).Error)
	})

	t.Run("Negative quantity", func(t *testing.T) {
		svc := new(MockCartService)
		h := NewCartHandler(svc, zerolog.Nop())

		req := newRequest(t, http.MethodPatch, "/api/cart/items/"+itemID.String(), map[string]int{"quantity": -1}, staff, map[string]string{"itemID": itemID.String()})
		w := httptest.NewRecorder()
		h.UpdateItem(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Malformed item id", func(t *testing.T) {
		svc := new(MockCartService)
		h := NewCartHandler(svc, zerolog.Nop())

		req := newRequest(t, http.MethodPatch, "/api/cart/items/nope", map[string]int{"quantity": 1}, staff, map[string]string{"itemID": "nope"})
		w := httptest.NewRecorder()
		h.UpdateItem(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, model.ErrCodeItemNotFound, decodeError(t, w).Error)
	})
}

func TestCartHandler_Submit(t *testing.T) {
	cartID := uuid.New()
	params := map[string]string{"cartID": cartID.String()}

	tests := []struct {
		name           string
		mockReturn     *model.Cart
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{"Success", &model.Cart{ID: cartID, Status: model.CartStatusSubmitted}, nil, http.StatusOK, ""},
		{"Empty cart", nil, model.ErrEmptyCart, http.StatusUnprocessableEntity, model.ErrCodeEmptyCart},
		{"Already submitted", nil, model.ErrInvalidTransition, http.StatusConflict, model.ErrCodeInvalidTransition},
		{"Not the owner", nil, model.ErrCartNotFound, http.StatusNotFound, model.ErrCodeCartNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCartService)
			svc.On("Submit", mock.Anything, staff, cartID).Return(tt.mockReturn, tt.mockError)
			h := NewCartHandler(svc, zerolog.Nop())

			req := newRequest(t, http.MethodPost, "/api/carts/"+cartID.String()+"/submit", nil, staff, params)
			w := httptest.NewRecorder()
			h.Submit(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}
		})
	}
}

func TestCartHandler_Reads(t *testing.T) {
	cartID := uuid.New()
	params := map[string]string{"cartID": cartID.String()}

	t.Run("Draft", func(t *testing.T) {
		svc := new(MockCartService)
		svc.On("GetDraft", mock.Anything, staff).Return(&model.CartView{Items: []model.CartItemDetail{}}, nil)
		h := NewCartHandler(svc, zerolog.Nop())

		w := httptest.NewRecorder()
		h.GetDraft(w, newRequest(t, http.MethodGet, "/api/cart", nil, staff, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"cart":null,"items":[]}`, w.Body.String())
	})

	t.Run("Draft without clinic", func(t *testing.T) {
		svc := new(MockCartService)
		noClinic := model.Identity{UserID: "staff-1", Role: model.RoleStaff}
		svc.On("GetDraft", mock.Anything, noClinic).Return(nil, model.ErrClinicRequired)
		h := NewCartHandler(svc, zerolog.Nop())

		w := httptest.NewRecorder()
		h.GetDraft(w, newRequest(t, http.MethodGet, "/api/cart", nil, noClinic, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("List", func(t *testing.T) {
		svc := new(MockCartService)
		svc.On("ListMine", mock.Anything, staff).Return([]model.Cart{{ID: cartID}}, nil)
		h := NewCartHandler(svc, zerolog.Nop())

		w := httptest.NewRecorder()
		h.List(w, newRequest(t, http.MethodGet, "/api/carts", nil, staff, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), cartID.String())
	})

	t.Run("Get", func(t *testing.T) {
		svc := new(MockCartService)
		svc.On("Get", mock.Anything, manager, cartID).Return(&model.CartView{Cart: &model.Cart{ID: cartID}}, nil)
		h := NewCartHandler(svc, zerolog.Nop())

		w := httptest.NewRecorder()
		h.Get(w, newRequest(t, http.MethodGet, "/api/carts/"+cartID.String(), nil, manager, params))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("History", func(t *testing.T) {
		svc := new(MockCartService)
		entries := []model.ApprovalLogEntry{{CartID: cartID, Action: model.ActionSubmitted, Actor: "staff-1"}}
		svc.On("History", mock.Anything, staff, cartID).Return(entries, nil)
		h := NewCartHandler(svc, zerolog.Nop())

		w := httptest.NewRecorder()
		h.History(w, newRequest(t, http.MethodGet, "/api/carts/"+cartID.String()+"/history", nil, staff, params))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"action":"submitted"`)
	})
}

func TestCartHandler_Export(t *testing.T) {
	cartID := uuid.New()
	params := map[string]string{"cartID": cartID.String()}

	t.Run("Streams the workbook", func(t *testing.T) {
		submitted := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		f, err := export.Build(&model.CartView{
			Cart: &model.Cart{ID: cartID, ClinicName: "Northside", Status: model.CartStatusApproved, SubmittedAt: &submitted},
			Items: []model.CartItemDetail{{
				CartItem: model.CartItem{RequestedQuantity: 1, Quantity: 1, Status: model.ItemStatusApproved},
				Product:  model.Product{ItemNumber: "B", Name: "Product B", Supplier: "Acme"},
			}},
		})
		require.NoError(t, err)

		svc := new(MockCartService)
		svc.On("Export", mock.Anything, manager, cartID).Return(f, nil)
		h := NewCartHandler(svc, zerolog.Nop())

		w := httptest.NewRecorder()
		h.Export(w, newRequest(t, http.MethodGet, "/api/carts/"+cartID.String()+"/export", nil, manager, params))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="`+export.Filename(cartID)+`"`, w.Header().Get("Content-Disposition"))

		book, err := excelize.OpenReader(w.Body)
		require.NoError(t, err)
		defer book.Close()
		assert.Equal(t, []string{"Northside 2026-03-14", "Acme"}, book.GetSheetList())
	})

	t.Run("Not approved", func(t *testing.T) {
		svc := new(MockCartService)
		svc.On("Export", mock.Anything, staff, cartID).Return(nil, model.ErrCartNotApproved)
		h := NewCartHandler(svc, zerolog.Nop())

		w := httptest.NewRecorder()
		h.Export(w, newRequest(t, http.MethodGet, "/api/carts/"+cartID.String()+"/export", nil, staff, params))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, model.ErrCodeCartNotApproved, decodeError(t, w).Error)
	})
}
