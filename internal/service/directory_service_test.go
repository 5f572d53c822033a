package service

import (
	"context"
	"errors"
	"testing"

	"clinic-orders/internal/model"
	"clinic-orders/internal/notify"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type directoryFixture struct {
	companies *MockCompanyRepository
	users     *MockUserRepository
	notifier  *MockNotifier
	svc       *directoryService
}

func newDirectoryFixture() *directoryFixture {
	f := &directoryFixture{
		companies: new(MockCompanyRepository),
		users:     new(MockUserRepository),
		notifier:  new(MockNotifier),
	}
	f.svc = NewDirectoryService(f.companies, f.users, f.notifier, zerolog.Nop()).(*directoryService)
	return f
}

func TestDirectoryService_Companies(t *testing.T) {
	ctx := context.Background()

	t.Run("Create announces the company", func(t *testing.T) {
		f := newDirectoryFixture()
		f.companies.On("Create", ctx, mock.MatchedBy(func(c *model.Company) bool {
			return c.Name == "Acme Vets"
		})).Return(nil)
		f.notifier.On("Notify", ctx, notify.EventCompanyCreated, mock.Anything).Return()

		company, err := f.svc.CreateCompany(ctx, manager, &model.CreateCompanyRequest{Name: "  Acme Vets "})
		require.NoError(t, err)
		assert.Equal(t, "Acme Vets", company.Name)
		f.notifier.AssertExpectations(t)
	})

	t.Run("Failed write is not announced", func(t *testing.T) {
		f := newDirectoryFixture()
		f.companies.On("Create", ctx, mock.Anything).Return(model.ErrDuplicate)

		_, err := f.svc.CreateCompany(ctx, manager, &model.CreateCompanyRequest{Name: "Acme Vets"})
		assert.ErrorIs(t, err, model.ErrDuplicate)
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Staff cannot create", func(t *testing.T) {
		f := newDirectoryFixture()
		_, err := f.svc.CreateCompany(ctx, staff, &model.CreateCompanyRequest{Name: "Acme Vets"})
		assert.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("Delete announces the id", func(t *testing.T) {
		f := newDirectoryFixture()
		id := uuid.New()
		f.companies.On("Delete", ctx, id).Return(true, nil)
		f.notifier.On("Notify", ctx, notify.EventCompanyDeleted, map[string]string{"id": id.String()}).Return()

		require.NoError(t, f.svc.DeleteCompany(ctx, manager, id))
		f.notifier.AssertExpectations(t)
	})

	t.Run("Delete of a missing company", func(t *testing.T) {
		f := newDirectoryFixture()
		id := uuid.New()
		f.companies.On("Delete", ctx, id).Return(false, nil)

		err := f.svc.DeleteCompany(ctx, manager, id)
		assert.ErrorIs(t, err, model.ErrCompanyNotFound)
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDirectoryService_AccessCodes(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("Collision is retried", func(t *testing.T) {
		f := newDirectoryFixture()
		codes := []string{"AAAAAAAAAA", "BBBBBBBBBB"}
		f.svc.newCode = func() string {
			c := codes[0]
			codes = codes[1:]
			return c
		}

		f.companies.On("GetByID", ctx, companyID).Return(&model.Company{ID: companyID}, nil)
		f.companies.On("CreateAccessCode", ctx, mock.MatchedBy(func(c *model.AccessCode) bool { return c.Code == "AAAAAAAAAA" })).Return(model.ErrDuplicate).Once()
		f.companies.On("CreateAccessCode", ctx, mock.MatchedBy(func(c *model.AccessCode) bool { return c.Code == "BBBBBBBBBB" })).Return(nil).Once()
		f.notifier.On("Notify", ctx, notify.EventAccessCode, mock.Anything).Return()

		code, err := f.svc.CreateAccessCode(ctx, manager, companyID, &model.CreateAccessCodeRequest{Role: model.RoleStaff})
		require.NoError(t, err)
		assert.Equal(t, "BBBBBBBBBB", code.Code)
		assert.Equal(t, companyID, code.CompanyID)
		assert.Equal(t, model.RoleStaff, code.Role)
		f.notifier.AssertExpectations(t)
	})

	t.Run("Gives up after repeated collisions", func(t *testing.T) {
		f := newDirectoryFixture()
		f.svc.newCode = func() string { return "AAAAAAAAAA" }
		f.companies.On("GetByID", ctx, companyID).Return(&model.Company{ID: companyID}, nil)
		f.companies.On("CreateAccessCode", ctx, mock.Anything).Return(model.ErrDuplicate)

		_, err := f.svc.CreateAccessCode(ctx, manager, companyID, &model.CreateAccessCodeRequest{Role: model.RoleStaff})
		assert.ErrorIs(t, err, model.ErrDuplicate)
		f.companies.AssertNumberOfCalls(t, "CreateAccessCode", accessCodeAttempts)
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown company", func(t *testing.T) {
		f := newDirectoryFixture()
		f.companies.On("GetByID", ctx, companyID).Return(nil, nil)

		_, err := f.svc.CreateAccessCode(ctx, manager, companyID, &model.CreateAccessCodeRequest{Role: model.RoleStaff})
		assert.ErrorIs(t, err, model.ErrCompanyNotFound)
	})

	t.Run("Delete announces the code", func(t *testing.T) {
		f := newDirectoryFixture()
		f.companies.On("DeleteAccessCode", ctx, "AAAAAAAAAA").Return(true, nil)
		f.notifier.On("Notify", ctx, notify.EventAccessCodeDeleted, map[string]string{"code": "AAAAAAAAAA"}).Return()

		require.NoError(t, f.svc.DeleteAccessCode(ctx, manager, "AAAAAAAAAA"))
		f.notifier.AssertExpectations(t)
	})

	t.Run("Delete of a missing code", func(t *testing.T) {
		f := newDirectoryFixture()
		f.companies.On("DeleteAccessCode", ctx, "NOPE").Return(false, nil)

		err := f.svc.DeleteAccessCode(ctx, manager, "NOPE")
		assert.ErrorIs(t, err, model.ErrAccessCodeNotFound)
	})

	t.Run("Generated codes are ten upper-case characters", func(t *testing.T) {
		code := generateAccessCode()
		assert.Len(t, code, 10)
		assert.Regexp(t, `^[0-9A-F]{10}$`, code)
	})
}

func TestDirectoryService_Users(t *testing.T) {
	ctx := context.Background()

	t.Run("Create normalises and announces", func(t *testing.T) {
		f := newDirectoryFixture()
		companyID := uuid.New()
		f.companies.On("GetByID", ctx, companyID).Return(&model.Company{ID: companyID}, nil)
		f.users.On("Create", ctx, mock.Anything).Return(nil)
		f.notifier.On("Notify", ctx, notify.EventUserCreated, mock.Anything).Return()

		user, err := f.svc.CreateUser(ctx, manager, &model.CreateUserRequest{
			Email:      " Jo@Example.COM ",
			Name:       "Jo",
			CompanyID:  &companyID,
			Role:       model.RoleStaff,
			ClinicName: "Northside ",
		})
		require.NoError(t, err)
		assert.Equal(t, "jo@example.com", user.Email)
		assert.Equal(t, "Northside", user.ClinicName)
		f.notifier.AssertExpectations(t)
	})

	t.Run("Unknown company", func(t *testing.T) {
		f := newDirectoryFixture()
		companyID := uuid.New()
		f.companies.On("GetByID", ctx, companyID).Return(nil, nil)

		_, err := f.svc.CreateUser(ctx, manager, &model.CreateUserRequest{Email: "jo@example.com", Name: "Jo", CompanyID: &companyID, Role: model.RoleStaff})
		assert.ErrorIs(t, err, model.ErrCompanyNotFound)
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Repository failure is wrapped", func(t *testing.T) {
		f := newDirectoryFixture()
		f.users.On("Create", ctx, mock.Anything).Return(errors.New("db down"))

		_, err := f.svc.CreateUser(ctx, manager, &model.CreateUserRequest{Email: "jo@example.com", Name: "Jo", Role: model.RoleStaff})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")
		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Delete announces the id", func(t *testing.T) {
		f := newDirectoryFixture()
		id := uuid.New()
		f.users.On("Delete", ctx, id).Return(true, nil)
		f.notifier.On("Notify", ctx, notify.EventUserDeleted, map[string]string{"id": id.String()}).Return()

		require.NoError(t, f.svc.DeleteUser(ctx, manager, id))
		f.notifier.AssertExpectations(t)
	})

	t.Run("Delete of a missing user", func(t *testing.T) {
		f := newDirectoryFixture()
		id := uuid.New()
		f.users.On("Delete", ctx, id).Return(false, nil)

		assert.ErrorIs(t, f.svc.DeleteUser(ctx, manager, id), model.ErrUserNotFound)
	})
}
