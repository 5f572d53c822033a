package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinic-orders/internal/model"
	"clinic-orders/internal/notify"
	"clinic-orders/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const accessCodeAttempts = 3

// directoryService implements DirectoryService.
type directoryService struct {
	companyRepo repository.CompanyRepository
	userRepo    repository.UserRepository
	notifier    notify.Notifier
	newCode     func() string
	logger      zerolog.Logger
}

// NewDirectoryService creates a new directory service. Successful writes are
// announced through notifier.
func NewDirectoryService(
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	notifier notify.Notifier,
	logger zerolog.Logger,
) DirectoryService {
	return &directoryService{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		newCode:     generateAccessCode,
		logger:      logger.With().Str("service", "directory").Logger(),
	}
}

// generateAccessCode returns a 10 character upper-case code.
func generateAccessCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func (s *directoryService) CreateCompany(ctx context.Context, identity model.Identity, req *model.CreateCompanyRequest) (*model.Company, error) {
	if err := requireManager(identity); err != nil {
		return nil, err
	}

	company := &model.Company{Name: strings.TrimSpace(req.Name)}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	s.logger.Info().Str("company_id", company.ID.String()).Str("name", company.Name).Msg("company created")
	s.notifier.Notify(ctx, notify.EventCompanyCreated, company)

	return company, nil
}

func (s *directoryService) ListCompanies(ctx context.Context) ([]model.Company, error) {
	companies, err := s.companyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

func (s *directoryService) DeleteCompany(ctx context.Context, identity model.Identity, companyID uuid.UUID) error {
	if err := requireManager(identity); err != nil {
		return err
	}

	ok, err := s.companyRepo.Delete(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if !ok {
		return model.ErrCompanyNotFound
	}

	s.logger.Info().Str("company_id", companyID.String()).Msg("company deleted")
	s.notifier.Notify(ctx, notify.EventCompanyDeleted, map[string]string{"id": companyID.String()})

	return nil
}

// CreateAccessCode issues a fresh code for a company. A code collision is
// retried a few times before giving up.
func (s *directoryService) CreateAccessCode(ctx context.Context, identity model.Identity, companyID uuid.UUID, req *model.CreateAccessCodeRequest) (*model.AccessCode, error) {
	if err := requireManager(identity); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	if company == nil {
		return nil, model.ErrCompanyNotFound
	}

	code := &model.AccessCode{CompanyID: companyID, Role: req.Role}
	for attempt := 1; ; attempt++ {
		code.Code = s.newCode()
		err = s.companyRepo.CreateAccessCode(ctx, code)
		if err == nil {
			break
		}
		if !errors.Is(err, model.ErrDuplicate) || attempt == accessCodeAttempts {
			return nil, fmt.Errorf("failed to create access code: %w", err)
		}
		s.logger.Debug().Int("attempt", attempt).Msg("access code collision, retrying")
	}

	s.logger.Info().Str("company_id", companyID.String()).Str("role", code.Role).Msg("access code created")
	s.notifier.Notify(ctx, notify.EventAccessCode, code)

	return code, nil
}

func (s *directoryService) ListAccessCodes(ctx context.Context, companyID uuid.UUID) ([]model.AccessCode, error) {
	codes, err := s.companyRepo.ListAccessCodes(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access codes: %w", err)
	}
	return codes, nil
}

func (s *directoryService) DeleteAccessCode(ctx context.Context, identity model.Identity, code string) error {
	if err := requireManager(identity); err != nil {
		return err
	}

	ok, err := s.companyRepo.DeleteAccessCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to delete access code: %w", err)
	}
	if !ok {
		return model.ErrAccessCodeNotFound
	}

	s.logger.Info().Msg("access code deleted")
	s.notifier.Notify(ctx, notify.EventAccessCodeDeleted, map[string]string{"code": code})

	return nil
}

func (s *directoryService) CreateUser(ctx context.Context, identity model.Identity, req *model.CreateUserRequest) (*model.User, error) {
	if err := requireManager(identity); err != nil {
		return nil, err
	}

	if req.CompanyID != nil {
		company, err := s.companyRepo.GetByID(ctx, *req.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load company: %w", err)
		}
		if company == nil {
			return nil, model.ErrCompanyNotFound
		}
	}

	user := &model.User{
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Name:       strings.TrimSpace(req.Name),
		CompanyID:  req.CompanyID,
		Role:       req.Role,
		ClinicName: strings.TrimSpace(req.ClinicName),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("role", user.Role).Msg("user created")
	s.notifier.Notify(ctx, notify.EventUserCreated, user)

	return user, nil
}

func (s *directoryService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *directoryService) DeleteUser(ctx context.Context, identity model.Identity, userID uuid.UUID) error {
	if err := requireManager(identity); err != nil {
		return err
	}

	ok, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !ok {
		return model.ErrUserNotFound
	}

	s.logger.Info().Str("user_id", userID.String()).Msg("user deleted")
	s.notifier.Notify(ctx, notify.EventUserDeleted, map[string]string{"id": userID.String()})

	return nil
}
