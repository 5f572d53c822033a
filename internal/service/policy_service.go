package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"clinic-orders/internal/model"
	"clinic-orders/internal/notify"
	"clinic-orders/internal/repository"

	"github.com/rs/zerolog"
)

var policyIDPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const maxPolicyIDLength = 100

// policyService implements PolicyService.
type policyService struct {
	repo        repository.PolicyRepository
	companyRepo repository.CompanyRepository
	notifier    notify.Notifier
	logger      zerolog.Logger
}

// NewPolicyService creates a new policy service.
func NewPolicyService(
	repo repository.PolicyRepository,
	companyRepo repository.CompanyRepository,
	notifier notify.Notifier,
	logger zerolog.Logger,
) PolicyService {
	return &policyService{
		repo:        repo,
		companyRepo: companyRepo,
		notifier:    notifier,
		logger:      logger.With().Str("service", "policy").Logger(),
	}
}

// Save creates or replaces a policy. The store is written first; the
// webhook only hears about saves that landed.
func (s *policyService) Save(ctx context.Context, identity model.Identity, policyID string, req *model.SavePolicyRequest) (*model.Policy, error) {
	if err := requireManager(identity); err != nil {
		return nil, err
	}
	if len(policyID) > maxPolicyIDLength || !policyIDPattern.MatchString(policyID) {
		return nil, model.ErrInvalidPolicyID
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

	policy := &model.Policy{
		ID:        policyID,
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		CompanyID: req.CompanyID,
		UpdatedBy: identity.UserID,
	}
	if err := s.repo.Save(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to save policy: %w", err)
	}

	s.logger.Info().Str("policy_id", policyID).Str("user_id", identity.UserID).Msg("policy saved")
	s.notifier.Notify(ctx, notify.EventPolicySaved, policy)

	return policy, nil
}

func (s *policyService) Get(ctx context.Context, policyID string) (*model.Policy, error) {
	policy, err := s.repo.GetByID(ctx, policyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	if policy == nil {
		return nil, model.ErrPolicyNotFound
	}
	return policy, nil
}

func (s *policyService) List(ctx context.Context) ([]model.Policy, error) {
	policies, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	return policies, nil
}
