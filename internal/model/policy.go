package model

import (
	"time"

	"github.com/google/uuid"
)

// Company is a customer organisation of the policy manager.
type Company struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AccessCode lets a new user join a company with a preset role.
type AccessCode struct {
	Code      string    `json:"code" db:"code"`
	CompanyID uuid.UUID `json:"companyId" db:"company_id"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// User is a policy manager account.
type User struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Email      string     `json:"email" db:"email"`
	Name       string     `json:"name" db:"name"`
	CompanyID  *uuid.UUID `json:"companyId,omitempty" db:"company_id"`
	Role       string     `json:"role" db:"role"`
	ClinicName string     `json:"clinicName" db:"clinic_name"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
}

// Policy is a clinic policy document.
type Policy struct {
	ID        string     `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Body      string     `json:"body" db:"body"`
	CompanyID *uuid.UUID `json:"companyId,omitempty" db:"company_id"`
	UpdatedBy string     `json:"updatedBy" db:"updated_by"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// CreateCompanyRequest is the payload for creating a company.
type CreateCompanyRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CreateAccessCodeRequest is the payload for issuing an access code.
type CreateAccessCodeRequest struct {
	Role string `json:"role" validate:"required,oneof=manager staff"`
}

// CreateUserRequest is the payload for creating a user.
type CreateUserRequest struct {
	Email      string     `json:"email" validate:"required,email"`
	Name       string     `json:"name" validate:"required,max=200"`
	CompanyID  *uuid.UUID `json:"companyId,omitempty"`
	Role       string     `json:"role" validate:"required,oneof=manager staff"`
	ClinicName string     `json:"clinicName" validate:"max=200"`
}

// SavePolicyRequest is the payload for creating or replacing a policy.
type SavePolicyRequest struct {
	Title     string     `json:"title" validate:"required,max=300"`
	Body      string     `json:"body"`
	CompanyID *uuid.UUID `json:"companyId,omitempty"`
}
