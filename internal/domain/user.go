package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
)

func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleEmployee
}

type User struct {
	ID            uuid.UUID
	FullName      string
	IDNumber      string
	AccountNumber string
	Username      string
	PasswordHash  string
	Role          Role
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Identity is the resolved caller of an operation.
type Identity struct {
	SubjectID uuid.UUID
	Role      Role
}
