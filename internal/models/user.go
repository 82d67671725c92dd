package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли аккаунтов платформы.
const (
	RoleRequester = "requester"
	RoleProvider  = "provider"
	RoleOperator  = "operator"
)

// User описывает аккаунт платформы: заказчик помощи, исполнитель или оператор.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Name         string     `db:"name" json:"name"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserSummary — краткая карточка аккаунта для вывода внутри заявки.
type UserSummary struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Phone *string   `db:"phone" json:"phone,omitempty"`
	Email string    `db:"email" json:"email"`
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ValidRole проверяет, что роль известна платформе.
func ValidRole(role string) bool {
	switch role {
	case RoleRequester, RoleProvider, RoleOperator:
		return true
	}
	return false
}
