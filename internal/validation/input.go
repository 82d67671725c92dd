package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinNameLength        = 2
	MaxNameLength        = 100
	MinPasswordLength    = 8
	MaxPasswordLength    = 72 // лимит bcrypt
	MinDescriptionLength = 5
	MaxDescriptionLength = 2000
	MaxProblemTypeLength = 100
	MaxAddressLength     = 300
	MinAmount            = 1.0
	MaxAmount            = 1000000.0
)

// Допустимые типы проблем в заявке.
var knownProblemTypes = map[string]bool{
	"flat_tire":    true,
	"dead_battery": true,
	"engine":       true,
	"lockout":      true,
	"fuel":         true,
	"towing":       true,
	"accident":     true,
	"other":        true,
}

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 || !strings.Contains(domainPart, ".") {
		return fmt.Errorf("некорректный домен email")
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю.
func ValidatePassword(password string) error {
	if err := ValidateLength("пароль", password, MinPasswordLength, MaxPasswordLength); err != nil {
		return err
	}
	return nil
}

// ValidateProblemType проверяет тип проблемы.
func ValidateProblemType(problemType string) error {
	if problemType == "" {
		return fmt.Errorf("тип проблемы обязателен")
	}
	if err := ValidateLength("тип проблемы", problemType, 1, MaxProblemTypeLength); err != nil {
		return err
	}
	if !knownProblemTypes[problemType] {
		return fmt.Errorf("неизвестный тип проблемы: %s", problemType)
	}
	return nil
}

// ValidateCoordinates проверяет географические координаты.
func ValidateCoordinates(latitude, longitude float64) error {
	if latitude < -90 || latitude > 90 {
		return fmt.Errorf("широта должна быть в диапазоне [-90, 90]")
	}
	if longitude < -180 || longitude > 180 {
		return fmt.Errorf("долгота должна быть в диапазоне [-180, 180]")
	}
	return nil
}

// ValidateAmount проверяет сумму платежа.
func ValidateAmount(amount float64) error {
	if amount < MinAmount {
		return fmt.Errorf("сумма должна быть не менее %.0f", MinAmount)
	}
	if amount > MaxAmount {
		return fmt.Errorf("сумма должна быть не более %.0f", MaxAmount)
	}
	return nil
}
