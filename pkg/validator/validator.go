package validator

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	// +55, DDD из двух цифр, 8 или 9 цифр номера.
	phoneRegex = regexp.MustCompile(`^\+55[1-9][0-9][0-9]{8,9}$`)

	strictPolicy = bluemonday.StrictPolicy()
)

func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(FormatPhone(phone))
}

// FormatPhone приводит номер к виду +55DDDNNNNNNNN.
func FormatPhone(phone string) string {
	digits := digitsOnly(phone)
	if strings.HasPrefix(digits, "55") && len(digits) > 11 {
		return "+" + digits
	}
	return "+55" + strings.TrimPrefix(digits, "0")
}

// ValidateCNPJ проверяет длину и оба контрольных разряда.
func ValidateCNPJ(cnpj string) bool {
	digits := digitsOnly(cnpj)
	if len(digits) != 14 {
		return false
	}
	if strings.Count(digits, digits[:1]) == 14 {
		return false
	}

	weights1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	weights2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

	return checkDigit(digits[:12], weights1) == int(digits[12]-'0') &&
		checkDigit(digits[:13], weights2) == int(digits[13]-'0')
}

func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

// FormatCNPJ хранит CNPJ только цифрами.
func FormatCNPJ(cnpj string) string {
	return digitsOnly(cnpj)
}

func ValidatePassword(password string) bool {
	return len(password) >= 6
}

func FormatName(name string) string {
	parts := strings.Fields(name)
	for i, part := range parts {
		runes := []rune(strings.ToLower(part))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		parts[i] = string(runes)
	}

	return strings.Join(parts, " ")
}

// SanitizeString убирает любую разметку из пользовательского текста.
func SanitizeString(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
