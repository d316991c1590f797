// Package utils provides small shared helpers.
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateTransactionNo builds a transaction number.
// Format: prefix + yyyymmddhhmmss + 6 random digits.
func GenerateTransactionNo(prefix string) string {
	now := time.Now()
	timestamp := now.Format("20060102150405")
	random := GenerateRandomNumber(6)
	return fmt.Sprintf("%s%s%s", prefix, timestamp, random)
}

// GenerateRandomNumber returns a random digit string of the given length.
func GenerateRandomNumber(length int) string {
	var result strings.Builder
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		result.WriteString(strconv.Itoa(int(n.Int64())))
	}
	return result.String()
}

// GenerateInviteCode returns a readable invitation code.
func GenerateInviteCode(length int) string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // drops ambiguous 0OI1
	var result strings.Builder
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result.WriteByte(charset[n.Int64()])
	}
	return result.String()
}

// GenerateStatusToken returns an opaque token for public loyalty card lookups.
func GenerateStatusToken() string {
	return uuid.NewString()
}

// NormalizeWhatsApp strips formatting and ensures the 55 country prefix.
func NormalizeWhatsApp(phone string) string {
	var digits strings.Builder
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	s := digits.String()
	if len(s) == 10 || len(s) == 11 {
		return "55" + s
	}
	return s
}

// ValidateWhatsApp validates a normalized Brazilian phone number.
func ValidateWhatsApp(phone string) bool {
	matched, _ := regexp.MatchString(`^55\d{10,11}$`, phone)
	return matched
}

// ValidateEmail validates an email address.
func ValidateEmail(email string) bool {
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	matched, _ := regexp.MatchString(pattern, email)
	return matched
}

// ValidateCPF validates a CPF using the check digits.
func ValidateCPF(cpf string) bool {
	var digits []int
	for _, c := range cpf {
		if c >= '0' && c <= '9' {
			digits = append(digits, int(c-'0'))
		}
	}
	if len(digits) != 11 {
		return false
	}

	allSame := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += digits[i] * (n + 1 - i)
		}
		check := (sum * 10) % 11
		if check == 10 {
			check = 0
		}
		if check != digits[n] {
			return false
		}
	}
	return true
}

// FormatMoneyBR formats a value with pt-BR decimal comma.
func FormatMoneyBR(value float64) string {
	return strings.ReplaceAll(fmt.Sprintf("%.2f", value), ".", ",")
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to i.
func IntPtr(i int) *int {
	return &i
}

// Int64Ptr returns a pointer to i.
func Int64Ptr(i int64) *int64 {
	return &i
}

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 {
	return &f
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// SafeString dereferences s, returning "" for nil.
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SafeInt64 dereferences i, returning 0 for nil.
func SafeInt64(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}

// SafeFloat64 dereferences f, returning 0 for nil.
func SafeFloat64(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// Contains reports whether slice contains item.
func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// Unique removes duplicates while preserving order.
func Unique[T comparable](slice []T) []T {
	seen := make(map[T]struct{})
	result := make([]T, 0, len(slice))
	for _, v := range slice {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}
	return result
}

// Pagination holds page/page_size query parameters.
type Pagination struct {
	Page     int   `json:"page" form:"page"`
	PageSize int   `json:"page_size" form:"page_size"`
	Total    int64 `json:"total"`
}

// GetOffset returns the query offset.
func (p *Pagination) GetOffset() int {
	return (p.Page - 1) * p.PageSize
}

// GetLimit returns the query limit.
func (p *Pagination) GetLimit() int {
	return p.PageSize
}

// Normalize clamps pagination parameters to sane bounds.
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// GetTotalPages returns the page count for Total.
func (p *Pagination) GetTotalPages() int {
	if p.Total == 0 {
		return 0
	}
	pages := int(p.Total) / p.PageSize
	if int(p.Total)%p.PageSize > 0 {
		pages++
	}
	return pages
}
