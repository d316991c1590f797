package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTransactionNo(t *testing.T) {
	no := GenerateTransactionNo("TX")
	assert.True(t, strings.HasPrefix(no, "TX"))
	assert.Len(t, no, 2+14+6)

	other := GenerateTransactionNo("TX")
	assert.NotEqual(t, no, other)
}

func TestGenerateInviteCode(t *testing.T) {
	code := GenerateInviteCode(8)
	assert.Len(t, code, 8)
	for _, c := range code {
		assert.NotContains(t, "0OI1", string(c))
	}
}

func TestNormalizeWhatsApp(t *testing.T) {
	assert.Equal(t, "5511987654321", NormalizeWhatsApp("(11) 98765-4321"))
	assert.Equal(t, "5511987654321", NormalizeWhatsApp("5511987654321"))
	assert.Equal(t, "551133334444", NormalizeWhatsApp("11 3333-4444"))
}

func TestValidateWhatsApp(t *testing.T) {
	assert.True(t, ValidateWhatsApp("5511987654321"))
	assert.True(t, ValidateWhatsApp("551133334444"))
	assert.False(t, ValidateWhatsApp("11987654321"))
	assert.False(t, ValidateWhatsApp("55119876"))
	assert.False(t, ValidateWhatsApp("55a1198765432"))
}

func TestValidateCPF(t *testing.T) {
	assert.True(t, ValidateCPF("529.982.247-25"))
	assert.True(t, ValidateCPF("52998224725"))
	assert.False(t, ValidateCPF("52998224724"))
	assert.False(t, ValidateCPF("11111111111"))
	assert.False(t, ValidateCPF("123"))
}

func TestFormatMoneyBR(t *testing.T) {
	assert.Equal(t, "1234,50", FormatMoneyBR(1234.5))
	assert.Equal(t, "0,00", FormatMoneyBR(0))
	assert.Equal(t, "95,00", FormatMoneyBR(95))
}

func TestPagination(t *testing.T) {
	p := Pagination{Page: 0, PageSize: 500}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 0, p.GetOffset())

	p = Pagination{Page: 3, PageSize: 20, Total: 41}
	assert.Equal(t, 40, p.GetOffset())
	assert.Equal(t, 20, p.GetLimit())
	assert.Equal(t, 3, p.GetTotalPages())
}
