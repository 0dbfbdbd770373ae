package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmployeeID(t *testing.T) {
	assert.NoError(t, ValidateEmployeeID("EMP1001"))
	assert.Error(t, ValidateEmployeeID("EMP"))
	assert.Error(t, ValidateEmployeeID("1001"))
	assert.Error(t, ValidateEmployeeID("EMP10a1"))
}

func TestValidateAmountPaise(t *testing.T) {
	assert.NoError(t, ValidateAmountPaise(1))
	assert.NoError(t, ValidateAmountPaise(100000000))
	assert.Error(t, ValidateAmountPaise(0))
	assert.Error(t, ValidateAmountPaise(-500))
	assert.Error(t, ValidateAmountPaise(100000001))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "team lunch", SanitizeString("team\x00 lunch\x1f"))
	assert.Equal(t, "plain text", SanitizeString("plain text"))
}
