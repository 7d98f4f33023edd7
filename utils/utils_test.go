package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatINRUsesIndianGrouping(t *testing.T) {
	assert.Equal(t, "Rs. 12,34,567.50", FormatINR(1234567.5))
	assert.Equal(t, "Rs. 999.00", FormatINR(999))
	assert.Equal(t, "Rs. 0.00", FormatINR(0))
}
