package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxAmount(t *testing.T) {
	assert.Equal(t, int64(8000), TaxAmount(100000, 8))
	assert.Equal(t, int64(0), TaxAmount(100000, 0))
	assert.Equal(t, int64(825), TaxAmount(10000, 8.25))
	// Rounds half away from zero.
	assert.Equal(t, int64(13), TaxAmount(250, 5))
}

func TestScalePercent(t *testing.T) {
	assert.Equal(t, int64(50000), ScalePercent(100000, 50))
	assert.Equal(t, int64(4000), ScalePercent(8000, 50))
	assert.Equal(t, int64(3333), ScalePercent(9999, 33.33))
	assert.Equal(t, int64(0), ScalePercent(0, 50))
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, int64(40000), LineTotal(8, 5000))
	assert.Equal(t, int64(7500), LineTotal(1.5, 5000))
	assert.Equal(t, int64(0), LineTotal(0, 5000))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "540.00", Format(54000))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "0.00", Format(0))
	assert.Equal(t, "-12.34", Format(-1234))
	assert.Equal(t, "1080.00", Format(108000))
}
