package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderAliases(t *testing.T) {
	h := NewHeader([]string{"\uFEFFCommodity", "Modal Price (Rs./Quintal)", "min_price", "Market-Name"})

	assert.Equal(t, 0, h.Find("crop", "commodity"))
	assert.Equal(t, 2, h.Find("Min Price", "minimum"))
	assert.Equal(t, 3, h.Find("market name"))
	assert.Equal(t, -1, h.Find("variety"))
	assert.Equal(t, 1, h.Find("modal price (rs/quintal)"))

	assert.True(t, Has(0, 2))
	assert.False(t, Has(0, -1))
}

func TestCell(t *testing.T) {
	row := []string{" a ", "b"}
	assert.Equal(t, "a", Cell(row, 0))
	assert.Equal(t, "", Cell(row, 5))
	assert.Equal(t, "", Cell(row, -1))
}
