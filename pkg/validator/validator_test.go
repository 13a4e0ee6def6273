package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `validate:"required"`
	Count int    `validate:"gte=0"`
}

func TestValidateStructPasses(t *testing.T) {
	errs := ValidateStruct(&sample{Name: "ok", Count: 3})
	assert.Empty(t, errs)
}

func TestValidateStructReportsFailures(t *testing.T) {
	errs := ValidateStruct(&sample{Count: -1})
	require.Len(t, errs, 2)

	tags := []string{errs[0].Tag, errs[1].Tag}
	assert.Contains(t, tags, "required")
	assert.Contains(t, tags, "gte")
}
