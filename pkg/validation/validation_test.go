package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title    string `json:"title" validate:"required,max=5"`
	Quantity int    `json:"quantity,omitempty" validate:"min=1"`
}

func TestFields(t *testing.T) {
	err := New().Struct(sample{Title: "too long"})
	fields, ok := Fields(err)
	require.True(t, ok)
	assert.Equal(t, map[string][]string{
		"title":    {"Ensure this field has no more than 5 characters."},
		"quantity": {"Ensure this value is greater than or equal to 1."},
	}, fields)

	fields, ok = Fields(New().Struct(sample{Quantity: 1}))
	require.True(t, ok)
	assert.Equal(t, []string{"This field is required."}, fields["title"])
}

func TestFieldsIgnoresOtherErrors(t *testing.T) {
	_, ok := Fields(errors.New("boom"))
	assert.False(t, ok)
}
