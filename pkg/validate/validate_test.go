package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `json:"title" validate:"notblank"`
	Score *int   `json:"score" validate:"required,min=0,max=100"`
}

func TestStruct_OK(t *testing.T) {
	score := 0
	assert.NoError(t, Struct(sample{Title: "Дроби", Score: &score}))
}

func TestStruct_FieldErrors(t *testing.T) {
	score := 101
	err := Struct(sample{Title: "   ", Score: &score})
	require.Error(t, err)

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "this field cannot be blank", fe["title"])
	assert.Contains(t, fe["score"], "100")
	assert.Contains(t, err.Error(), "score: ")
}

func TestStruct_MissingRequired(t *testing.T) {
	err := Struct(sample{Title: "ok"})

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "score")
	assert.NotContains(t, fe, "title")
}
