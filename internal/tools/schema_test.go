package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dexter/pkg/errors"
)

func testSchema() ArgSchema {
	return ArgSchema{Fields: []ArgField{
		{Name: "ticker", Type: "string", Required: true},
		{Name: "limit", Type: "int", Required: false},
	}}
}

func TestArgSchema_ValidateAccepts(t *testing.T) {
	s := testSchema()

	assert.NoError(t, s.Validate(map[string]interface{}{"ticker": "NVDA"}))
	assert.NoError(t, s.Validate(map[string]interface{}{"ticker": "NVDA", "limit": 5}))
	// JSON decoding delivers numbers as float64.
	assert.NoError(t, s.Validate(map[string]interface{}{"ticker": "NVDA", "limit": float64(5)}))
}

func TestArgSchema_ValidateRejects(t *testing.T) {
	s := testSchema()

	err := s.Validate(map[string]interface{}{})
	assert.True(t, errors.Is(err, errors.ErrArgValidation))

	err = s.Validate(map[string]interface{}{"ticker": ""})
	assert.True(t, errors.Is(err, errors.ErrArgValidation))

	err = s.Validate(map[string]interface{}{"ticker": 42})
	assert.True(t, errors.Is(err, errors.ErrArgValidation))

	err = s.Validate(map[string]interface{}{"ticker": "NVDA", "bogus": "x"})
	assert.True(t, errors.Is(err, errors.ErrArgValidation))
}

func TestArgSchema_MissingRequired(t *testing.T) {
	s := testSchema()

	assert.Equal(t, []string{"ticker"}, s.MissingRequired(map[string]interface{}{}))
	assert.Equal(t, []string{"ticker"}, s.MissingRequired(map[string]interface{}{"ticker": ""}))
	assert.Empty(t, s.MissingRequired(map[string]interface{}{"ticker": "NVDA"}))
}

func TestArgHelpers(t *testing.T) {
	args := map[string]interface{}{"ticker": "NVDA", "limit": float64(7)}

	assert.Equal(t, "NVDA", StringArg(args, "ticker"))
	assert.Equal(t, "", StringArg(args, "missing"))
	assert.Equal(t, 7, IntArg(args, "limit", 10))
	assert.Equal(t, 10, IntArg(args, "missing", 10))
}
