package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sanchari/pkg/core/verification/model"
)

func TestField(t *testing.T) {
	tests := []struct {
		name  string
		field model.Field
		value string
		ok    bool
	}{
		{"required empty", model.Field{Key: "a", Type: model.FieldText, Required: true}, "  ", false},
		{"optional empty", model.Field{Key: "a", Type: model.FieldEmail}, "", true},
		{"too short", model.Field{Key: "a", Type: model.FieldText, MinLength: 3}, "ab", false},
		{"runes not bytes", model.Field{Key: "a", Type: model.FieldText, MaxLength: 3}, "ആനക", true},
		{"too long", model.Field{Key: "a", Type: model.FieldText, MaxLength: 3}, "abcd", false},
		{"pattern mismatch", model.Field{Key: "a", Type: model.FieldText, Pattern: `^[A-Z]+$`}, "abc", false},
		{"pattern match", model.Field{Key: "a", Type: model.FieldText, Pattern: `^[A-Z]+$`}, "ABC", true},
		{"email", model.Field{Key: "a", Type: model.FieldEmail}, "asha@example.com", true},
		{"email with name", model.Field{Key: "a", Type: model.FieldEmail}, "Asha <asha@example.com>", false},
		{"bad email", model.Field{Key: "a", Type: model.FieldEmail}, "asha@", false},
		{"indian mobile", model.Field{Key: "a", Type: model.FieldPhone}, "9876543210", true},
		{"international", model.Field{Key: "a", Type: model.FieldPhone}, "+1 650-253-0000", true},
		{"bad phone", model.Field{Key: "a", Type: model.FieldPhone}, "12", false},
		{"number", model.Field{Key: "a", Type: model.FieldNumber}, "12.5", true},
		{"not a number", model.Field{Key: "a", Type: model.FieldNumber}, "twelve", false},
		{"date", model.Field{Key: "a", Type: model.FieldDate}, "1990-02-28", true},
		{"bad date", model.Field{Key: "a", Type: model.FieldDate}, "1990-02-30", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Field(tt.field, tt.value)
			if tt.ok {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

func TestStep(t *testing.T) {
	step := model.Step{
		Key:  "kyc",
		Type: model.StepForm,
		Fields: []model.Field{
			{Key: "fullName", Label: "Full name", Type: model.FieldText, Required: true},
			{Key: "email", Type: model.FieldEmail},
			{Key: "nickname", Type: model.FieldText},
		},
	}

	errs := Step(step, map[string]string{"email": "nope", "unknown": "x"})
	assert.Equal(t, Errors{
		"fullName": "Full name is required",
		"email":    "email must be a valid email address",
	}, errs)
	assert.False(t, errs.OK())

	assert.True(t, Step(step, map[string]string{"fullName": "Asha"}).OK(), "optional fields do not gate")
}

func TestMissingRequired(t *testing.T) {
	step := model.Step{Fields: []model.Field{
		{Key: "a", Required: true, Type: model.FieldEmail},
		{Key: "b", Required: true},
		{Key: "c"},
	}}
	assert.Equal(t, []string{"b"}, MissingRequired(step, map[string]string{"a": "not-an-email"}))
	assert.Empty(t, MissingRequired(model.Step{}, nil))
}
