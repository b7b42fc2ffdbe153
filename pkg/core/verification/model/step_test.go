package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileConstraints_Accepts(t *testing.T) {
	fc := FileConstraints{AcceptedTypes: []string{"application/pdf", "image/*"}}

	assert.True(t, fc.Accepts("application/pdf"))
	assert.True(t, fc.Accepts("IMAGE/PNG"))
	assert.False(t, fc.Accepts("text/plain"))
	assert.False(t, fc.Accepts("imagex/png"))
	assert.True(t, FileConstraints{}.Accepts("anything/at-all"))
}

func TestField_Matches(t *testing.T) {
	f := Field{Key: "pin", Pattern: `^\d{6}$`}
	assert.True(t, f.Matches("682001"), "uncompiled fields still match")

	require.NoError(t, f.Compile())
	assert.True(t, f.Matches("682001"))
	assert.False(t, f.Matches("68200"))

	bad := Field{Key: "x", Pattern: `(`}
	assert.Error(t, bad.Compile())
	assert.False(t, bad.Matches("anything"))

	assert.True(t, Field{}.Matches("free text"))
}

func TestStep_FileRules(t *testing.T) {
	form := Step{Type: StepForm, File: &FileConstraints{Required: true}}
	assert.False(t, form.AcceptsFile())
	assert.False(t, form.FileRequired(), "form steps never require files")

	optional := Step{Type: StepFile, File: &FileConstraints{}}
	assert.True(t, optional.AcceptsFile())
	assert.False(t, optional.FileRequired())

	required := Step{Type: StepFormFile, File: &FileConstraints{Required: true}}
	assert.True(t, required.FileRequired())
}

func TestPendingChange_Clone(t *testing.T) {
	slot := "u"
	c := &PendingChange{
		Steps:    []string{"kyc"},
		Data:     map[string]StepData{"kyc": {Form: map[string]string{"fullName": "A"}}},
		OpenSlot: &slot,
	}
	cp := c.Clone()
	cp.Steps[0] = "changed"
	cp.Data["kyc"].Form["fullName"] = "B"
	*cp.OpenSlot = "v"

	assert.Equal(t, "kyc", c.Steps[0])
	assert.Equal(t, "A", c.Data["kyc"].Form["fullName"])
	assert.Equal(t, "u", *c.OpenSlot)
	assert.Nil(t, (*PendingChange)(nil).Clone())
}

func TestPendingChange_CurrentStepKey(t *testing.T) {
	c := &PendingChange{Steps: []string{"kyc", "legalForm"}, CurrentStep: 2}
	assert.Equal(t, "legalForm", c.CurrentStepKey())
	c.CurrentStep = 3
	assert.Equal(t, "", c.CurrentStepKey())
	assert.True(t, c.HasStep("kyc"))
	assert.False(t, c.HasStep("other"))
}
