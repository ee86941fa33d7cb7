package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitorInputNormalize(t *testing.T) {
	in := VisitorInput{
		VisitorType: " Parent ",
		ParentName:  " Anna ",
		StudentName: "Ben",
		CompanyName: "stale",
		ClassName:   " 10b",
		Email:       " Anna@Example.DE",
	}
	in.normalize()
	v := in.visitor()

	assert.Equal(t, "parent", v.Type)
	assert.Equal(t, "Anna", *v.ParentName)
	assert.Nil(t, v.CompanyName)
	assert.Nil(t, v.Message)
	assert.Equal(t, "10b", v.ClassName)
	assert.Equal(t, "anna@example.de", v.Email)
}

func TestValidatorGermanMessages(t *testing.T) {
	v := NewValidator()
	err := v.Struct(BookingInput{VisitorInput: VisitorInput{VisitorType: "parent", Email: "x"}})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MsgInvalidInput, verr.Message)
	assert.Equal(t, "slotId ist ein Pflichtfeld", verr.Fields["slotId"])
	assert.Equal(t, "parentName ist ein Pflichtfeld", verr.Fields["parentName"])
	assert.Equal(t, "email muss eine gültige E-Mail-Adresse sein", verr.Fields["email"])
	assert.NotContains(t, verr.Fields, "companyName")
}
