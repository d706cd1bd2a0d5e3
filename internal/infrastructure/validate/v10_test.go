package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type selectLessonForm struct {
	ModuleID string `json:"moduleId" validate:"required"`
	LessonID string `json:"lessonId,omitempty" validate:"required,max=8"`
}

func TestPlaygroundV10Struct(t *testing.T) {
	v := NewValidator()

	assert.Nil(t, v.Struct(&selectLessonForm{ModuleID: "m1", LessonID: "l1"}))

	errs := v.Struct(&selectLessonForm{LessonID: "way-too-long"})
	require.Len(t, errs, 2)
	assert.Equal(t, "moduleId", errs[0].Domain)
	assert.Equal(t, "moduleId is a required field", errs[0].Reason)
	assert.Equal(t, "lessonId", errs[1].Domain)
	assert.Contains(t, errs[1].Reason, "8 characters")
}

func TestPlaygroundV10NonStruct(t *testing.T) {
	errs := NewValidator().Struct("not a struct")
	require.Len(t, errs, 1)
	assert.Empty(t, errs[0].Domain)
}
