package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	UniversityID string `json:"universityId" validate:"required,objectid"`
	Offsets      []int  `json:"triggerOffsets" validate:"unique,dive,gte=0,lte=365"`
}

func TestValidate(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		in         sample
		wantFields []string
	}{
		{"valid", sample{UniversityID: "64b7f0c2a1b2c3d4e5f60718", Offsets: []int{30, 7}}, nil},
		{"bad id", sample{UniversityID: "nope"}, []string{"universityId"}},
		{"duplicate offsets", sample{UniversityID: "64b7f0c2a1b2c3d4e5f60718", Offsets: []int{7, 7}}, []string{"triggerOffsets"}},
		{"negative offset", sample{UniversityID: "64b7f0c2a1b2c3d4e5f60718", Offsets: []int{-1}}, []string{"triggerOffsets[0]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			msgs := v.Translate(vErrs)
			for _, f := range tt.wantFields {
				assert.Contains(t, msgs, f)
			}
		})
	}
}

func TestTranslateObjectID(t *testing.T) {
	v := New()
	err := v.Validate(sample{UniversityID: "x"})

	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)
	assert.Equal(t, "universityId must be a valid id", v.Translate(vErrs)["universityId"])
}
