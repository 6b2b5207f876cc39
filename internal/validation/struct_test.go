package validation

import (
	"testing"

	"skillshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Title    string   `json:"title" validate:"required,max=10"`
	Percent  int      `json:"completion_percentage" validate:"gte=0,lte=100"`
	Links    []string `json:"links" validate:"max=2,dive,url"`
	Internal string   `json:"-" validate:"omitempty,min=2"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      sampleInput
		message string
	}{
		{name: "valid", in: sampleInput{Title: "go", Percent: 50, Links: []string{"https://go.dev"}}},
		{name: "missing title", in: sampleInput{Percent: 1}, message: "title is required"},
		{name: "long title", in: sampleInput{Title: "abcdefghijk"}, message: "title must be at most 10"},
		{name: "percent high", in: sampleInput{Title: "x", Percent: 101}, message: "completion_percentage must be at most 100"},
		{name: "percent low", in: sampleInput{Title: "x", Percent: -1}, message: "completion_percentage must be at least 0"},
		{name: "too many links", in: sampleInput{Title: "x", Links: []string{"https://a.io", "https://b.io", "https://c.io"}}, message: "links must be at most 2"},
		{name: "bad link", in: sampleInput{Title: "x", Links: []string{"not a url"}}, message: "must be a valid URL"},
		{name: "json dash uses field name", in: sampleInput{Title: "x", Internal: "a"}, message: "Internal must be at least 2"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.in)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, models.HasCode(err, models.CodeValidation))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
