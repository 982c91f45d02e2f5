package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/shelf/internal/errors"
	"github.com/listenupapp/shelf/internal/validation"
)

type manualBook struct {
	Title  string `json:"title" validate:"notblank,max=500"`
	Author string `json:"author" validate:"max=300"`
	ISBN   string `json:"isbn,omitempty" validate:"shelfisbn"`
	Year   *string `json:"year,omitempty" validate:"omitempty,len=4,numeric"`
}

func strPtr(v string) *string { return &v }

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(manualBook{Title: "Dune", Author: "Frank Herbert", ISBN: "978-0-441-17271-9", Year: strPtr("1965")}))
	assert.NoError(t, v.Validate(manualBook{Title: "Untitled"}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       manualBook
		wantField string
	}{
		{name: "blank title", req: manualBook{Title: "   "}, wantField: "title"},
		{name: "malformed isbn", req: manualBook{Title: "Dune", ISBN: "12345"}, wantField: "isbn"},
		{name: "year not four digits", req: manualBook{Title: "Dune", Year: strPtr("12000")}, wantField: "year"},
		{name: "year not numeric", req: manualBook{Title: "Dune", Year: strPtr("19x5")}, wantField: "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_FriendlyMessages(t *testing.T) {
	err := validation.New().Validate(manualBook{Title: "", ISBN: "abc"})

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)

	details := domainErr.Details.(map[string]string)
	assert.Equal(t, "is required", details["title"])
	assert.Equal(t, "must be a 10 or 13 digit ISBN", details["isbn"])
}

func TestValidator_JSONFieldNames(t *testing.T) {
	err := validation.New().Validate(manualBook{})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	details := domainErr.Details.(map[string]string)

	assert.Contains(t, details, "title")
	assert.NotContains(t, details, "Title")
}
