package hal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DataError
		expected string
	}{
		{
			name:     "status only",
			err:      &DataError{StatusCode: 503},
			expected: "api request failed with status 503",
		},
		{
			name: "with problem title",
			err: &DataError{
				StatusCode: 500,
				Problem:    &Problem{Title: "Internal Server Error"},
			},
			expected: "api request failed with status 500: Internal Server Error",
		},
		{
			name:     "not found",
			err:      &DataError{StatusCode: 404},
			expected: "api request failed with status 404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		expected string
	}{
		{
			name:     "bare",
			err:      &ValidationError{StatusCode: 422},
			expected: "api rejected request as invalid",
		},
		{
			name: "with problem detail",
			err: &ValidationError{
				StatusCode: 422,
				Problem:    &Problem{Detail: "title must not be blank"},
			},
			expected: "api rejected request as invalid: title must not be blank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestClassify(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		assert.NoError(t, Classify(nil))
	})

	t.Run("success", func(t *testing.T) {
		resp := NewRawResponse(ResultSuccess, 200, []Element{{"title": "Moby Dick"}}, nil)
		assert.NoError(t, Classify(resp))
	})

	t.Run("failure carries status", func(t *testing.T) {
		resp := NewFailureResponse(503)

		err := Classify(resp)
		require.Error(t, err)

		var dataErr *DataError
		require.ErrorAs(t, err, &dataErr)
		assert.Equal(t, 503, dataErr.StatusCode)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("validation", func(t *testing.T) {
		resp := NewRawResponse(ResultValidation, 422, nil, nil)
		resp.SetProblem(&Problem{Detail: "title must not be blank"})

		err := Classify(resp)
		require.Error(t, err)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, 422, validationErr.StatusCode)
		assert.Contains(t, err.Error(), "title must not be blank")
	})
}

func TestIsDataError(t *testing.T) {
	dataErr := &DataError{StatusCode: 500}

	assert.True(t, IsDataError(dataErr))
	assert.True(t, IsDataError(fmt.Errorf("finding books: %w", dataErr)))
	assert.False(t, IsDataError(&ValidationError{StatusCode: 422}))
	assert.False(t, IsDataError(errors.New("some error")))
	assert.False(t, IsDataError(nil))
}

func TestIsValidationError(t *testing.T) {
	validationErr := &ValidationError{StatusCode: 422}

	assert.True(t, IsValidationError(validationErr))
	assert.True(t, IsValidationError(fmt.Errorf("creating book: %w", validationErr)))
	assert.False(t, IsValidationError(&DataError{StatusCode: 500}))
	assert.False(t, IsValidationError(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&DataError{StatusCode: 404}))
	assert.False(t, IsNotFound(&DataError{StatusCode: 500}))
	assert.False(t, IsNotFound(errors.New("some error")))
	assert.False(t, IsNotFound(nil))
}

func TestParseProblem(t *testing.T) {
	t.Run("valid problem document", func(t *testing.T) {
		jsonData := `{
			"type": "https://example.com/probs/validation",
			"title": "Unprocessable Entity",
			"status": 422,
			"detail": "title must not be blank"
		}`

		problem, err := ParseProblem([]byte(jsonData))
		require.NoError(t, err)
		require.NotNil(t, problem)
		assert.Equal(t, "Unprocessable Entity", problem.Title)
		assert.Equal(t, 422, problem.Status)
		assert.Equal(t, "title must not be blank", problem.Detail)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		problem, err := ParseProblem([]byte(`{invalid json}`))
		assert.Error(t, err)
		assert.Nil(t, problem)
	})
}
