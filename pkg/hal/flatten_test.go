package hal_test

import (
	"testing"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:funlen // Test functions can be longer for detailed testing
func TestFlatten(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		element  hal.Element
		expected hal.Record
	}{
		{
			name:     "nil element",
			element:  nil,
			expected: hal.Record{},
		},
		{
			name: "plain attributes pass through",
			element: hal.Element{
				"title":  "Moby Dick",
				"pages":  635,
				"isbn13": "9780142437247",
			},
			expected: hal.Record{
				"title":  "Moby Dick",
				"pages":  635,
				"isbn13": "9780142437247",
			},
		},
		{
			name: "links dropped",
			element: hal.Element{
				"title": "Moby Dick",
				"_links": map[string]interface{}{
					"self": map[string]interface{}{"href": "/books/1"},
				},
			},
			expected: hal.Record{
				"title": "Moby Dick",
			},
		},
		{
			name: "embedded resource hoisted",
			element: hal.Element{
				"title": "Moby Dick",
				"_embedded": map[string]interface{}{
					"author": map[string]interface{}{
						"name": "Herman Melville",
						"_links": map[string]interface{}{
							"self": map[string]interface{}{"href": "/authors/7"},
						},
					},
				},
			},
			expected: hal.Record{
				"title": "Moby Dick",
				"author": map[string]interface{}{
					"name": "Herman Melville",
				},
			},
		},
		{
			name: "embedded list hoisted per item",
			element: hal.Element{
				"title": "Moby Dick",
				"_embedded": map[string]interface{}{
					"reviews": []interface{}{
						map[string]interface{}{
							"stars": 5,
							"_links": map[string]interface{}{
								"self": map[string]interface{}{"href": "/reviews/1"},
							},
						},
						map[string]interface{}{"stars": 4},
					},
				},
			},
			expected: hal.Record{
				"title": "Moby Dick",
				"reviews": []interface{}{
					map[string]interface{}{"stars": 5},
					map[string]interface{}{"stars": 4},
				},
			},
		},
		{
			name: "malformed embedded section ignored",
			element: hal.Element{
				"title":     "Moby Dick",
				"_embedded": "not an object",
			},
			expected: hal.Record{
				"title": "Moby Dick",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := hal.Flatten(tt.element)

			// Records are plain maps after flattening; nested embedded
			// resources come back as map[string]interface{} values.
			expected := make(map[string]interface{}, len(tt.expected))
			for key, value := range tt.expected {
				expected[key] = normalize(value)
			}

			actual := make(map[string]interface{}, len(result))
			for key, value := range result {
				actual[key] = normalize(value)
			}

			assert.Equal(t, expected, actual)
		})
	}
}

// normalize converts hal.Record values to plain maps so expected and
// actual trees compare by structure.
func normalize(value interface{}) interface{} {
	switch typed := value.(type) {
	case hal.Record:
		out := make(map[string]interface{}, len(typed))
		for key, nested := range typed {
			out[key] = normalize(nested)
		}

		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(typed))
		for key, nested := range typed {
			out[key] = normalize(nested)
		}

		return out
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, nested := range typed {
			out[i] = normalize(nested)
		}

		return out
	default:
		return value
	}
}

func TestFlatten_DeepEmbedding(t *testing.T) {
	t.Parallel()

	element := hal.Element{
		"title": "Moby Dick",
		"_embedded": map[string]interface{}{
			"publisher": map[string]interface{}{
				"name": "Penguin",
				"_embedded": map[string]interface{}{
					"address": map[string]interface{}{
						"city": "London",
					},
				},
			},
		},
	}

	record := hal.Flatten(element)

	publisher, ok := record["publisher"].(hal.Record)
	require.True(t, ok)
	assert.Equal(t, "Penguin", publisher["name"])

	address, ok := publisher["address"].(hal.Record)
	require.True(t, ok)
	assert.Equal(t, "London", address["city"])
}
