package hal_test

import (
	"net/url"
	"testing"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:funlen // Test functions can be longer for detailed testing
func TestParams_ToValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		params   *hal.Params
		expected url.Values
	}{
		{
			name:     "empty params",
			params:   hal.NewParams(),
			expected: url.Values{},
		},
		{
			name:     "nil params",
			params:   nil,
			expected: url.Values{},
		},
		{
			name: "with pagination",
			params: &hal.Params{
				Count: 50,
				Page:  2,
			},
			expected: url.Values{
				"count": []string{"50"},
				"page":  []string{"2"},
			},
		},
		{
			name: "with embed",
			params: &hal.Params{
				Embed: []string{"author", "publisher"},
			},
			expected: url.Values{
				"embed": []string{"author,publisher"},
			},
		},
		{
			name: "with filters",
			params: &hal.Params{
				Filters: map[string][]string{
					"title":  {"Moby Dick", "Typee"},
					"format": {"hardcover"},
				},
			},
			expected: url.Values{
				"title":  []string{"Moby Dick,Typee"},
				"format": []string{"hardcover"},
			},
		},
		{
			name: "empty filter values omitted",
			params: &hal.Params{
				Filters: map[string][]string{
					"title": {},
				},
			},
			expected: url.Values{},
		},
		{
			name: "with all options",
			params: &hal.Params{
				Count: 25,
				Page:  3,
				Embed: []string{"author"},
				Filters: map[string][]string{
					"state": {"published", "draft"},
				},
			},
			expected: url.Values{
				"count": []string{"25"},
				"page":  []string{"3"},
				"embed": []string{"author"},
				"state": []string{"published,draft"},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := tt.params.ToValues()
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParams_Builders(t *testing.T) {
	t.Parallel()
	t.Run("chaining methods", func(t *testing.T) {
		t.Parallel()

		params := hal.NewParams().
			WithCount(100).
			WithPage(2).
			WithEmbed("author", "publisher").
			WithFilter("state", "published").
			WithFilter("title", "Moby Dick", "Typee")

		values := params.ToValues()

		assert.Equal(t, "100", values.Get("count"))
		assert.Equal(t, "2", values.Get("page"))
		assert.Equal(t, "author,publisher", values.Get("embed"))
		assert.Equal(t, "published", values.Get("state"))
		assert.Equal(t, "Moby Dick,Typee", values.Get("title"))
	})

	t.Run("WithEmbed appends", func(t *testing.T) {
		t.Parallel()

		params := hal.NewParams().
			WithEmbed("author").
			WithEmbed("publisher", "reviews")

		assert.Equal(t, []string{"author", "publisher", "reviews"}, params.Embed)
	})

	t.Run("WithFilter appends", func(t *testing.T) {
		t.Parallel()

		params := hal.NewParams().
			WithFilter("title", "Moby Dick").
			WithFilter("title", "Typee", "Omoo")

		assert.Equal(t, []string{"Moby Dick", "Typee", "Omoo"}, params.Filters["title"])
	})

	t.Run("WithFilter on zero value", func(t *testing.T) {
		t.Parallel()

		var params hal.Params

		params.WithFilter("state", "published")

		assert.Equal(t, []string{"published"}, params.Filter("state"))
	})
}

func TestNewParams(t *testing.T) {
	t.Parallel()

	params := hal.NewParams()

	assert.NotNil(t, params)
	assert.NotNil(t, params.Filters)
	assert.Equal(t, 0, params.Count)
	assert.Equal(t, 0, params.Page)
	assert.Nil(t, params.Embed)
}

func TestParams_Canonical_OrderIndependent(t *testing.T) {
	t.Parallel()

	// Two parameter sets built in opposite insertion order must
	// canonicalize identically.
	first := hal.NewParams().
		WithFilter("author", "Melville").
		WithFilter("state", "published").
		WithCount(10)

	second := hal.NewParams().
		WithCount(10).
		WithFilter("state", "published").
		WithFilter("author", "Melville")

	assert.Equal(t, first.Canonical(), second.Canonical())
}

func TestParams_Canonical_ValueOrderPreserved(t *testing.T) {
	t.Parallel()

	// Value order within one filter key is meaningful and survives
	// canonicalization.
	first := hal.NewParams().WithFilter("title", "Moby Dick", "Typee")
	second := hal.NewParams().WithFilter("title", "Typee", "Moby Dick")

	assert.NotEqual(t, first.Canonical(), second.Canonical())
}

func TestParams_Filter(t *testing.T) {
	t.Parallel()

	params := hal.NewParams().WithFilter("id", "42")

	assert.Equal(t, []string{"42"}, params.Filter("id"))
	assert.Nil(t, params.Filter("missing"))

	var nilParams *hal.Params

	assert.Nil(t, nilParams.Filter("id"))
}

func TestParams_Clone(t *testing.T) {
	t.Parallel()

	original := hal.NewParams().
		WithCount(10).
		WithPage(2).
		WithEmbed("author").
		WithFilter("state", "published")

	clone := original.Clone()

	require.Equal(t, original.Canonical(), clone.Canonical())

	// Mutating the clone must not reach the original.
	clone.WithFilter("state", "draft").WithEmbed("publisher")
	clone.Count = 99

	assert.Equal(t, []string{"published"}, original.Filters["state"])
	assert.Equal(t, []string{"author"}, original.Embed)
	assert.Equal(t, 10, original.Count)
}

func TestParams_Clone_Nil(t *testing.T) {
	t.Parallel()

	var params *hal.Params

	clone := params.Clone()

	require.NotNil(t, clone)
	assert.NotNil(t, clone.Filters)
}

func TestParamsFromValues(t *testing.T) {
	t.Parallel()

	values := url.Values{
		"count": []string{"25"},
		"page":  []string{"3"},
		"embed": []string{"author,publisher"},
		"title": []string{"Moby Dick,Typee"},
		"state": []string{"published"},
	}

	params := hal.ParamsFromValues(values)

	assert.Equal(t, 25, params.Count)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, []string{"author", "publisher"}, params.Embed)
	assert.Equal(t, []string{"Moby Dick", "Typee"}, params.Filters["title"])
	assert.Equal(t, []string{"published"}, params.Filters["state"])
}

func TestParamsFromValues_RoundTrip(t *testing.T) {
	t.Parallel()

	original := hal.NewParams().
		WithCount(10).
		WithPage(4).
		WithEmbed("author").
		WithFilter("state", "published")

	rebuilt := hal.ParamsFromValues(original.ToValues())

	assert.Equal(t, original.Canonical(), rebuilt.Canonical())
}

func TestParseLinkParams(t *testing.T) {
	t.Parallel()

	t.Run("pagination link", func(t *testing.T) {
		t.Parallel()

		params, ok := hal.ParseLinkParams("/books?count=10&page=2&state=published")

		require.True(t, ok)
		assert.Equal(t, 10, params.Count)
		assert.Equal(t, 2, params.Page)
		assert.Equal(t, []string{"published"}, params.Filters["state"])
	})

	t.Run("absolute link", func(t *testing.T) {
		t.Parallel()

		params, ok := hal.ParseLinkParams("https://api.example.com/books?page=7")

		require.True(t, ok)
		assert.Equal(t, 7, params.Page)
	})

	t.Run("no query string", func(t *testing.T) {
		t.Parallel()

		params, ok := hal.ParseLinkParams("/books")

		require.True(t, ok)
		assert.Equal(t, 0, params.Count)
		assert.Equal(t, 0, params.Page)
	})

	t.Run("malformed url", func(t *testing.T) {
		t.Parallel()

		_, ok := hal.ParseLinkParams("http://example.com/\x00")

		assert.False(t, ok)
	})

	t.Run("malformed query", func(t *testing.T) {
		t.Parallel()

		_, ok := hal.ParseLinkParams("/books?count=%zz")

		assert.False(t, ok)
	})
}
