package hal

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names recognized by HAL-convention collection
// endpoints.
const (
	paramCount = "count"
	paramPage  = "page"
	paramEmbed = "embed"
)

// Params is the typed query configuration for a find: the recognized
// options (page size, page number, embed directives) plus an open
// extension slot for opaque filter keys.
type Params struct {
	Count   int                 `json:"count,omitempty"   yaml:"count,omitempty"`
	Page    int                 `json:"page,omitempty"    yaml:"page,omitempty"`
	Embed   []string            `json:"embed,omitempty"   yaml:"embed,omitempty"`
	Filters map[string][]string `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// NewParams creates an empty parameter set.
func NewParams() *Params {
	return &Params{
		Filters: make(map[string][]string),
	}
}

// WithCount sets the page size.
func (p *Params) WithCount(count int) *Params {
	p.Count = count

	return p
}

// WithPage sets the page number.
func (p *Params) WithPage(page int) *Params {
	p.Page = page

	return p
}

// WithEmbed appends embed directives.
func (p *Params) WithEmbed(relations ...string) *Params {
	p.Embed = append(p.Embed, relations...)

	return p
}

// WithFilter appends values to a filter key.
func (p *Params) WithFilter(key string, values ...string) *Params {
	if p.Filters == nil {
		p.Filters = make(map[string][]string)
	}

	p.Filters[key] = append(p.Filters[key], values...)

	return p
}

// Filter returns the values of a filter key.
func (p *Params) Filter(key string) []string {
	if p == nil || p.Filters == nil {
		return nil
	}

	return p.Filters[key]
}

// Clone returns a deep copy, so a retained parameter set cannot be
// mutated through the original.
func (p *Params) Clone() *Params {
	if p == nil {
		return NewParams()
	}

	clone := &Params{
		Count:   p.Count,
		Page:    p.Page,
		Embed:   append([]string(nil), p.Embed...),
		Filters: make(map[string][]string, len(p.Filters)),
	}

	for key, values := range p.Filters {
		clone.Filters[key] = append([]string(nil), values...)
	}

	return clone
}

// ToValues converts the parameters to URL query values.
func (p *Params) ToValues() url.Values {
	values := url.Values{}

	if p == nil {
		return values
	}

	if p.Count > 0 {
		values.Set(paramCount, strconv.Itoa(p.Count))
	}

	if p.Page > 0 {
		values.Set(paramPage, strconv.Itoa(p.Page))
	}

	if len(p.Embed) > 0 {
		values.Set(paramEmbed, strings.Join(p.Embed, ","))
	}

	for key, filterValues := range p.Filters {
		if len(filterValues) > 0 {
			values.Set(key, strings.Join(filterValues, ","))
		}
	}

	return values
}

// Canonical returns a canonical serialization of the parameters: keys
// sorted, values rendered the same way regardless of how the set was
// built. Equal-by-value parameter sets produce identical strings.
func (p *Params) Canonical() string {
	return p.ToValues().Encode()
}

// ParamsFromValues builds a parameter set from URL query values. The
// recognized options are lifted into their typed fields; everything else
// becomes a filter.
func ParamsFromValues(values url.Values) *Params {
	params := NewParams()

	for key, rawValues := range values {
		if len(rawValues) == 0 {
			continue
		}

		switch key {
		case paramCount:
			if count, err := strconv.Atoi(rawValues[0]); err == nil {
				params.Count = count
			}
		case paramPage:
			if page, err := strconv.Atoi(rawValues[0]); err == nil {
				params.Page = page
			}
		case paramEmbed:
			for _, raw := range rawValues {
				params.Embed = append(params.Embed, splitList(raw)...)
			}
		default:
			for _, raw := range rawValues {
				params.Filters[key] = append(params.Filters[key], splitList(raw)...)
			}
		}
	}

	return params
}

// ParseLinkParams parses the query string of a pagination link into a
// parameter set. The second return is false when the link is not a
// parseable URL.
func ParseLinkParams(href string) (*Params, bool) {
	parsed, err := url.Parse(href)
	if err != nil {
		return nil, false
	}

	query, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		return nil, false
	}

	return ParamsFromValues(query), true
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")

	list := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}

	return list
}
