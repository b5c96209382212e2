package hal

// Element is one raw element of an API response, exactly as decoded from
// the wire, HAL envelope included.
type Element map[string]interface{}

// Record is a flattened element: plain attributes plus embedded resources
// hoisted under their relation names, with the HAL envelope removed.
type Record map[string]interface{}

// QueryKind selects the result shape of a find.
type QueryKind string

const (
	// KindFirst targets the single first-matching record.
	KindFirst QueryKind = "first"

	// KindAll targets one page of a collection.
	KindAll QueryKind = "all"

	// KindCount targets the total item count of a collection.
	KindCount QueryKind = "count"

	// KindRaw passes the first element through without flattening.
	KindRaw QueryKind = "raw"
)

// ResultLevel is the outcome marker a response carries.
type ResultLevel string

const (
	// ResultSuccess marks a completed request.
	ResultSuccess ResultLevel = "success"

	// ResultFailure marks a remote or server-side failure.
	ResultFailure ResultLevel = "failure"

	// ResultValidation marks a request the API rejected as invalid input.
	ResultValidation ResultLevel = "validation-error"
)

// Links represents resource links keyed by relation name.
type Links map[string]Link

// Link represents a single link.
type Link struct {
	Href string `json:"href" yaml:"href"`
}

// Collection link relations.
const (
	RelationSelf     = "self"
	RelationFirst    = "first"
	RelationNext     = "next"
	RelationPrevious = "previous"
	RelationLast     = "last"
)

// CollectionMeta carries the pagination metadata of a collection response.
type CollectionMeta struct {
	TotalItems int   `json:"total_items" yaml:"total_items"`
	Links      Links `json:"links"       yaml:"links"`
}

// Clone returns a deep copy of the metadata.
func (m *CollectionMeta) Clone() *CollectionMeta {
	if m == nil {
		return nil
	}

	links := make(Links, len(m.Links))
	for rel, link := range m.Links {
		links[rel] = link
	}

	return &CollectionMeta{TotalItems: m.TotalItems, Links: links}
}

// Result is the interpreted outcome of one find or create.
type Result struct {
	Kind    QueryKind `json:"kind"              yaml:"kind"`
	Record  Record    `json:"record,omitempty"  yaml:"record,omitempty"`
	Records []Record  `json:"records,omitempty" yaml:"records,omitempty"`
	Count   int       `json:"count,omitempty"   yaml:"count,omitempty"`
}

// Empty reports whether the result carries no data for its kind.
func (r *Result) Empty() bool {
	if r == nil {
		return true
	}

	switch r.Kind {
	case KindFirst, KindRaw:
		return len(r.Record) == 0
	case KindAll:
		return len(r.Records) == 0
	case KindCount:
		return false
	default:
		return true
	}
}

// Len returns the number of records in a list result, or 1 for a
// non-empty single record.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}

	switch r.Kind {
	case KindAll:
		return len(r.Records)
	case KindFirst, KindRaw:
		if len(r.Record) == 0 {
			return 0
		}

		return 1
	default:
		return 0
	}
}
