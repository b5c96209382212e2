package hal

// RawResponse is the decoded payload of one API call: a result-level
// marker, the HTTP status code, the raw elements in wire order, and the
// collection metadata when the API returned a paginated collection.
//
// The container keeps an iteration cursor so callers can walk the
// elements and replace the current one in place; interpretation uses
// this to flatten elements without disturbing their order.
type RawResponse struct {
	level      ResultLevel
	statusCode int
	problem    *Problem
	meta       *CollectionMeta
	elements   []Element
	cursor     int
}

// NewRawResponse builds a response container from decoded wire data.
func NewRawResponse(level ResultLevel, statusCode int, elements []Element, meta *CollectionMeta) *RawResponse {
	return &RawResponse{
		level:      level,
		statusCode: statusCode,
		elements:   elements,
		meta:       meta,
	}
}

// NewFailureResponse builds a synthesized failure-marked response with no
// elements, used when the transport could not produce a response at all.
func NewFailureResponse(statusCode int) *RawResponse {
	return &RawResponse{level: ResultFailure, statusCode: statusCode}
}

// Level returns the result-level marker.
func (r *RawResponse) Level() ResultLevel {
	return r.level
}

// StatusCode returns the HTTP status code of the underlying request.
func (r *RawResponse) StatusCode() int {
	return r.statusCode
}

// Problem returns the parsed error document, if any.
func (r *RawResponse) Problem() *Problem {
	return r.problem
}

// SetProblem attaches a parsed error document.
func (r *RawResponse) SetProblem(problem *Problem) {
	r.problem = problem
}

// Meta returns the collection metadata, or nil for non-collection
// responses.
func (r *RawResponse) Meta() *CollectionMeta {
	return r.meta
}

// Valid reports whether the response completed successfully and carries
// at least one element.
func (r *RawResponse) Valid() bool {
	return r != nil && r.level == ResultSuccess && len(r.elements) > 0
}

// Len returns the number of raw elements.
func (r *RawResponse) Len() int {
	return len(r.elements)
}

// Reset rewinds the iteration cursor to the first element.
func (r *RawResponse) Reset() {
	r.cursor = 0
}

// Next returns the element under the cursor and advances it. The second
// return is false once the elements are exhausted.
func (r *RawResponse) Next() (Element, bool) {
	if r.cursor >= len(r.elements) {
		return nil, false
	}

	element := r.elements[r.cursor]
	r.cursor++

	return element, true
}

// SetCurrent replaces the element most recently returned by Next,
// preserving its position.
func (r *RawResponse) SetCurrent(element Element) {
	if r.cursor == 0 || r.cursor > len(r.elements) {
		return
	}

	r.elements[r.cursor-1] = element
}

// LinkFor returns the href of the named collection link relation.
func (r *RawResponse) LinkFor(relation string) (string, bool) {
	if r == nil || r.meta == nil {
		return "", false
	}

	link, ok := r.meta.Links[relation]
	if !ok || link.Href == "" {
		return "", false
	}

	return link.Href, true
}

// Clone returns a value copy of the response: elements and metadata are
// deep-copied so later mutation of the original cannot leak through.
func (r *RawResponse) Clone() *RawResponse {
	if r == nil {
		return nil
	}

	elements := make([]Element, len(r.elements))
	for i, element := range r.elements {
		elements[i] = copyElement(element)
	}

	var problem *Problem
	if r.problem != nil {
		p := *r.problem
		problem = &p
	}

	return &RawResponse{
		level:      r.level,
		statusCode: r.statusCode,
		problem:    problem,
		meta:       r.meta.Clone(),
		elements:   elements,
		cursor:     r.cursor,
	}
}

func copyElement(element Element) Element {
	if element == nil {
		return nil
	}

	copied, ok := copyValue(map[string]interface{}(element)).(map[string]interface{})
	if !ok {
		return nil
	}

	return Element(copied)
}

func copyValue(value interface{}) interface{} {
	switch typed := value.(type) {
	case map[string]interface{}:
		copied := make(map[string]interface{}, len(typed))
		for key, nested := range typed {
			copied[key] = copyValue(nested)
		}

		return copied
	case []interface{}:
		copied := make([]interface{}, len(typed))
		for i, nested := range typed {
			copied[i] = copyValue(nested)
		}

		return copied
	default:
		return value
	}
}
