package hal

// Interpret extracts the typed result view a query kind calls for from a
// classified response. Each raw element is flattened in iteration order
// and written back over the container's current element, so the response
// ends up holding flattened records in their original positions.
//
// An invalid response (a failure recorded upstream, or no elements)
// short-circuits to the shape-appropriate empty value.
func Interpret(resp *RawResponse, kind QueryKind) *Result {
	result := &Result{Kind: kind}

	if kind == KindAll {
		result.Records = []Record{}
	}

	if !resp.Valid() {
		return result
	}

	switch kind {
	case KindFirst:
		resp.Reset()

		element, ok := resp.Next()
		if ok {
			record := Flatten(element)
			resp.SetCurrent(Element(record))
			result.Record = record
		}
	case KindAll:
		resp.Reset()

		records := make([]Record, 0, resp.Len())

		for element, ok := resp.Next(); ok; element, ok = resp.Next() {
			record := Flatten(element)
			resp.SetCurrent(Element(record))
			records = append(records, record)
		}

		result.Records = records
	case KindCount:
		if meta := resp.Meta(); meta != nil {
			result.Count = meta.TotalItems
		}
	case KindRaw:
		resp.Reset()

		element, ok := resp.Next()
		if ok {
			result.Record = Record(element)
		}
	}

	return result
}
