package hal

// HAL reserved property names.
const (
	linksProperty    = "_links"
	embeddedProperty = "_embedded"
)

// Flatten strips the HAL envelope from one raw element: plain attributes
// are copied through, embedded resources are hoisted under their relation
// names and flattened recursively, and the links section is dropped.
func Flatten(element Element) Record {
	if element == nil {
		return Record{}
	}

	record := make(Record, len(element))

	for key, value := range element {
		switch key {
		case linksProperty:
			continue
		case embeddedProperty:
			embedded, ok := value.(map[string]interface{})
			if !ok {
				continue
			}

			for relation, resource := range embedded {
				record[relation] = flattenResource(resource)
			}
		default:
			record[key] = value
		}
	}

	return record
}

// flattenResource flattens an embedded resource, which HAL allows to be a
// single object or an array of objects.
func flattenResource(resource interface{}) interface{} {
	switch typed := resource.(type) {
	case map[string]interface{}:
		return Flatten(Element(typed))
	case []interface{}:
		flattened := make([]interface{}, len(typed))
		for i, item := range typed {
			flattened[i] = flattenResource(item)
		}

		return flattened
	default:
		return resource
	}
}
