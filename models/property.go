package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Property is a listing from the properties document. Listings are free-form
// objects, so the raw fields are kept as decoded.
type Property map[string]interface{}

// ID returns the listing identifier: the "OFFER NO" field, or "id" when absent.
func (p Property) ID() string {
	for _, key := range []string{"OFFER NO", "id"} {
		if v, ok := p[key]; ok && v != nil {
			return idString(v)
		}
	}
	return ""
}

func idString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
