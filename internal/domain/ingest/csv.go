package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// csvLayout pairs the column headers for a resource type with the function
// that flattens one resource into a row.
type csvLayout struct {
	headers []string
	flatten func(resource map[string]interface{}) []string
}

// csvLayouts is the export dispatch table. Types without an entry fall back
// to a minimal id/resourceType projection.
var csvLayouts = map[string]csvLayout{
	"Patient": {
		headers: []string{"id", "familyName", "givenNames", "gender", "birthDate"},
		flatten: flattenPatient,
	},
	"Encounter": {
		headers: []string{"id", "status", "class", "type", "periodStart", "periodEnd"},
		flatten: flattenEncounter,
	},
	"Observation": {
		headers: []string{"id", "status", "code", "display", "value", "unit", "effectiveDateTime"},
		flatten: flattenObservation,
	},
}

var genericLayout = csvLayout{
	headers: []string{"id", "resourceType"},
	flatten: func(resource map[string]interface{}) []string {
		return []string{str(resource["id"]), str(resource["resourceType"])}
	},
}

// buildCSV renders resources of one type into CSV bytes.
func buildCSV(resourceType string, resources []map[string]interface{}) ([]byte, error) {
	layout, ok := csvLayouts[resourceType]
	if !ok {
		layout = genericLayout
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(layout.headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, resource := range resources {
		if err := w.Write(layout.flatten(resource)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func flattenPatient(resource map[string]interface{}) []string {
	var family, given string
	if names, ok := resource["name"].([]interface{}); ok && len(names) > 0 {
		if name, ok := names[0].(map[string]interface{}); ok {
			family = str(name["family"])
			if givens, ok := name["given"].([]interface{}); ok {
				parts := make([]string, 0, len(givens))
				for _, g := range givens {
					parts = append(parts, str(g))
				}
				given = strings.Join(parts, " ")
			}
		}
	}
	return []string{
		str(resource["id"]),
		family,
		given,
		str(resource["gender"]),
		str(resource["birthDate"]),
	}
}

func flattenEncounter(resource map[string]interface{}) []string {
	var class string
	if c, ok := resource["class"].(map[string]interface{}); ok {
		class = str(c["code"])
	}
	var encType string
	if types, ok := resource["type"].([]interface{}); ok && len(types) > 0 {
		if t, ok := types[0].(map[string]interface{}); ok {
			encType = conceptText(t)
		}
	}
	var periodStart, periodEnd string
	if p, ok := resource["period"].(map[string]interface{}); ok {
		periodStart = str(p["start"])
		periodEnd = str(p["end"])
	}
	return []string{
		str(resource["id"]),
		str(resource["status"]),
		class,
		encType,
		periodStart,
		periodEnd,
	}
}

func flattenObservation(resource map[string]interface{}) []string {
	var code, display string
	if c, ok := resource["code"].(map[string]interface{}); ok {
		display = conceptText(c)
		if codings, ok := c["coding"].([]interface{}); ok && len(codings) > 0 {
			if coding, ok := codings[0].(map[string]interface{}); ok {
				code = str(coding["code"])
				if display == "" {
					display = str(coding["display"])
				}
			}
		}
	}
	var value, unit string
	if q, ok := resource["valueQuantity"].(map[string]interface{}); ok {
		value = str(q["value"])
		unit = str(q["unit"])
	} else if vs, ok := resource["valueString"].(string); ok {
		value = vs
	}
	return []string{
		str(resource["id"]),
		str(resource["status"]),
		code,
		display,
		value,
		unit,
		str(resource["effectiveDateTime"]),
	}
}

// conceptText prefers a CodeableConcept's text, falling back to the first
// coding display.
func conceptText(concept map[string]interface{}) string {
	if text := str(concept["text"]); text != "" {
		return text
	}
	if codings, ok := concept["coding"].([]interface{}); ok && len(codings) > 0 {
		if coding, ok := codings[0].(map[string]interface{}); ok {
			return str(coding["display"])
		}
	}
	return ""
}

func str(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; trim the trailing zero for whole
		// values so 72.0 renders as 72.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
