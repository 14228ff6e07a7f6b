package docextract

// BuildDocumentJSONSchema returns the canonical document shape as a
// JSON-Schema (draft 2020-12 subset) map. The schema is deliberately lenient:
// nothing is required, because a missing field becomes a null sentinel rather
// than a failed extraction. It runs against sanitized output, so money-ish
// values are decimal strings by then and unknown keys are already gone.
func BuildDocumentJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"supplier_name": map[string]any{"type": []string{"string", "null"}},
			"invoice_date":  map[string]any{"type": []string{"string", "null"}},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"item_name":  map[string]any{"type": []string{"string", "null"}},
						"quantity":   decimalProp(),
						"unit_price": decimalProp(),
						"gst_rate":   decimalProp(),
					},
				},
			},
			"total_amount": decimalProp(),
		},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    []string{"string", "null"},
		"pattern": `^-?\d+(\.\d+)?$`,
	}
}
