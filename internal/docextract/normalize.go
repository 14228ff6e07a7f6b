package docextract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bizledger/docextract/internal/csvx"
)

// Synonym renames applied before validation, top level and per item. Models
// drift between invoice and receipt vocabulary; the canonical shape doesn't.
var fieldSynonyms = map[string]string{
	"merchant_name": "supplier_name",
	"vendor_name":   "supplier_name",
	"vendor":        "supplier_name",
	"supplier":      "supplier_name",
	"store_name":    "supplier_name",
	"date":          "invoice_date",
	"tx_date":       "invoice_date",
	"purchase_date": "invoice_date",
	"line_items":    "items",
	"products":      "items",
	"total":         "total_amount",
	"grand_total":   "total_amount",
}

var itemSynonyms = map[string]string{
	"name":         "item_name",
	"product":      "item_name",
	"product_name": "item_name",
	"description":  "item_name",
	"qty":          "quantity",
	"price":        "unit_price",
	"rate":         "unit_price",
	"tax_rate":     "gst_rate",
	"gst":          "gst_rate",
}

var topLevelKeys = map[string]struct{}{
	"supplier_name": {}, "invoice_date": {}, "items": {}, "total_amount": {},
}

var itemKeys = map[string]struct{}{
	"item_name": {}, "quantity": {}, "unit_price": {}, "gst_rate": {},
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"02.01.2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// sanitizeDocument normalizes a provider's raw JSON object toward the
// canonical document shape: synonym renames, numeric de-formatting
// ("1,180.00" -> "1180.00"), ISO-8601 date normalization, null/unknown-key
// removal. It returns the cleaned JSON plus the list of adjusted keys.
func sanitizeDocument(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	rename(m, fieldSynonyms)

	if v, ok := m["supplier_name"]; ok {
		if s := asTrimmedString(v); s != "" {
			m["supplier_name"] = s
		} else {
			delete(m, "supplier_name")
			dropped = append(dropped, "supplier_name")
		}
	}

	if v, ok := m["invoice_date"]; ok {
		if s := asTrimmedString(v); s != "" {
			m["invoice_date"] = NormalizeDate(s)
		} else {
			delete(m, "invoice_date")
			dropped = append(dropped, "invoice_date")
		}
	}

	if !coerceDecimal(m, "total_amount") {
		dropped = append(dropped, "total_amount")
	}

	if v, ok := m["items"]; ok {
		items, isList := v.([]any)
		if !isList {
			delete(m, "items")
			dropped = append(dropped, "items")
		} else {
			cleaned := make([]any, 0, len(items))
			for _, it := range items {
				im, isMap := it.(map[string]any)
				if !isMap {
					dropped = append(dropped, "items[]")
					continue
				}
				rename(im, itemSynonyms)
				if s := asTrimmedString(im["item_name"]); s != "" {
					im["item_name"] = s
				} else {
					delete(im, "item_name")
				}
				for _, k := range []string{"quantity", "unit_price", "gst_rate"} {
					if !coerceDecimal(im, k) {
						dropped = append(dropped, "items[]."+k)
					}
				}
				dropUnknown(im, itemKeys)
				cleaned = append(cleaned, im)
			}
			m["items"] = cleaned
		}
	}

	dropUnknown(m, topLevelKeys)

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}

// NormalizeDate converts a recognizable date string to ISO-8601
// (YYYY-MM-DD); anything unrecognized passes through unchanged.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// coerceDecimal rewrites m[k] as a plain decimal string. It reports false
// only when a present value had to be dropped as non-numeric.
func coerceDecimal(m map[string]any, k string) bool {
	v, ok := m[k]
	if !ok {
		return true
	}
	switch t := v.(type) {
	case nil:
		delete(m, k)
		return true
	case float64:
		m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		return true
	case string:
		d, err := csvx.ParseDecimal(t)
		if err != nil {
			delete(m, k)
			return false
		}
		m[k] = d.String()
		return true
	default:
		delete(m, k)
		return false
	}
}

func rename(m map[string]any, synonyms map[string]string) {
	for from, to := range synonyms {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
		}
	}
}

func dropUnknown(m map[string]any, allowed map[string]struct{}) {
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
		}
	}
}

func asTrimmedString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
