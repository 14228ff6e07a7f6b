package docextract

import "github.com/bizledger/docextract/constants"

// Fixed instruction prompts per file type. Each names the exact field set the
// provider must return; downstream normalization tolerates synonyms and
// missing fields, so the prompts stay short.

const invoicePrompt = `Extract structured invoice data from this document.

Return ONLY valid JSON with this exact structure (no other text):
{
  "supplier_name": "string - name of the supplier/vendor",
  "invoice_date": "YYYY-MM-DD format",
  "items": [
    {
      "item_name": "string - product/service name",
      "quantity": number,
      "unit_price": number,
      "gst_rate": number (0-28, GST percentage)
    }
  ],
  "total_amount": number - total invoice amount including GST
}

If you cannot find a field, use null. All numbers should be numeric, not strings.`

const receiptPrompt = `Extract structured receipt data from this document.

Return ONLY valid JSON with this exact structure (no other text):
{
  "supplier_name": "string - store/merchant name",
  "invoice_date": "YYYY-MM-DD format - purchase date",
  "items": [
    {
      "item_name": "string - item name",
      "quantity": number,
      "unit_price": number,
      "gst_rate": number or null
    }
  ],
  "total_amount": number - total amount paid
}

If you cannot find a field, use null. All numbers should be numeric, not strings.`

const genericPrompt = `Extract structured purchase data from this document.

Return ONLY valid JSON with this exact structure (no other text):
{
  "supplier_name": "string or null",
  "invoice_date": "YYYY-MM-DD or null",
  "items": [
    {"item_name": "string", "quantity": number, "unit_price": number, "gst_rate": number or null}
  ],
  "total_amount": number or null
}

If you cannot find a field, use null.`

// PromptFor returns the instruction prompt for a document-path file type.
func PromptFor(ft constants.FileType) string {
	switch ft {
	case constants.FileTypeReceiptImage:
		return receiptPrompt
	case constants.FileTypeInvoiceImage:
		return invoicePrompt
	default:
		return genericPrompt
	}
}
