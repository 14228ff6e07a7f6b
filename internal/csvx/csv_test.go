package csvx

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/docextract/constants"
	"github.com/bizledger/docextract/internal/common"
)

func TestExtractSalesCSV(t *testing.T) {
	raw := []byte("date,product,quantity,price\n" +
		"2026-02-15,Rice 25kg,10,950\n" +
		"2026-02-15,Wheat 10kg,20,400\n")

	data, err := Extract(raw, constants.FileTypeSalesCSV, nil)
	require.NoError(t, err)

	require.Len(t, data.Records, 2)
	assert.Equal(t, 0, data.SkippedRows)
	assert.Equal(t, "17500", data.TotalAmount.String())

	first := data.Records[0]
	assert.Equal(t, "Rice 25kg", first["product"])
	assert.Equal(t, "2026-02-15", first["date"])
	qty, ok := first["quantity"].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, qty.Equal(decimal.NewFromInt(10)))
}

func TestExtractHeaderNormalization(t *testing.T) {
	raw := []byte("Product Name,QTY,Unit-Price\nSoap,5,20\n")

	data, err := Extract(raw, constants.FileTypeSalesCSV, nil)
	require.NoError(t, err)
	require.Len(t, data.Records, 1)
	assert.Equal(t, "Soap", data.Records[0]["product"])
	assert.Equal(t, "100", data.TotalAmount.String())
}

func TestExtractMoneyNoise(t *testing.T) {
	raw := []byte("product,quantity,price\nTV,1,\"₹1,180.00\"\n")

	data, err := Extract(raw, constants.FileTypeSalesCSV, nil)
	require.NoError(t, err)
	require.Len(t, data.Records, 1)
	assert.Equal(t, "1180", data.TotalAmount.String())
}

func TestExtractSkipsBadRows(t *testing.T) {
	raw := []byte("product,quantity,price\n" +
		"Rice,10,950\n" +
		"Wheat,not-a-number,400\n" +
		"Oil,2,100\n")

	data, err := Extract(raw, constants.FileTypeSalesCSV, nil)
	require.NoError(t, err)
	assert.Len(t, data.Records, 2)
	assert.Equal(t, 1, data.SkippedRows)
	assert.Equal(t, "9700", data.TotalAmount.String())
}

func TestExtractBlankRowsNotCounted(t *testing.T) {
	raw := []byte("product,quantity,price\nRice,10,950\n,,\n")

	data, err := Extract(raw, constants.FileTypeSalesCSV, nil)
	require.NoError(t, err)
	assert.Len(t, data.Records, 1)
	assert.Equal(t, 0, data.SkippedRows)
}

func TestExtractUnrecognizableHeader(t *testing.T) {
	raw := []byte("foo,bar,baz\n1,2,3\n")

	_, err := Extract(raw, constants.FileTypeSalesCSV, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMalformedInput))
}

func TestExtractEmptyInput(t *testing.T) {
	_, err := Extract(nil, constants.FileTypeSalesCSV, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMalformedInput))
}

func TestExtractBOMStripped(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("product,quantity,price\nRice,1,10\n")...)

	data, err := Extract(raw, constants.FileTypeSalesCSV, nil)
	require.NoError(t, err)
	assert.Len(t, data.Records, 1)
}

func TestExtractInventoryPassthrough(t *testing.T) {
	raw := []byte("product,quantity,price,warehouse,reorder_level\n" +
		"Rice,100,950,North,20\n")

	data, err := Extract(raw, constants.FileTypeInventoryCSV, nil)
	require.NoError(t, err)
	require.Len(t, data.Records, 1)

	rec := data.Records[0]
	assert.Equal(t, "North", rec["warehouse"])
	assert.Equal(t, "20", rec["reorder_level"])
}

func TestExtractSalesNoPassthrough(t *testing.T) {
	raw := []byte("product,quantity,price,warehouse\nRice,100,950,North\n")

	data, err := Extract(raw, constants.FileTypeSalesCSV, nil)
	require.NoError(t, err)
	require.Len(t, data.Records, 1)
	_, ok := data.Records[0]["warehouse"]
	assert.False(t, ok)
}

func TestNormalizeColumn(t *testing.T) {
	cases := map[string]string{
		"Unit Price":  "unit_price",
		"unit-price":  "unit_price",
		" Tx.Date ":   "tx_date",
		"QTY":         "qty",
		"product/sku": "product_sku",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeColumn(in), "input %q", in)
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal("₹1,180.00")
	require.NoError(t, err)
	assert.Equal(t, "1180", d.String())

	_, err = ParseDecimal("  ")
	assert.Error(t, err)

	_, err = ParseDecimal("abc")
	assert.Error(t, err)
}
