package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONObjectBare(t *testing.T) {
	out, err := DecodeJSONObject(`{"supplier_name":"Acme"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"supplier_name":"Acme"}`, string(out))
}

func TestDecodeJSONObjectFenced(t *testing.T) {
	raw := "```json\n{\"total_amount\": \"9500\"}\n```"
	out, err := DecodeJSONObject(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_amount":"9500"}`, string(out))
}

func TestDecodeJSONObjectFencedNoLanguage(t *testing.T) {
	raw := "```\n{\"a\": 1}\n```"
	out, err := DecodeJSONObject(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(out))
}

func TestDecodeJSONObjectBraceWindow(t *testing.T) {
	raw := `Here is the extracted data: {"supplier_name":"Acme","items":[]} hope that helps!`
	out, err := DecodeJSONObject(raw)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "Acme", m["supplier_name"])
}

func TestDecodeJSONObjectRejectsNonObject(t *testing.T) {
	_, err := DecodeJSONObject(`[1, 2, 3]`)
	assert.Error(t, err)

	_, err = DecodeJSONObject("no json here at all")
	assert.Error(t, err)

	_, err = DecodeJSONObject("")
	assert.Error(t, err)
}

func TestClassifyHTTPStatus(t *testing.T) {
	assert.Equal(t, ReasonAuth, ClassifyHTTPStatus(401))
	assert.Equal(t, ReasonAuth, ClassifyHTTPStatus(403))
	assert.Equal(t, ReasonRateLimited, ClassifyHTTPStatus(429))
	assert.Equal(t, ReasonTimeout, ClassifyHTTPStatus(408))
	assert.Equal(t, ReasonTimeout, ClassifyHTTPStatus(504))
	assert.Equal(t, ReasonUnavailable, ClassifyHTTPStatus(500))
}
