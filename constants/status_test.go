package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusExtracted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, StatusPending.CanTransition(StatusProcessing))
	assert.True(t, StatusPending.CanTransition(StatusFailed))
	assert.False(t, StatusPending.CanTransition(StatusExtracted))

	assert.True(t, StatusProcessing.CanTransition(StatusExtracted))
	assert.True(t, StatusProcessing.CanTransition(StatusFailed))
	assert.False(t, StatusProcessing.CanTransition(StatusPending))

	// Terminal states admit nothing.
	for _, next := range []UploadStatus{StatusPending, StatusProcessing, StatusExtracted, StatusFailed} {
		assert.False(t, StatusExtracted.CanTransition(next))
		assert.False(t, StatusFailed.CanTransition(next))
	}
}

func TestParseUploadStatus(t *testing.T) {
	assert.Equal(t, StatusPending, ParseUploadStatus("PENDING"))
	assert.Equal(t, UploadStatus(""), ParseUploadStatus("pending"))
	assert.Equal(t, UploadStatus(""), ParseUploadStatus("DONE"))
}

func TestMethodForProvider(t *testing.T) {
	assert.Equal(t, ExtractionMethod("llm:gemini"), MethodForProvider("gemini"))
	assert.Equal(t, MethodMock, MethodForProvider("mock"))
}

func TestMIMETypeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", MIMETypeFor("a/b/scan.JPG"))
	assert.Equal(t, "text/csv", MIMETypeFor("sales.csv"))
	assert.Equal(t, "application/octet-stream", MIMETypeFor("mystery.bin"))
}
