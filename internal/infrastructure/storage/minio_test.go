package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTranscriptObjectName(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 30, 5, 123000000, time.FixedZone("ICT", 7*3600))
	assert.Equal(t, "transcripts/m1/20250314T023005.123Z.json", transcriptObjectName("m1", at))
}

func TestContentTypeOf(t *testing.T) {
	assert.Equal(t, "application/json", contentTypeOf([]byte(`{"segments":[]}`)))
	assert.Equal(t, "text/plain", contentTypeOf([]byte("plain transcript")))
}
