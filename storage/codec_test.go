package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeValueRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"string", "front desk", "front desk"},
		{"bool true", true, true},
		{"bool false", false, false},
		{"int becomes int64", 42, int64(42)},
		{"int64", int64(-7), int64(-7)},
		{"float", 3.25, 3.25},
		{"whole float stays float", 2.0, 2.0},
		{"string slice", []string{"billing", "policies"}, []string{"billing", "policies"}},
		{"empty string slice", []string{}, []string{}},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, DecodeValue(encoded))
		})
	}
}

func TestDecodeValueSniffing(t *testing.T) {
	assert.Equal(t, int64(100), DecodeValue("100"))
	assert.Equal(t, 1.5, DecodeValue("1.5"))
	assert.Equal(t, true, DecodeValue("true"))
	assert.Equal(t, "almost1.5x", DecodeValue("almost1.5x"))
	assert.Equal(t, "", DecodeValue(""))

	// Malformed JSON falls back to the raw string.
	assert.Equal(t, "[not json", DecodeValue("[not json"))
}

func TestDecodeValueMixedArray(t *testing.T) {
	decoded := DecodeValue(`["a", 1]`)
	arr, ok := decoded.([]any)
	require.True(t, ok)
	assert.Equal(t, "a", arr[0])
}

func TestEncodeDecodeMetadata(t *testing.T) {
	meta := map[string]any{
		"chunk_index":    3,
		"chunk_size":     512,
		"document_type":  "policy_document",
		"has_procedures": true,
		"key_topics":     []string{"billing", "complaints"},
	}

	encoded, err := EncodeMetadata(meta)
	require.NoError(t, err)
	assert.Equal(t, "3", encoded["chunk_index"])
	assert.Equal(t, "true", encoded["has_procedures"])

	decoded := DecodeMetadata(encoded)
	assert.Equal(t, int64(3), decoded["chunk_index"])
	assert.Equal(t, "policy_document", decoded["document_type"])
	assert.Equal(t, true, decoded["has_procedures"])
	assert.Equal(t, []string{"billing", "complaints"}, decoded["key_topics"])

	assert.Nil(t, DecodeMetadata(nil))
	nilEncoded, err := EncodeMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, nilEncoded)
}
