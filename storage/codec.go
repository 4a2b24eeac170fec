// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EncodeMetadata string-encodes every metadata value. Primitives become
// their literal form, composites become JSON. Decoding with DecodeMetadata
// yields the canonical types described there.
func EncodeMetadata(meta map[string]any) (map[string]string, error) {
	if meta == nil {
		return nil, nil
	}

	encoded := make(map[string]string, len(meta))
	for key, value := range meta {
		s, err := EncodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("metadata key %q: %w", key, err)
		}
		encoded[key] = s
	}
	return encoded, nil
}

// DecodeMetadata reverses EncodeMetadata.
func DecodeMetadata(meta map[string]string) map[string]any {
	if meta == nil {
		return nil
	}

	decoded := make(map[string]any, len(meta))
	for key, value := range meta {
		decoded[key] = DecodeValue(value)
	}
	return decoded
}

// EncodeValue converts a metadata value to its string encoding.
//
// Whole floats keep a decimal point so they decode back as floats rather
// than integers.
func EncodeValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return formatFloat(float64(v)), nil
	case float64:
		return formatFloat(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSerializationFailed, err)
		}
		return string(data), nil
	}
}

// DecodeValue reverses EncodeValue. The canonical decoded types are bool,
// int64, float64, string, []string (for homogeneous string arrays),
// []any and map[string]any; numeric-looking strings therefore decode as
// numbers.
func DecodeValue(value string) any {
	switch value {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}

	if strings.HasPrefix(value, "[") || strings.HasPrefix(value, "{") {
		if decoded, ok := decodeJSON(value); ok {
			return decoded
		}
	}

	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return value
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && s != "NaN" {
		s += ".0"
	}
	return s
}

func decodeJSON(value string) (any, bool) {
	var decoded any
	if err := json.Unmarshal([]byte(value), &decoded); err != nil {
		return nil, false
	}

	// Homogeneous string arrays come back as []string, matching what the
	// processor stores for fields like key_topics.
	if arr, ok := decoded.([]any); ok {
		strs := make([]string, 0, len(arr))
		for _, item := range arr {
			s, ok := item.(string)
			if !ok {
				return decoded, true
			}
			strs = append(strs, s)
		}
		return strs, true
	}

	return decoded, true
}
