package store

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Settings keys read by the import pipeline.
const (
	SettingImportMaxConcurrent = "import_max_concurrent"
	SettingImportBatchDelay    = "import_batch_delay"
	SettingImportChunkSize     = "import_chunk_size"
)

// SettingsStore holds runtime-tunable integer settings.
type SettingsStore interface {
	// GetInt returns the value stored under key, or fallback when the key is
	// absent or its value is not an integer.
	GetInt(ctx context.Context, key string, fallback int) (int, error)

	// SetInt stores value under key.
	SetInt(ctx context.Context, key string, value int) error
}

// ParseIntSetting decodes a stored setting value. Values are JSON and may be
// a number, a numeric string, or an object of the form {"value": n}.
func ParseIntSetting(raw []byte) (int, bool) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	if obj, ok := v.(map[string]any); ok {
		v = obj["value"]
	}
	switch t := v.(type) {
	case json.Number:
		return parseIntString(t.String())
	case string:
		return parseIntString(strings.TrimSpace(t))
	default:
		return 0, false
	}
}

func parseIntString(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
