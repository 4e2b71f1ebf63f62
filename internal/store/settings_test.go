package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntSetting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{`3`, 3, true},
		{`"4"`, 4, true},
		{`" 5 "`, 5, true},
		{`{"value": 6}`, 6, true},
		{`{"value": "7"}`, 7, true},
		{`2.0`, 2, true},
		{`2.5`, 0, false},
		{`"abc"`, 0, false},
		{`{"other": 1}`, 0, false},
		{`true`, 0, false},
		{`not json`, 0, false},
		{``, 0, false},
	}
	for _, tc := range tests {
		got, ok := ParseIntSetting([]byte(tc.raw))
		assert.Equal(t, tc.wantOK, ok, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}
