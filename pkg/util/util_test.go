package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:                 "0 B",
		512:               "512 B",
		1024:              "1 KB",
		1536:              "1.5 KB",
		3 * 1024 * 1024:   "3 MB",
		200 * 1024 * 1024: "200 MB",
		250 * 1024 * 1024: "250 MB",
		1288490188:        "1.2 GB",
		5 << 40:           "5 TB",
		(5 << 40) * 1024:  "5120 TB",
	}

	for in, want := range tests {
		assert.Equal(t, want, FormatBytes(in), "FormatBytes(%d)", in)
	}
}

func TestRandStr(t *testing.T) {
	a, b := RandStr(10), RandStr(10)

	assert.Len(t, a, 10)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, "^[a-zA-Z0-9]+$", a)
}
