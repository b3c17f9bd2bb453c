package util

import (
	"math"
	"strconv"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders n with 1024 based units and at most two decimals,
// e.g. 262144000 -> "250 MB"
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}

	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	i = min(i, len(byteUnits)-1)

	v := float64(n) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100

	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}
