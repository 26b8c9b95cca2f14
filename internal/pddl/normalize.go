package pddl

import (
	"strings"
)

var umlautReplacer = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
	"ß", "ss",
)

// NormalizeUmlauts transliterates German umlauts and sharp s to ASCII.
func NormalizeUmlauts(data []byte) []byte {
	return []byte(umlautReplacer.Replace(string(data)))
}

// nonASCII returns up to limit offsets of bytes above 127 and their total.
func nonASCII(data []byte, limit int) ([]int, int) {
	var offsets []int
	total := 0
	for i, b := range data {
		if b <= 127 {
			continue
		}
		total++
		if len(offsets) < limit {
			offsets = append(offsets, i)
		}
	}
	return offsets, total
}
