package state

import (
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

// ValidHexColor accepts #rgb and #rrggbb.
func ValidHexColor(s string) bool {
	return hexColorRe.MatchString(strings.TrimSpace(s))
}

// ParseHexColor converts a hex string to an opaque color. Invalid input gives black.
func ParseHexColor(s string) color.NRGBA {
	black := color.NRGBA{A: 255}
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return black
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// HexColor formats c as #rrggbb, dropping alpha.
func HexColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	const digits = "0123456789abcdef"
	out := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, b := range []uint8{n.R, n.G, n.B} {
		out[1+i*2] = digits[b>>4]
		out[2+i*2] = digits[b&0x0f]
	}
	return string(out)
}
