// Package pano keeps a panorama viewer's state in step with a cooperating
// process. State travels as environment variables, read from standard
// input, from the peer's environment or from our own.
package pano

import (
	"fmt"
	"strconv"
	"strings"
)

// Keys of the panorama protocol.
const (
	KeyTexture = "PANORAMA_TEXTURE"
	KeyPointer = "PANORAMA_POINTER"
	KeyXAngle  = "PANORAMA_XANGLE"
	KeyYAngle  = "PANORAMA_YANGLE"
)

// Keys lists the protocol keys in output order.
var Keys = []string{KeyTexture, KeyPointer, KeyXAngle, KeyYAngle}

// ViewState is what the viewer shows.
type ViewState struct {
	Texture string  `json:"texture"`
	Pointer string  `json:"pointer"`
	XAngle  float64 `json:"xangle"`
	YAngle  float64 `json:"yangle"`
}

// StateFrom builds a ViewState from lookup. Missing angles are 0.
func StateFrom(lookup func(name string) (string, bool)) ViewState {
	var st ViewState
	st.Texture, _ = lookup(KeyTexture)
	st.Pointer, _ = lookup(KeyPointer)
	if v, ok := lookup(KeyXAngle); ok {
		st.XAngle = ParseAngle(v)
	}
	if v, ok := lookup(KeyYAngle); ok {
		st.YAngle = ParseAngle(v)
	}
	return st
}

// Lines renders st as KEY=VALUE lines in Keys order.
func (st ViewState) Lines() []string {
	return []string{
		KeyTexture + "=" + st.Texture,
		KeyPointer + "=" + st.Pointer,
		KeyXAngle + "=" + formatAngle(st.XAngle),
		KeyYAngle + "=" + formatAngle(st.YAngle),
	}
}

func (st ViewState) String() string {
	return fmt.Sprintf("texture=%q pointer=%q x=%s y=%s", st.Texture, st.Pointer, formatAngle(st.XAngle), formatAngle(st.YAngle))
}

func formatAngle(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseAngle reads the longest leading decimal number of s, after
// optional white space, the way strtod does. Anything unparsable is 0.
func ParseAngle(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	if v, ok := parseSpecial(s); ok {
		return v
	}
	end := numberPrefix(s)
	if end == 0 {
		return 0
	}
	// out of range yields ±Inf or 0, as strtod does
	v, _ := strconv.ParseFloat(s[:end], 64)
	return v
}

func parseSpecial(s string) (float64, bool) {
	body := s
	if len(body) > 0 && (body[0] == '+' || body[0] == '-') {
		body = body[1:]
	}
	lower := strings.ToLower(body)
	for _, word := range []string{"infinity", "inf", "nan"} {
		if strings.HasPrefix(lower, word) {
			v, _ := strconv.ParseFloat(s[:len(s)-len(body)+len(word)], 64)
			return v, true
		}
	}
	return 0, false
}

// numberPrefix returns the length of the decimal floating point literal
// at the start of s: [sign] digits [. digits] [e [sign] digits].
func numberPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
