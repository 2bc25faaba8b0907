package style

import "strconv"

// Value is a resolved style value: a unitless pixel-equivalent number or a
// pass-through string (percentages on sizing properties, keywords, colors).
type Value struct {
	Number   float64
	Text     string
	IsNumber bool
}

// Num wraps a numeric value.
func Num(f float64) Value { return Value{Number: f, IsNumber: true} }

// Str wraps a string value.
func Str(s string) Value { return Value{Text: s} }

func (v Value) String() string {
	if v.IsNumber {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

// Props is a flattened property map for one selector or one node.
type Props map[string]Value

// merge overlays src onto dst, shallow, last write wins.
func (dst Props) merge(src Props) {
	for k, v := range src {
		dst[k] = v
	}
}
