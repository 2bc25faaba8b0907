package style

import (
	"regexp"
	"strconv"
	"strings"
)

// propertyMap is the fixed CSS → target-style-property table. Properties
// missing from it are dropped during resolution.
var propertyMap = map[string]string{
	// text
	"color":                "color",
	"font-size":            "fontSize",
	"font-family":          "fontFamily",
	"font-weight":          "fontWeight",
	"font-style":           "fontStyle",
	"line-height":          "lineHeight",
	"letter-spacing":       "letterSpacing",
	"text-align":           "textAlign",
	"text-decoration":      "textDecoration",
	"text-decoration-line": "textDecoration",
	"text-transform":       "textTransform",
	"text-indent":          "textIndent",

	// box
	"margin":         "margin",
	"margin-top":     "marginTop",
	"margin-right":   "marginRight",
	"margin-bottom":  "marginBottom",
	"margin-left":    "marginLeft",
	"padding":        "padding",
	"padding-top":    "paddingTop",
	"padding-right":  "paddingRight",
	"padding-bottom": "paddingBottom",
	"padding-left":   "paddingLeft",
	"width":          "width",
	"height":         "height",
	"max-width":      "maxWidth",
	"max-height":     "maxHeight",
	"min-width":      "minWidth",
	"min-height":     "minHeight",
	"opacity":        "opacity",

	// flex
	"display":         "display",
	"flex":            "flex",
	"flex-direction":  "flexDirection",
	"flex-wrap":       "flexWrap",
	"align-items":     "alignItems",
	"justify-content": "justifyContent",

	// border
	"border-width":  "borderWidth",
	"border-color":  "borderColor",
	"border-style":  "borderStyle",
	"border-radius": "borderRadius",

	// background
	"background-color": "backgroundColor",
	"background":       "backgroundColor",

	// position
	"position": "position",
	"top":      "top",
	"right":    "right",
	"bottom":   "bottom",
	"left":     "left",
	"z-index":  "zIndex",
}

// percentKeepProps keep percentage values as literal strings; everywhere
// else a percentage becomes a ratio.
var percentKeepProps = map[string]bool{
	"width":     true,
	"height":    true,
	"maxWidth":  true,
	"maxHeight": true,
	"minWidth":  true,
	"minHeight": true,
}

// unitFactors convert absolute length units to a unitless pixel-equivalent.
var unitFactors = map[string]float64{
	"px":  1,
	"pt":  1.333,
	"em":  16,
	"rem": 16,
	"cm":  37.8,
	"mm":  3.78,
	"in":  96,
	"pc":  16,
}

var fontWeightNames = map[string]string{
	"normal":  "400",
	"bold":    "700",
	"bolder":  "800",
	"lighter": "300",
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 9,
	"x-small":  10,
	"small":    13,
	"medium":   16,
	"large":    18,
	"x-large":  24,
	"xx-large": 32,
}

var lengthRe = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)(px|pt|em|rem|cm|mm|in|pc|%)$`)

// sideNames expands a shorthand property name into its four directionals.
var sideNames = [4]string{"Top", "Right", "Bottom", "Left"}

// resolveDecl maps one CSS declaration to zero or more target properties
// with converted values. Unknown properties produce nothing.
func resolveDecl(cssProp, raw string) Props {
	target, ok := propertyMap[cssProp]
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "!important", ""))
	if raw == "" {
		return nil
	}

	switch target {
	case "margin", "padding":
		return expandShorthand(target, raw)
	case "fontWeight":
		return Props{target: convertFontWeight(raw)}
	case "fontSize":
		return Props{target: convertFontSize(raw)}
	case "display":
		return convertDisplay(raw)
	case "textDecoration":
		return Props{target: Str(reduceTextDecoration(raw))}
	case "fontFamily":
		return Props{target: Str(firstFontName(raw))}
	case "lineHeight":
		return Props{target: convertLineHeight(raw)}
	}
	return Props{target: convertValue(target, raw)}
}

// expandShorthand applies CSS box shorthand semantics to margin/padding:
// 1 value = all sides, 2 = vertical/horizontal, 3 = top/horizontal/bottom,
// 4 = top/right/bottom/left. `auto` stays verbatim.
func expandShorthand(base, raw string) Props {
	fields := strings.Fields(raw)
	if len(fields) == 0 || len(fields) > 4 {
		return nil
	}
	var top, right, bottom, left string
	switch len(fields) {
	case 1:
		top, right, bottom, left = fields[0], fields[0], fields[0], fields[0]
	case 2:
		top, bottom = fields[0], fields[0]
		right, left = fields[1], fields[1]
	case 3:
		top = fields[0]
		right, left = fields[1], fields[1]
		bottom = fields[2]
	case 4:
		top, right, bottom, left = fields[0], fields[1], fields[2], fields[3]
	}
	out := make(Props, 4)
	for i, v := range [4]string{top, right, bottom, left} {
		prop := base + sideNames[i]
		if v == "auto" {
			out[prop] = Str("auto")
		} else {
			out[prop] = convertValue(prop, v)
		}
	}
	return out
}

// convertValue applies the general value conversion ladder: absolute length
// units to pixel-equivalents, unitless numerics parsed directly,
// percentages kept literal on sizing properties and divided by 100
// elsewhere. Anything unconvertible passes through as a string.
func convertValue(target, raw string) Value {
	if m := lengthRe.FindStringSubmatch(raw); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Str(raw)
		}
		if m[2] == "%" {
			if percentKeepProps[target] {
				return Str(raw)
			}
			return Num(n / 100)
		}
		return Num(n * unitFactors[m[2]])
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return Num(n)
	}
	return Str(raw)
}

func convertFontWeight(raw string) Value {
	if mapped, ok := fontWeightNames[strings.ToLower(raw)]; ok {
		return Str(mapped)
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return Str(raw)
	}
	return Str(raw)
}

func convertFontSize(raw string) Value {
	if px, ok := fontSizeKeywords[strings.ToLower(raw)]; ok {
		return Num(px)
	}
	return convertValue("fontSize", raw)
}

// convertDisplay maps block-like displays to their flex equivalent, passes
// flex and none through, and drops everything else.
func convertDisplay(raw string) Props {
	switch strings.ToLower(raw) {
	case "block", "inline-block":
		return Props{"display": Str("flex")}
	case "flex", "none":
		return Props{"display": Str(strings.ToLower(raw))}
	}
	return nil
}

// reduceTextDecoration collapses a decoration value list to one of
// line-through, underline, or none.
func reduceTextDecoration(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "line-through"):
		return "line-through"
	case strings.Contains(lower, "underline"):
		return "underline"
	}
	return "none"
}

// firstFontName keeps only the first comma-separated, unquoted family name.
func firstFontName(raw string) string {
	name, _, _ := strings.Cut(raw, ",")
	return strings.Trim(strings.TrimSpace(name), `"'`)
}

// convertLineHeight normalizes line-height to a unitless ratio against the
// 16px base: `normal` is 1.2, unitless numbers pass through, unit-bearing
// values scale down.
func convertLineHeight(raw string) Value {
	if strings.EqualFold(raw, "normal") {
		return Num(1.2)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return Num(n)
	}
	if m := lengthRe.FindStringSubmatch(raw); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Str(raw)
		}
		if m[2] == "%" {
			return Num(n / 100)
		}
		return Num(n * unitFactors[m[2]] / 16)
	}
	return Str(raw)
}
