package style

import (
	"math"
	"testing"
)

func addCSS(t *testing.T, r *Resolver, path, css string) {
	t.Helper()
	r.AddSheet(Sheet{Path: path, Text: css})
}

func wantNum(t *testing.T, props Props, key string, want float64) {
	t.Helper()
	v, ok := props[key]
	if !ok {
		t.Fatalf("property %q missing from %v", key, props)
	}
	if !v.IsNumber {
		t.Fatalf("property %q = %q, want number %v", key, v.Text, want)
	}
	if math.Abs(v.Number-want) > 1e-9 {
		t.Errorf("property %q = %v, want %v", key, v.Number, want)
	}
}

func wantStr(t *testing.T, props Props, key, want string) {
	t.Helper()
	v, ok := props[key]
	if !ok {
		t.Fatalf("property %q missing from %v", key, props)
	}
	if v.IsNumber {
		t.Fatalf("property %q = %v, want string %q", key, v.Number, want)
	}
	if v.Text != want {
		t.Errorf("property %q = %q, want %q", key, v.Text, want)
	}
}

func TestMarginShorthandFourValues(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `p { margin: 1px 2px 3px 4px; }`)

	props := r.Rules()["p"]
	wantNum(t, props, "marginTop", 1)
	wantNum(t, props, "marginRight", 2)
	wantNum(t, props, "marginBottom", 3)
	wantNum(t, props, "marginLeft", 4)
}

func TestPaddingShorthandOneValue(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `div { padding: 10px; }`)

	props := r.Rules()["div"]
	for _, side := range []string{"paddingTop", "paddingRight", "paddingBottom", "paddingLeft"} {
		wantNum(t, props, side, 10)
	}
}

func TestShorthandTwoAndThreeValues(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `.two { margin: 5px 8px; } .three { margin: 1px 2px 3px; }`)

	two := r.Rules()[".two"]
	wantNum(t, two, "marginTop", 5)
	wantNum(t, two, "marginBottom", 5)
	wantNum(t, two, "marginLeft", 8)
	wantNum(t, two, "marginRight", 8)

	three := r.Rules()[".three"]
	wantNum(t, three, "marginTop", 1)
	wantNum(t, three, "marginRight", 2)
	wantNum(t, three, "marginLeft", 2)
	wantNum(t, three, "marginBottom", 3)
}

func TestShorthandAutoPreserved(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `div { margin: 0 auto; }`)

	props := r.Rules()["div"]
	wantNum(t, props, "marginTop", 0)
	wantStr(t, props, "marginLeft", "auto")
	wantStr(t, props, "marginRight", "auto")
}

func TestUnitConversion(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `p {
		font-size: 1em;
		letter-spacing: 2pt;
		text-indent: 1in;
		margin-top: 2cm;
		margin-bottom: 10mm;
	}`)

	props := r.Rules()["p"]
	wantNum(t, props, "fontSize", 16)
	wantNum(t, props, "letterSpacing", 2.666)
	wantNum(t, props, "textIndent", 96)
	wantNum(t, props, "marginTop", 75.6)
	wantNum(t, props, "marginBottom", 37.8)
}

func TestPercentages(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `img { width: 50%; opacity: 50%; }`)

	props := r.Rules()["img"]
	wantStr(t, props, "width", "50%")
	wantNum(t, props, "opacity", 0.5)
}

func TestImportantStripped(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `p { font-size: 12px !important; }`)
	wantNum(t, r.Rules()["p"], "fontSize", 12)
}

func TestFontWeightNames(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `b { font-weight: bold; } i { font-weight: normal; }`)
	wantStr(t, r.Rules()["b"], "fontWeight", "700")
	wantStr(t, r.Rules()["i"], "fontWeight", "400")
}

func TestFontSizeKeywords(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `small { font-size: x-small; } h1 { font-size: xx-large; }`)
	wantNum(t, r.Rules()["small"], "fontSize", 10)
	wantNum(t, r.Rules()["h1"], "fontSize", 32)
}

func TestDisplayMapping(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css",
		`.a { display: block; } .b { display: inline-block; } .c { display: none; } .d { display: table-cell; }`)

	wantStr(t, r.Rules()[".a"], "display", "flex")
	wantStr(t, r.Rules()[".b"], "display", "flex")
	wantStr(t, r.Rules()[".c"], "display", "none")
	if _, ok := r.Rules()[".d"]; ok {
		t.Error("unsupported display value should drop the whole declaration")
	}
}

func TestTextDecorationReduced(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css",
		`.s { text-decoration: line-through underline; } .u { text-decoration: underline dotted; } .n { text-decoration: blink; }`)

	wantStr(t, r.Rules()[".s"], "textDecoration", "line-through")
	wantStr(t, r.Rules()[".u"], "textDecoration", "underline")
	wantStr(t, r.Rules()[".n"], "textDecoration", "none")
}

func TestFontFamilyFirstName(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `body { font-family: "Noto Serif", Georgia, serif; }`)
	wantStr(t, r.Rules()["body"], "fontFamily", "Noto Serif")
}

func TestLineHeight(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css",
		`.a { line-height: normal; } .b { line-height: 1.5; } .c { line-height: 24px; } .d { line-height: 150%; }`)

	wantNum(t, r.Rules()[".a"], "lineHeight", 1.2)
	wantNum(t, r.Rules()[".b"], "lineHeight", 1.5)
	wantNum(t, r.Rules()[".c"], "lineHeight", 1.5)
	wantNum(t, r.Rules()[".d"], "lineHeight", 1.5)
}

func TestSelectorNormalization(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `
		div.note p:first-child { color: red; }
		a[href]:hover { color: blue; }
		#intro.fancy { color: green; }
		H2 { color: black; }
	`)

	rules := r.Rules()
	if _, ok := rules["p"]; !ok {
		t.Error("descendant chain should keep only the last simple selector (p)")
	}
	if _, ok := rules["a"]; !ok {
		t.Error("attribute and pseudo selectors should strip to the bare tag (a)")
	}
	if _, ok := rules["#intro"]; !ok {
		t.Error("id beats class inside one compound selector")
	}
	if _, ok := rules["h2"]; !ok {
		t.Error("tag selectors are lowercased")
	}
}

func TestSelectorListSplit(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `h1, .headline, #main-title { font-weight: bold; }`)

	rules := r.Rules()
	for _, key := range []string{"h1", ".headline", "#main-title"} {
		if _, ok := rules[key]; !ok {
			t.Errorf("selector %q missing after list split", key)
		}
	}
}

func TestLastRuleWinsWithinKey(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `p { color: red; font-size: 10px; }`)
	addCSS(t, r, "b.css", `p { color: blue; }`)

	props := r.Rules()["p"]
	wantStr(t, props, "color", "blue")
	wantNum(t, props, "fontSize", 10)
}

func TestSheetDeduplicationByPath(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "same.css", `p { color: red; }`)
	addCSS(t, r, "same.css", `p { color: blue; }`)

	wantStr(t, r.Rules()["p"], "color", "red")
}

func TestAtRulesSkipped(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `
		@media print { p { color: black; } }
		@font-face { font-family: X; src: url(x.woff); }
		p { color: red; }
	`)

	wantStr(t, r.Rules()["p"], "color", "red")
}

func TestCommentsStripped(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `/* heading */ h1 { /* inline */ color: red; }`)
	wantStr(t, r.Rules()["h1"], "color", "red")
}

func TestResolvePrecedence(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `
		p { color: black; font-size: 14px; }
		.note { color: gray; }
		#warn { color: red; }
	`)

	// tag only
	wantStr(t, r.Resolve("p", "", "", nil), "color", "black")
	// class beats tag
	wantStr(t, r.Resolve("p", "note", "", nil), "color", "gray")
	// id beats class
	wantStr(t, r.Resolve("p", "note", "warn", nil), "color", "red")
	// inline beats id
	inline := ParseInline("color: white")
	wantStr(t, r.Resolve("p", "note", "warn", inline), "color", "white")

	// Lower-precedence properties still shine through.
	wantNum(t, r.Resolve("p", "note", "warn", inline), "fontSize", 14)
}

func TestUnmappedPropertyDropped(t *testing.T) {
	r := NewResolver(nil)
	addCSS(t, r, "a.css", `p { cursor: pointer; color: red; }`)

	props := r.Rules()["p"]
	if _, ok := props["cursor"]; ok {
		t.Error("unmapped property survived resolution")
	}
	wantStr(t, props, "color", "red")
}
