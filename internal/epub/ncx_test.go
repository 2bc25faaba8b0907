package epub

import "testing"

const sampleNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="urn:isbn:1234567890"/>
  </head>
  <docTitle><text>Sample Book</text></docTitle>
  <navMap>
    <navPoint id="np-1" playOrder="1">
      <navLabel><text>Chapter 1</text></navLabel>
      <content src="text/chapter1.xhtml"/>
      <navPoint id="np-1-1" playOrder="2">
        <navLabel><text>Section 1.1</text></navLabel>
        <content src="text/chapter1.xhtml#sec11"/>
      </navPoint>
    </navPoint>
    <navPoint id="np-2" playOrder="3">
      <navLabel><text>Chapter 2</text></navLabel>
      <content src="text/chapter2.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

func TestParseNCX(t *testing.T) {
	points, err := ParseNCX([]byte(sampleNCX))
	if err != nil {
		t.Fatalf("ParseNCX failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("top-level points = %d, want 2", len(points))
	}

	first := points[0]
	if first.ID != "np-1" {
		t.Errorf("ID = %q, want %q", first.ID, "np-1")
	}
	if first.PlayOrder != 1 {
		t.Errorf("PlayOrder = %d, want 1", first.PlayOrder)
	}
	if first.Label != "Chapter 1" {
		t.Errorf("Label = %q, want %q", first.Label, "Chapter 1")
	}
	if first.Src != "text/chapter1.xhtml" {
		t.Errorf("Src = %q, want %q", first.Src, "text/chapter1.xhtml")
	}

	if len(first.Children) != 1 {
		t.Fatalf("children = %d, want 1", len(first.Children))
	}
	child := first.Children[0]
	if child.Label != "Section 1.1" {
		t.Errorf("child Label = %q, want %q", child.Label, "Section 1.1")
	}
	if child.Src != "text/chapter1.xhtml#sec11" {
		t.Errorf("child Src = %q, want %q", child.Src, "text/chapter1.xhtml#sec11")
	}

	if points[1].Label != "Chapter 2" {
		t.Errorf("second Label = %q, want %q", points[1].Label, "Chapter 2")
	}
}

func TestParseNCX_NoNavMap(t *testing.T) {
	_, err := ParseNCX([]byte(`<ncx><head/></ncx>`))
	if err == nil {
		t.Fatal("expected error for NCX without navMap")
	}
}

func TestSplitFragment(t *testing.T) {
	path, frag := SplitFragment("text/ch1.xhtml#sec2")
	if path != "text/ch1.xhtml" || frag != "sec2" {
		t.Errorf("SplitFragment = (%q, %q), want (text/ch1.xhtml, sec2)", path, frag)
	}

	path, frag = SplitFragment("text/ch1.xhtml")
	if path != "text/ch1.xhtml" || frag != "" {
		t.Errorf("SplitFragment = (%q, %q), want (text/ch1.xhtml, \"\")", path, frag)
	}

	path, frag = SplitFragment("")
	if path != "" || frag != "" {
		t.Errorf("SplitFragment(\"\") = (%q, %q), want empty", path, frag)
	}
}
