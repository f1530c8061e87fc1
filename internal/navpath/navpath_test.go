package navpath

import "testing"

func TestEncodeRoot(t *testing.T) {
	if got := Encode(Root()); got != "/" {
		t.Fatalf("root encode mismatch: %s", got)
	}
	if got := Root().Location(); got != "#/" {
		t.Fatalf("root location mismatch: %s", got)
	}
}

func TestEncodeEscapesSegments(t *testing.T) {
	p := Path{"living room", "a&b", "100%"}
	want := "/living%20room/a%26b/100%25"
	if got := Encode(p); got != want {
		t.Fatalf("encode mismatch: got %s want %s", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []Path{
		{},
		{"livingroom"},
		{"livingroom", "lamp"},
		{"a b", "c+d", "e?f", "g#h", "ünï", "%2F"},
		{"dup", "dup"},
	}
	for _, p := range cases {
		got := Decode(Encode(p))
		if !got.Equal(p) {
			t.Fatalf("round trip mismatch: %q -> %q", p, got)
		}
		loc := ParseLocation(p.Location())
		if !loc.Equal(p) {
			t.Fatalf("location round trip mismatch: %q -> %q", p, loc)
		}
	}
}

func TestDecodeDegradesToRoot(t *testing.T) {
	for _, token := range []string{"", "foo", "#foo", "#/%zz", "/bad%", "?x=1"} {
		if got := Decode(token); !got.IsRoot() {
			t.Fatalf("expected root for %q, got %q", token, got)
		}
	}
	if got := ParseLocation("/a/b"); !got.IsRoot() {
		t.Fatalf("location without marker should be root, got %q", got)
	}
}

func TestDecodeSkipsEmptySegments(t *testing.T) {
	got := Decode("#/a//b/")
	if !got.Equal(Path{"a", "b"}) {
		t.Fatalf("unexpected segments: %q", got)
	}
}

func TestChildDoesNotAlias(t *testing.T) {
	base := make(Path, 1, 4)
	base[0] = "a"
	x := base.Child("x")
	y := base.Child("y")
	if x[1] != "x" || y[1] != "y" {
		t.Fatalf("child paths alias each other: %q %q", x, y)
	}
	if !base.Equal(Path{"a"}) {
		t.Fatalf("base mutated: %q", base)
	}
	if !x.Parent().Equal(base) {
		t.Fatalf("parent mismatch: %q", x.Parent())
	}
}
