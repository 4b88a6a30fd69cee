package categories

import "testing"

func TestCanonicalCategory(t *testing.T) {
	r := NewResolver(nil)
	cases := []struct {
		in   string
		want string
	}{
		{"jedzenie", "zakupy"},
		{"Jedzenie", "zakupy"},
		{"  opłaty  ", "rachunki"},
		{"zakupy", "zakupy"},
		{"nowa kategoria", "nowa kategoria"},
	}
	for _, tc := range cases {
		if got := r.CanonicalCategory(tc.in); got != tc.want {
			t.Fatalf("CanonicalCategory(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalSubcategory(t *testing.T) {
	r := NewResolver(nil)
	if got := r.CanonicalSubcategory("jedzenie"); got != "spożywcze" {
		t.Fatalf("got %q", got)
	}
	if got := r.CanonicalSubcategory("coś innego"); got != "coś innego" {
		t.Fatalf("unknown labels must pass through, got %q", got)
	}
}
