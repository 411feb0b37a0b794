package names

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"ValveBiped.Bip01_Pelvis", "ValveBiped.Bip01_Pelvis"},
		{"models\\props\\chair", "models_props_chair"},
		{"bone (mirrored)", "bone__mirrored_"},
		{"  spaced  ", "spaced"},
		{"", "unnamed"},
	}
	for _, c := range cases {
		if got := Canonicalize(c.in); got != c.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFileStem(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Models\\Props\\Chair.mdl", "chair"},
		{"models/humans/male_07.mdl", "male_07"},
		{"crate.mdl", "crate"},
		{"barrel", "barrel"},
	}
	for _, c := range cases {
		if got := FileStem(c.in); got != c.want {
			t.Errorf("FileStem(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDedup(t *testing.T) {
	d := NewDedup()
	if got := d.Take("jaw"); got != "jaw" {
		t.Errorf("first Take = %q", got)
	}
	if got := d.Take("jaw"); got != "jaw_2" {
		t.Errorf("second Take = %q, want jaw_2", got)
	}
	if got := d.Take("jaw"); got != "jaw_3" {
		t.Errorf("third Take = %q, want jaw_3", got)
	}
	if !d.Has("jaw_2") {
		t.Error("Has(jaw_2) = false after Take")
	}
}
