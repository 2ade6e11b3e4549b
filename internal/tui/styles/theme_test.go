package styles

import "testing"

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "#818cf8", want: "#818cf8"},
		{in: "#000000", want: "#000000"},
		{in: "nope", want: "#808080"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Hex(ParseHex(tt.in)); got != tt.want {
				t.Errorf("Hex(ParseHex(%q)) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCurrentTheme(t *testing.T) {
	NewManager()
	th := CurrentTheme()
	if th == nil || th.Name != "siaka" {
		t.Fatalf("CurrentTheme() = %+v", th)
	}
	if th.S() != th.S() {
		t.Error("styles rebuilt on every call")
	}

	custom := NewDefaultTheme()
	custom.Name = "custom"
	SetTheme(custom)
	defer NewManager()
	if CurrentTheme().Name != "custom" {
		t.Error("SetTheme did not replace the theme")
	}
}
