package textutil

import "testing"

func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"ascii", "abc", 3},
		{"wide cjk", "你好", 4},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayWidth(tt.text); got != tt.want {
				t.Fatalf("DisplayWidth(%q)=%d want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestExpandTabs(t *testing.T) {
	if got := ExpandTabs("a\tb", 4); got != "a   b" {
		t.Fatalf("ExpandTabs = %q", got)
	}
	if got := ExpandTabs("\t\tx", 2); got != "    x" {
		t.Fatalf("ExpandTabs nested = %q", got)
	}
	if got := ExpandTabs("none", 4); got != "none" {
		t.Fatalf("ExpandTabs without tabs = %q", got)
	}
}
