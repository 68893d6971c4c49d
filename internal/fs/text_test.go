package fs

import "testing"

func TestIsTextFileDetectsUTF16LE(t *testing.T) {
	content := []byte{0xFF, 0xFE, 0x41, 0x00, 0x0D, 0x00, 0x0A, 0x00}
	if !IsTextFile(content) {
		t.Fatalf("expected UTF-16 LE content to be treated as text")
	}
}

func TestIsTextFileRejectsNULBytes(t *testing.T) {
	if IsTextFile([]byte{'E', 'L', 'F', 0x00, 0x01, 0x02}) {
		t.Fatalf("expected NUL-bearing content to be binary")
	}
}

func TestNormalizeTextContentUTF16LE(t *testing.T) {
	content := []byte{0xFF, 0xFE, 0x41, 0x00, 0x0D, 0x00, 0x0A, 0x00}
	got := NormalizeTextContent(content)
	want := "A\r\n"
	if got != want {
		t.Fatalf("NormalizeTextContent returned %q, want %q", got, want)
	}
}

func TestNormalizeTextContentStripsUTF8BOM(t *testing.T) {
	got := NormalizeTextContent([]byte{0xEF, 0xBB, 0xBF, 'h', 'i'})
	if got != "hi" {
		t.Fatalf("NormalizeTextContent returned %q, want %q", got, "hi")
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		text    bool
	}{
		{name: "plain ascii", content: []byte("hello world\n"), text: true},
		{name: "empty", content: nil, text: true},
		{name: "png header", content: []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}, text: false},
		{name: "json", content: []byte(`{"a": 1}`), text: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sniff(tt.content)
			if got.Text != tt.text {
				t.Fatalf("Sniff(%q).Text = %v (mime %s), want %v", tt.content, got.Text, got.MIME, tt.text)
			}
			if got.MIME == "" {
				t.Fatalf("expected a MIME label")
			}
		})
	}
}
