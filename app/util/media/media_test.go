package media

import "testing"

func TestKeyString(t *testing.T) {
	key := Key{Kind: KindMovie, ID: "687a0a4cb6786590054a79e9"}

	if got := key.String(); got != "movie:687a0a4cb6786590054a79e9" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Key
		ok    bool
	}{
		{
			name:  "movie",
			input: "movie:abc123",
			want:  Key{Kind: KindMovie, ID: "abc123"},
			ok:    true,
		},
		{
			name:  "tv",
			input: "tv:def456",
			want:  Key{Kind: KindTV, ID: "def456"},
			ok:    true,
		},
		{
			name:  "unknown kind",
			input: "episode:abc123",
			ok:    false,
		},
		{
			name:  "missing separator",
			input: "movieabc123",
			ok:    false,
		},
		{
			name:  "empty id",
			input: "movie:",
			ok:    false,
		},
		{
			name:  "empty",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseKey(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseKey(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseKey(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseKeyRoundTrip(t *testing.T) {
	keys := []Key{
		{Kind: KindMovie, ID: "687a0a4cb6786590054a79e9"},
		{Kind: KindTV, ID: "x"},
	}

	for _, key := range keys {
		parsed, ok := ParseKey(key.String())
		if !ok || parsed != key {
			t.Errorf("round trip of %+v failed: got %+v, ok=%v", key, parsed, ok)
		}
	}
}

func TestKeyIsZero(t *testing.T) {
	if !(Key{}).IsZero() {
		t.Error("zero key should report IsZero")
	}
	if (Key{Kind: KindMovie, ID: "abc"}).IsZero() {
		t.Error("populated key should not report IsZero")
	}
}
