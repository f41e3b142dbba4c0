package fetcher

import "testing"

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc&index=3", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://example.com/video.mp4", ""},
		{"not a url", ""},
	}

	for _, tc := range cases {
		if got := ExtractVideoID(tc.url); got != tc.want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestCleanURL(t *testing.T) {
	got := CleanURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc")
	want := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if got != want {
		t.Errorf("CleanURL = %q, want %q", got, want)
	}

	// Unrecognized URLs pass through untouched.
	raw := "https://example.com/clip"
	if got := CleanURL(raw); got != raw {
		t.Errorf("CleanURL(%q) = %q", raw, got)
	}
}
