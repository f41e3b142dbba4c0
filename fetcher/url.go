package fetcher

import (
	"fmt"
	"regexp"
)

// Watch, share, embed and shorts URL shapes all carry an 11-char video id.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/v/|youtu\.be/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:embed/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:shorts/)([a-zA-Z0-9_-]{11})`),
}

// ExtractVideoID pulls the video id out of any supported URL shape.
// Returns an empty string when the URL is not recognized.
func ExtractVideoID(rawURL string) string {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// CleanURL canonicalizes a recognized URL to a bare watch URL, dropping
// playlist and tracking parameters. Unrecognized URLs come back unchanged.
func CleanURL(rawURL string) string {
	if id := ExtractVideoID(rawURL); id != "" {
		return fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
	}
	return rawURL
}
