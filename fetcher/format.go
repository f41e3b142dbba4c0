package fetcher

import (
	"fmt"
	"strconv"
	"strings"
)

// The four request kinds a submission may ask for.
const (
	KindVideoAudio = "video+audio"
	KindVideoOnly  = "video"
	KindAudioMP3   = "audio_mp3"
	KindAudioM4A   = "audio_m4a"
)

// FormatSpec is the fetch specification a request kind expands to. It
// determines the yt-dlp selector, whether a merge or audio re-encode step
// runs, and the deterministic final extension.
type FormatSpec struct {
	Kind         string
	Selector     string
	MergeOutput  string
	AudioCodec   string
	AudioBitrate string
	FinalExt     string
}

// Descriptor is the opaque quality+format summary stored on the record.
func (s FormatSpec) Descriptor(quality string) string {
	if quality == "" {
		quality = "best"
	}
	return fmt.Sprintf("%s_%s", quality, s.Kind)
}

// SpecFor expands a request kind and quality label ("720p", "best", "")
// into a FormatSpec.
func SpecFor(kind, quality string) (FormatSpec, error) {
	height, err := parseHeight(quality)
	if err != nil {
		return FormatSpec{}, err
	}

	switch kind {
	case KindAudioMP3:
		return FormatSpec{
			Kind:         kind,
			Selector:     "bestaudio/best",
			AudioCodec:   "mp3",
			AudioBitrate: "320",
			FinalExt:     "mp3",
		}, nil
	case KindAudioM4A:
		return FormatSpec{
			Kind:         kind,
			Selector:     "bestaudio[ext=m4a]/bestaudio/best",
			AudioCodec:   "m4a",
			AudioBitrate: "256",
			FinalExt:     "m4a",
		}, nil
	case KindVideoOnly:
		selector := "bestvideo/best"
		if height > 0 {
			selector = fmt.Sprintf("bestvideo[height<=%d]/bestvideo/best", height)
		}
		return FormatSpec{
			Kind:     kind,
			Selector: selector,
			FinalExt: "mp4",
		}, nil
	case KindVideoAudio, "":
		selector := "bestvideo+bestaudio/best"
		if height > 0 {
			selector = fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]/best", height, height)
		}
		return FormatSpec{
			Kind:        KindVideoAudio,
			Selector:    selector,
			MergeOutput: "mp4",
			FinalExt:    "mp4",
		}, nil
	default:
		return FormatSpec{}, fmt.Errorf("unknown format kind %q", kind)
	}
}

func parseHeight(quality string) (int, error) {
	if quality == "" || quality == "best" {
		return 0, nil
	}
	h, err := strconv.Atoi(strings.TrimSuffix(quality, "p"))
	if err != nil {
		return 0, fmt.Errorf("unknown quality label %q", quality)
	}
	return h, nil
}
