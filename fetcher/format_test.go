package fetcher

import (
	"strings"
	"testing"
)

func TestSpecFor_VideoAudio(t *testing.T) {
	spec, err := SpecFor(KindVideoAudio, "720p")
	if err != nil {
		t.Fatalf("SpecFor: %v", err)
	}
	if spec.Selector != "bestvideo[height<=720]+bestaudio/best[height<=720]/best" {
		t.Errorf("selector = %q", spec.Selector)
	}
	if spec.MergeOutput != "mp4" || spec.FinalExt != "mp4" {
		t.Errorf("merge=%q ext=%q, want mp4/mp4", spec.MergeOutput, spec.FinalExt)
	}
	if spec.AudioCodec != "" {
		t.Errorf("unexpected audio re-encode for merged download")
	}
}

func TestSpecFor_VideoAudioBest(t *testing.T) {
	for _, quality := range []string{"", "best"} {
		spec, err := SpecFor(KindVideoAudio, quality)
		if err != nil {
			t.Fatalf("SpecFor(%q): %v", quality, err)
		}
		if spec.Selector != "bestvideo+bestaudio/best" {
			t.Errorf("quality %q selector = %q", quality, spec.Selector)
		}
	}
}

func TestSpecFor_VideoOnly(t *testing.T) {
	spec, err := SpecFor(KindVideoOnly, "1080p")
	if err != nil {
		t.Fatalf("SpecFor: %v", err)
	}
	if spec.Selector != "bestvideo[height<=1080]/bestvideo/best" {
		t.Errorf("selector = %q", spec.Selector)
	}
	if spec.MergeOutput != "" {
		t.Errorf("video-only download should not merge")
	}
	if spec.FinalExt != "mp4" {
		t.Errorf("ext = %q, want mp4", spec.FinalExt)
	}
}

func TestSpecFor_Audio(t *testing.T) {
	mp3, err := SpecFor(KindAudioMP3, "best")
	if err != nil {
		t.Fatalf("SpecFor mp3: %v", err)
	}
	if mp3.AudioCodec != "mp3" || mp3.AudioBitrate != "320" || mp3.FinalExt != "mp3" {
		t.Errorf("mp3 spec = %+v", mp3)
	}

	m4a, err := SpecFor(KindAudioM4A, "")
	if err != nil {
		t.Fatalf("SpecFor m4a: %v", err)
	}
	if m4a.AudioCodec != "m4a" || m4a.AudioBitrate != "256" || m4a.FinalExt != "m4a" {
		t.Errorf("m4a spec = %+v", m4a)
	}
	if !strings.Contains(m4a.Selector, "bestaudio[ext=m4a]") {
		t.Errorf("m4a selector = %q", m4a.Selector)
	}
}

func TestSpecFor_EmptyKindDefaultsToMerged(t *testing.T) {
	spec, err := SpecFor("", "")
	if err != nil {
		t.Fatalf("SpecFor: %v", err)
	}
	if spec.Kind != KindVideoAudio {
		t.Errorf("kind = %q, want %q", spec.Kind, KindVideoAudio)
	}
}

func TestSpecFor_Invalid(t *testing.T) {
	if _, err := SpecFor("audio_flac", "best"); err == nil {
		t.Errorf("unknown kind accepted")
	}
	if _, err := SpecFor(KindVideoAudio, "ultra"); err == nil {
		t.Errorf("unknown quality label accepted")
	}
}

func TestDescriptor(t *testing.T) {
	spec, _ := SpecFor(KindVideoAudio, "720p")
	if got := spec.Descriptor("720p"); got != "720p_video+audio" {
		t.Errorf("Descriptor = %q", got)
	}
	if got := spec.Descriptor(""); got != "best_video+audio" {
		t.Errorf("Descriptor empty quality = %q", got)
	}
}
