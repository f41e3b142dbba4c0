package fetcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"
)

// YTDLP implements Resolver and Fetcher on top of the yt-dlp binary.
type YTDLP struct {
	logger *zap.Logger
}

func NewYTDLP(logger *zap.Logger) *YTDLP {
	return &YTDLP{logger: logger}
}

func (y *YTDLP) Resolve(ctx context.Context, url string) (*Metadata, error) {
	dl := ytdlp.New().
		NoPlaylist().
		SkipDownload().
		DumpJSON()

	result, err := dl.Run(ctx, url)
	if err != nil {
		y.logger.Warn("Resolve failed",
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrResolution, err)
	}

	info, err := firstExtractedInfo(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolution, err)
	}

	meta := &Metadata{
		VideoID:   info.ID,
		Title:     strVal(info.Title),
		Channel:   strVal(info.Channel),
		Thumbnail: strVal(info.Thumbnail),
		Duration:  time.Duration(f64Val(info.Duration)) * time.Second,
	}

	meta.Variants = variantsFromFormats(info.Formats)

	return meta, nil
}

// variantsFromFormats collapses the raw format list into one variant per
// video height, sorted tallest first. Exact sizes win over the estimate a
// format reports when yt-dlp only has filesize_approx.
func variantsFromFormats(formats []*ytdlp.ExtractedFormat) []FormatVariant {
	heights := map[int]int64{}
	for _, f := range formats {
		if f == nil {
			continue
		}
		vcodec := strVal(f.VCodec)
		h := int(f64Val(f.Height))
		if h == 0 || vcodec == "" || vcodec == "none" {
			continue
		}
		size := int64(intVal(f.FileSize))
		if size == 0 {
			size = int64(intVal(f.FileSizeApprox))
		}
		if size > heights[h] || heights[h] == 0 {
			heights[h] = size
		}
	}

	var variants []FormatVariant
	for h, size := range heights {
		variants = append(variants, FormatVariant{
			Label:    fmt.Sprintf("%dp", h),
			Height:   h,
			Ext:      "mp4",
			Filesize: size,
		})
	}
	sort.Slice(variants, func(i, j int) bool {
		return variants[i].Height > variants[j].Height
	})
	return variants
}

func (y *YTDLP) Fetch(ctx context.Context, url string, spec FormatSpec, outputTemplate string, hooks Hooks) (*Result, error) {
	dl := ytdlp.New().
		NoPlaylist().
		ForceOverwrites().
		Format(spec.Selector).
		Output(outputTemplate)

	if spec.MergeOutput != "" {
		dl = dl.MergeOutputFormat(spec.MergeOutput)
	}
	if spec.AudioCodec != "" {
		dl = dl.ExtractAudio().
			AudioFormat(spec.AudioCodec).
			AudioQuality(spec.AudioBitrate)
	}

	transferDone := false
	dl.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
		switch update.Status {
		case ytdlp.ProgressStatusDownloading:
			if hooks.OnProgress != nil {
				hooks.OnProgress(int64(update.DownloadedBytes), int64(update.TotalBytes))
			}
		case ytdlp.ProgressStatusPostProcessing, ytdlp.ProgressStatusFinished:
			if !transferDone {
				transferDone = true
				if hooks.OnTransferComplete != nil {
					hooks.OnTransferComplete()
				}
			}
		}
	})

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, &FetchError{Cause: "yt-dlp run", Err: err}
	}

	info, err := firstExtractedInfo(result)
	if err != nil {
		return nil, &FetchError{Cause: "no extracted info", Err: err}
	}

	staged, err := findStagedOutput(outputTemplate, info)
	if err != nil {
		return nil, &FetchError{Cause: "staged file not found", Err: err}
	}

	return &Result{
		VideoID:    info.ID,
		Title:      strVal(info.Title),
		Duration:   time.Duration(f64Val(info.Duration)) * time.Second,
		StagedPath: staged,
	}, nil
}

// findStagedOutput locates the produced file. The extracted info's filename
// is preferred; when post-processing changed the extension the glob over
// the template's task-id prefix finds the survivor.
func findStagedOutput(outputTemplate string, info *ytdlp.ExtractedInfo) (string, error) {
	if name := strVal(info.Filename); name != "" {
		if matches, _ := filepath.Glob(globEscape(name)); len(matches) == 1 {
			return matches[0], nil
		}
	}

	prefix := outputTemplate
	if i := strings.Index(prefix, "%("); i >= 0 {
		prefix = prefix[:i]
	}
	matches, err := filepath.Glob(globEscape(prefix) + "*")
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no output under %s", prefix)
	}
	return matches[0], nil
}

func globEscape(s string) string {
	r := strings.NewReplacer("*", `\*`, "?", `\?`, "[", `\[`)
	return r.Replace(s)
}

func firstExtractedInfo(result *ytdlp.Result) (*ytdlp.ExtractedInfo, error) {
	info, err := result.GetExtractedInfo()
	if err != nil {
		return nil, err
	}
	if len(info) == 0 {
		return nil, fmt.Errorf("empty extracted info")
	}
	return info[0], nil
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func f64Val(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func intVal(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
