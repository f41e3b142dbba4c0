package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const maxTitleLen = 50

// Areas groups the two on-disk storage classes: staging holds in-flight
// transfers named with a task-id prefix, retained holds finished artifacts
// until the collector reclaims them.
type Areas struct {
	StagingDir  string
	RetainedDir string
}

func NewAreas(stagingDir, retainedDir string) (*Areas, error) {
	for _, dir := range []string{stagingDir, retainedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return &Areas{StagingDir: stagingDir, RetainedDir: retainedDir}, nil
}

// StagingTemplate returns the fetcher output template for a task. The
// task-id prefix is what ties staged files back to their owner.
func (a *Areas) StagingTemplate(taskID string) string {
	return filepath.Join(a.StagingDir, taskID+"_%(title)s.%(ext)s")
}

// FinalFilename is the canonical retained name: {id}_{sanitized title}.{ext}.
func FinalFilename(taskID, title, ext string) string {
	return fmt.Sprintf("%s_%s.%s", taskID, SanitizeTitle(title), ext)
}

// SanitizeTitle strips everything except word characters, spaces and
// hyphens, then truncates to a bounded length.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ' ' || r == '-' {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	runes := []rune(out)
	if len(runes) > maxTitleLen {
		out = string(runes[:maxTitleLen])
	}
	if out == "" {
		out = "media"
	}
	return out
}

// Commit moves a staged file into the retained area under finalName and
// removes any other staging leftovers sharing the task-id prefix (partial
// outputs of multi-step fetches). Returns the retained path.
func (a *Areas) Commit(taskID, stagedPath, finalName string) (string, error) {
	finalPath := filepath.Join(a.RetainedDir, finalName)

	if err := os.Rename(stagedPath, finalPath); err != nil {
		return "", fmt.Errorf("move staged file: %w", err)
	}

	if err := a.DiscardStaging(taskID); err != nil {
		return finalPath, err
	}
	return finalPath, nil
}

// DiscardStaging removes every staging file owned by the task. Used both
// by Commit and on task failure, so aborted transfers leave nothing behind.
func (a *Areas) DiscardStaging(taskID string) error {
	matches, err := filepath.Glob(filepath.Join(a.StagingDir, taskID+"_*"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove staging leftover %s: %w", m, err)
		}
	}
	return nil
}

// FindStaged returns the staging files owned by the task, if any.
func (a *Areas) FindStaged(taskID string) ([]string, error) {
	return filepath.Glob(filepath.Join(a.StagingDir, taskID+"_*"))
}
