// Package download persists fetched media payloads to disk. Output paths
// are validated against directory traversal before anything is written.
package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/losthumanity/TikDownloader/internal/httputil"
	"github.com/losthumanity/TikDownloader/internal/media"
)

// maxTitleLength keeps filenames manageable; TikTok descriptions can run
// to hundreds of characters.
const maxTitleLength = 80

// Save writes a payload to outputDir as <title>.mp4 and returns the final
// path.
func Save(payload *media.Payload, title string, outputDir string) (string, error) {
	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	filename := httputil.SanitizeFilename(truncateTitle(title)) + ".mp4"
	outputPath, err := httputil.SafeDownloadPath(absDir, filename)
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}

	if err := os.WriteFile(outputPath, payload.Data, 0644); err != nil {
		// Clean up a partial write on failure
		os.Remove(outputPath)
		return "", fmt.Errorf("writing file: %w", err)
	}

	return outputPath, nil
}

// truncateTitle shortens long descriptions on a space boundary where one
// is near the limit. The cut never splits a multi-byte rune.
func truncateTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "tiktok_video"
	}
	if len(title) <= maxTitleLength {
		return title
	}
	end := maxTitleLength
	for end > 0 && !utf8.RuneStart(title[end]) {
		end--
	}
	cut := title[:end]
	if idx := strings.LastIndexByte(cut, ' '); idx > maxTitleLength/2 {
		cut = cut[:idx]
	}
	return cut
}
