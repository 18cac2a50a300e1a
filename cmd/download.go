package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/losthumanity/TikDownloader/internal/download"
	"github.com/losthumanity/TikDownloader/internal/fetch"
	"github.com/losthumanity/TikDownloader/internal/history"
	"github.com/losthumanity/TikDownloader/internal/media"
	"github.com/losthumanity/TikDownloader/internal/resolve"
	"github.com/losthumanity/TikDownloader/internal/tiktok"
)

// downloadRun is the default command: tikdl <url>
func downloadRun(cmd *cobra.Command, args []string) error {
	rawURL := args[0]
	tier := cfg.Tier()

	resolver := resolve.New(nil)
	resolved, err := resolver.Resolve(cmd.Context(), rawURL, tier)
	if err != nil {
		return err
	}

	// Metadata-only mode
	if flagInfo || flagJSON {
		return printInfo(resolved)
	}

	fetcher := fetch.New()
	payload, err := fetcher.Fetch(cmd.Context(), resolved.URL)
	if err != nil {
		return fmt.Errorf("downloading video: %w", err)
	}

	dir := flagOutput
	if dir == "" {
		dir, err = cfg.ExpandDownloadDir()
		if err != nil {
			return fmt.Errorf("resolving download dir: %w", err)
		}
	}

	outputPath, err := download.Save(payload, resolved.Title, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Downloaded: %s\n", outputPath)

	if cfg.History && !flagNoHistory {
		id, _ := tiktok.ExtractVideoID(rawURL)
		record := media.DownloadRecord{
			ID:       id,
			Title:    resolved.Title,
			Author:   resolved.Author,
			Quality:  resolved.Quality,
			Source:   resolved.Source,
			Size:     payload.Size,
			SavedAt:  time.Now().Unix(),
			FilePath: outputPath,
		}
		if err := history.Save(record); err != nil {
			logrus.WithError(err).Debug("saving history failed")
		}
	}

	return nil
}

// printInfo writes resolved metadata to stdout, as JSON when requested.
func printInfo(resolved *media.ResolvedMedia) error {
	if flagJSON {
		out := map[string]interface{}{
			"title":    resolved.Title,
			"author":   resolved.Author,
			"quality":  resolved.Quality,
			"source":   resolved.Source,
			"duration": resolved.Duration,
			"url":      resolved.URL,
		}
		if resolved.Thumbnail != "" {
			out["thumbnail"] = resolved.Thumbnail
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Title:    %s\n", resolved.Title)
	fmt.Printf("Author:   %s\n", resolved.Author)
	fmt.Printf("Quality:  %s\n", resolved.Quality)
	fmt.Printf("Source:   %s\n", resolved.Source)
	if resolved.Duration > 0 {
		fmt.Printf("Duration: %ds\n", resolved.Duration)
	}
	fmt.Printf("URL:      %s\n", resolved.URL)
	return nil
}
