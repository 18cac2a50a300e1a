// Package history manages the local download log in TSV format.
// Uses atomic writes (temp+rename) to prevent data corruption.
package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/losthumanity/TikDownloader/internal/config"
	"github.com/losthumanity/TikDownloader/internal/media"
)

// TSV columns: id, title, author, quality, source, size, saved_at, file_path
const numColumns = 8

// Load reads the download log and returns all records.
func Load() ([]media.DownloadRecord, error) {
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening history: %w", err)
	}
	defer f.Close()

	var records []media.DownloadRecord
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		record, err := parseLine(line)
		if err != nil {
			continue // Skip malformed lines
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	return records, nil
}

// Save writes or updates a record in the download log.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func Save(record media.DownloadRecord) error {
	path, err := config.HistoryPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	// Load existing records
	records, _ := Load()

	// Re-downloading the same video replaces its record
	found := false
	for i, r := range records {
		if r.ID == record.ID {
			records[i] = record
			found = true
			break
		}
	}
	if !found {
		records = append(records, record)
	}

	return writeAll(path, records)
}

// Clear removes the entire download log.
func Clear() error {
	path, err := config.HistoryPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing history: %w", err)
	}
	return nil
}

// writeAll replaces the log atomically: temp file + rename.
func writeAll(path string, records []media.DownloadRecord) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "history-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	writer := bufio.NewWriter(tmpFile)
	for _, r := range records {
		if _, err := writer.WriteString(formatLine(r) + "\n"); err != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("writing history: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flushing history: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming history file: %w", err)
	}

	return nil
}

// FormatForDisplay creates display strings for the history listing,
// newest first.
func FormatForDisplay(records []media.DownloadRecord) []string {
	return lo.Map(lo.Reverse(records), func(r media.DownloadRecord, _ int) string {
		when := time.Unix(r.SavedAt, 0).Format("2006-01-02 15:04")
		return fmt.Sprintf("%s  %s by %s [%s, %.1f MB]", when, r.Title, r.Author, r.Quality, float64(r.Size)/(1<<20))
	})
}

// formatLine serializes a record as a TSV line. Tabs and newlines inside
// titles would corrupt the format, so they are flattened to spaces.
func formatLine(r media.DownloadRecord) string {
	clean := func(s string) string {
		return strings.Join(strings.FieldsFunc(s, func(c rune) bool {
			return c == '\t' || c == '\n' || c == '\r'
		}), " ")
	}
	return strings.Join([]string{
		clean(r.ID),
		clean(r.Title),
		clean(r.Author),
		clean(r.Quality),
		clean(r.Source),
		strconv.FormatInt(r.Size, 10),
		strconv.FormatInt(r.SavedAt, 10),
		clean(r.FilePath),
	}, "\t")
}

// parseLine parses a TSV line into a DownloadRecord.
func parseLine(line string) (media.DownloadRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < numColumns {
		return media.DownloadRecord{}, fmt.Errorf("expected %d columns, got %d", numColumns, len(fields))
	}

	size, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil {
		return media.DownloadRecord{}, fmt.Errorf("parsing size: %w", err)
	}
	savedAt, err := strconv.ParseInt(fields[6], 10, 64)
	if err != nil {
		return media.DownloadRecord{}, fmt.Errorf("parsing timestamp: %w", err)
	}

	return media.DownloadRecord{
		ID:       fields[0],
		Title:    fields[1],
		Author:   fields[2],
		Quality:  fields[3],
		Source:   fields[4],
		Size:     size,
		SavedAt:  savedAt,
		FilePath: fields[7],
	}, nil
}
