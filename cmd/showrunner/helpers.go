package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"showrunner/internal/store"
)

var titleCaser = cases.Title(language.Und)

// phaseLabel renders a phase name for humans, e.g. "assemble_scenes"
// becomes "Assemble Scenes".
func phaseLabel(phase store.Phase) string {
	return titleCaser.String(strings.ReplaceAll(string(phase), "_", " "))
}

func statusLabel(status store.Status) string {
	return strings.ToUpper(string(status))
}

func formatTimestamp(ts *time.Time) string {
	if ts == nil {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func formatProgress(current, target int) string {
	if target <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", current, target)
}

func parseProjectID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q", arg)
	}
	return id, nil
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func colorizeStatus(status store.Status, colorize bool) string {
	label := statusLabel(status)
	if !colorize {
		return label
	}
	switch status {
	case store.StatusCompleted:
		return ansiGreen + label + ansiReset
	case store.StatusFailed:
		return ansiRed + label + ansiReset
	case store.StatusBlocked:
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
