package store

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// EntityType identifies which fixed phase sequence an entry follows.
type EntityType string

const (
	EntityCharacter EntityType = "character"
	EntityProject   EntityType = "project"
)

// ParseEntityType converts a string into a known EntityType.
func ParseEntityType(value string) (EntityType, bool) {
	normalized := EntityType(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case EntityCharacter, EntityProject:
		return normalized, true
	}
	return "", false
}

// Status represents the lifecycle of a pipeline entry.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusBlocked   Status = "blocked"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusActive,
	StatusBlocked,
	StatusCompleted,
	StatusSkipped,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permanently excludes an entry from
// automatic evaluation. Failed entries are not terminal: the next tick
// re-evaluates them.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// BlockedReasonCharacters is the fixed reason set on project entries while
// sibling characters are still mid-pipeline.
const BlockedReasonCharacters = "waiting for character pipelines to complete"

// Entry represents one entity's progress through one phase, persisted in
// SQLite. The (EntityType, EntityID, Phase) triple is unique.
type Entry struct {
	ID              int64
	EntityType      EntityType
	EntityID        int64
	ProjectID       int64
	Phase           Phase
	Status          Status
	StartedAt       *time.Time
	CompletedAt     *time.Time
	LastCheckedAt   *time.Time
	BlockedReason   string
	GateSnapshot    string
	ProgressCurrent int
	ProgressTarget  int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Key returns the dedup key shared with the work registry.
func (e *Entry) Key() string {
	return string(e.EntityType) + "/" + strconv.FormatInt(e.EntityID, 10) + "/" + string(e.Phase)
}

// MarkFailed records a remediation failure on the entry. The reason is
// truncated so a pathological backend error cannot bloat the row.
func (e *Entry) MarkFailed(reason string) {
	e.Status = StatusFailed
	e.BlockedReason = TruncateReason(reason)
}

// TruncateReason caps failure reasons at 500 bytes, cutting at a rune
// boundary so the stored reason stays valid UTF-8.
func TruncateReason(reason string) string {
	const limit = 500
	if len(reason) <= limit {
		return reason
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}
