package service

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/opsline/training-assign-api/internal/models"
	appErrors "github.com/opsline/training-assign-api/pkg/errors"
)

var (
	groupPattern = regexp.MustCompile(`(?i)\bgroup\s*#?\s*(\d+)`)
	partPattern  = regexp.MustCompile(`(?i)\bpart\s*#?\s*(\d+)`)
)

// StableID derives the canonical identifier of a session. It depends only on
// course id, part number, group number and normalized functional area, so the
// same logical session yields the same string across reloads regardless of
// list position or rendering context.
func StableID(s models.Session) string {
	return fmt.Sprintf("%s|p%d|g%d|%s", s.CourseID, s.PartNumber, s.GroupNumber, normalizeToken(s.FunctionalArea))
}

func normalizeToken(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(raw))), "-")
}

// SessionIndex is the one-time normalized view of a schedule's session
// catalog. Group and part numbers are parsed from titles exactly once, here;
// every downstream component sees explicit typed fields only.
type SessionIndex struct {
	sessions []models.Session
	byStable map[string][]models.Session
	byRowID  map[string]models.Session
	logger   *zap.Logger
}

// BuildSessionIndex normalizes raw catalog rows. Rows without a parseable
// group number fall back to group 1, and rows without an explicit capacity
// inherit the configured default ceiling.
func BuildSessionIndex(rows []models.CatalogRow, defaultCapacity int, logger *zap.Logger) *SessionIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	index := &SessionIndex{
		sessions: make([]models.Session, 0, len(rows)),
		byStable: make(map[string][]models.Session),
		byRowID:  make(map[string]models.Session, len(rows)),
		logger:   logger,
	}
	for _, row := range rows {
		session := normalizeRow(row, defaultCapacity, logger)
		index.sessions = append(index.sessions, session)
		key := StableID(session)
		index.byStable[key] = append(index.byStable[key], session)
		index.byRowID[session.ID] = session
	}
	return index
}

func normalizeRow(row models.CatalogRow, defaultCapacity int, logger *zap.Logger) models.Session {
	group := 1
	if match := groupPattern.FindStringSubmatch(row.Title); match != nil {
		group, _ = strconv.Atoi(match[1])
	} else {
		logger.Debug("catalog title has no group number, defaulting to group 1",
			zap.String("session_id", row.ID), zap.String("title", row.Title))
	}
	part := 0
	if match := partPattern.FindStringSubmatch(row.Title); match != nil {
		part, _ = strconv.Atoi(match[1])
	}
	capacity := row.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return models.Session{
		ID:             row.ID,
		ScheduleID:     row.ScheduleID,
		CourseID:       row.CourseID,
		CourseName:     row.CourseName,
		Location:       row.Location,
		FunctionalArea: row.FunctionalArea,
		Title:          row.Title,
		GroupNumber:    group,
		PartNumber:     part,
		StartsAt:       row.StartsAt,
		EndsAt:         row.EndsAt,
		Capacity:       capacity,
	}
}

// Resolve maps a drop-target identifier back to exactly one session. A
// rendering suffix of the form "@location" is stripped first; when several
// sessions share the stable id, the one at locationHint wins. With no hint or
// no match the first candidate is used and the ambiguity logged. Zero
// candidates is a hard failure: callers must abort rather than guess.
func (ix *SessionIndex) Resolve(targetID, locationHint string) (models.Session, error) {
	base := targetID
	if at := strings.LastIndex(targetID, "@"); at >= 0 {
		if locationHint == "" {
			locationHint = targetID[at+1:]
		}
		base = targetID[:at]
	}

	candidates := ix.byStable[base]
	if len(candidates) == 0 {
		return models.Session{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %s not found", targetID))
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if locationHint != "" {
		for _, candidate := range candidates {
			if candidate.Location == locationHint {
				return candidate, nil
			}
		}
	}
	ix.logger.Warn("ambiguous session reference, using first candidate",
		zap.String("target_id", targetID),
		zap.String("location_hint", locationHint),
		zap.Int("candidates", len(candidates)))
	return candidates[0], nil
}

// ByRowID returns the normalized session for a raw catalog row id.
func (ix *SessionIndex) ByRowID(id string) (models.Session, bool) {
	session, ok := ix.byRowID[id]
	return session, ok
}

// Sessions returns the normalized sessions in catalog order.
func (ix *SessionIndex) Sessions() []models.Session {
	return ix.sessions
}

// Courses returns the distinct courses offered by the schedule, in first-seen
// catalog order.
func (ix *SessionIndex) Courses() []models.Course {
	seen := make(map[string]bool)
	var courses []models.Course
	for _, session := range ix.sessions {
		if seen[session.CourseID] {
			continue
		}
		seen[session.CourseID] = true
		courses = append(courses, models.Course{ID: session.CourseID, Name: session.CourseName})
	}
	return courses
}

// GroupSessions returns every session sharing (location, group number)
// across all courses, optionally narrowed to one functional area.
func (ix *SessionIndex) GroupSessions(location string, groupNumber int, functionalArea string) []models.Session {
	var result []models.Session
	for _, session := range ix.sessions {
		if session.Location != location || session.GroupNumber != groupNumber {
			continue
		}
		if functionalArea != "" && session.FunctionalArea != functionalArea {
			continue
		}
		result = append(result, session)
	}
	return result
}

// CourseSessionsInGroup returns every session of one course sharing the
// target group and location, covering multi-part sessions, ordered by part.
func (ix *SessionIndex) CourseSessionsInGroup(courseID, location string, groupNumber int) []models.Session {
	var result []models.Session
	for _, session := range ix.sessions {
		if session.CourseID == courseID && session.Location == location && session.GroupNumber == groupNumber {
			result = append(result, session)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PartNumber < result[j].PartNumber })
	return result
}

// SessionsByCourse groups a session list by course id keeping encounter
// order of courses.
func SessionsByCourse(sessions []models.Session) (map[string][]models.Session, []string) {
	byCourse := make(map[string][]models.Session)
	var order []string
	for _, session := range sessions {
		if _, ok := byCourse[session.CourseID]; !ok {
			order = append(order, session.CourseID)
		}
		byCourse[session.CourseID] = append(byCourse[session.CourseID], session)
	}
	return byCourse, order
}

// GroupCeiling returns the effective ceiling of a group: the smallest
// capacity among its sessions. Zero when the group has no sessions.
func (ix *SessionIndex) GroupCeiling(location string, groupNumber int) int {
	ceiling := 0
	for _, session := range ix.sessions {
		if session.Location != location || session.GroupNumber != groupNumber {
			continue
		}
		if ceiling == 0 || session.Capacity < ceiling {
			ceiling = session.Capacity
		}
	}
	return ceiling
}

// CourseGroupNumbers returns the ascending group numbers in which a course
// runs at a location.
func (ix *SessionIndex) CourseGroupNumbers(courseID, location string) []int {
	seen := make(map[int]bool)
	var groups []int
	for _, session := range ix.sessions {
		if session.CourseID != courseID || session.Location != location {
			continue
		}
		if !seen[session.GroupNumber] {
			seen[session.GroupNumber] = true
			groups = append(groups, session.GroupNumber)
		}
	}
	sort.Ints(groups)
	return groups
}

// HasCourseInGroup reports whether a course has at least one session in the
// given group at the given location.
func (ix *SessionIndex) HasCourseInGroup(courseID, location string, groupNumber int) bool {
	for _, session := range ix.sessions {
		if session.CourseID == courseID && session.Location == location && session.GroupNumber == groupNumber {
			return true
		}
	}
	return false
}
