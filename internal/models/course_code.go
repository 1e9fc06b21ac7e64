package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidCourseCode reports a course code that is not digits followed by one capital letter.
var ErrInvalidCourseCode = errors.New("invalid course code")

var courseCodePattern = regexp.MustCompile(`^(\d+)([A-Z])$`)

// CourseCode splits an external course code such as "1155605A" into the
// subject code and the section letter.
type CourseCode struct {
	Subject string
	Section string
}

// ParseCourseCode parses raw after trimming surrounding whitespace.
func ParseCourseCode(raw string) (CourseCode, error) {
	m := courseCodePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return CourseCode{}, fmt.Errorf("%w: %q", ErrInvalidCourseCode, raw)
	}
	return CourseCode{Subject: m[1], Section: m[2]}, nil
}

// Key identifies the group of this course code within one period.
func (c CourseCode) Key() string {
	return c.Subject + "-" + c.Section
}

func (c CourseCode) String() string {
	return c.Subject + c.Section
}
