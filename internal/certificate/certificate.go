// Package certificate renders and stores completion certificates for passed exams.
package certificate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// URLPrefix is the public path under which certificates are served.
const URLPrefix = "/certificates/"

// Data is everything printed on a certificate.
type Data struct {
	AttemptID   uuid.UUID
	StudentName string
	FiliereName string
	ExamTitle   string
	// Percentage is the score printed in the badge.
	Percentage  float64
	TeacherName string
	Date        time.Time
}

// GenerationError wraps a rendering or storage failure.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("certificate %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Number is CERT-<first 8 chars of the attempt id, upper>-<digits 7..12 of the ms timestamp>.
func Number(attemptID uuid.UUID, at time.Time) string {
	ms := strconv.FormatInt(at.UnixMilli(), 10)
	suffix := ms
	if len(ms) >= 13 {
		suffix = ms[7:13]
	} else if len(ms) > 6 {
		suffix = ms[len(ms)-6:]
	}
	return fmt.Sprintf("CERT-%s-%s", strings.ToUpper(attemptID.String()[:8]), suffix)
}

// Filename embeds the attempt id and a millisecond timestamp, so retries never collide.
func Filename(attemptID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("certificate_%s_%d.pdf", attemptID, at.UnixMilli())
}

var filenamePattern = regexp.MustCompile(`^certificate_[0-9a-f-]{36}_[0-9]+\.pdf$`)

// ValidFilename reports whether name could have been produced by Filename.
func ValidFilename(name string) bool {
	return filenamePattern.MatchString(name)
}

// FormatDate renders a date the French way (dd/mm/yyyy).
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
