package generator

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const suffixLen = 9

func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateSubmissionID returns "<unix millis>-<9 char random suffix>".
func GenerateSubmissionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:suffixLen]
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}
