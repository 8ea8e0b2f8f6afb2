package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// docIDLayout renders YYYY-DD-MM#HH-MM-SS.
const docIDLayout = "2006-02-01#15-04-05"

// GenerateDocID builds "{owner}-{YYYY-DD-MM#HH-MM-SS}-{suffix}". The random
// suffix keeps ids unique when one owner saves twice within a second.
func GenerateDocID(ownerID string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return ownerID + "-" + now.Format(docIDLayout) + "-" + suffix
}

