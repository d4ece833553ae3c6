package tracking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Hash normalizes (trim + lowercase) and digests a PII value so the ad
// platform can match it against its own hashed identifiers. Deterministic
// for the same logical value regardless of case and surrounding whitespace.
func Hash(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

// NormalizePhone strips everything but digits. Country code digits survive,
// the "+" and separators do not.
func NormalizePhone(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NewEventID produces the id shared by the browser pixel call and the
// server relay for one logical action, so the platform drops the duplicate.
func NewEventID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
