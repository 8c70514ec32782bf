package upload

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	underscoreRuns  = regexp.MustCompile(`_{2,}`)
)

// Test seams.
var (
	nowFunc  = time.Now
	randRead = rand.Read
)

// GenerateSecureName turns a client-supplied filename into a stored name of
// the form "{epochMillis}_{16 hex chars}_{sanitizedBase}{ext}". Only the last
// path segment of the input is considered, so the output never contains a
// path separator.
func GenerateSecureName(originalFilename string) string {
	name := originalFilename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	base, ext := name, ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		base, ext = name[:i], sanitizeSegment(name[i:])
	}

	if ext == "." {
		ext = ""
	}
	base = strings.Trim(sanitizeSegment(base), ".")
	if base == "" || base == "_" {
		base = "file"
	}

	return fmt.Sprintf("%d_%s_%s%s", nowFunc().UnixMilli(), randomToken(), base, ext)
}

func sanitizeSegment(s string) string {
	s = unsafeNameChars.ReplaceAllString(s, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	return strings.ToLower(s)
}

func randomToken() string {
	buf := make([]byte, 8)
	if _, err := randRead(buf); err != nil {
		return fmt.Sprintf("%016x", nowFunc().UnixNano())
	}
	return hex.EncodeToString(buf)
}
