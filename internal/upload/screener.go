package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Hash returns the hex-encoded SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ThreatMalicious is the threat reported by PatternScanner. It deliberately
// does not name the matched pattern.
const ThreatMalicious = "Malicious content detected"

// ScanResult is the verdict of a content scan.
type ScanResult struct {
	IsClean  bool      `json:"isClean"`
	Threat   string    `json:"threat,omitempty"`
	ScanTime time.Time `json:"scanTime"`
	Engine   string    `json:"engine"`
	Cached   bool      `json:"cached,omitempty"`
}

// Scanner screens a byte buffer for malicious content. Implementations may
// block for a long time (a network call to an AV engine) and must honour ctx.
// An error means no verdict was reached, not that the content is unsafe.
type Scanner interface {
	Scan(ctx context.Context, data []byte) (ScanResult, error)
}

// PatternScanner is a placeholder heuristic that looks for a handful of
// well-known byte patterns. It is not an antivirus engine and must be
// replaced by a real one before production use.
type PatternScanner struct {
	// Delay simulates engine latency.
	Delay time.Duration
}

var maliciousPatterns = [][]byte{
	[]byte(`X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`),
	[]byte("javascript:"),
	[]byte("<script"),
	[]byte("eval("),
}

// PatternScannerEngine identifies PatternScanner verdicts in stored scan summaries.
const PatternScannerEngine = "pattern-heuristic"

// Scan waits for Delay (or ctx) and then reports whether any pattern occurs in data.
func (s *PatternScanner) Scan(ctx context.Context, data []byte) (ScanResult, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ScanResult{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return ScanResult{}, err
	}

	res := ScanResult{IsClean: true, ScanTime: time.Now().UTC(), Engine: PatternScannerEngine}
	for _, p := range maliciousPatterns {
		if bytes.Contains(data, p) {
			res.IsClean = false
			res.Threat = ThreatMalicious
			break
		}
	}
	return res, nil
}
