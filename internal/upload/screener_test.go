package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	data := minimalPDF()
	sum := sha256.Sum256(data)

	assert.Equal(t, hex.EncodeToString(sum[:]), Hash(data))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(nil))
	assert.Len(t, Hash([]byte("x")), 64)
}

func TestPatternScanner_Scan(t *testing.T) {
	s := &PatternScanner{}
	ctx := context.Background()

	tests := []struct {
		name      string
		data      []byte
		wantClean bool
	}{
		{"clean pdf", minimalPDF(), true},
		{"clean png", minimalPNG(), true},
		{"eicar", []byte(`%PDF-1.4 X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H* %%EOF`), false},
		{"javascript uri", []byte("%PDF-1.4 /URI (javascript:alert(1)) %%EOF"), false},
		{"script tag", []byte("<html><script>alert(1)</script>"), false},
		{"eval call", []byte("%PDF-1.4 eval(payload) %%EOF"), false},
		// hex "03c736372697074f" holds "3c736372697074" at an odd nibble offset.
		{"pattern across byte boundary", []byte{0x03, 0xC7, 0x36, 0x37, 0x26, 0x97, 0x07, 0x4F}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Scan(ctx, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.wantClean, res.IsClean)
			assert.Equal(t, PatternScannerEngine, res.Engine)
			assert.False(t, res.ScanTime.IsZero())
			if tt.wantClean {
				assert.Empty(t, res.Threat)
			} else {
				assert.Equal(t, ThreatMalicious, res.Threat)
			}
		})
	}
}

func TestPatternScanner_HonoursContext(t *testing.T) {
	s := &PatternScanner{Delay: time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Scan(ctx, minimalPDF())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestPatternScanner_CancelledWithoutDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&PatternScanner{}).Scan(ctx, minimalPDF())
	assert.ErrorIs(t, err, context.Canceled)
}
