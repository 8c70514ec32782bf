package upload

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secureNamePattern = regexp.MustCompile(`^(\d+)_([0-9a-f]{16})_([a-zA-Z0-9._-]+)$`)

func TestGenerateSecureName(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	origNow := nowFunc
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = origNow }()

	tests := []struct {
		input    string
		wantBase string
		wantExt  string
	}{
		{"Draft MOU (final).PDF", "draft_mou_final_", ".pdf"},
		{"surat-kuasa.v2.docx", "surat-kuasa.v2", ".docx"},
		{"../../etc/passwd", "passwd", ""},
		{`..\..\windows\system32\cmd.exe`, "cmd", ".exe"},
		{"файл договора.pdf", "file", ".pdf"},
		{"", "file", ""},
		{".pdf", "file", ".pdf"},
		{"..", "file", ""},
		{"a  b\t\tc.png", "a_b_c", ".png"},
		{"photo.jp g", "photo", ".jp_g"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := GenerateSecureName(tt.input)

			m := secureNamePattern.FindStringSubmatch(got)
			require.NotNil(t, m, "unexpected shape: %q", got)
			assert.Equal(t, "1700000000123", m[1])
			assert.False(t, strings.ContainsAny(got, `/\`))
			assert.Equal(t, tt.wantBase+tt.wantExt, m[3])
		})
	}
}

func TestGenerateSecureName_UnicodeOnlyBase(t *testing.T) {
	got := GenerateSecureName("файл.pdf")
	m := secureNamePattern.FindStringSubmatch(got)
	require.NotNil(t, m)
	assert.Equal(t, "file.pdf", m[3])
}

func TestGenerateSecureName_UniqueWithinMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	origNow := nowFunc
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = origNow }()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		name := GenerateSecureName("mou.pdf")
		_, dup := seen[name]
		require.False(t, dup, "duplicate name %q", name)
		seen[name] = struct{}{}
	}
}

func TestGenerateSecureName_RandomFailureFallsBack(t *testing.T) {
	origRand := randRead
	randRead = func(b []byte) (int, error) { return 0, errors.New("entropy exhausted") }
	defer func() { randRead = origRand }()

	got := GenerateSecureName("mou.pdf")
	assert.Regexp(t, secureNamePattern, got)
}
