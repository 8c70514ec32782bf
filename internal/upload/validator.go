// Package upload holds the document ingestion core: declared-vs-actual type
// validation, secure stored-name generation, content screening and
// category-scoped path allocation. Nothing in this package touches storage
// or the database.
package upload

import (
	"bytes"
	"fmt"
	"strings"
)

// MaxFileSize is the default upload ceiling (5 MiB).
const MaxFileSize int64 = 5 * 1024 * 1024

const (
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeJPEG = "image/jpeg"
	MimeJPG  = "image/jpg"
	MimePNG  = "image/png"
)

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

var allowedMimeTypes = map[string]struct{}{
	MimePDF:  {},
	MimeDOC:  {},
	MimeDOCX: {},
	MimeJPEG: {},
	MimePNG:  {},
	MimeJPG:  {},
}

type signature struct {
	mime  string
	magic []byte
}

// Order matters: first match wins.
var signatures = []signature{
	{mime: MimePDF, magic: []byte("%PDF")},
	{mime: MimeDOC, magic: []byte{0xD0, 0xCF, 0x11, 0xE0}},
	{mime: MimeDOCX, magic: []byte{0x50, 0x4B, 0x03, 0x04}},
	{mime: MimeJPEG, magic: []byte{0xFF, 0xD8, 0xFF}},
	{mime: MimePNG, magic: []byte{0x89, 0x50, 0x4E, 0x47}},
}

var (
	pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	zipHeader    = []byte{0x50, 0x4B, 0x03, 0x04}
	pdfHeader    = []byte("%PDF-")
	pdfTrailer   = []byte("%%EOF")
)

// ValidationResult reports the outcome of Validate. SanitizedFilename and
// DetectedMimeType are only set when IsValid is true; Error only when it is false.
type ValidationResult struct {
	IsValid           bool   `json:"isValid"`
	Error             string `json:"error,omitempty"`
	SanitizedFilename string `json:"sanitizedFilename,omitempty"`
	DetectedMimeType  string `json:"detectedMimeType,omitempty"`
}

func invalid(msg string) ValidationResult {
	return ValidationResult{IsValid: false, Error: msg}
}

// Validator cross-checks size, extension, declared MIME type and byte
// signature of an upload, then runs a format-specific structural check.
type Validator struct {
	maxFileSize int64
}

// NewValidator returns a Validator enforcing maxFileSize (MaxFileSize when <= 0).
func NewValidator(maxFileSize int64) *Validator {
	if maxFileSize <= 0 {
		maxFileSize = MaxFileSize
	}
	return &Validator{maxFileSize: maxFileSize}
}

// MaxFileSize returns the enforced limit in bytes.
func (v *Validator) MaxFileSize() int64 {
	return v.maxFileSize
}

// Validate runs every gate in order and stops at the first failure.
// The detected type comes from the bytes alone; the extension and the
// declared type are only ever compared against it.
func (v *Validator) Validate(data []byte, originalFilename, declaredMimeType string) ValidationResult {
	if int64(len(data)) > v.maxFileSize {
		return invalid(SizeLimitMessage(v.maxFileSize))
	}

	ext := Extension(originalFilename)
	if _, ok := allowedExtensions[ext]; !ok {
		return invalid("File extension not allowed. Allowed extensions: .pdf, .doc, .docx, .jpg, .jpeg, .png")
	}

	if _, ok := allowedMimeTypes[declaredMimeType]; !ok {
		return invalid(fmt.Sprintf("File type %q is not allowed", declaredMimeType))
	}

	detected := DetectMimeType(data)
	if detected == "" {
		return invalid("Could not detect valid file signature")
	}

	if !typesAgree(declaredMimeType, detected, ext) {
		return invalid("File content does not match its declared type")
	}

	if msg := checkStructure(data, detected); msg != "" {
		return invalid(msg)
	}

	return ValidationResult{
		IsValid:           true,
		SanitizedFilename: GenerateSecureName(originalFilename),
		DetectedMimeType:  detected,
	}
}

// SizeLimitMessage is the rejection text for oversized uploads.
func SizeLimitMessage(limit int64) string {
	return fmt.Sprintf("File size exceeds maximum limit of %dMB", limit/(1024*1024))
}

// Extension returns the lower-cased substring from the last '.' of name,
// or "" when name has no dot.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i:])
}

// DetectMimeType matches data against the magic-number table and returns
// the MIME type of the first matching signature, or "".
func DetectMimeType(data []byte) string {
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig.magic) {
			return sig.mime
		}
	}
	return ""
}

func isJPEGFamily(mime string) bool {
	return mime == MimeJPEG || mime == MimeJPG
}

func typesAgree(declared, detected, ext string) bool {
	switch {
	case declared == detected:
		return true
	case isJPEGFamily(declared) && isJPEGFamily(detected):
		return true
	case ext == ".docx" && detected == MimeDOCX:
		return true
	}
	return false
}

// checkStructure returns a rejection message, or "" when data looks intact.
func checkStructure(data []byte, detected string) string {
	switch detected {
	case MimePDF:
		if !bytes.HasPrefix(head(data, 8), pdfHeader) {
			return "Invalid PDF file header"
		}
		if !bytes.Contains(data, pdfTrailer) {
			return "PDF file is corrupted or incomplete"
		}
	case MimeDOCX:
		if !bytes.HasPrefix(data, zipHeader) {
			return "Invalid DOCX file structure"
		}
	case MimeJPEG:
		if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
			return "Invalid JPEG file header"
		}
		// SOI and EOI may not share bytes.
		if len(data) < 4 || data[len(data)-2] != 0xFF || data[len(data)-1] != 0xD9 {
			return "JPEG file is corrupted or incomplete"
		}
	case MimePNG:
		if !bytes.Equal(head(data, 8), pngSignature) {
			return "Invalid PNG file signature"
		}
	}
	return ""
}

func head(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[:n]
}
