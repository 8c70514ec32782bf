package upload

import (
	"fmt"
	"path"
	"time"
)

// Category decides how an upload is validated against an application and
// where it is stored.
type Category string

const (
	CategoryApplication   Category = "application"
	CategoryLegalDocument Category = "legal-document"
	CategorySOPDocument   Category = "sop-document"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryApplication, CategoryLegalDocument, CategorySOPDocument:
		return true
	}
	return false
}

// AllocatePath returns the slash-separated relative path for storedName.
// Legal and SOP documents are partitioned by year and month of now.
func AllocatePath(c Category, storedName string, now time.Time) (string, error) {
	if storedName == "" || storedName == "." || storedName == ".." || storedName != path.Base(storedName) {
		return "", fmt.Errorf("invalid stored filename %q", storedName)
	}
	switch c {
	case CategoryApplication:
		return path.Join("uploads", "document", storedName), nil
	case CategoryLegalDocument:
		return path.Join("uploads", "legal", now.Format("2006"), now.Format("01"), storedName), nil
	case CategorySOPDocument:
		return path.Join("uploads", "sop", now.Format("2006"), now.Format("01"), storedName), nil
	default:
		return "", fmt.Errorf("unknown upload category %q", c)
	}
}
