package repository

import "errors"

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

// ErrDuplicate is returned by DocumentRepository.Create when a document with
// the same (application, document type, file hash) already exists.
var ErrDuplicate = errors.New("duplicate document")
