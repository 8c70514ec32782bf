package model

// RequiredDocument is one slot of a cooperation type's required-document list.
type RequiredDocument struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// Application is the subset of a cooperation application the upload pipeline reads.
type Application struct {
	ID                  string
	CooperationTypeID   string
	CooperationTypeName string
	RequiredDocuments   []RequiredDocument
}

// HasDocumentKey reports whether key names one of the application's document slots.
func (a *Application) HasDocumentKey(key string) bool {
	for _, d := range a.RequiredDocuments {
		if d.Key == key {
			return true
		}
	}
	return false
}
