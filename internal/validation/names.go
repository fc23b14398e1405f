package validation

import (
	"fmt"
	"regexp"
)

// NamePattern определяет допустимый формат имен коллекций и идентификаторов документов
// Латинские буквы, цифры, дефис и нижнее подчеркивание
// Длина: 1-64 символа
var NamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

const (
	// MaxNameLen максимальная длина имени коллекции или id документа
	MaxNameLen = 64
)

// ValidateCollection проверяет имя коллекции
func ValidateCollection(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if !NamePattern.MatchString(name) {
		return fmt.Errorf("invalid collection name %q: must be 1-%d characters of [a-zA-Z0-9_-]", name, MaxNameLen)
	}
	return nil
}

// ValidateDocumentID проверяет идентификатор документа
func ValidateDocumentID(id string) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	if !NamePattern.MatchString(id) {
		return fmt.Errorf("invalid document id %q: must be 1-%d characters of [a-zA-Z0-9_-]", id, MaxNameLen)
	}
	return nil
}
