package http

import (
	"errors"
	"strings"
)

var (
	errPhotoField    = errors.New(`missing multipart file "photo"`)
	errPhotoTooLarge = errors.New("photo is unreadable or too large")
)

// ---- helpers ----

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
