package form

import (
	"strconv"
	"strings"
	"time"
)

// LocalRefPrefix marks a photo value that only exists in the editing session.
// Such values are replaced by a blob store reference before they are saved.
const LocalRefPrefix = "local:"

func LocalRef(formKey string) string { return LocalRefPrefix + formKey }

func IsLocalRef(v Value) bool {
	return v.Kind == KindText && strings.HasPrefix(v.Text, LocalRefPrefix)
}

// PendingPhoto reports whether item holds a photo that has not been uploaded
// yet. Text that merely starts with the prefix is an ordinary value.
func PendingPhoto(item Item, v Value) bool {
	return item.Type == TypePhoto && IsLocalRef(v)
}

// PhotoPath is the blob path of an uploaded photo.
func PhotoPath(recordID, itemID string, at time.Time, ext string) string {
	if ext == "" {
		ext = "jpg"
	}
	return recordID + "/" + itemID + "/" + strconv.FormatInt(at.UnixMilli(), 10) + "." + strings.TrimPrefix(ext, ".")
}
