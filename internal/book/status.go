package book

import "strings"

// ReadStatus is the reading state a user assigned to a book.
type ReadStatus string

const (
	StatusUnread        ReadStatus = "UNREAD"
	StatusReading       ReadStatus = "READING"
	StatusReReading     ReadStatus = "RE_READING"
	StatusPartiallyRead ReadStatus = "PARTIALLY_READ"
	StatusPaused        ReadStatus = "PAUSED"
	StatusRead          ReadStatus = "READ"
	StatusWontRead      ReadStatus = "WONT_READ"
	StatusAbandoned     ReadStatus = "ABANDONED"
	StatusUnset         ReadStatus = "UNSET"
)

// ReadStatuses lists every status in display order.
var ReadStatuses = []ReadStatus{
	StatusUnread,
	StatusReading,
	StatusReReading,
	StatusPartiallyRead,
	StatusPaused,
	StatusRead,
	StatusWontRead,
	StatusAbandoned,
	StatusUnset,
}

var readStatusLabels = map[ReadStatus]string{
	StatusUnread:        "Unread",
	StatusReading:       "Reading",
	StatusReReading:     "Re-reading",
	StatusPartiallyRead: "Partially Read",
	StatusPaused:        "Paused",
	StatusRead:          "Read",
	StatusWontRead:      "Won't Read",
	StatusAbandoned:     "Abandoned",
	StatusUnset:         "Unset",
}

// ParseReadStatus maps any spelling of a status to its canonical value.
// Empty and unknown inputs become StatusUnset.
func ParseReadStatus(s string) ReadStatus {
	st := ReadStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := readStatusLabels[st]; ok {
		return st
	}
	return StatusUnset
}

// Normalized returns the canonical form of s (StatusUnset when unknown).
func (s ReadStatus) Normalized() ReadStatus {
	return ParseReadStatus(string(s))
}

// Label returns the human readable status name.
func (s ReadStatus) Label() string {
	return readStatusLabels[s.Normalized()]
}

// FileType is the primary file format of a book.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeEPUB FileType = "epub"
	FileTypeCBR  FileType = "cbr"
	FileTypeCBZ  FileType = "cbz"
	FileTypeCB7  FileType = "cb7"
)

// FileTypes lists the supported formats.
var FileTypes = []FileType{FileTypePDF, FileTypeEPUB, FileTypeCBR, FileTypeCBZ, FileTypeCB7}

// ParseFileType lower-cases s and strips a leading dot. Unsupported
// formats are returned as-is so rules can still compare them.
func ParseFileType(s string) FileType {
	return FileType(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
}
