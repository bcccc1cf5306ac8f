package rule

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/booklore-app/booklore/internal/book"
)

// fieldValue is a book attribute projected for comparison. Text fields
// fill texts (one element for scalar fields); ordered fields fill number
// or date.
type fieldValue struct {
	present bool
	texts   []string
	number  float64
	date    time.Time
}

func textValue(s string) fieldValue {
	s = strings.TrimSpace(s)
	if s == "" {
		return fieldValue{}
	}
	return fieldValue{present: true, texts: []string{s}}
}

func textsValue(ss []string) fieldValue {
	var out []string
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return fieldValue{present: len(out) > 0, texts: out}
}

func intValue[T int | int64](v *T) fieldValue {
	if v == nil {
		return fieldValue{}
	}
	return fieldValue{present: true, number: float64(*v)}
}

func floatValue(v *float64, scale float64) fieldValue {
	if v == nil {
		return fieldValue{}
	}
	return fieldValue{present: true, number: *v * scale}
}

func dateValue(t *time.Time) fieldValue {
	if t == nil || t.IsZero() {
		return fieldValue{}
	}
	return fieldValue{present: true, date: truncateDay(*t)}
}

// extract projects field f of b. Unknown fields are never present.
func extract(b *book.Book, f Field) fieldValue {
	m := &b.Metadata
	switch f {
	case FieldLibrary:
		return textValue(strconv.FormatInt(b.LibraryID, 10))
	case FieldTitle:
		return textValue(m.Title)
	case FieldSubtitle:
		return textValue(m.Subtitle)
	case FieldAuthors:
		return textsValue(m.Authors)
	case FieldCategories:
		return textsValue(m.Categories)
	case FieldPublisher:
		return textValue(m.Publisher)
	case FieldPublishedDate:
		return dateValue(m.PublishedDate)
	case FieldSeriesName:
		return textValue(m.SeriesName)
	case FieldSeriesNumber:
		return floatValue(m.SeriesNumber, 1)
	case FieldSeriesTotal:
		return intValue(m.SeriesTotal)
	case FieldPageCount:
		return intValue(m.PageCount)
	case FieldLanguage:
		return textValue(m.Language)
	case FieldAmazonRating:
		return floatValue(m.AmazonRating, 1)
	case FieldAmazonReviewCount:
		return intValue(m.AmazonReviewCount)
	case FieldGoodreadsRating:
		return floatValue(m.GoodreadsRating, 1)
	case FieldGoodreadsReviewCount:
		return intValue(m.GoodreadsReviewCount)
	case FieldHardcoverRating:
		return floatValue(m.HardcoverRating, 1)
	case FieldHardcoverReviewCount:
		return intValue(m.HardcoverReviewCount)
	case FieldPersonalRating:
		return floatValue(m.PersonalRating, 1)
	case FieldFileType:
		return textValue(string(book.ParseFileType(string(b.FileType))))
	case FieldFileSize:
		return intValue(b.FileSizeKB)
	case FieldReadStatus:
		st := b.ReadStatus.Normalized()
		if st == book.StatusUnset {
			return fieldValue{}
		}
		return textValue(string(st))
	case FieldDateFinished:
		return dateValue(b.DateFinished)
	case FieldMetadataScore:
		// Stored as a fraction, authored in percent.
		return floatValue(b.MetadataMatchScore, 100)
	default:
		return fieldValue{}
	}
}

// scalarText renders a decoded JSON scalar as text.
func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// valueList flattens a rule value into its non-blank text elements. A
// scalar becomes a one-element list.
func valueList(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := scalarText(item); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s, ok := scalarText(x); ok {
			return []string{s}
		}
		return nil
	}
}

// parseNumber interprets a rule value as a number.
func parseNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01",
	"2006",
}

// parseDate interprets a rule value as a calendar day.
func parseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return truncateDay(x), !x.IsZero()
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return truncateDay(t), true
			}
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
