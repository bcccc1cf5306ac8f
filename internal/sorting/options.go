package sorting

import (
	"strings"
	"time"

	"github.com/booklore-app/booklore/internal/book"
)

// Direction is ascending or descending.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection accepts "asc"/"desc" in any case.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case Asc:
		return Asc, true
	case Desc:
		return Desc, true
	default:
		return "", false
	}
}

// Option is a sort field with a direction.
type Option struct {
	Field     string    `json:"field"`
	Label     string    `json:"label"`
	Direction Direction `json:"direction"`
}

// String renders "field dir", e.g. "addedOn desc".
func (o Option) String() string {
	return o.Field + " " + strings.ToLower(string(o.Direction))
}

// Default is the ordering used when nothing else applies.
var Default = Option{Field: "addedOn", Label: "Added On", Direction: Desc}

// sortKey is a book's value for one field. text holds a collation key.
type sortKey struct {
	present bool
	text    string
	num     float64
	num2    float64 // secondary numeric key, e.g. series number
}

type textKeyFunc func(*book.Book) string

type definition struct {
	label string
	text  textKeyFunc
	num   func(*book.Book) (float64, bool)
	num2  func(*book.Book) float64
}

// catalog lists the sortable fields in menu order.
var catalog = []string{
	"title",
	"titleSeries",
	"author",
	"publisher",
	"seriesName",
	"seriesNumber",
	"publishedDate",
	"addedOn",
	"lastReadTime",
	"dateFinished",
	"fileSizeKb",
	"pageCount",
	"personalRating",
	"amazonRating",
	"goodreadsRating",
	"hardcoverRating",
	"metadataScore",
	"readProgress",
}

var definitions = map[string]definition{
	"title": {label: "Title", text: func(b *book.Book) string { return b.Metadata.Title }},
	"titleSeries": {
		label: "Title + Series",
		text: func(b *book.Book) string {
			if b.Metadata.SeriesName != "" {
				return b.Metadata.SeriesName
			}
			return b.Metadata.Title
		},
		num2: func(b *book.Book) float64 {
			if b.Metadata.SeriesNumber == nil {
				return 0
			}
			return *b.Metadata.SeriesNumber
		},
	},
	"author":          {label: "Author", text: (*book.Book).PrimaryAuthor},
	"publisher":       {label: "Publisher", text: func(b *book.Book) string { return b.Metadata.Publisher }},
	"seriesName":      {label: "Series Name", text: func(b *book.Book) string { return b.Metadata.SeriesName }},
	"seriesNumber":    {label: "Series Number", num: floatField(func(b *book.Book) *float64 { return b.Metadata.SeriesNumber })},
	"publishedDate":   {label: "Published Date", num: timeField(func(b *book.Book) *time.Time { return b.Metadata.PublishedDate })},
	"addedOn":         {label: "Added On", num: timeField(func(b *book.Book) *time.Time { return &b.AddedOn })},
	"lastReadTime":    {label: "Last Read", num: timeField(func(b *book.Book) *time.Time { return b.LastReadTime })},
	"dateFinished":    {label: "Date Finished", num: timeField(func(b *book.Book) *time.Time { return b.DateFinished })},
	"fileSizeKb":      {label: "File Size", num: intField(func(b *book.Book) *int64 { return b.FileSizeKB })},
	"pageCount":       {label: "Page Count", num: intField(func(b *book.Book) *int { return b.Metadata.PageCount })},
	"personalRating":  {label: "Personal Rating", num: floatField(func(b *book.Book) *float64 { return b.Metadata.PersonalRating })},
	"amazonRating":    {label: "Amazon Rating", num: floatField(func(b *book.Book) *float64 { return b.Metadata.AmazonRating })},
	"goodreadsRating": {label: "Goodreads Rating", num: floatField(func(b *book.Book) *float64 { return b.Metadata.GoodreadsRating })},
	"hardcoverRating": {label: "Hardcover Rating", num: floatField(func(b *book.Book) *float64 { return b.Metadata.HardcoverRating })},
	"metadataScore":   {label: "Metadata Score", num: floatField(func(b *book.Book) *float64 { return b.MetadataMatchScore })},
	"readProgress":    {label: "Read Progress", num: floatField(func(b *book.Book) *float64 { return b.ReadProgress })},
}

// Options returns every sortable field in menu order, ascending.
func Options() []Option {
	out := make([]Option, 0, len(catalog))
	for _, f := range catalog {
		out = append(out, Option{Field: f, Label: definitions[f].label, Direction: Asc})
	}
	return out
}

// Lookup returns the option for field with direction dir.
func Lookup(field string, dir Direction) (Option, bool) {
	def, ok := definitions[field]
	if !ok {
		return Option{}, false
	}
	if dir != Desc {
		dir = Asc
	}
	return Option{Field: field, Label: def.label, Direction: dir}, true
}

func floatField(get func(*book.Book) *float64) func(*book.Book) (float64, bool) {
	return func(b *book.Book) (float64, bool) {
		v := get(b)
		if v == nil {
			return 0, false
		}
		return *v, true
	}
}

func intField[T int | int64](get func(*book.Book) *T) func(*book.Book) (float64, bool) {
	return func(b *book.Book) (float64, bool) {
		v := get(b)
		if v == nil {
			return 0, false
		}
		return float64(*v), true
	}
}

// timeField keys times by Unix milliseconds, exact in a float64.
func timeField(get func(*book.Book) *time.Time) func(*book.Book) (float64, bool) {
	return func(b *book.Book) (float64, bool) {
		v := get(b)
		if v == nil || v.IsZero() {
			return 0, false
		}
		return float64(v.UnixMilli()), true
	}
}
