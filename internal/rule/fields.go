package rule

// Field names a book attribute a rule can test.
type Field string

const (
	FieldLibrary              Field = "library"
	FieldTitle                Field = "title"
	FieldSubtitle             Field = "subtitle"
	FieldAuthors              Field = "authors"
	FieldCategories           Field = "categories"
	FieldPublisher            Field = "publisher"
	FieldPublishedDate        Field = "publishedDate"
	FieldSeriesName           Field = "seriesName"
	FieldSeriesNumber         Field = "seriesNumber"
	FieldSeriesTotal          Field = "seriesTotal"
	FieldPageCount            Field = "pageCount"
	FieldLanguage             Field = "language"
	FieldAmazonRating         Field = "amazonRating"
	FieldAmazonReviewCount    Field = "amazonReviewCount"
	FieldGoodreadsRating      Field = "goodreadsRating"
	FieldGoodreadsReviewCount Field = "goodreadsReviewCount"
	FieldHardcoverRating      Field = "hardcoverRating"
	FieldHardcoverReviewCount Field = "hardcoverReviewCount"
	FieldPersonalRating       Field = "personalRating"
	FieldFileType             Field = "fileType"
	FieldFileSize             Field = "fileSize"
	FieldReadStatus           Field = "readStatus"
	FieldDateFinished         Field = "dateFinished"
	FieldMetadataScore        Field = "metadataScore"
)

// Kind is the value type of a field. Fields without a numeric or date
// kind are text; categorical fields (library, readStatus, fileType) are
// text fields that are not eligible for substring operators.
type Kind string

const (
	KindText    Kind = "text"
	KindNumber  Kind = "number"
	KindDecimal Kind = "decimal"
	KindDate    Kind = "date"
)

// Ordered reports whether values of this kind support comparisons.
func (k Kind) Ordered() bool {
	return k == KindNumber || k == KindDecimal || k == KindDate
}

// FieldSpec describes one field.
type FieldSpec struct {
	Label        string
	Kind         Kind
	Max          float64 // upper bound for decimal inputs, 0 = unbounded
	MultiValue   bool    // accepts includes_any, excludes_all, includes_all
	TextEligible bool    // accepts contains, starts_with, ...
}

// Fields lists every field in editor display order.
var Fields = []Field{
	FieldLibrary,
	FieldTitle,
	FieldSubtitle,
	FieldAuthors,
	FieldCategories,
	FieldPublisher,
	FieldPublishedDate,
	FieldSeriesName,
	FieldSeriesNumber,
	FieldSeriesTotal,
	FieldPageCount,
	FieldLanguage,
	FieldAmazonRating,
	FieldAmazonReviewCount,
	FieldGoodreadsRating,
	FieldGoodreadsReviewCount,
	FieldHardcoverRating,
	FieldHardcoverReviewCount,
	FieldPersonalRating,
	FieldFileType,
	FieldFileSize,
	FieldReadStatus,
	FieldDateFinished,
	FieldMetadataScore,
}

var fieldSpecs = map[Field]FieldSpec{
	FieldLibrary:              {Label: "Library", Kind: KindText, MultiValue: true},
	FieldTitle:                {Label: "Title", Kind: KindText, MultiValue: true, TextEligible: true},
	FieldSubtitle:             {Label: "Subtitle", Kind: KindText, MultiValue: true, TextEligible: true},
	FieldAuthors:              {Label: "Authors", Kind: KindText, MultiValue: true, TextEligible: true},
	FieldCategories:           {Label: "Categories", Kind: KindText, MultiValue: true, TextEligible: true},
	FieldPublisher:            {Label: "Publisher", Kind: KindText, MultiValue: true, TextEligible: true},
	FieldPublishedDate:        {Label: "Published Date", Kind: KindDate},
	FieldSeriesName:           {Label: "Series Name", Kind: KindText, MultiValue: true, TextEligible: true},
	FieldSeriesNumber:         {Label: "Series Number", Kind: KindNumber},
	FieldSeriesTotal:          {Label: "Books in Series", Kind: KindNumber},
	FieldPageCount:            {Label: "Page Count", Kind: KindNumber},
	FieldLanguage:             {Label: "Language", Kind: KindText, MultiValue: true, TextEligible: true},
	FieldAmazonRating:         {Label: "Amazon Rating", Kind: KindDecimal, Max: 5},
	FieldAmazonReviewCount:    {Label: "Amazon Review Count", Kind: KindNumber},
	FieldGoodreadsRating:      {Label: "Goodreads Rating", Kind: KindDecimal, Max: 5},
	FieldGoodreadsReviewCount: {Label: "Goodreads Review Count", Kind: KindNumber},
	FieldHardcoverRating:      {Label: "Hardcover Rating", Kind: KindDecimal, Max: 5},
	FieldHardcoverReviewCount: {Label: "Hardcover Review Count", Kind: KindNumber},
	FieldPersonalRating:       {Label: "Personal Rating", Kind: KindDecimal, Max: 10},
	FieldFileType:             {Label: "File Type", Kind: KindText, MultiValue: true},
	FieldFileSize:             {Label: "File Size (KB)", Kind: KindNumber},
	FieldReadStatus:           {Label: "Read Status", Kind: KindText, MultiValue: true},
	FieldDateFinished:         {Label: "Date Finished", Kind: KindDate},
	FieldMetadataScore:        {Label: "Metadata Score", Kind: KindDecimal, Max: 100},
}

// Lookup returns the kind and operators registered for f.
func Lookup(f Field) (FieldSpec, bool) {
	spec, ok := fieldSpecs[f]
	return spec, ok
}

// Operator names a comparison a rule applies to its field.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpContains           Operator = "contains"
	OpDoesNotContain     Operator = "does_not_contain"
	OpStartsWith         Operator = "starts_with"
	OpEndsWith           Operator = "ends_with"
	OpGreaterThan        Operator = "greater_than"
	OpGreaterThanEqualTo Operator = "greater_than_equal_to"
	OpLessThan           Operator = "less_than"
	OpLessThanEqualTo    Operator = "less_than_equal_to"
	OpInBetween          Operator = "in_between"
	OpIsEmpty            Operator = "is_empty"
	OpIsNotEmpty         Operator = "is_not_empty"
	OpIncludesAny        Operator = "includes_any"
	OpExcludesAll        Operator = "excludes_all"
	OpIncludesAll        Operator = "includes_all"
)

var operatorLabels = map[Operator]string{
	OpEquals:             "Equals",
	OpNotEquals:          "Not Equals",
	OpContains:           "Contains",
	OpDoesNotContain:     "Does Not Contain",
	OpStartsWith:         "Starts With",
	OpEndsWith:           "Ends With",
	OpGreaterThan:        "Greater Than",
	OpGreaterThanEqualTo: "Greater Than or Equal To",
	OpLessThan:           "Less Than",
	OpLessThanEqualTo:    "Less Than or Equal To",
	OpInBetween:          "In Between",
	OpIsEmpty:            "Is Empty",
	OpIsNotEmpty:         "Is Not Empty",
	OpIncludesAny:        "Includes Any",
	OpExcludesAll:        "Excludes All",
	OpIncludesAll:        "Includes All",
}

// Label returns the editor label for op, or op itself when unknown.
func (op Operator) Label() string {
	if l, ok := operatorLabels[op]; ok {
		return l
	}
	return string(op)
}

// Known reports whether op is a recognised operator.
func (op Operator) Known() bool {
	_, ok := operatorLabels[op]
	return ok
}

var (
	baseOperators       = []Operator{OpEquals, OpNotEquals, OpIsEmpty, OpIsNotEmpty}
	multiValueOperators = []Operator{OpIncludesAny, OpExcludesAll, OpIncludesAll}
	orderedOperators    = []Operator{OpGreaterThan, OpGreaterThanEqualTo, OpLessThan, OpLessThanEqualTo, OpInBetween}
	textOperators       = []Operator{OpContains, OpDoesNotContain, OpStartsWith, OpEndsWith}
)

// LegalOperators returns the operators f accepts, in editor order.
// Unknown fields accept nothing.
func LegalOperators(f Field) []Operator {
	spec, ok := fieldSpecs[f]
	if !ok {
		return nil
	}

	ops := make([]Operator, 0, 12)
	ops = append(ops, baseOperators...)
	if spec.MultiValue {
		ops = append(ops, multiValueOperators...)
	}
	if spec.Kind.Ordered() {
		ops = append(ops, orderedOperators...)
	} else if spec.TextEligible {
		ops = append(ops, textOperators...)
	}
	return ops
}

// IsLegal reports whether op may be applied to f.
func IsLegal(f Field, op Operator) bool {
	for _, legal := range LegalOperators(f) {
		if legal == op {
			return true
		}
	}
	return false
}
