package facet

import "math"

// Bucket is a half-open numeric range [Min, Max) used to group continuous
// values. Buckets are matched first-in-declaration-order.
type Bucket struct {
	ID        string
	Label     string
	Min       float64
	Max       float64
	SortIndex int
}

// Contains reports whether x falls in [Min, Max).
func (b Bucket) Contains(x float64) bool {
	return x >= b.Min && x < b.Max
}

// Value converts the bucket into a facet value.
func (b Bucket) Value() Value {
	return Value{ID: b.ID, Name: b.Label, SortIndex: b.SortIndex}
}

// RatingBuckets group 0-5 star ratings from external sources.
var RatingBuckets = indexed([]Bucket{
	{ID: "0to1", Label: "0 to 1", Min: 0, Max: 1},
	{ID: "1to2", Label: "1 to 2", Min: 1, Max: 2},
	{ID: "2to3", Label: "2 to 3", Min: 2, Max: 3},
	{ID: "3to4", Label: "3 to 4", Min: 3, Max: 4},
	{ID: "4to4.5", Label: "4 to 4.5", Min: 4, Max: 4.5},
	{ID: "4.5plus", Label: "4.5+", Min: 4.5, Max: math.Inf(1)},
})

// FileSizeBuckets group file sizes in KB.
var FileSizeBuckets = indexed([]Bucket{
	{ID: "<1mb", Label: "< 1 MB", Min: 0, Max: 1024},
	{ID: "1to10mb", Label: "1-10 MB", Min: 1024, Max: 10240},
	{ID: "10to50mb", Label: "10-50 MB", Min: 10240, Max: 51200},
	{ID: "50to100mb", Label: "50-100 MB", Min: 51200, Max: 102400},
	{ID: "100to250mb", Label: "100-250 MB", Min: 102400, Max: 256000},
	{ID: "250to500mb", Label: "250-500 MB", Min: 256000, Max: 512000},
	{ID: "500mbto1gb", Label: "0.5-1 GB", Min: 512000, Max: 1048576},
	{ID: "1to2gb", Label: "1-2 GB", Min: 1048576, Max: 2097152},
	{ID: "2to5gb", Label: "2-5 GB", Min: 2097152, Max: 5242880},
	{ID: "5plusgb", Label: "5+ GB", Min: 5242880, Max: math.Inf(1)},
})

// PageCountBuckets group page counts.
var PageCountBuckets = indexed([]Bucket{
	{ID: "<50", Label: "< 50 pages", Min: 0, Max: 50},
	{ID: "50to100", Label: "50-100 pages", Min: 50, Max: 100},
	{ID: "100to200", Label: "100-200 pages", Min: 100, Max: 200},
	{ID: "200to400", Label: "200-400 pages", Min: 200, Max: 400},
	{ID: "400to600", Label: "400-600 pages", Min: 400, Max: 600},
	{ID: "600to1000", Label: "600-1000 pages", Min: 600, Max: 1000},
	{ID: "1000plus", Label: "1000+ pages", Min: 1000, Max: math.Inf(1)},
})

// MatchScoreBuckets group metadata match scores in [0, 1], best first.
// The top band ends above 1 so a perfect score is included.
var MatchScoreBuckets = indexed([]Bucket{
	{ID: "0.95-1.0", Label: "Outstanding (95-100%)", Min: 0.95, Max: 1.01},
	{ID: "0.90-0.94", Label: "Excellent (90-94%)", Min: 0.90, Max: 0.95},
	{ID: "0.80-0.89", Label: "Great (80-89%)", Min: 0.80, Max: 0.90},
	{ID: "0.70-0.79", Label: "Good (70-79%)", Min: 0.70, Max: 0.80},
	{ID: "0.50-0.69", Label: "Fair (50-69%)", Min: 0.50, Max: 0.70},
	{ID: "0.30-0.49", Label: "Weak (30-49%)", Min: 0.30, Max: 0.50},
	{ID: "0.00-0.29", Label: "Poor (0-29%)", Min: 0, Max: 0.30},
})

// indexed assigns SortIndex from declaration order.
func indexed(buckets []Bucket) []Bucket {
	for i := range buckets {
		buckets[i].SortIndex = i
	}
	return buckets
}

// bucketFor returns the first bucket containing x.
func bucketFor(buckets []Bucket, x float64) (Bucket, bool) {
	if math.IsNaN(x) {
		return Bucket{}, false
	}
	for _, b := range buckets {
		if b.Contains(x) {
			return b, true
		}
	}
	return Bucket{}, false
}
