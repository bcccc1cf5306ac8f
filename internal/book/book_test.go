package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReadStatus(t *testing.T) {
	tests := []struct {
		in   string
		want ReadStatus
	}{
		{"READ", StatusRead},
		{"read", StatusRead},
		{" re_reading ", StatusReReading},
		{"", StatusUnset},
		{"FINISHED", StatusUnset},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseReadStatus(tt.in))
		})
	}
}

func TestReadStatusLabel(t *testing.T) {
	assert.Equal(t, "Won't Read", StatusWontRead.Label())
	assert.Equal(t, "Unset", ReadStatus("bogus").Label())
	assert.Len(t, ReadStatuses, len(readStatusLabels))
}

func TestParseFileType(t *testing.T) {
	assert.Equal(t, FileTypeEPUB, ParseFileType(".EPUB"))
	assert.Equal(t, FileType("mobi"), ParseFileType("mobi"))
}

func TestShelfMembership(t *testing.T) {
	b := Book{ID: 1, Shelves: []int64{3, 7}}
	assert.True(t, b.OnShelf(7))
	assert.False(t, b.OnShelf(4))
	assert.False(t, b.Unshelved())
	assert.True(t, (&Book{}).Unshelved())
}

func TestSeriesKey(t *testing.T) {
	b := Book{Metadata: Metadata{SeriesName: "  The Expanse "}}
	assert.Equal(t, "the expanse", b.SeriesKey())
	assert.Equal(t, "", (&Book{}).SeriesKey())
}
