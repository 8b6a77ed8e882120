package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/gallery/errors"
)

func TestParseComparator(t *testing.T) {
	c, err := ParseComparator("GREATERTHAN")
	require.NoError(t, err)
	assert.Equal(t, GreaterThan, c)

	_, err = ParseComparator("near")
	assert.Equal(t, errors.FilterError, errors.CodeOf(err))
	assert.Equal(t, "unknown", Comparator(42).String())
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name  string
		exprs []string
		want  Filter
	}{
		{
			name:  "empty",
			exprs: nil,
			want:  nil,
		},
		{
			name:  "integer comparison",
			exprs: []string{"fileSize>1000"},
			want:  MetaData("fileSize", GreaterThan, 1000),
		},
		{
			name:  "spaced and quoted",
			exprs: []string{`title = "Blue Monday"`},
			want:  MetaData("title", Equals, "Blue Monday"),
		},
		{
			name:  "not equals",
			exprs: []string{"genre!=Pop"},
			want:  MetaData("genre", Equals, "Pop").Negate(),
		},
		{
			name:  "negated contains",
			exprs: []string{"!title~live"},
			want:  MetaData("title", Contains, "live").Negate(),
		},
		{
			name:  "regex",
			exprs: []string{"fileName=~^IMG_[0-9]+"},
			want:  MetaData("fileName", RegExp, Regexp{Pattern: "^IMG_[0-9]+"}),
		},
		{
			name:  "union",
			exprs: []string{"artist^=The|artist$=Band"},
			want: Unite(
				MetaData("artist", StartsWith, "The"),
				MetaData("artist", EndsWith, "Band"),
			),
		},
		{
			name:  "intersection",
			exprs: []string{"width>=1920", "rating<=2.5"},
			want: Intersect(
				MetaData("width", GreaterThanEquals, 1920),
				MetaData("rating", LessThanEquals, 2.5),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.exprs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilterErrors(t *testing.T) {
	for _, expr := range []string{"", "=3", "title", "title?3"} {
		_, err := ParseFilter([]string{expr})
		assert.Equal(t, errors.FilterError, errors.CodeOf(err), "expr %q", expr)
	}
}

func TestFilterJSON(t *testing.T) {
	f := Intersect(
		MetaData("fileSize", GreaterThan, 1000),
		Unite(
			MetaData("fileName", RegExp, Regexp{Pattern: `\.jpe?g$`}),
			MetaData("title", Contains, "holiday").Negate(),
		),
	)

	data, err := MarshalFilter(f)
	require.NoError(t, err)

	decoded, err := UnmarshalFilter(data)
	require.NoError(t, err)

	root, ok := decoded.(*IntersectionFilter)
	require.True(t, ok)
	require.Len(t, root.Filters, 2)

	size := root.Filters[0].(*MetaDataFilter)
	assert.Equal(t, GreaterThan, size.Comparator)
	// JSON numbers decode as float64
	assert.Equal(t, float64(1000), size.Value)

	union := root.Filters[1].(*UnionFilter)
	assert.Equal(t, Regexp{Pattern: `\.jpe?g$`}, union.Filters[0].(*MetaDataFilter).Value)
	assert.True(t, union.Filters[1].(*MetaDataFilter).Negated)
}

func TestFilterJSONNull(t *testing.T) {
	data, err := MarshalFilter(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	f, err := UnmarshalFilter(data)
	require.NoError(t, err)
	assert.Nil(t, f)

	_, err = UnmarshalFilter([]byte(`{"type":"xor"}`))
	assert.Error(t, err)
}

func TestScope(t *testing.T) {
	assert.Equal(t, DirectDescendants, ParseScope("direct"))
	assert.Equal(t, AllDescendants, ParseScope(""))
	assert.Equal(t, "direct", DirectDescendants.String())
}
