package column

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/gallery/store/storetest"
)

func TestEqual(t *testing.T) {
	ts := time.Date(2010, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"strings", "a", "a", true},
		{"different strings", "a", "b", false},
		{"nil nil", nil, nil, true},
		{"nil string", nil, "", false},
		{"int vs int64", 1, int64(1), false},
		{"lists", []string{"a", "b"}, []string{"a", "b"}, true},
		{"list vs string", []string{"a"}, "a", false},
		{"string vs list", "a", []string{"a"}, false},
		{"times across zones", ts, ts.In(time.FixedZone("x", 3600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestLexical(t *testing.T) {
	u, _ := url.Parse("file:///music/a%20b.mp3")

	tests := []struct {
		in   Value
		want string
		ok   bool
	}{
		{"text", "text", true},
		{1000, "1000", true},
		{int64(7), "7", true},
		{1000.0, "1000", true},
		{2.5, "2.5", true},
		{true, "true", true},
		{u, "file:///music/a%20b.mp3", true},
		{[]string{"one"}, "one", true},
		{[]string{"one", "two"}, "", false},
		{struct{}{}, "", false},
		{nil, "", false},
	}

	for _, tt := range tests {
		got, ok := Lexical(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestValueColumnsDecode(t *testing.T) {
	cursor := storetest.NewCursor([]string{"title", "a|b||c", "42", "2.5", "2010-05-01T12:00:00Z", "file:///x.jpg", "9000000000", storetest.Unbound})
	require.True(t, cursor.Next())

	assert.Equal(t, "title", NewValueColumn(String).Decode(cursor, 0))
	assert.Equal(t, []string{"a", "b", "c"}, NewValueColumn(StringList).Decode(cursor, 1))
	assert.Equal(t, 42, NewValueColumn(Int).Decode(cursor, 2))
	assert.Equal(t, 2.5, NewValueColumn(Double).Decode(cursor, 3))
	assert.Equal(t, time.Date(2010, 5, 1, 12, 0, 0, 0, time.UTC), NewValueColumn(DateTime).Decode(cursor, 4))
	assert.Equal(t, "file:///x.jpg", NewValueColumn(URL).Decode(cursor, 5))
	assert.Equal(t, int64(9000000000), NewValueColumn(LongLong).Decode(cursor, 6))

	assert.Nil(t, NewValueColumn(String).Decode(cursor, 7), "unbound cell")
	assert.Nil(t, NewValueColumn(String).Decode(cursor, 20), "missing cell")
	assert.Nil(t, NewValueColumn(Int).Decode(cursor, 0), "not a number")
}

func TestValueColumnsEncode(t *testing.T) {
	s, err := NewValueColumn(String).Encode("new title")
	require.NoError(t, err)
	assert.Equal(t, "new title", s)

	s, err = NewValueColumn(StringList).Encode([]string{"rock", "pop"})
	require.NoError(t, err)
	assert.Equal(t, "rock|pop", s)

	s, err = NewValueColumn(Int).Encode(5)
	require.NoError(t, err)
	assert.Equal(t, "5", s)

	s, err = NewValueColumn(DateTime).Encode(time.Date(2011, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2011-01-02T03:04:05Z", s)

	_, err = NewValueColumn(Int).Encode("five")
	assert.Error(t, err)

	_, err = NewValueColumn(String).Encode(map[string]int{})
	assert.Error(t, err)

	s, err = NewValueColumn(URL).Encode("file:///music/a%20b.mp3")
	require.NoError(t, err)
	assert.Equal(t, "file:///music/a%20b.mp3", s)

	_, err = NewValueColumn(URL).Encode("http://host/a?x=> ; DROP ALL ; INSERT DATA { <urn:e> <urn:p> <urn:o")
	assert.Error(t, err)
}

func TestValidIRI(t *testing.T) {
	tests := []struct {
		iri  string
		want bool
	}{
		{"urn:uuid:1234", true},
		{"file:///music/a%20b.mp3", true},
		{"http://host/a?x=1&y=2#frag", true},
		{"", false},
		{"urn:a> ; DROP ALL", false},
		{"urn:a b", false},
		{"urn:a\nb", false},
		{"urn:\"a\"", false},
		{"urn:{a}", false},
		{"urn:a|b", false},
		{"urn:a^b", false},
		{"urn:a`b", false},
		{`urn:a\b`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidIRI(tt.iri), "%q", tt.iri)
	}
}

func TestBuffer(t *testing.T) {
	b := NewBuffer(3)
	assert.Equal(t, 0, b.Len())

	row := b.AppendRow()
	row[0], row[1], row[2] = "urn:a", "file:///a", 1
	row = b.AppendRow()
	row[0] = "urn:b"

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, "urn:a", b.Row(0).Cell(0))
	assert.Equal(t, "urn:b", b.Row(1).String(0))
	assert.Nil(t, b.Row(2))
	assert.Nil(t, b.Row(-1))
	assert.Nil(t, b.Row(0).Cell(3))

	// A row view must not reach into the next row
	assert.Len(t, b.Row(0), 3)
	assert.Equal(t, 3, cap(b.Row(0)))
}

func TestComposites(t *testing.T) {
	row := Row{"urn:1", "file:///home/user/Music/song.Final.mp3", "nfo:orientation-left"}

	assert.Equal(t, "file::urn:1", Prefix{Column: 0, Prefix: "file::"}.Value(row))
	assert.Equal(t, "file:///home/user/Music/song.Final.mp3", FileURL{Column: 1}.Value(row))
	assert.Equal(t, "/home/user/Music/song.Final.mp3", FilePath{Column: 1}.Value(row))
	assert.Equal(t, "mp3", FileExtension{Column: 1}.Value(row))
	assert.Equal(t, 90, Orientation{Column: 2}.Value(row))
	assert.Equal(t, "x", Static{V: "x"}.Value(row))

	assert.Equal(t, "", FileExtension{Column: 0}.Value(Row{"file:///dir.d/README"}))
	assert.Nil(t, FilePath{Column: 1}.Value(Row{"urn:1", "http://example.com/a"}))
	assert.Nil(t, Orientation{Column: 0}.Value(Row{"sideways"}))
	assert.Nil(t, Prefix{Column: 3}.Value(row))
}
