package schema

import (
	"strings"

	"github.com/teranos/gallery/column"
)

// Attributes describe what callers may do with a property.
type Attributes uint16

const (
	CanRead   Attributes = 0x01
	CanWrite  Attributes = 0x02
	CanSort   Attributes = 0x04
	CanFilter Attributes = 0x08

	isResource   Attributes = 0x100
	propertyMask Attributes = 0xFF
)

func (a Attributes) String() string {
	flags := []byte("----")
	if a&CanRead != 0 {
		flags[0] = 'r'
	}
	if a&CanWrite != 0 {
		flags[1] = 'w'
	}
	if a&CanSort != 0 {
		flags[2] = 's'
	}
	if a&CanFilter != 0 {
		flags[3] = 'f'
	}
	return string(flags)
}

// Update ids identify the change classes reported by the change notifier.
const (
	FileID        = 0x0001
	FolderID      = 0x0002
	DocumentID    = 0x0004
	AudioID       = 0x0008
	ImageID       = 0x0010
	VideoID       = 0x0020
	PlaylistID    = 0x0040
	TextID        = 0x0080
	ArtistID      = 0x0100
	AlbumID       = 0x0200
	AlbumArtistID = ArtistID
	PhotoAlbumID  = 0x0400
	AudioGenreID  = 0x0000
)

// Update masks select the change classes that affect an item type.
const (
	FileMask = FileID | FolderID | DocumentID | AudioID | ImageID | VideoID | PlaylistID | TextID

	FolderMask      = FolderID
	DocumentMask    = DocumentID
	AudioMask       = AudioID
	ImageMask       = ImageID
	VideoMask       = VideoID
	PlaylistMask    = PlaylistID
	TextMask        = TextID
	ArtistMask      = ArtistID
	AlbumMask       = AlbumID
	AlbumArtistMask = AlbumArtistID
	PhotoAlbumMask  = PhotoAlbumID
	AudioGenreMask  = AudioMask
)

// Item type names.
const (
	File        = "File"
	Folder      = "Folder"
	Document    = "Document"
	Audio       = "Audio"
	Image       = "Image"
	Video       = "Video"
	Playlist    = "Playlist"
	Text        = "Text"
	Artist      = "Artist"
	AlbumArtist = "AlbumArtist"
	Album       = "Album"
	PhotoAlbum  = "PhotoAlbum"
	AudioGenre  = "AudioGenre"
)

const fileSystemGraph = "tracker:FileSystem"

// Property is a directly fetched field, optionally reached through a join.
type Property struct {
	Name       string
	Field      string
	Join       string
	Type       column.Type
	Attributes Attributes
}

// Composite is a property derived from other fields.
type Composite struct {
	Name         string
	Type         column.Type
	Dependencies []Property
	Columns      ColumnFactory
	// Filter is nil for composites that cannot be filtered on.
	Filter FilterWriter
}

// ItemType is one entry of the item type registry.
type ItemType struct {
	Name           string
	Graph          string
	Service        string
	Identity       string
	RDFSuffix      string
	TypeFragment   string
	FilterFragment string
	Prefix         string
	Properties     []Property
	Composites     []Composite
	UpdateID       int
	UpdateMask     int
}

func (t *ItemType) property(name string) (Property, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

func (t *ItemType) composite(name string) (Composite, bool) {
	for _, c := range t.Composites {
		if c.Name == name {
			return c, true
		}
	}
	return Composite{}, false
}

func (t *ItemType) strip(itemID string) string {
	return strings.TrimPrefix(itemID, t.Prefix)
}

func (t *ItemType) isFile() bool {
	return t.UpdateID&FileMask != 0
}

func item(name, field string, typ column.Type, attr Attributes) Property {
	return Property{Name: name, Field: field, Type: typ, Attributes: attr}
}

func linked(name, field, join string, typ column.Type, attr Attributes) Property {
	return Property{Name: name, Field: field, Join: join, Type: typ, Attributes: attr}
}

func concat[T any](lists ...[]T) []T {
	var out []T
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
