package schema

import "github.com/teranos/gallery/column"

const (
	rw   = CanRead | CanWrite | CanSort | CanFilter
	ro   = CanRead | CanSort | CanFilter
	res  = CanRead | CanSort | CanFilter | isResource
	rwNS = CanRead | CanWrite | CanFilter | CanSort
)

func dataObjectProperties() []Property {
	return []Property{
		item("url", "nie:isStoredAs(?x)", column.URL, res),
	}
}

func informationElementProperties() []Property {
	return []Property{
		linked("author", "nco:fullname(?creator)", " . ?x nco:creator ?creator", column.String, rw),
		item("comments", "nie:comment(?x)", column.String, rw),
		item("copyright", "nie:copyright(?x)", column.String, rw),
		item("description", "nie:description(?x)", column.String, rw),
		item("keywords", "nie:keyword(?x)", column.StringList, rw),
		item("language", "nie:language(?x)", column.String, rw),
		item("mimeType", "nie:mimeType(?x)", column.String, res),
		item("rating", "nao:numericRating(?x)", column.Double, rw),
		item("subject", "nie:subject(?x)", column.String, rw),
		item("title", "nie:title(?x)", column.String, rw),
	}
}

// Items outside the FileSystem graph reach their file through nie:isStoredAs.
func fileDataObjectProperties() []Property {
	return concat(
		dataObjectProperties(),
		informationElementProperties(),
		[]Property{
			item("fileName", "nfo:fileName(nie:isStoredAs(?x))", column.String, ro),
			item("fileSize", "nfo:fileSize(nie:isStoredAs(?x))", column.LongLong, ro),
			item("lastModified", "nfo:fileLastModified(nie:isStoredAs(?x))", column.DateTime, ro),
		},
	)
}

// FileSystem graph items are the files themselves.
func fileSystemProperties() []Property {
	return []Property{
		item("url", "?x", column.URL, res),
		item("fileName", "nfo:fileName(?x)", column.String, ro),
		item("fileSize", "nfo:fileSize(?x)", column.LongLong, ro),
		item("lastModified", "nfo:fileLastModified(?x)", column.DateTime, ro),
		linked("mimeType", `tracker:coalesce(nie:mimeType(?directoryUrn),"")`, " . ?x nie:interpretedAs ?directoryUrn . ", column.String, ro),
	}
}

func fileComposites(direct bool) []Composite {
	pathField := "nie:isStoredAs(?x)"
	if direct {
		pathField = "?x"
	}
	return []Composite{
		{Name: "fileExtension", Type: column.String, Columns: fileExtension{direct: direct}, Filter: fileExtension{direct: direct}},
		{Name: "filePath", Type: column.String, Columns: filePath{field: pathField}, Filter: filePath{field: pathField}},
	}
}

func mediaProperties() []Property {
	return concat(
		fileDataObjectProperties(),
		[]Property{
			item("audioBitRate", "nfo:averageAudioBitrate(?x)", column.Int, res),
			item("audioCodec", "nfo:codec(?x)", column.String, res),
			item("channelCount", "nfo:channels(?x)", column.Int, res),
			item("duration", "nfo:duration(?x)", column.Int, res),
			item("lastPlayed", "nie:contentAccessed(?x)", column.DateTime, ro),
			item("playCount", "nie:usageCounter(?x)", column.Int, rw),
			item("sampleRate", "nfo:sampleRate(?x)", column.Int, res),
			linked("performer", "nmm:artistName(?artist)", " . ?x nmm:performer ?artist", column.String, ro),
		},
	)
}

func visualProperties() []Property {
	return []Property{
		item("height", "nfo:height(?x)", column.Int, res),
		item("width", "nfo:width(?x)", column.Int, res),
		linked("latitude", "slo:latitude(?location)", " . ?x slo:location ?location", column.Double, ro),
		linked("longitude", "slo:longitude(?location)", " . ?x slo:location ?location", column.Double, ro),
		linked("altitude", "slo:altitude(?location)", " . ?x slo:location ?location", column.Double, ro),
	}
}

func visualComposites() []Composite {
	return []Composite{{
		Name: "orientation",
		Type: column.Int,
		Dependencies: []Property{
			item("_orientation", "nfo:orientation(?x)", column.String, CanRead|CanFilter),
		},
		Columns: orientation{},
		Filter:  orientation{},
	}}
}

func audioProperties() []Property {
	return concat(mediaProperties(), []Property{
		item("genre", "nfo:genre(?x)", column.String, rw),
		item("lyrics", "nmm:lyrics(?x)", column.String, rw),
		item("trackNumber", "nmm:trackNumber(?x)", column.Int, rw),
		linked("discNumber", "nmm:setNumber(?disc)", " . ?x nmm:musicAlbumDisc ?disc", column.Int, ro),
		linked("artist", "nmm:artistName(?artist)", " . ?x nmm:artist ?artist", column.String, ro),
		linked("composer", "nmm:artistName(?composer)", " . ?x nmm:composer ?composer", column.String, ro),
		linked("albumArtist", "nmm:artistName(?albumArtist)", " . ?x nmm:musicAlbum ?album . ?album nmm:albumArtist ?albumArtist", column.String, ro),
		linked("albumTitle", "nie:title(?album)", " . ?x nmm:musicAlbum ?album", column.String, ro),
	})
}

func playlistProperties() []Property {
	return concat(fileDataObjectProperties(), []Property{
		item("duration", "nfo:listDuration(?x)", column.Int, ro),
		item("trackCount", "nfo:entryCounter(?x)", column.Int, ro),
	})
}

func imageProperties() []Property {
	return concat(fileDataObjectProperties(), visualProperties(), []Property{
		item("exposureTime", "nmm:exposureTime(?x)", column.Double, rw),
		item("dateTaken", "nie:contentCreated(?x)", column.DateTime, rw),
		item("fNumber", "nmm:fnumber(?x)", column.Double, rw),
		item("flashEnabled", "nmm:flash(?x)", column.String, rw),
		item("focalLength", "nmm:focalLength(?x)", column.Double, rw),
		item("meteringMode", "nmm:meteringMode(?x)", column.String, rw),
		item("whiteBalance", "nmm:whiteBalance(?x)", column.String, rw),
		linked("cameraManufacturer", "nfo:manufacturer(?camera)", " . ?x nfo:equipment ?camera", column.String, ro),
		linked("cameraModel", "nfo:model(?camera)", " . ?x nfo:equipment ?camera", column.String, ro),
	})
}

func videoProperties() []Property {
	return concat(mediaProperties(), visualProperties(), []Property{
		item("frameRate", "nfo:frameRate(?x)", column.Double, res),
		item("resumePosition", "nfo:streamPosition(?x)", column.Int, rw),
		item("videoCodec", "nfo:codec(?x)", column.String, res),
		item("videoBitRate", "nfo:averageBitrate(?x)", column.Int, res),
		linked("director", "nmm:artistName(?director)", " . ?x nmm:director ?director", column.String, res),
		linked("producer", "nmm:artistName(?producer)", " . ?x nmm:producedBy ?producer", column.String, res),
	})
}

func documentProperties() []Property {
	return concat(fileDataObjectProperties(), []Property{
		item("created", "nie:contentCreated(?x)", column.DateTime, ro),
		item("pageCount", "nfo:pageCount(?x)", column.Int, ro),
		item("wordCount", "nfo:wordCount(?x)", column.Int, ro),
	})
}

func textProperties() []Property {
	return concat(fileDataObjectProperties(), []Property{
		item("wordCount", "nfo:wordCount(?x)", column.Int, ro),
	})
}

func albumProperties() []Property {
	return []Property{
		item("albumTitle", "nie:title(?x)", column.String, rwNS),
		item("title", "nie:title(?x)", column.String, rwNS),
		item("trackCount", "nmm:albumTrackCount(?x)", column.Int, ro),
		linked("artist", "nmm:artistName(?albumArtist)", " . ?x nmm:albumArtist ?albumArtist", column.String, ro),
		linked("albumArtist", "nmm:artistName(?albumArtist)", " . ?x nmm:albumArtist ?albumArtist", column.String, ro),
		linked("duration", "SUM(nfo:duration(?track))", " . ?track nmm:musicAlbum ?x", column.Int, ro),
	}
}

func artistProperties() []Property {
	return []Property{
		item("artist", "nmm:artistName(?x)", column.String, rwNS),
		item("title", "nmm:artistName(?x)", column.String, rwNS),
		item("duration", "SUM(nfo:duration(?track))", column.Int, ro),
		item("trackCount", "COUNT(?track)", column.Int, ro),
	}
}

func albumArtistProperties() []Property {
	return []Property{
		item("artist", "nmm:artistName(?x)", column.String, rwNS),
		item("title", "nmm:artistName(?x)", column.String, rwNS),
		linked("duration", "SUM(nfo:duration(?track))", " . ?track nmm:musicAlbum ?album", column.Int, ro),
		linked("trackCount", "COUNT(?track)", " . ?track nmm:musicAlbum ?album", column.Int, ro),
	}
}

func photoAlbumProperties() []Property {
	return []Property{
		item("count", "nfo:entryCounter(?x)", column.Int, ro),
		item("title", "nie:title(?x)", column.String, rw),
	}
}

func audioGenreProperties() []Property {
	return []Property{
		item("duration", "SUM(nfo:duration(?x))", column.Int, ro),
		item("genre", "nfo:genre(?x)", column.String, ro),
		item("title", "nfo:genre(?x)", column.String, ro),
		item("trackCount", "COUNT(?x)", column.Int, ro),
	}
}

const availableFile = " . ?x nie:isStoredAs ?file . ?file nie:dataSource/tracker:available true . "

// fileSystemType describes items of the FileSystem graph, which carry their
// data source directly.
func fileSystemType(name, rdfPrefix, rdfType, prefix string, id, mask int) ItemType {
	rdf := rdfPrefix + ":" + rdfType
	return ItemType{
		Name:         name,
		Graph:        fileSystemGraph,
		Service:      rdf,
		Identity:     "?x",
		RDFSuffix:    "/" + rdfPrefix + "#" + rdfType,
		TypeFragment: "?x a " + rdf + " . ?x nie:dataSource ?dataSource . ?dataSource tracker:available true . ",
		Prefix:       prefix + "::",
		Properties:   fileSystemProperties(),
		Composites:   fileComposites(true),
		UpdateID:     id,
		UpdateMask:   mask,
	}
}

func storedType(name, graph, rdfPrefix, rdfType, prefix string, props []Property, composites []Composite, id, mask int) ItemType {
	rdf := rdfPrefix + ":" + rdfType
	return ItemType{
		Name:         name,
		Graph:        graph,
		Service:      rdf,
		Identity:     "?x",
		RDFSuffix:    "/" + rdfPrefix + "#" + rdfType,
		TypeFragment: "?x a " + rdf + availableFile,
		Prefix:       prefix + "::",
		Properties:   props,
		Composites:   composites,
		UpdateID:     id,
		UpdateMask:   mask,
	}
}

func plainType(name, graph, rdfPrefix, rdfType, fragment, prefix string, props []Property, id, mask int) ItemType {
	rdf := rdfPrefix + ":" + rdfType
	return ItemType{
		Name:         name,
		Graph:        graph,
		Service:      rdf,
		Identity:     "?x",
		RDFSuffix:    "/" + rdfPrefix + "#" + rdfType,
		TypeFragment: "?x a " + rdf + fragment,
		Prefix:       prefix + "::",
		Properties:   props,
		UpdateID:     id,
		UpdateMask:   mask,
	}
}

func aggregateType(name, graph, rdfPrefix, rdfType, identity, prefix string, props []Property, id, mask int) ItemType {
	rdf := rdfPrefix + ":" + rdfType
	return ItemType{
		Name:           name,
		Graph:          graph,
		Service:        rdf,
		Identity:       identity,
		RDFSuffix:      "/" + rdfPrefix + "#" + rdfType,
		TypeFragment:   "?x a " + rdf + availableFile,
		FilterFragment: identity + "!=''",
		Prefix:         prefix + "::",
		Properties:     props,
		UpdateID:       id,
		UpdateMask:     mask,
	}
}

var itemTypes = []ItemType{
	fileSystemType(File, "nfo", "FileDataObject", "file", FileID, FileMask),
	fileSystemType(Folder, "nfo", "Folder", "folder", FolderID, FolderMask),
	storedType(Document, "tracker:Documents", "nfo", "Document", "document", documentProperties(), fileComposites(false), DocumentID, DocumentMask),
	storedType(Audio, "tracker:Audio", "nmm", "MusicPiece", "audio", audioProperties(), fileComposites(false), AudioID, AudioMask),
	storedType(Image, "tracker:Pictures", "nmm", "Photo", "image", imageProperties(), concat(fileComposites(false), visualComposites()), ImageID, ImageMask),
	storedType(Video, "tracker:Video", "nmm", "Video", "video", videoProperties(), concat(fileComposites(false), visualComposites()), VideoID, VideoMask),
	storedType(Playlist, "tracker:Audio", "nmm", "Playlist", "playlist", playlistProperties(), fileComposites(false), PlaylistID, PlaylistMask),
	storedType(Text, "tracker:Documents", "nfo", "PlainTextDocument", "text", textProperties(), fileComposites(false), TextID, TextMask),
	plainType(Artist, "tracker:Audio", "nmm", "Artist",
		" . ?track a nmm:MusicPiece . ?track nmm:artist ?x . ?track nie:isStoredAs ?file . ?file nie:dataSource/tracker:available true . ",
		"artist", artistProperties(), ArtistID, ArtistMask),
	plainType(AlbumArtist, "tracker:Audio", "nmm", "Artist",
		" . ?album a nmm:MusicAlbum . ?album nmm:albumArtist ?x . ?track a nmm:MusicPiece . ?track nmm:musicAlbum ?album . ?track nie:isStoredAs ?file . ?file nie:dataSource/tracker:available true . ",
		"albumArtist", albumArtistProperties(), AlbumArtistID, AlbumArtistMask),
	plainType(Album, "tracker:Audio", "nmm", "MusicAlbum",
		" . ?track a nmm:MusicPiece . ?track nmm:musicAlbum ?x . ?track nie:isStoredAs ?file . ?file nie:dataSource/tracker:available true . ",
		"album", albumProperties(), AlbumID, AlbumMask),
	plainType(PhotoAlbum, "tracker:Pictures", "nmm", "ImageList", "", "photoAlbum", photoAlbumProperties(), PhotoAlbumID, PhotoAlbumMask),
	aggregateType(AudioGenre, "tracker:Audio", "nmm", "MusicPiece", "nfo:genre(?x)", "audioGenre", audioGenreProperties(), AudioGenreID, AudioGenreMask),
}

func indexOfType(name string) int {
	for i := range itemTypes {
		if itemTypes[i].Name == name {
			return i
		}
	}
	return -1
}

func indexOfItemID(itemID string) int {
	for i := range itemTypes {
		if len(itemID) >= len(itemTypes[i].Prefix) && itemID[:len(itemTypes[i].Prefix)] == itemTypes[i].Prefix {
			return i
		}
	}
	return -1
}

func indexOfService(service string) int {
	for i := range itemTypes {
		if itemTypes[i].Service == service {
			return i
		}
	}
	return -1
}

// indexOfRDFTypes picks the type whose rdf suffix matches the most derived
// (last listed) of rdfTypes.
func indexOfRDFTypes(rdfTypes []string) int {
	index, rdfIndex := -1, -1
	for i := range itemTypes {
		for j := len(rdfTypes) - 1; j >= 0; j-- {
			if hasSuffix(rdfTypes[j], itemTypes[i].RDFSuffix) {
				if j > rdfIndex {
					index = i
					rdfIndex = j
				}
				break
			}
		}
	}
	return index
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
