// Package schema maps gallery item types and properties onto the semantic
// store's vocabulary and compiles requests into query text plus the row
// layout of their results.
package schema

import (
	"fmt"
	"strings"

	"github.com/teranos/gallery/column"
	"github.com/teranos/gallery/errors"
	"github.com/teranos/gallery/query"
)

// Schema is bound to one item type, possibly none.
type Schema struct {
	index int
}

// ForType binds the schema of the named item type.
func ForType(itemType string) Schema {
	return Schema{index: indexOfType(itemType)}
}

// FromItemID binds the schema of the type whose prefix itemID carries.
func FromItemID(itemID string) Schema {
	return Schema{index: indexOfItemID(itemID)}
}

// Valid reports whether the schema is bound to a known type.
func (s Schema) Valid() bool {
	return s.index >= 0
}

// ItemType returns the bound type name, or "".
func (s Schema) ItemType() string {
	if t := s.itemType(); t != nil {
		return t.Name
	}
	return ""
}

func (s Schema) itemType() *ItemType {
	if s.index < 0 || s.index >= len(itemTypes) {
		return nil
	}
	return &itemTypes[s.index]
}

// ItemTypes lists every registered item type name.
func ItemTypes() []string {
	names := make([]string, len(itemTypes))
	for i := range itemTypes {
		names[i] = itemTypes[i].Name
	}
	return names
}

// ServiceUpdateID returns the update id of the item type stored as service,
// defaulting to FileID.
func ServiceUpdateID(service string) int {
	if i := indexOfService(service); i >= 0 {
		return itemTypes[i].UpdateID
	}
	return FileID
}

// GraphUpdateIDs returns the update ids of every type living in graph.
func GraphUpdateIDs(graph string) []int {
	var ids []int
	for i := range itemTypes {
		if itemTypes[i].Graph == graph {
			ids = append(ids, itemTypes[i].UpdateID)
		}
	}
	return ids
}

// ServiceForType returns the rdf class of itemType, or "".
func ServiceForType(itemType string) string {
	if i := indexOfType(itemType); i >= 0 {
		return itemTypes[i].Service
	}
	return ""
}

// GraphForType returns the graph itemType lives in, or "".
func GraphForType(itemType string) string {
	if i := indexOfType(itemType); i >= 0 {
		return itemTypes[i].Graph
	}
	return ""
}

// SupportedPropertyNames lists direct properties then composites.
func (s Schema) SupportedPropertyNames() []string {
	t := s.itemType()
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.Properties)+len(t.Composites))
	for _, p := range t.Properties {
		names = append(names, p.Name)
	}
	for _, c := range t.Composites {
		names = append(names, c.Name)
	}
	return names
}

// PropertyAttributes returns the attributes of name, or 0 when unknown.
func (s Schema) PropertyAttributes(name string) Attributes {
	t := s.itemType()
	if t == nil {
		return 0
	}
	if p, ok := t.property(name); ok {
		return p.Attributes & propertyMask
	}
	if c, ok := t.composite(name); ok {
		attr := CanRead
		if c.Filter != nil {
			attr |= CanFilter
		}
		return attr
	}
	return 0
}

// PropertyType returns the value type of name.
func (s Schema) PropertyType(name string) (column.Type, bool) {
	t := s.itemType()
	if t == nil {
		return column.String, false
	}
	if p, ok := t.property(name); ok {
		return p.Type, true
	}
	if c, ok := t.composite(name); ok {
		return c.Type, true
	}
	return column.String, false
}

// PrepareItemResponse compiles a request for the single item itemID. The
// schema must have been bound with FromItemID.
func (s Schema) PrepareItemResponse(itemID string, propertyNames []string) (*Arguments, error) {
	t := s.itemType()
	if t == nil {
		return nil, errors.Wrapf(errors.ErrItemID, "no item type matches %q", itemID)
	}
	id := t.strip(itemID)
	if !column.ValidIRI(id) {
		return nil, errors.Wrapf(errors.ErrItemID, "item id %q is not a valid IRI", itemID)
	}
	where := " FILTER(?x=<" + id + ">)"
	return s.populateItemArguments(where, "", "", propertyNames, nil, 0, 0)
}

// PrepareQueryResponse compiles a query over the bound type.
func (s Schema) PrepareQueryResponse(req query.QueryRequest) (*Arguments, error) {
	if s.itemType() == nil {
		return nil, errors.Wrapf(errors.ErrItemType, "unknown item type %q", req.RootType)
	}
	where, join, optionalJoin, err := s.buildFilterQuery(req.Scope, req.RootItem, req.Filter)
	if err != nil {
		return nil, err
	}
	return s.populateItemArguments(where, join, optionalJoin, req.PropertyNames, req.SortPropertyNames, req.Offset, req.Limit)
}

// PrepareTypeResponse compiles a count of the items of the bound type.
func (s Schema) PrepareTypeResponse() (*Arguments, error) {
	t := s.itemType()
	if t == nil {
		return nil, errors.Wrapf(errors.ErrItemType, "unknown item type")
	}

	q := "SELECT 'identity' COUNT(DISTINCT " + t.Identity + ") WHERE {" + t.TypeFragment
	if t.FilterFragment != "" {
		q += " FILTER(" + t.FilterFragment + ")"
	}
	q += "}"

	return &Arguments{
		Query:              q,
		Service:            t.Service,
		UpdateMask:         t.UpdateMask,
		IdentityWidth:      1,
		TableWidth:         2,
		ValueOffset:        1,
		CompositeOffset:    2,
		AliasOffset:        2,
		ColumnCount:        2,
		IDColumn:           column.Static{},
		URLColumn:          column.Static{},
		TypeColumn:         column.Static{V: t.Name},
		ValueColumns:       []column.ValueColumn{column.StringColumn{}, column.IntColumn{}},
		FieldNames:         []string{""},
		PropertyNames:      []string{"count"},
		PropertyAttributes: []Attributes{CanRead},
		PropertyTypes:      []column.Type{column.Int},
	}, nil
}

// rootJoin scopes the bound type to the children of root.
func (s Schema) rootJoin(scope query.Scope, rootItemID string) (join, filter string, err error) {
	t := s.itemType()
	ri := indexOfItemID(rootItemID)
	if ri < 0 {
		return "", "", errors.Wrapf(errors.ErrItemID, "no item type matches root %q", rootItemID)
	}
	root := &itemTypes[ri]
	id := root.strip(rootItemID)
	unsupported := errors.Wrapf(errors.ErrItemID, "%s items cannot be scoped to a %s", t.Name, root.Name)
	if root.Name != AudioGenre && !column.ValidIRI(id) {
		return "", "", errors.Wrapf(errors.ErrItemID, "root %q is not a valid IRI", rootItemID)
	}

	switch root.Name {
	case Artist:
		switch t.Name {
		case Album:
			return " . ?track nmm:artist <" + id + ">", "", nil
		case Audio:
			return " . ?x nmm:artist <" + id + ">", "", nil
		}
	case AlbumArtist:
		switch t.Name {
		case Audio:
			return " . ?album a nmm:MusicAlbum . ?x nmm:musicAlbum ?album . ?album nmm:albumArtist <" + id + ">", "", nil
		case Album:
			return " . ?x nmm:albumArtist <" + id + ">", "", nil
		}
	case Folder:
		if t.UpdateMask&FileMask == 0 {
			break
		}
		if scope == query.DirectDescendants {
			return " . ?x nfo:belongsToContainer <" + id + ">", "", nil
		}
		return "", "tracker:uri-is-descendant(nie:isStoredAs(<" + id + ">), nie:isStoredAs(?x))", nil
	case Album:
		if t.Name == Audio {
			return " . ?x nmm:musicAlbum <" + id + ">", "", nil
		}
	case PhotoAlbum, Playlist:
		if (t.Name == Image && root.Name == PhotoAlbum) || (t.Name == Audio && root.Name == Playlist) {
			return " . <" + id + "> nfo:hasMediaFileListEntry ?entry . ?entry nfo:entryUrl ?entryUrl . ?x nie:isStoredAs ?entryUrl", "", nil
		}
	case AudioGenre:
		switch t.Name {
		case Audio:
			return " . ?x nfo:genre '" + EscapeLiteral(id) + "'", "", nil
		case Album, Artist, AlbumArtist:
			return " . ?track nfo:genre '" + EscapeLiteral(id) + "'", "", nil
		}
	}
	return "", "", unsupported
}

func (s Schema) buildFilterQuery(scope query.Scope, rootItemID string, filter query.Filter) (where, join, optionalJoin string, err error) {
	t := s.itemType()

	var statement string
	if rootItemID != "" {
		if join, statement, err = s.rootJoin(scope, rootItemID); err != nil {
			return "", "", "", err
		}
	}

	if t.FilterFragment != "" {
		if statement != "" {
			statement = t.FilterFragment + " && " + statement
		} else {
			statement = t.FilterFragment
		}
	}

	w := &filterWriter{itemType: t, typeJoin: join}
	var condition strings.Builder
	if err := w.write(&condition, filter); err != nil {
		return "", "", "", err
	}
	if condition.Len() > 0 {
		if statement != "" {
			statement += " && "
		}
		statement += condition.String()
	}

	if statement != "" {
		where = " FILTER(" + statement + ")"
	}
	return where, join, w.optionalJoin, nil
}

func (s Schema) populateItemArguments(where, join, optionalJoin string, propertyNames, sortPropertyNames []string, offset, limit int) (*Arguments, error) {
	t := s.itemType()
	args := &Arguments{
		Service:       t.Service,
		UpdateMask:    t.UpdateMask,
		IdentityWidth: 1,
		ValueOffset:   1,
	}
	if t.isFile() {
		args.ValueOffset = 3
	}

	completeJoin := optionalJoin
	var (
		fields                                 []string
		valueNames, aliasNames, compositeNames []string
		valueAttr, aliasAttr, compositeAttr    []Attributes
		valueTypes, aliasTypes, compositeTypes []column.Type
		extendedTypes                          []column.Type
		seen                                   = map[string]bool{}
	)

	for _, name := range propertyNames {
		if seen[name] {
			continue
		}
		p, ok := t.property(name)
		if !ok {
			continue
		}
		seen[name] = true
		if i := indexOf(fields, p.Field); i >= 0 {
			args.AliasColumns = append(args.AliasColumns, i)
			aliasNames = append(aliasNames, name)
			aliasAttr = append(aliasAttr, p.Attributes)
			aliasTypes = append(aliasTypes, p.Type)
			continue
		}
		fields = append(fields, p.Field)
		valueNames = append(valueNames, name)
		valueAttr = append(valueAttr, p.Attributes)
		valueTypes = append(valueTypes, p.Type)
		if p.Join != "" {
			appendJoin(&completeJoin, join, p.Join)
		}
	}

	for _, name := range propertyNames {
		if seen[name] {
			continue
		}
		c, ok := t.composite(name)
		if !ok {
			continue
		}
		seen[name] = true

		columns := make([]int, 0, len(c.Dependencies))
		for _, dep := range c.Dependencies {
			if i := indexOf(fields, dep.Field); i >= 0 {
				columns = append(columns, i+args.ValueOffset)
				continue
			}
			columns = append(columns, len(fields)+args.ValueOffset)
			fields = append(fields, dep.Field)
			extendedTypes = append(extendedTypes, dep.Type)
		}
		// Composites without dependencies derive from the url column.
		if len(columns) == 0 {
			columns = append(columns, 1)
		}

		attr := CanRead
		if c.Filter != nil {
			attr |= CanFilter
		}
		compositeNames = append(compositeNames, name)
		compositeAttr = append(compositeAttr, attr)
		compositeTypes = append(compositeTypes, c.Type)
		args.CompositeColumns = append(args.CompositeColumns, c.Columns.NewColumn(columns))
	}

	var selected []string
	if t.isFile() {
		url := "nie:isStoredAs(?x)"
		if t.Graph == fileSystemGraph {
			url = "?x"
		}
		selected = append([]string{t.Identity, url, "rdf:type(?x)"}, fields...)
		args.IDColumn = servicePrefixColumn{}
		args.URLColumn = column.FileURL{Column: 1}
		args.TypeColumn = serviceTypeColumn{}
		args.ValueColumns = []column.ValueColumn{column.StringColumn{}, column.URLColumn{}, serviceIndexColumn{}}
	} else {
		selected = append([]string{t.Identity}, fields...)
		args.IDColumn = column.Prefix{Column: 0, Prefix: t.Prefix}
		args.URLColumn = column.Static{}
		args.TypeColumn = column.Static{V: t.Name}
		args.ValueColumns = []column.ValueColumn{column.StringColumn{}}
	}
	for _, typ := range append(valueTypes, extendedTypes...) {
		args.ValueColumns = append(args.ValueColumns, column.NewValueColumn(typ))
	}

	sorting, err := writeSorting(&completeJoin, join, t, sortPropertyNames)
	if err != nil {
		return nil, err
	}

	args.TableWidth = args.ValueOffset + len(fields)
	args.CompositeOffset = args.ValueOffset + len(valueNames)
	args.AliasOffset = args.CompositeOffset + len(compositeNames)
	args.ColumnCount = args.AliasOffset + len(aliasNames)

	var params, selects strings.Builder
	for i, f := range selected {
		fmt.Fprintf(&params, "?p%d ", i)
		fmt.Fprintf(&selects, "%s as ?p%d ", f, i)
	}

	q := "SELECT " + params.String() +
		" WHERE { GRAPH " + t.Graph +
		" { SELECT " + selects.String() +
		"WHERE {" + t.TypeFragment + join + completeJoin + where + "}" +
		" GROUP BY " + t.Identity + sorting + "}}"
	if offset > 0 {
		q += fmt.Sprintf(" OFFSET %d", offset)
	}
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	args.Query = q

	args.PropertyNames = concat(valueNames, compositeNames, aliasNames)
	args.PropertyAttributes = concat(valueAttr, compositeAttr, aliasAttr)
	args.PropertyTypes = concat(valueTypes, compositeTypes, aliasTypes)
	for i, attr := range args.PropertyAttributes {
		if attr&isResource != 0 {
			args.ResourceKeys = append(args.ResourceKeys, i+args.ValueOffset)
		}
		args.PropertyAttributes[i] = attr & propertyMask
	}

	args.FieldNames = make([]string, len(fields))
	for i, f := range fields {
		args.FieldNames[i] = predicate(f)
	}
	return args, nil
}

// predicate returns "nie:title" for "nie:title(?x)", or "" for fields that
// are not a plain predicate of the item.
func predicate(field string) string {
	p, ok := strings.CutSuffix(field, "(?x)")
	if !ok || strings.ContainsAny(p, "() ") {
		return ""
	}
	return p
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
