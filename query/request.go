package query

// Scope selects how a root item constrains the items of a query.
type Scope int

const (
	AllDescendants Scope = iota
	DirectDescendants
)

func (s Scope) String() string {
	if s == DirectDescendants {
		return "direct"
	}
	return "all"
}

// ParseScope accepts "direct" for DirectDescendants; anything else is AllDescendants.
func ParseScope(s string) Scope {
	if s == "direct" || s == "directDescendants" {
		return DirectDescendants
	}
	return AllDescendants
}

// Request is one of ItemRequest, TypeRequest or QueryRequest.
type Request interface {
	request()
	Live() bool
}

// ItemRequest asks for a single item by id.
type ItemRequest struct {
	ItemID        string
	PropertyNames []string
	AutoUpdate    bool
}

// TypeRequest asks for the number of items of a type.
type TypeRequest struct {
	ItemType   string
	AutoUpdate bool
}

// QueryRequest asks for the items of RootType matching Filter, optionally
// scoped under RootItem.
type QueryRequest struct {
	RootType          string
	RootItem          string
	Scope             Scope
	Filter            Filter
	PropertyNames     []string
	SortPropertyNames []string
	Offset            int
	Limit             int
	AutoUpdate        bool
}

func (ItemRequest) request()  {}
func (TypeRequest) request()  {}
func (QueryRequest) request() {}

func (r ItemRequest) Live() bool  { return r.AutoUpdate }
func (r TypeRequest) Live() bool  { return r.AutoUpdate }
func (r QueryRequest) Live() bool { return r.AutoUpdate }
