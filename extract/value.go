// Package extract implements the extraction engine: it turns a page's raw
// content (HTML, JSON, or plain text) plus an ordered list of extraction
// rules into a field map, and separately discovers outbound links, image
// records and page metadata.
package extract

// ValueKind discriminates the variant held by an ExtractedValue.
type ValueKind string

const (
	KindText ValueKind = "TEXT"
	KindNum  ValueKind = "NUMBER"
	KindBool ValueKind = "BOOL"
	KindList ValueKind = "LIST"
	KindMap  ValueKind = "MAP"
	KindNull ValueKind = "NULL"
)

// Value is the closed tagged union described by spec.md §3's
// ExtractedValue: Text, Number, Bool, List, Map or Null. It is a struct
// with a Kind discriminator rather than a Go interface hierarchy for the
// same reason PostProcessor is (see postprocess package doc): it is the
// literal, JSON-serializable shape of a field in a CrawlResult.
type Value struct {
	Kind ValueKind
	Text string
	Num  float64
	Bool bool
	List []Value
	Map  map[string]Value
}

// Text wraps s as a Value of kind Text.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Number wraps f as a Value of kind Number.
func Number(f float64) Value { return Value{Kind: KindNum, Num: f} }

// Bool wraps b as a Value of kind Bool.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// List wraps vs as a Value of kind List.
func List(vs []Value) Value { return Value{Kind: KindList, List: vs} }

// Map wraps m as a Value of kind Map.
func Map(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

// Null is the singleton Value of kind Null.
var Null = Value{Kind: KindNull}

// IsEmpty reports whether v is the canonical "no match" value for a
// required rule: an empty Text or an empty List.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindText:
		return v.Text == ""
	case KindList:
		return len(v.List) == 0
	default:
		return false
	}
}
