// Package htmljson converts HTML documents into structured values using
// declarative CSS selector specs.
//
//	value := htmljson.Simple(doc, "div.title", "text")
//
//	rows := htmljson.Extract(doc, htmljson.ObjectList("table.meters tr",
//		htmljson.Text("id", "td.id"),
//		htmljson.Text("value", "td.value"),
//		htmljson.Field("unit", htmljson.Scalar("td.unit", "title")),
//	))
package htmljson

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Spec describes a single extraction step. A Spec without Children
// produces a scalar (or list of scalars when Multiple is set), a Spec
// with Children produces a Record (or list of Records) with one entry
// per child, in declaration order.
type Spec struct {
	Selector string
	// Attribute is "text" (default), "html" for the element's inner
	// markup, or the name of an attribute whose literal value is taken.
	Attribute string
	Multiple  bool
	Children  []Child
}

type Child struct {
	Key  string
	Spec Spec
}

func Scalar(selector, attribute string) Spec {
	return Spec{Selector: selector, Attribute: attribute}
}

func List(selector, attribute string) Spec {
	return Spec{Selector: selector, Attribute: attribute, Multiple: true}
}

func Object(selector string, children ...Child) Spec {
	return Spec{Selector: selector, Children: children}
}

func ObjectList(selector string, children ...Child) Spec {
	return Spec{Selector: selector, Multiple: true, Children: children}
}

func Field(key string, spec Spec) Child {
	return Child{Key: key, Spec: spec}
}

// Text is the shorthand for the common "single element, visible text"
// child field.
func Text(key, selector string) Child {
	return Child{Key: key, Spec: Scalar(selector, "text")}
}

// Validate rejects specs that could never extract anything, recursing
// into children.
func (s Spec) Validate() error {
	if s.Selector == "" {
		return fmt.Errorf("empty selector")
	}
	for _, child := range s.Children {
		if child.Key == "" {
			return fmt.Errorf("child of %q: empty key", s.Selector)
		}
		if err := child.Spec.Validate(); err != nil {
			return fmt.Errorf("child %q: %w", child.Key, err)
		}
	}
	return nil
}

// Record is an ordered set of extracted fields. Field order follows the
// declaration order of the child specs that produced it.
type Record []RecordField

type RecordField struct {
	Key   string
	Value any
}

func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (r Record) MarshalJSON() ([]byte, error) {
	var out strings.Builder
	out.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			out.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		out.Write(key)
		out.WriteByte(':')
		out.Write(value)
	}
	out.WriteByte('}')
	return []byte(out.String()), nil
}

func Parse(content string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(content))
}

// Extract evaluates a spec against a whole document. The result is one
// of: nil (no match for a singular spec), string, []string, Record or
// []Record. A multiple spec with no matches yields an empty (non-nil)
// slice, which is a valid result rather than an absence.
func Extract(doc *goquery.Document, spec Spec) any {
	return ExtractSelection(doc.Selection, spec)
}

// ExtractSelection is Extract scoped to a selection, used when recursing
// into child specs.
func ExtractSelection(scope *goquery.Selection, spec Spec) (result any) {
	// a fault in one branch of the extraction must not take down its
	// siblings, it degrades to an absent value for that node only
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered from extraction fault",
				"selector", spec.Selector, "panic", r)
			result = nil
		}
	}()

	if spec.Selector == "" {
		return nil
	}

	if spec.Multiple {
		matches := scope.Find(spec.Selector)
		if len(spec.Children) > 0 {
			records := []Record{}
			matches.Each(func(_ int, sel *goquery.Selection) {
				records = append(records, extractChildren(sel, spec.Children))
			})
			return records
		}
		values := []string{}
		matches.Each(func(_ int, sel *goquery.Selection) {
			values = append(values, attributeValue(sel, spec.Attribute))
		})
		return values
	}

	match := scope.Find(spec.Selector).First()
	if match.Length() == 0 {
		return nil
	}
	if len(spec.Children) > 0 {
		return extractChildren(match, spec.Children)
	}
	value, ok := lookupAttribute(match, spec.Attribute)
	if !ok {
		// a matched element whose attribute is missing is still absent
		return nil
	}
	return value
}

func extractChildren(scope *goquery.Selection, children []Child) Record {
	record := make(Record, 0, len(children))
	for _, child := range children {
		record = append(record, RecordField{
			Key:   child.Key,
			Value: ExtractSelection(scope, child.Spec),
		})
	}
	return record
}

func attributeValue(sel *goquery.Selection, attribute string) string {
	value, _ := lookupAttribute(sel, attribute)
	return value
}

func lookupAttribute(sel *goquery.Selection, attribute string) (string, bool) {
	switch attribute {
	case "", "text":
		return strings.TrimSpace(sel.Text()), true
	case "html":
		markup, err := sel.Html()
		if err != nil {
			slog.Warn("failed to serialize element markup", "err", err)
			return "", false
		}
		return markup, true
	default:
		return sel.Attr(attribute)
	}
}

// Simple performs a single non-nested extraction, normalizing "no match"
// to the empty string.
func Simple(doc *goquery.Document, selector, attribute string) string {
	value := Extract(doc, Scalar(selector, attribute))
	str, ok := value.(string)
	if !ok {
		return ""
	}
	return str
}

// SimpleList is Simple for multiple matches, normalizing "no match" to an
// empty list.
func SimpleList(doc *goquery.Document, selector, attribute string) []string {
	value := Extract(doc, List(selector, attribute))
	list, ok := value.([]string)
	if !ok {
		return []string{}
	}
	return list
}
