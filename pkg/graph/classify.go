package graph

import "strings"

// Kind is the canonical classification tag of a node.
type Kind string

const (
	KindRoot       Kind = "root"
	KindFunctionL1 Kind = "function_l1"
	KindFunctionL2 Kind = "function_l2"
	KindFunctionL3 Kind = "function_l3"
	KindChapter    Kind = "chapter"
	KindDocument   Kind = "document"
	KindSubpart    Kind = "subpart"
	KindHeading    Kind = "heading"
	KindSection    Kind = "section"
	KindGuidance   Kind = "guidance"
	KindParagraph  Kind = "paragraph"
	KindIntent     Kind = "intent"
	KindTrace      Kind = "trace"
	KindUnknown    Kind = "unknown"
)

var discriminatorKinds = map[string]Kind{
	"root":      KindRoot,
	"document":  KindDocument,
	"subpart":   KindSubpart,
	"heading":   KindHeading,
	"section":   KindSection,
	"guidance":  KindGuidance,
	"paragraph": KindParagraph,
	"intent":    KindIntent,
	"trace":     KindTrace,
}

var tierKinds = map[string]Kind{
	"l1": KindFunctionL1,
	"l2": KindFunctionL2,
	"l3": KindFunctionL3,
	"1":  KindFunctionL1,
	"2":  KindFunctionL2,
	"3":  KindFunctionL3,
}

// Classify maps a raw record to its kind. It is total and deterministic:
// every record yields exactly one kind, unmatched records are unknown.
// Rule order is first match wins.
func Classify(record map[string]any) Kind {
	ntype := strings.ToLower(stringField(record, "ntype", "type"))

	if ntype == "function" {
		tier := strings.ToLower(stringField(record, "tier", "level"))
		if kind, ok := tierKinds[tier]; ok {
			return kind
		}
		return KindUnknown
	}

	if ntype == "chapter" {
		return KindChapter
	}
	if _, ok := record["chapter"]; ok && ntype == "" {
		return KindChapter
	}

	if kind, ok := discriminatorKinds[ntype]; ok {
		return kind
	}

	return KindUnknown
}

// expandRelation selects the relation Expand descends through for a
// node of the given kind. Functional tiers link through their own
// relations, everything else through containment.
func expandRelation(kind Kind) string {
	switch kind {
	case KindFunctionL1:
		return RelationL1HasL2
	case KindFunctionL2:
		return RelationL2HasL3
	case KindFunctionL3:
		return RelationChapter
	default:
		return RelationContains
	}
}

// stringField returns the first of the named fields present as a
// non-empty string.
func stringField(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := record[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
