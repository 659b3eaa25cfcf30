package outline

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/engineer42AI/regtrace/pkg/graph"
)

// kindBuckets orders sibling groups in the outline. Unlisted kinds sort
// after every listed one, keeping their ingestion order.
var kindBuckets = map[graph.Kind]int{
	graph.KindSubpart:   0,
	graph.KindHeading:   1,
	graph.KindSection:   2,
	graph.KindGuidance:  3,
	graph.KindParagraph: 4,
}

const unbucketed = 5

var (
	sectionLabelRe = regexp.MustCompile(`(\d+)\.(\d+)`)
	paragraphIDRe  = regexp.MustCompile(`^(\d+)\.(\d+)(.*)$`)
	tokenRe        = regexp.MustCompile(`\(([^)]+)\)`)
)

// romanRanks maps lowercase roman numerals up to xx to their value, so
// "(ii)" sorts after "(i)" and before "(iii)" instead of alphabetically.
var romanRanks = map[string]int{
	"i": 1, "ii": 2, "iii": 3, "iv": 4, "v": 5,
	"vi": 6, "vii": 7, "viii": 8, "ix": 9, "x": 10,
	"xi": 11, "xii": 12, "xiii": 13, "xiv": 14, "xv": 15,
	"xvi": 16, "xvii": 17, "xviii": 18, "xix": 19, "xx": 20,
}

// Token classes inside paragraph ids: digits sort before roman numerals,
// roman numerals before single letters, everything else last.
const (
	classDigit = iota
	classRoman
	classAlpha
	classOther
)

type sortKey []int

func (k sortKey) less(other sortKey) bool {
	for i := 0; i < len(k) && i < len(other); i++ {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return len(k) < len(other)
}

const keyMax = 1 << 30

// sectionKey extracts the numeric pair of a section label, e.g.
// "CS 25.1309" yields (25, 1309). Labels without one sort last.
func sectionKey(label string) sortKey {
	m := sectionLabelRe.FindStringSubmatch(label)
	if m == nil {
		return sortKey{keyMax, keyMax}
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	return sortKey{major, minor}
}

// paragraphKey builds the natural key of a paragraph id such as
// "25.1309(b)(1)(ii)": the numeric pair followed by one (class, rank)
// pair per parenthesised token.
func paragraphKey(id string) sortKey {
	m := paragraphIDRe.FindStringSubmatch(id)
	if m == nil {
		return sortKey{keyMax, keyMax}
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	key := sortKey{major, minor}
	for _, tok := range tokenRe.FindAllStringSubmatch(m[3], -1) {
		class, rank := tokenRank(tok[1])
		key = append(key, class, rank)
	}
	return key
}

func tokenRank(token string) (int, int) {
	token = strings.ToLower(strings.TrimSpace(token))
	if n, err := strconv.Atoi(token); err == nil {
		return classDigit, n
	}
	if rank, ok := romanRanks[token]; ok {
		return classRoman, rank
	}
	if len(token) == 1 && token[0] >= 'a' && token[0] <= 'z' {
		return classAlpha, int(token[0])
	}
	return classOther, 0
}

// sorter orders the containment children of a node for display. Subtree
// minimum section keys are memoized since headings and subparts are
// keyed by the smallest section below them.
type sorter struct {
	g       *graph.Graph
	minKeys map[string]sortKey
}

func newSorter(g *graph.Graph) *sorter {
	return &sorter{g: g, minKeys: make(map[string]sortKey)}
}

func (s *sorter) orderedChildren(id string) []string {
	children := s.g.ChildrenOf(id, graph.RelationContains)
	if len(children) < 2 {
		return children
	}

	type entry struct {
		id     string
		bucket int
		key    sortKey
		pos    int
	}
	entries := make([]entry, len(children))
	for i, childID := range children {
		entries[i] = entry{
			id:     childID,
			bucket: s.bucket(childID),
			key:    s.key(childID),
			pos:    i,
		}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].bucket != entries[b].bucket {
			return entries[a].bucket < entries[b].bucket
		}
		if entries[a].key.less(entries[b].key) {
			return true
		}
		if entries[b].key.less(entries[a].key) {
			return false
		}
		return entries[a].pos < entries[b].pos
	})

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.id
	}
	return out
}

func (s *sorter) bucket(id string) int {
	n := s.g.Node(id)
	if n == nil {
		return unbucketed
	}
	if b, ok := kindBuckets[n.Kind]; ok {
		return b
	}
	return unbucketed
}

func (s *sorter) key(id string) sortKey {
	n := s.g.Node(id)
	if n == nil {
		return sortKey{keyMax, keyMax}
	}
	proj := graph.Project(n)
	switch n.Kind {
	case graph.KindSection, graph.KindGuidance:
		return sectionKey(proj.Label)
	case graph.KindParagraph:
		return paragraphKey(proj.Label)
	case graph.KindHeading, graph.KindSubpart:
		return s.minSectionKey(id, map[string]struct{}{})
	default:
		return sortKey{keyMax, keyMax}
	}
}

// minSectionKey is the smallest section key in the subtree below id.
func (s *sorter) minSectionKey(id string, seen map[string]struct{}) sortKey {
	if k, ok := s.minKeys[id]; ok {
		return k
	}
	if _, ok := seen[id]; ok {
		return sortKey{keyMax, keyMax}
	}
	seen[id] = struct{}{}

	best := sortKey{keyMax, keyMax}
	n := s.g.Node(id)
	if n != nil && (n.Kind == graph.KindSection || n.Kind == graph.KindGuidance) {
		best = sectionKey(graph.Project(n).Label)
	}
	for _, childID := range s.g.ChildrenOf(id, graph.RelationContains) {
		if k := s.minSectionKey(childID, seen); k.less(best) {
			best = k
		}
	}
	s.minKeys[id] = best
	return best
}
