package doctree

// DocType is the publication kind of a bulletin PDF.
type DocType string

const (
	TypeIssue    DocType = "issue"
	TypeOffprint DocType = "offprint"
)

// Valid reports whether t is one of the known document types.
func (t DocType) Valid() bool {
	return t == TypeIssue || t == TypeOffprint
}

// PositionedRun is a fragment of decoded text with page coordinates.
// Y grows upward, as in the PDF user space.
type PositionedRun struct {
	Text      string
	X         float64
	Y         float64
	PageIndex int
	EndsLine  bool // decoder saw an explicit end-of-line after this run
}

// LogicalLine is a reading-order line assembled from one or more runs.
type LogicalLine struct {
	Text      string
	Y         float64 // Y of the last contributing run
	PageIndex int
}

// Kind is the structural class of a Node.
type Kind string

const (
	KindRoot    Kind = "root"
	KindDiploma Kind = "diploma"
	KindChapter Kind = "chapter"
	KindArticle Kind = "article"
)

// Node is a recursive section in the document tree.
type Node struct {
	Kind     Kind    `json:"kind"`
	Header   *string `json:"header,omitempty"`
	Text     *string `json:"text,omitempty"` // always set on articles, never on root
	Children []*Node `json:"children,omitempty"`
}

// NewNode returns a node of the given kind. Articles start with an empty body.
func NewNode(kind Kind, header string) *Node {
	n := &Node{Kind: kind}
	if header != "" {
		n.Header = &header
	}
	if kind == KindArticle {
		empty := ""
		n.Text = &empty
	}
	return n
}

// HeaderText returns the header or "" when unset.
func (n *Node) HeaderText() string {
	if n.Header == nil {
		return ""
	}
	return *n.Header
}

// BodyText returns the body text or "" when unset.
func (n *Node) BodyText() string {
	if n.Text == nil {
		return ""
	}
	return *n.Text
}

// AppendText adds a line to the node body, newline-joined.
func (n *Node) AppendText(line string) {
	if n.Text == nil || *n.Text == "" {
		n.Text = &line
		return
	}
	joined := *n.Text + "\n" + line
	n.Text = &joined
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// CountKinds tallies nodes per kind, root included.
func CountKinds(root *Node) map[Kind]int {
	counts := make(map[Kind]int)
	Walk(root, func(n *Node) bool {
		counts[n.Kind]++
		return true
	})
	return counts
}

// Metadata is derived once per document from its first lines.
type Metadata struct {
	ISODate   string `json:"isoDate"`
	Reference string `json:"reference"`
}

// Record is the final parsed artifact handed to validation and storage.
type Record struct {
	Type      DocType `json:"type"`
	Reference string  `json:"reference"`
	ISODate   string  `json:"isoDate"`
	SourceURL string  `json:"sourceUrl"`
	Root      *Node   `json:"root"`
}
