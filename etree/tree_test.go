package etree

import (
	"errors"
	"testing"
)

// build returns <p>a<em>b</em>c</p> under a fresh tree.
func build(t *testing.T) (*Tree, Node, Node) {
	t.Helper()
	tree := NewTree("div")
	p := tree.NewNode("p")
	tree.Root().Append(p)
	p.SetText("a")
	em := tree.NewNode("em")
	em.SetText("b")
	em.SetTail("c")
	p.Append(em)
	return tree, p, em
}

func TestTextContent(t *testing.T) {
	t.Parallel()

	_, p, _ := build(t)
	if got := p.TextContent(); got != "abc" {
		t.Errorf("TextContent() = %q, want %q", got, "abc")
	}
}

func TestRemove_DropsTail(t *testing.T) {
	t.Parallel()

	_, p, em := build(t)
	if !p.Remove(em) {
		t.Fatal("Remove() = false, want true")
	}
	if got := p.TextContent(); got != "a" {
		t.Errorf("TextContent() after remove = %q, want %q", got, "a")
	}
	if p.ChildCount() != 0 {
		t.Errorf("ChildCount() = %d, want 0", p.ChildCount())
	}
	if !em.Parent().IsNull() {
		t.Error("removed node still has a parent")
	}
	if p.Remove(em) {
		t.Error("second Remove() = true, want false")
	}
}

func TestAppend_TailTravels(t *testing.T) {
	t.Parallel()

	tree, p, em := build(t)
	other := tree.NewNode("blockquote")
	tree.Root().Append(other)
	other.Append(em)

	if got := p.TextContent(); got != "a" {
		t.Errorf("old parent TextContent() = %q, want %q", got, "a")
	}
	if got := other.TextContent(); got != "bc" {
		t.Errorf("new parent TextContent() = %q, want %q", got, "bc")
	}
}

func TestDetachedTail(t *testing.T) {
	t.Parallel()

	tree := NewTree("div")
	n := tree.NewNode("br")
	n.SetTail("after")
	tree.Root().Append(n)
	if got := tree.Root().TextContent(); got != "after" {
		t.Errorf("TextContent() = %q, want %q", got, "after")
	}
}

func TestInsertBefore(t *testing.T) {
	t.Parallel()

	tree := NewTree("div")
	root := tree.Root()
	a, b, c := tree.NewNode("a"), tree.NewNode("b"), tree.NewNode("c")
	root.Append(a)
	root.Append(c)

	if err := root.InsertBefore(b, c); err != nil {
		t.Fatalf("InsertBefore() error = %v", err)
	}
	assertTags(t, root, "a", "b", "c")

	stray := tree.NewNode("x")
	if err := root.InsertBefore(tree.NewNode("y"), stray); !errors.Is(err, ErrNotChild) {
		t.Errorf("InsertBefore(absent ref) error = %v, want ErrNotChild", err)
	}
	assertTags(t, root, "a", "b", "c")
}

func TestInsert(t *testing.T) {
	t.Parallel()

	tree := NewTree("div")
	root := tree.Root()
	for _, tag := range []string{"b", "d"} {
		root.Append(tree.NewNode(tag))
	}
	root.Insert(0, tree.NewNode("a"))
	root.Insert(2, tree.NewNode("c"))
	root.Insert(99, tree.NewNode("e"))

	assertTags(t, root, "a", "b", "c", "d", "e")
	if got := root.Index(root.LastChild()); got != 4 {
		t.Errorf("Index(last) = %d, want 4", got)
	}
	if got := root.Child(1).Tag(); got != "b" {
		t.Errorf("Child(1).Tag() = %q, want %q", got, "b")
	}
	if !root.Child(5).IsNull() {
		t.Error("Child(5) should be null")
	}
}

func TestSiblingNavigation(t *testing.T) {
	t.Parallel()

	tree := NewTree("div")
	root := tree.Root()
	a, b := tree.NewNode("a"), tree.NewNode("b")
	root.Append(a)
	root.Append(b)

	if a.NextSibling() != b || b.PrevSibling() != a {
		t.Error("sibling links are inconsistent")
	}
	if root.FirstChild() != a || root.LastChild() != b {
		t.Error("first/last child links are inconsistent")
	}
	if !b.NextSibling().IsNull() || !a.PrevSibling().IsNull() {
		t.Error("edge siblings should be null")
	}
}

func TestForeignNodePanics(t *testing.T) {
	t.Parallel()

	t1 := NewTree("div")
	t2 := NewTree("div")
	foreign := t2.NewNode("p")

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrForeignNode) {
			t.Errorf("recover() = %v, want ErrForeignNode", r)
		}
	}()
	t1.Root().Append(foreign)
}

func TestCyclePanics(t *testing.T) {
	t.Parallel()

	tree := NewTree("div")
	p := tree.NewNode("p")
	tree.Root().Append(p)

	defer func() {
		if r := recover(); r != ErrCycle {
			t.Errorf("recover() = %v, want ErrCycle", r)
		}
	}()
	p.Append(tree.Root())
}

func TestImport(t *testing.T) {
	t.Parallel()

	src, p, _ := build(t)
	p.SetAttr("class", "x")
	p.FirstChild().SetAtomicText("b")

	dst := NewTree("div")
	cp := dst.Import(p)
	dst.Root().Append(cp)

	if cp.Tree() != dst {
		t.Fatal("imported node is not owned by the destination tree")
	}
	if got := cp.TextContent(); got != "abc" {
		t.Errorf("imported TextContent() = %q, want %q", got, "abc")
	}
	if v, _ := cp.Attr("class"); v != "x" {
		t.Errorf("imported class = %q, want %q", v, "x")
	}
	if !cp.FirstChild().AtomicText() {
		t.Error("atomic flag was not imported")
	}

	// The copy is independent of the source.
	cp.SetAttr("class", "y")
	if v, _ := p.Attr("class"); v != "x" {
		t.Errorf("source class changed to %q", v)
	}
	if src.Root().FirstChild() != p {
		t.Error("source tree was modified by Import")
	}
}

func TestIter(t *testing.T) {
	t.Parallel()

	tree := NewTree("div")
	root := tree.Root()
	ul := tree.NewNode("ul")
	root.Append(ul)
	for range 2 {
		li := tree.NewNode("li")
		ul.Append(li)
		li.Append(tree.NewNode("br"))
	}
	root.Append(tree.NewNode("br"))

	tests := []struct {
		name string
		tag  string
		want int
	}{
		{"all", "", 7},
		{"br", "br", 3},
		{"li", "li", 2},
		{"none", "table", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := len(root.Iter(tt.tag)); got != tt.want {
				t.Errorf("len(Iter(%q)) = %d, want %d", tt.tag, got, tt.want)
			}
		})
	}

	order := root.Iter("")
	want := []string{"div", "ul", "li", "br", "li", "br", "br"}
	for i, n := range order {
		if n.Tag() != want[i] {
			t.Errorf("Iter order[%d] = %q, want %q", i, n.Tag(), want[i])
		}
	}
}

func TestAttrKeysSorted(t *testing.T) {
	t.Parallel()

	tree := NewTree("div")
	n := tree.Root()
	n.SetAttr("title", "t")
	n.SetAttr("href", "h")
	n.SetAttr("alt", "a")
	n.DeleteAttr("title")

	keys := n.AttrKeys()
	if len(keys) != 2 || keys[0] != "alt" || keys[1] != "href" {
		t.Errorf("AttrKeys() = %v, want [alt href]", keys)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	_, p, em := build(t)
	p.SetAttr("id", "x")
	p.Clear()
	if p.ChildCount() != 0 || p.HasText() || len(p.AttrKeys()) != 0 {
		t.Error("Clear() left content behind")
	}
	if !em.Parent().IsNull() {
		t.Error("cleared child still attached")
	}
}

func TestTreeIdentity(t *testing.T) {
	t.Parallel()

	if NewTree("div").ID() == NewTree("div").ID() {
		t.Error("two trees share an ID")
	}
}

func assertTags(t *testing.T, n Node, want ...string) {
	t.Helper()
	children := n.Children()
	if len(children) != len(want) {
		t.Fatalf("got %d children, want %d", len(children), len(want))
	}
	for i, c := range children {
		if c.Tag() != want[i] {
			t.Errorf("child %d tag = %q, want %q", i, c.Tag(), want[i])
		}
	}
}
