package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/webmark/internal/doctree"
	"github.com/dgallion1/webmark/internal/tags"
)

// shape renders the forest as "kind(child child)" for compact comparisons.
func shape(t *doctree.Tree) []string {
	var out []string
	var one func(id doctree.NodeID) string
	one = func(id doctree.NodeID) string {
		n := t.Node(id)
		if n.IsLeaf() {
			return n.Kind.String()
		}
		parts := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			parts = append(parts, one(c))
		}
		return n.Kind.String() + "(" + strings.Join(parts, " ") + ")"
	}
	for _, r := range t.Roots {
		out = append(out, one(r))
	}
	return out
}

func assertNoOverlap(t *testing.T, tree *doctree.Tree) {
	t.Helper()
	ancestor := func(a, b doctree.NodeID) bool {
		for p, ok := tree.Parent(b); ok; p, ok = tree.Parent(p) {
			if p == a {
				return true
			}
		}
		return false
	}
	for a := range tree.Nodes {
		for b := range tree.Nodes {
			if a == b {
				continue
			}
			ia, ib := doctree.NodeID(a), doctree.NodeID(b)
			if ancestor(ia, ib) || ancestor(ib, ia) {
				continue
			}
			fa, fb := tree.Node(ia).Full(), tree.Node(ib).Full()
			if fa.Start <= fb.End && fb.Start <= fa.End {
				t.Errorf("nodes %d %v and %d %v overlap", a, fa, b, fb)
			}
		}
	}
}

func TestBuild_WellFormedSingleRoot(t *testing.T) {
	src := "<!DOCTYPE html><html><body><h1>Hi</h1><p>Text &amp; more</p></body></html>"
	tree, err := Build([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Status != doctree.StatusClean {
		t.Errorf("expected clean status, got %v", tree.Status)
	}
	if diff := cmp.Diff([]string{"html(body(h1 p))"}, shape(tree)); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}

	root := tree.Node(tree.Roots[0])
	if root.Open.Start != strings.Index(src, "<html>") || root.Close.End != len(src)-1 {
		t.Errorf("root spans %v..%v, expected the whole anchored region", root.Open, root.Close)
	}
	assertNoOverlap(t, tree)
}

func TestBuild_AnchorIsCaseInsensitive(t *testing.T) {
	for _, doctype := range []string{"<!doctype html>", "<!DOCTYPE HTML>", "<!DocType html PUBLIC \"x\">"} {
		tree, err := Build([]byte(doctype + "<p>x</p>"))
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", doctype, err)
		}
		if len(tree.Roots) != 1 {
			t.Errorf("%q: expected 1 root, got %d", doctype, len(tree.Roots))
		}
	}
}

func TestBuild_MissingAnchor(t *testing.T) {
	tree, err := Build([]byte("<html><body><p>x</p></body></html>"))
	if !errors.Is(err, ErrNoAnchor) {
		t.Fatalf("expected ErrNoAnchor, got %v", err)
	}
	if tree != nil {
		t.Error("expected no tree")
	}
}

func TestBuild_TokensBeforeAnchorIgnored(t *testing.T) {
	tree, err := Build([]byte("<p>before</p><!doctype html><b>after</b>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, shape(tree)); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_DanglingTagIsMalformed(t *testing.T) {
	src := "<!doctype html><div><p>a</p><b>b</b></div><h1>dangling"
	tree, err := Build([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Status != doctree.StatusMalformed {
		t.Fatalf("expected malformed status, got %v", tree.Status)
	}
	if diff := cmp.Diff([]string{"div(p b)"}, shape(tree)); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
	if len(tree.Unclosed) != 1 || tree.Unclosed[0].Kind != tags.H1 {
		t.Errorf("expected one unclosed h1, got %+v", tree.Unclosed)
	}
}

func TestBuild_MismatchedCloserOnlyChecksTop(t *testing.T) {
	// </body> meets an open <h1> on top of the stack and is dropped, so body
	// and html never close.
	src := "<!doctype html><html><body><h1>x<p>a</p></body></html>"
	tree, err := Build([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Status != doctree.StatusMalformed {
		t.Errorf("expected malformed status, got %v", tree.Status)
	}
	if diff := cmp.Diff([]string{"p"}, shape(tree)); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
	var kinds []tags.Kind
	for _, p := range tree.Unclosed {
		kinds = append(kinds, p.Kind)
	}
	if diff := cmp.Diff([]tags.Kind{tags.H1, tags.Body, tags.HTML}, kinds); diff != "" {
		t.Errorf("unclosed mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_DeepMatchClosesThroughDanglingTag(t *testing.T) {
	src := "<!doctype html><html><body><h1>x<p>a</p></body></html>"
	tree, err := BuildWithOptions([]byte(src), Options{Policy: MatchDeep})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"html(body(p))"}, shape(tree)); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
	if tree.Status != doctree.StatusMalformed {
		t.Errorf("expected malformed status, got %v", tree.Status)
	}
	if len(tree.Unclosed) != 1 || tree.Unclosed[0].Kind != tags.H1 {
		t.Errorf("expected the skipped h1 to be reported, got %+v", tree.Unclosed)
	}
	assertNoOverlap(t, tree)
}

func TestBuild_StrayCloserIgnored(t *testing.T) {
	tree, err := Build([]byte("<!doctype html></i><p>x</p></div>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Status != doctree.StatusClean {
		t.Errorf("expected clean status, got %v", tree.Status)
	}
	if diff := cmp.Diff([]string{"p"}, shape(tree)); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_OpaqueKindsContributeNoStructure(t *testing.T) {
	src := `<!doctype html><body><script>var x = "<tag>";</script><img src="a.png"><br/><section><p>x</p></section></body>`
	tree, err := Build([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Status != doctree.StatusClean {
		t.Errorf("expected clean status, got %v (unclosed %+v)", tree.Status, tree.Unclosed)
	}
	if diff := cmp.Diff([]string{"body(p)"}, shape(tree)); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_SiblingsInDocumentOrder(t *testing.T) {
	src := "<!doctype html><table><tr><th>a</th><td>1</td></tr><tr><th>b</th><td>2</td></tr></table>"
	tree, err := Build([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"table(tr(th td) tr(th td))"}, shape(tree)); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
	tree.Walk(func(id doctree.NodeID, _ int) bool {
		n := tree.Node(id)
		for i := 1; i < len(n.Children); i++ {
			prev, cur := tree.Node(n.Children[i-1]), tree.Node(n.Children[i])
			if prev.Open.Start >= cur.Open.Start {
				t.Errorf("children of %v out of order", n.Kind)
			}
		}
		return true
	})
	assertNoOverlap(t, tree)
}

func TestBuild_UnterminatedTokenStopsScan(t *testing.T) {
	tree, err := Build([]byte("<!doctype html><p>x</p><b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Status != doctree.StatusClean || len(tree.Roots) != 1 {
		t.Errorf("expected one clean root, got status=%v roots=%d", tree.Status, len(tree.Roots))
	}
}

func TestParseMatchPolicy(t *testing.T) {
	if ParseMatchPolicy("deep") != MatchDeep {
		t.Error("expected deep")
	}
	if ParseMatchPolicy("top") != MatchTop || ParseMatchPolicy("bogus") != MatchTop {
		t.Error("expected top")
	}
}
