package dtree

import (
	"testing"

	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/cst"
	"github.com/sunholo/ailang/internal/extended"
	"github.com/sunholo/ailang/internal/ids"
)

func spanAt(line int) ast.Span {
	p := ast.Pos{File: "a.an", Line: line, Column: 1}
	return ast.Span{Start: p, End: p}
}

func optionSiblings(name string) ([]string, bool) {
	switch name {
	case "None", "Some":
		return []string{"None", "Some"}, true
	default:
		return nil, false
	}
}

// TestDecisionTree_ConstructorMatchIsExhaustive mirrors spec.md §8 scenario S4: `match
// o { None -> 0, Some x -> x }` should compile to a Switch with two cases and no
// Default, since both constructors of Option are covered.
func TestDecisionTree_ConstructorMatchIsExhaustive(t *testing.T) {
	base := cst.NewTopLevelContext()
	nonePath := base.AddPath(cst.Path{Components: []string{"None"}}, spanAt(1))
	nonePat := base.AddPattern(&cst.ConstructorPattern{Path: nonePath}, spanAt(1))
	noneBody := base.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "0"}, spanAt(1))

	somePath := base.AddPath(cst.Path{Components: []string{"Some"}}, spanAt(1))
	xName := base.AddName(cst.Name{Text: "x"}, spanAt(1))
	xPat := base.AddPattern(&cst.VariablePattern{Name: xName}, spanAt(1))
	somePat := base.AddPattern(&cst.ConstructorPattern{Path: somePath, Args: []ids.PatternId{xPat}}, spanAt(1))
	xPath := base.AddPath(cst.Path{Components: []string{"x"}}, spanAt(1))
	someBody := base.AddExpr(&cst.VariableExpr{Path: xPath}, spanAt(1))

	scrutinee := base.AddExpr(&cst.VariableExpr{Path: base.AddPath(cst.Path{Components: []string{"o"}}, spanAt(1))}, spanAt(1))

	ext := extended.New(base)
	failed := false
	c := NewCompiler(ext, optionSiblings, func(ast.Span) { failed = true })

	arms := []cst.MatchArm{
		{Pattern: nonePat, Body: noneBody},
		{Pattern: somePat, Body: someBody},
	}
	lowering := c.Compile(scrutinee, arms, spanAt(1))

	if failed {
		t.Fatal("expected no non-exhaustive diagnostic for a fully-covered Option match")
	}

	sw, ok := lowering.Tree.(*extended.Switch)
	if !ok {
		t.Fatalf("expected *extended.Switch, got %T", lowering.Tree)
	}
	if len(sw.Cases) != 2 {
		t.Errorf("expected 2 cases, got %d", len(sw.Cases))
	}
	if sw.Default != nil {
		t.Error("expected no default branch for an exhaustive Option match")
	}
	if sw.Cases[0].Constructor != "None" || sw.Cases[1].Constructor != "Some" {
		t.Errorf("expected sorted case order None, Some; got %s, %s", sw.Cases[0].Constructor, sw.Cases[1].Constructor)
	}
	if len(sw.Cases[1].Arguments) != 1 {
		t.Errorf("expected Some's case to bind 1 fresh argument path, got %d", len(sw.Cases[1].Arguments))
	}

	someSuccess, ok := sw.Cases[1].Body.(*extended.Success)
	if !ok {
		t.Fatalf("expected Some's case body to be a Success leaf, got %T", sw.Cases[1].Body)
	}
	if someSuccess.Body != someBody {
		t.Errorf("expected Some's leaf to carry the arm's own body expr")
	}

	bound, ok := lowering.ArmBindings[1][xName]
	if !ok {
		t.Fatal("expected x to be bound in arm 1's bindings")
	}
	if bound != sw.Cases[1].Arguments[0] {
		t.Error("expected x to be bound to Some's first fresh argument path")
	}
}

// TestDecisionTree_NonExhaustiveEmitsFailure mirrors spec.md §8 scenario S5: a match
// that only handles Some should compile with a Failure default and report it.
func TestDecisionTree_NonExhaustiveEmitsFailure(t *testing.T) {
	base := cst.NewTopLevelContext()
	somePath := base.AddPath(cst.Path{Components: []string{"Some"}}, spanAt(1))
	xName := base.AddName(cst.Name{Text: "x"}, spanAt(1))
	xPat := base.AddPattern(&cst.VariablePattern{Name: xName}, spanAt(1))
	somePat := base.AddPattern(&cst.ConstructorPattern{Path: somePath, Args: []ids.PatternId{xPat}}, spanAt(1))
	xPath := base.AddPath(cst.Path{Components: []string{"x"}}, spanAt(1))
	someBody := base.AddExpr(&cst.VariableExpr{Path: xPath}, spanAt(1))
	scrutinee := base.AddExpr(&cst.VariableExpr{Path: base.AddPath(cst.Path{Components: []string{"o"}}, spanAt(1))}, spanAt(1))

	ext := extended.New(base)
	var reportedAt ast.Span
	reported := false
	c := NewCompiler(ext, optionSiblings, func(s ast.Span) { reported = true; reportedAt = s })

	arms := []cst.MatchArm{{Pattern: somePat, Body: someBody}}
	lowering := c.Compile(scrutinee, arms, spanAt(2))

	if !reported {
		t.Fatal("expected a non-exhaustive diagnostic report")
	}
	if reportedAt != spanAt(2) {
		t.Errorf("expected the report to carry the match's own span, got %v", reportedAt)
	}

	sw, ok := lowering.Tree.(*extended.Switch)
	if !ok {
		t.Fatalf("expected *extended.Switch, got %T", lowering.Tree)
	}
	if _, ok := sw.Default.(*extended.Failure); !ok {
		t.Errorf("expected a Failure default, got %T", sw.Default)
	}
}

// TestDecisionTree_WildcardIsLeaf mirrors a catch-all match with a single wildcard arm:
// it should compile directly to a Success leaf without any Switch.
func TestDecisionTree_WildcardIsLeaf(t *testing.T) {
	base := cst.NewTopLevelContext()
	name := base.AddName(cst.Name{Text: "_"}, spanAt(1))
	pat := base.AddPattern(&cst.VariablePattern{Name: name}, spanAt(1))
	body := base.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "42"}, spanAt(1))
	scrutinee := base.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "1"}, spanAt(1))

	ext := extended.New(base)
	c := NewCompiler(ext, nil, nil)
	lowering := c.Compile(scrutinee, []cst.MatchArm{{Pattern: pat, Body: body}}, spanAt(1))

	success, ok := lowering.Tree.(*extended.Success)
	if !ok {
		t.Fatalf("expected a Success leaf for a single wildcard arm, got %T", lowering.Tree)
	}
	if success.Body != body {
		t.Error("expected the leaf to carry the wildcard arm's body")
	}
}

// TestDecisionTree_LiteralMatchAlwaysKeepsDefault checks that a literal-dispatched
// Switch (no finite sibling set known) keeps a Failure default when no arm is a
// catch-all, unlike the constructor case above.
func TestDecisionTree_LiteralMatchAlwaysKeepsDefault(t *testing.T) {
	base := cst.NewTopLevelContext()
	truePat := base.AddPattern(&cst.LiteralPattern{Kind: cst.BoolLit, Raw: "true"}, spanAt(1))
	trueBody := base.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "1"}, spanAt(1))
	falsePat := base.AddPattern(&cst.LiteralPattern{Kind: cst.BoolLit, Raw: "false"}, spanAt(2))
	falseBody := base.AddExpr(&cst.LiteralExpr{Kind: cst.IntLit, Raw: "0"}, spanAt(2))
	scrutinee := base.AddExpr(&cst.VariableExpr{Path: base.AddPath(cst.Path{Components: []string{"b"}}, spanAt(1))}, spanAt(1))

	ext := extended.New(base)
	c := NewCompiler(ext, nil, func(ast.Span) {})
	arms := []cst.MatchArm{{Pattern: truePat, Body: trueBody}, {Pattern: falsePat, Body: falseBody}}
	lowering := c.Compile(scrutinee, arms, spanAt(1))

	sw, ok := lowering.Tree.(*extended.Switch)
	if !ok {
		t.Fatalf("expected *extended.Switch, got %T", lowering.Tree)
	}
	if len(sw.Cases) != 2 {
		t.Errorf("expected 2 literal cases, got %d", len(sw.Cases))
	}
	if _, ok := sw.Default.(*extended.Failure); !ok {
		t.Error("expected literal dispatch without sibling info to keep a Failure default")
	}
}
