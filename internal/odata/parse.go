package odata

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The grammar accepts exactly what Compile emits: a conjunction of
// eq comparisons and contains/startswith calls, and a comma list of
// "<column> [asc|desc]" items.

type filterAST struct {
	Clauses []*clauseAST `parser:"@@ ( 'and' @@ )*"`
}

type clauseAST struct {
	Call *callAST `parser:"  @@"`
	Cmp  *cmpAST  `parser:"| @@"`
}

type callAST struct {
	Func   string      `parser:"@( 'contains' | 'startswith' )"`
	Column string      `parser:"'(' @Ident ','"`
	Value  *literalAST `parser:"@@ ')'"`
}

type cmpAST struct {
	Column string      `parser:"@Ident 'eq'"`
	Value  *literalAST `parser:"@@"`
}

type literalAST struct {
	Str *string `parser:"  @String"`
	Num *string `parser:"| @Number"`
}

type orderByAST struct {
	Items []*orderItemAST `parser:"@@ ( ',' @@ )*"`
}

type orderItemAST struct {
	Column string `parser:"@Ident"`
	Dir    string `parser:"@( 'asc' | 'desc' )?"`
}

var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `[-+]?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "whitespace", Pattern: `\s+`},
})

var (
	filterParser = participle.MustBuild[filterAST](
		participle.Lexer(queryLexer),
		participle.Elide("whitespace"),
		participle.UseLookahead(2),
	)
	orderByParser = participle.MustBuild[orderByAST](
		participle.Lexer(queryLexer),
		participle.Elide("whitespace"),
	)
)

// ParseFilter parses a $filter expression into filter rules.
// An empty expression yields no rules.
func ParseFilter(expr string) ([]core.FilterRule, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	ast, err := filterParser.ParseString("$filter", expr)
	if err != nil {
		return nil, fmt.Errorf("invalid $filter: %w", err)
	}

	rules := make([]core.FilterRule, 0, len(ast.Clauses))
	for _, c := range ast.Clauses {
		switch {
		case c.Call != nil:
			rel := core.RelContains
			if c.Call.Func == "startswith" {
				rel = core.RelStartsWith
			}
			rules = append(rules, core.FilterRule{Column: c.Call.Column, Relation: rel, Value: c.Call.Value.text()})
		case c.Cmp != nil:
			rules = append(rules, core.FilterRule{Column: c.Cmp.Column, Relation: core.RelEquals, Value: c.Cmp.Value.text()})
		}
	}
	return rules, nil
}

// ParseOrderBy parses an $orderby expression into sort rules.
// Items without a direction sort ascending.
func ParseOrderBy(expr string) ([]core.SortRule, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	ast, err := orderByParser.ParseString("$orderby", expr)
	if err != nil {
		return nil, fmt.Errorf("invalid $orderby: %w", err)
	}

	rules := make([]core.SortRule, 0, len(ast.Items))
	for _, it := range ast.Items {
		order := core.OrderAsc
		if it.Dir == "desc" {
			order = core.OrderDesc
		}
		rules = append(rules, core.SortRule{Column: it.Column, Order: order})
	}
	return rules, nil
}

func (l *literalAST) text() string {
	switch {
	case l == nil:
		return ""
	case l.Str != nil:
		s := *l.Str
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	case l.Num != nil:
		return *l.Num
	default:
		return ""
	}
}
