package parser

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"

	"github.com/cmmoran/recordgen/internal/model"
)

// ParseDirective parses one comment line of the form //<prefix>:<macro> args.
// ok is false for comments that are not directives.
func ParseDirective(text, prefix string) (inv model.Invocation, ok bool, err error) {
	body, found := strings.CutPrefix(text, "//"+prefix+":")
	if !found {
		return model.Invocation{}, false, nil
	}
	return parseInvocation(body)
}

// parseInvocation splits "macro arg1 'arg two'" with shell quoting rules.
func parseInvocation(body string) (model.Invocation, bool, error) {
	words, err := shellquote.Split(body)
	if err != nil {
		return model.Invocation{}, true, errors.Wrapf(err, "split %q", body)
	}
	if len(words) == 0 {
		return model.Invocation{}, true, errors.WithHint(errors.New("directive names no macro"), "write //derive:<macro> [args]")
	}
	return model.Invocation{Macro: words[0], Args: words[1:]}, true, nil
}

// directives returns every directive in the doc comments, in order.
func directives(fset *token.FileSet, prefix string, groups ...*ast.CommentGroup) ([]model.Invocation, error) {
	var out []model.Invocation
	for _, cg := range groups {
		if cg == nil {
			continue
		}
		for _, c := range cg.List {
			inv, ok, err := ParseDirective(c.Text, prefix)
			if !ok {
				continue
			}
			pos := position(fset, c.Pos())
			if err != nil {
				return nil, errors.Wrapf(err, "%s", pos)
			}
			inv.Pos = pos
			out = append(out, inv)
		}
	}
	return out, nil
}

func position(fset *token.FileSet, pos token.Pos) model.Position {
	if fset == nil || !pos.IsValid() {
		return model.Position{}
	}
	p := fset.Position(pos)
	return model.Position{File: p.Filename, Line: p.Line, Column: p.Column}
}
