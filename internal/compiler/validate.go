package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quelaag/evsc/internal/ir"
	"github.com/quelaag/evsc/internal/registry"
)

// resolveBody validates every statement and returns a resolved copy of the
// body: symbolic and sentinel arguments replaced by concrete integers,
// schemas checked, structure verified. All errors are collected before
// aborting; nothing is emitted if any are found.
func (c *config) resolveBody(def *EventDef) ([]Node, []CompileError) {
	var errs []CompileError
	resolved := make([]Node, 0, len(def.body))

	for i, stmt := range def.body {
		where := fmt.Sprintf("body[%d]", i)

		switch node := stmt.(type) {
		case *TerminatorNode:
			if i != len(def.body)-1 {
				errs = append(errs, CompileError{
					Code:    ErrUsage,
					Where:   where,
					Message: "statements after a terminator are unreachable",
				})
			}
			resolved = append(resolved, node)

		case *AwaitNode:
			cond, condErrs := c.resolveCond(def, node.Cond, where+".await", 1)
			errs = append(errs, condErrs...)
			resolved = append(resolved, &AwaitNode{Cond: cond})

		default:
			cond, condErrs := c.resolveCond(def, stmt, where, 1)
			errs = append(errs, condErrs...)
			resolved = append(resolved, cond)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return resolved, nil
}

// resolveCond validates one condition subtree. groupDepth counts combinator
// levels: the target VM supports only one level of sub-grouping, so a group
// below depth 2 fails rather than silently flattening.
func (c *config) resolveCond(def *EventDef, n Node, where string, groupDepth int) (Node, []CompileError) {
	switch node := n.(type) {
	case *TestNode:
		return c.resolveTest(def, node, where)

	case *GroupNode:
		if groupDepth > 2 {
			return nil, []CompileError{{
				Code:    ErrNestingDepth,
				Where:   where,
				Message: "combinator nesting exceeds the VM's one level of sub-grouping",
			}}
		}
		if len(node.Children) == 0 {
			return nil, []CompileError{{
				Code:    ErrEmptyGroup,
				Where:   where,
				Message: fmt.Sprintf("%s group has no children", node.Kind),
			}}
		}

		var errs []CompileError
		children := make([]Node, len(node.Children))
		for i, child := range node.Children {
			childWhere := fmt.Sprintf("%s.%s[%d]", where, strings.ToLower(node.Kind.String()), i)
			resolved, childErrs := c.resolveCond(def, child, childWhere, groupDepth+1)
			errs = append(errs, childErrs...)
			children[i] = resolved
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return &GroupNode{Kind: node.Kind, Children: children, Held: node.Held}, nil

	case *AwaitNode:
		return nil, []CompileError{{
			Code:    ErrUsage,
			Where:   where,
			Message: "await is only permitted at statement level, not inside a condition",
		}}

	case *TerminatorNode:
		return nil, []CompileError{{
			Code:    ErrUsage,
			Where:   where,
			Message: "terminator is not a condition",
		}}

	case *invalidNode:
		return nil, []CompileError{{
			Code:    ErrUsage,
			Where:   where,
			Message: fmt.Sprintf("%s cannot be applied to %s", node.Op, node.Target),
		}}

	default:
		return nil, []CompileError{{
			Code:    ErrUsage,
			Where:   where,
			Message: fmt.Sprintf("unsupported node type %T", n),
		}}
	}
}

func (c *config) resolveTest(def *EventDef, node *TestNode, where string) (Node, []CompileError) {
	args := make([]ir.Value, len(node.Args))
	for i, arg := range node.Args {
		switch v := arg.(type) {
		case ir.Sym:
			id, ok := c.ns.Resolve(string(v))
			if !ok {
				return nil, []CompileError{{
					Code:    ErrUnknownSymbol,
					Where:   where,
					Message: fmt.Sprintf("symbolic flag %q is not in the namespace table", string(v)),
				}}
			}
			args[i] = ir.Int(id)
		case ir.ThisFlag:
			args[i] = ir.Int(def.ID)
		default:
			args[i] = arg
		}
	}

	spec, err := c.reg.Bind(node.Name, args)
	if err != nil {
		code := ErrArgumentType
		var unknown *registry.UnknownTestError
		if errors.As(err, &unknown) {
			code = ErrUnknownTest
		}
		return nil, []CompileError{{Code: code, Where: where, Message: err.Error()}}
	}

	if node.Negated && !spec.Negatable {
		return nil, []CompileError{{
			Code:    ErrUsage,
			Where:   where,
			Message: fmt.Sprintf("test %q does not support negation", node.Name),
		}}
	}

	return &TestNode{Name: node.Name, Args: args, Negated: node.Negated}, nil
}
