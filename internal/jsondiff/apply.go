package jsondiff

import (
	"strconv"

	"github.com/ingest-test/ingesttest-go/internal/document"
)

// Apply replays ops against a copy of docs, addressing them the same way
// Diff does (first token is the document index). The input is not modified.
func Apply(docs []document.Value, ops []Operation) ([]document.Value, error) {
	items := make([]document.Value, len(docs))
	for i, doc := range docs {
		items[i] = doc.DeepCopy()
	}
	root, err := ApplyValue(document.Seq(items...), ops)
	if err != nil {
		return nil, err
	}
	out, _ := root.AsSequence()
	return out, nil
}

// ApplyValue replays ops against root. Containers reachable from root may be
// modified in place; pass a deep copy to keep the original.
func ApplyValue(root document.Value, ops []Operation) (document.Value, error) {
	var err error
	for _, op := range ops {
		if root, err = applyOp(root, op); err != nil {
			return document.Value{}, err
		}
	}
	return root, nil
}

func applyOp(root document.Value, op Operation) (document.Value, error) {
	switch op.Op {
	case OpAdd:
		return insert(root, op, op.Path, op.Value.DeepCopy())
	case OpRemove:
		root, _, err := extract(root, op, op.Path)
		return root, err
	case OpReplace:
		if len(op.Path) == 0 {
			return op.Value.DeepCopy(), nil
		}
		return modify(root, op, op.Path, func(c document.Value, tok string) (document.Value, error) {
			if m, ok := c.AsMapping(); ok {
				if !m.Has(tok) {
					return c, opErr(op, "no such key")
				}
				m.Set(tok, op.Value.DeepCopy())
				return c, nil
			}
			items, _ := c.AsSequence()
			i, err := index(op, tok, len(items)-1)
			if err != nil {
				return c, err
			}
			items[i] = op.Value.DeepCopy()
			return c, nil
		})
	case OpMove:
		root, v, err := extract(root, op, op.From)
		if err != nil {
			return root, err
		}
		return insert(root, op, op.Path, v)
	case OpCopy:
		v, err := lookup(root, op, op.From)
		if err != nil {
			return root, err
		}
		return insert(root, op, op.Path, v.DeepCopy())
	}
	return root, opErr(op, "unknown operation")
}

func insert(root document.Value, op Operation, path Pointer, v document.Value) (document.Value, error) {
	if len(path) == 0 {
		return v, nil
	}
	return modify(root, op, path, func(c document.Value, tok string) (document.Value, error) {
		if m, ok := c.AsMapping(); ok {
			m.Set(tok, v)
			return c, nil
		}
		items, _ := c.AsSequence()
		i := len(items)
		if tok != "-" {
			var err error
			if i, err = index(op, tok, len(items)); err != nil {
				return c, err
			}
		}
		out := make([]document.Value, 0, len(items)+1)
		out = append(out, items[:i]...)
		out = append(out, v)
		out = append(out, items[i:]...)
		return document.Seq(out...), nil
	})
}

func extract(root document.Value, op Operation, path Pointer) (document.Value, document.Value, error) {
	if len(path) == 0 {
		return root, document.Value{}, opErr(op, "cannot remove the root")
	}
	var removed document.Value
	root, err := modify(root, op, path, func(c document.Value, tok string) (document.Value, error) {
		if m, ok := c.AsMapping(); ok {
			v, ok := m.Get(tok)
			if !ok {
				return c, opErr(op, "no such key")
			}
			removed = v
			m.Delete(tok)
			return c, nil
		}
		items, _ := c.AsSequence()
		i, err := index(op, tok, len(items)-1)
		if err != nil {
			return c, err
		}
		removed = items[i]
		out := make([]document.Value, 0, len(items)-1)
		out = append(out, items[:i]...)
		out = append(out, items[i+1:]...)
		return document.Seq(out...), nil
	})
	return root, removed, err
}

func lookup(root document.Value, op Operation, path Pointer) (document.Value, error) {
	cur := root
	for _, tok := range path {
		next, err := child(cur, op, tok)
		if err != nil {
			return document.Value{}, err
		}
		cur = next
	}
	return cur, nil
}

// modify descends to the parent container of path and lets fn rewrite it.
// Each container on the way back up is updated with its rewritten child.
func modify(v document.Value, op Operation, path Pointer, fn func(document.Value, string) (document.Value, error)) (document.Value, error) {
	if v.Kind() != document.KindMapping && v.Kind() != document.KindSequence {
		return v, opErr(op, "parent is a "+v.Kind().String())
	}
	if len(path) == 1 {
		return fn(v, path[0])
	}
	c, err := child(v, op, path[0])
	if err != nil {
		return v, err
	}
	updated, err := modify(c, op, path[1:], fn)
	if err != nil {
		return v, err
	}
	if m, ok := v.AsMapping(); ok {
		m.Set(path[0], updated)
		return v, nil
	}
	items, _ := v.AsSequence()
	i, _ := strconv.Atoi(path[0])
	items[i] = updated
	return v, nil
}

func child(v document.Value, op Operation, tok string) (document.Value, error) {
	if m, ok := v.AsMapping(); ok {
		c, ok := m.Get(tok)
		if !ok {
			return c, opErr(op, "no such key "+strconv.Quote(tok))
		}
		return c, nil
	}
	if items, ok := v.AsSequence(); ok {
		i, err := index(op, tok, len(items)-1)
		if err != nil {
			return document.Value{}, err
		}
		return items[i], nil
	}
	return document.Value{}, opErr(op, "cannot descend into a "+v.Kind().String())
}

// index parses tok as a sequence index in [0, last].
func index(op Operation, tok string, last int) (int, error) {
	i, err := strconv.Atoi(tok)
	if err != nil || i < 0 || strconv.Itoa(i) != tok {
		return 0, opErr(op, "invalid index "+strconv.Quote(tok))
	}
	if i > last {
		return 0, opErr(op, "index "+tok+" out of range")
	}
	return i, nil
}

func opErr(op Operation, reason string) error {
	return &OperationError{Op: op.Op, Path: op.Path.String(), Reason: reason}
}
