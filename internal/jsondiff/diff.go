package jsondiff

import "github.com/ingest-test/ingesttest-go/internal/document"

// Options tunes the produced edit script.
type Options struct {
	// OmitFromValue drops the overwritten value from replace operations.
	OmitFromValue bool
}

// DefaultOptions keeps the original value on every replace.
var DefaultOptions = Options{}

// Diff compares actual against expected position by position and returns the
// operations that turn actual into expected. Every path starts with the
// index of the document it addresses. Identical inputs yield an empty,
// non-nil slice.
func Diff(actual, expected []document.Value) []Operation {
	return DefaultOptions.Diff(actual, expected)
}

// Diff is the package-level Diff with these options.
func (o Options) Diff(actual, expected []document.Value) []Operation {
	d := differ{opts: o, ops: []Operation{}}
	d.sequence(Pointer{}, actual, expected)
	return d.ops
}

// Values compares two single trees. Paths are relative to their roots.
func (o Options) Values(actual, expected document.Value) []Operation {
	d := differ{opts: o, ops: []Operation{}}
	d.value(Pointer{}, actual, expected)
	return d.ops
}

type differ struct {
	opts Options
	ops  []Operation
}

func (d *differ) value(path Pointer, actual, expected document.Value) {
	if document.Equal(actual, expected) {
		return
	}
	if am, ok := actual.AsMapping(); ok {
		if em, ok := expected.AsMapping(); ok {
			d.mapping(path, am, em)
			return
		}
	}
	if as, ok := actual.AsSequence(); ok {
		if es, ok := expected.AsSequence(); ok {
			d.sequence(path, as, es)
			return
		}
	}
	d.replace(path, actual, expected)
}

// mapping walks expected keys in expected order, then actual-only keys in
// actual order.
func (d *differ) mapping(path Pointer, actual, expected *document.Mapping) {
	expected.Range(func(key string, ev document.Value) bool {
		if av, ok := actual.Get(key); ok {
			d.value(path.Append(key), av, ev)
		} else {
			d.add(path.Append(key), ev)
		}
		return true
	})
	actual.Range(func(key string, _ document.Value) bool {
		if !expected.Has(key) {
			d.remove(path.Append(key))
		}
		return true
	})
}

// sequence aligns items by index. Surplus expected items are added in
// ascending order; surplus actual items are removed from the end backwards
// so that replaying the script never shifts an index still to be visited.
func (d *differ) sequence(path Pointer, actual, expected []document.Value) {
	common := min(len(actual), len(expected))
	for i := 0; i < common; i++ {
		d.value(path.AppendIndex(i), actual[i], expected[i])
	}
	for i := common; i < len(expected); i++ {
		d.add(path.AppendIndex(i), expected[i])
	}
	for i := len(actual) - 1; i >= common; i-- {
		d.remove(path.AppendIndex(i))
	}
}

func (d *differ) add(path Pointer, v document.Value) {
	d.ops = append(d.ops, Operation{Op: OpAdd, Path: path, Value: v.DeepCopy()})
}

func (d *differ) remove(path Pointer) {
	d.ops = append(d.ops, Operation{Op: OpRemove, Path: path})
}

func (d *differ) replace(path Pointer, from, to document.Value) {
	op := Operation{Op: OpReplace, Path: path, Value: to.DeepCopy()}
	if !d.opts.OmitFromValue {
		orig := from.DeepCopy()
		op.FromValue = &orig
	}
	d.ops = append(d.ops, op)
}
