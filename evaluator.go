package tagcache

// Invocation carries the call metadata tag templates are evaluated against:
// the operation name, its arguments and (for post-success hooks) its result.
type Invocation struct {
	Method string
	Args   []any
	Named  map[string]any
	Result any
}

// Evaluator turns a tag template into a concrete tag string for one
// invocation. The expression language is external to this package; wire in
// whatever template engine the application uses. Errors surface as
// *EvaluationError from Record/Evict.
type Evaluator interface {
	Evaluate(template string, inv Invocation) (string, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(template string, inv Invocation) (string, error)

func (f EvaluatorFunc) Evaluate(template string, inv Invocation) (string, error) {
	return f(template, inv)
}

// Literal treats every template as an already-concrete tag. It is the
// default when Options.Evaluator is nil.
var Literal Evaluator = EvaluatorFunc(func(template string, _ Invocation) (string, error) {
	return template, nil
})
