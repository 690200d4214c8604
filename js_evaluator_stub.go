//go:build !js_eval

package migrate

// NewJSEvaluator returns nil unless the binary is built with the js_eval
// tag. Options are still validated so call sites compile either way.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	applyJSEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
