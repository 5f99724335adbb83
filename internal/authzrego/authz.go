// Package authzrego implements davlock.AuthzReadFunc on top of a
// compiled Open Policy Agent Rego module, the same rego.New /
// PrepareForEval / rego.EvalInput shape used elsewhere in this
// codebase's lineage to decide per-request permissions from a
// principal and an action.
package authzrego

import (
	"context"
	"fmt"
	"net/http"

	"github.com/open-policy-agent/opa/rego"

	"github.com/makebin200808/subversion/internal/davlock"
)

// DefaultModule denies everything; callers are expected to supply a
// real policy, but a safe default keeps a misconfigured server from
// silently granting access.
const DefaultModule = `package authz

read = false
`

// query is the prepared, reusable handle OPA returns after compiling a
// module. Held across calls so every authorization check pays only the
// evaluation cost, not the compilation cost.
type query struct {
	prepared rego.PreparedEvalQuery
}

// Compile parses and compiles a Rego module exposing a boolean
// data.authz.read rule. The input document passed at evaluation time
// is:
//
//	{"user": "<authenticated principal or \"\">", "path": "<repo path>", "revision": <int64>}
func Compile(ctx context.Context, module string) (*query, error) {
	r := rego.New(
		rego.Query("data.authz.read"),
		rego.Module("authz.rego", module),
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compiling authorization policy: %w", err)
	}
	return &query{prepared: prepared}, nil
}

// AuthzRead evaluates the compiled policy for (rev, path, the request's
// authenticated principal) and satisfies davlock.AuthzReadFunc's shape.
func (q *query) AuthzRead(ctx context.Context, rev int64, path string, r *http.Request) (bool, error) {
	user := ""
	if r != nil {
		user = davlock.RequestUser(r)
	}

	input := map[string]interface{}{
		"user":     user,
		"path":     path,
		"revision": rev,
	}

	results, err := q.prepared.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("evaluating authorization policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("authorization policy returned a non-boolean result: %v", results[0].Expressions[0].Value)
	}
	return allowed, nil
}

// Func adapts q.AuthzRead to the bare davlock.AuthzReadFunc type.
func (q *query) Func() davlock.AuthzReadFunc {
	return q.AuthzRead
}
