// Package template resolves {{ expr }} placeholders against a layered execution context.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/clawtomations/pkg/models"
	"github.com/jonboulle/clockwork"
)

// ErrUnresolvedExpression is returned in strict mode when an expression has no value.
var ErrUnresolvedExpression = errors.New("unresolved template expression")

var placeholderPattern = regexp.MustCompile(`{{\s*([^}]+?)\s*}}`)

type prefixLookup struct {
	prefix string
	lookup func(r *Resolver, key string, ctx *models.ExecutionContext) (any, bool)
}

// Prefixed expressions are checked in this order. A prefix match never falls
// through to the bare name lookups.
var prefixes = []prefixLookup{
	{"env.", func(r *Resolver, key string, _ *models.ExecutionContext) (any, bool) {
		return r.env.Lookup(key)
	}},
	{"now.", func(r *Resolver, key string, _ *models.ExecutionContext) (any, bool) {
		value, ok := models.NowFields(r.clock.Now())[key]

		return value, ok
	}},
	{"site.", func(_ *Resolver, key string, ctx *models.ExecutionContext) (any, bool) {
		return lookupPath(ctx.Site, key)
	}},
	{"workflow.", func(_ *Resolver, key string, ctx *models.ExecutionContext) (any, bool) {
		return lookupPath(ctx.Workflow, key)
	}},
	{"run.", func(_ *Resolver, key string, ctx *models.ExecutionContext) (any, bool) {
		return lookupPath(ctx.Run.Fields(), key)
	}},
	{"outputs.", func(_ *Resolver, key string, ctx *models.ExecutionContext) (any, bool) {
		return lookupPath(ctx.Outputs, key)
	}},
	{"vars.", func(_ *Resolver, key string, ctx *models.ExecutionContext) (any, bool) {
		return lookupPath(ctx.Vars, key)
	}},
}

type Resolver struct {
	clock  clockwork.Clock
	env    models.Environment
	strict bool
}

type Option func(*Resolver)

func WithClock(clock clockwork.Clock) Option {
	return func(r *Resolver) {
		r.clock = clock
	}
}

func WithEnvironment(env models.Environment) Option {
	return func(r *Resolver) {
		r.env = env
	}
}

// WithStrict makes unresolved expressions an error instead of an empty string.
func WithStrict(strict bool) Option {
	return func(r *Resolver) {
		r.strict = strict
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		clock: clockwork.NewRealClock(),
		env:   models.OSEnvironment{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Resolver) Strict() bool {
	return r.strict
}

// Resolve evaluates one expression. The boolean reports whether a value was found.
func (r *Resolver) Resolve(expr string, ctx *models.ExecutionContext) (any, bool) {
	if ctx == nil {
		ctx = &models.ExecutionContext{}
	}

	expr = strings.TrimSpace(expr)

	for _, p := range prefixes {
		if key, ok := strings.CutPrefix(expr, p.prefix); ok {
			return p.lookup(r, key, ctx)
		}
	}

	if value, ok := ctx.Vars[expr]; ok {
		return value, true
	}

	return ctx.Layer(expr)
}

// Render replaces every placeholder in input. Placeholders are resolved left to
// right and independently of each other.
func (r *Resolver) Render(input string, ctx *models.ExecutionContext) (string, error) {
	if !strings.Contains(input, "{{") {
		return input, nil
	}

	var firstErr error

	output := placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := placeholderPattern.FindStringSubmatch(match)[1]

		value, ok := r.Resolve(expr, ctx)
		if !ok && r.strict && firstErr == nil {
			firstErr = fmt.Errorf("%w: %s", ErrUnresolvedExpression, strings.TrimSpace(expr))
		}

		return Stringify(value)
	})

	if firstErr != nil {
		return "", firstErr
	}

	return output, nil
}

// RenderValue renders every string leaf of value, keeping its structure.
// Non-string leaves are returned unchanged.
func (r *Resolver) RenderValue(value any, ctx *models.ExecutionContext) (any, error) {
	switch v := value.(type) {
	case string:
		return r.Render(v, ctx)
	case []any:
		out := make([]any, len(v))

		for i, entry := range v {
			rendered, err := r.RenderValue(entry, ctx)
			if err != nil {
				return nil, err
			}

			out[i] = rendered
		}

		return out, nil
	case []string:
		out := make([]string, len(v))

		for i, entry := range v {
			rendered, err := r.Render(entry, ctx)
			if err != nil {
				return nil, err
			}

			out[i] = rendered
		}

		return out, nil
	case map[string]any:
		return r.renderMap(v, ctx)
	case models.Step:
		rendered, err := r.renderMap(v, ctx)
		if err != nil {
			return nil, err
		}

		return models.Step(rendered), nil
	case map[string]string:
		out := make(map[string]string, len(v))

		for key, entry := range v {
			rendered, err := r.Render(entry, ctx)
			if err != nil {
				return nil, err
			}

			out[key] = rendered
		}

		return out, nil
	default:
		return value, nil
	}
}

// RenderStep returns a copy of step with all placeholders resolved.
func (r *Resolver) RenderStep(step models.Step, ctx *models.ExecutionContext) (models.Step, error) {
	rendered, err := r.renderMap(step, ctx)
	if err != nil {
		return nil, err
	}

	return models.Step(rendered), nil
}

func (r *Resolver) renderMap(m map[string]any, ctx *models.ExecutionContext) (map[string]any, error) {
	out := make(map[string]any, len(m))

	for key, entry := range m {
		rendered, err := r.RenderValue(entry, ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}

		out[key] = rendered
	}

	return out, nil
}

// Stringify converts a resolved value to its placeholder text. Nil becomes "".
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	case map[string]any, map[string]string, []any, []string, models.Step:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

// lookupPath finds key in root. A key present as-is wins over a dotted walk
// through nested maps.
func lookupPath(root any, key string) (any, bool) {
	if value, ok := lookupKey(root, key); ok {
		return value, true
	}

	if !strings.Contains(key, ".") {
		return nil, false
	}

	current := root

	for _, part := range strings.Split(key, ".") {
		value, ok := lookupKey(current, part)
		if !ok {
			return nil, false
		}

		current = value
	}

	return current, true
}

func lookupKey(container any, key string) (any, bool) {
	switch c := container.(type) {
	case map[string]any:
		v, ok := c[key]

		return v, ok
	case models.Step:
		v, ok := c[key]

		return v, ok
	case map[string]string:
		v, ok := c[key]

		return v, ok
	case []any:
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || index >= len(c) {
			return nil, false
		}

		return c[index], true
	default:
		return nil, false
	}
}
