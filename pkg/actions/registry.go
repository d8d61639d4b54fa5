package actions

import (
	"slices"

	"github.com/dukex/clawtomations/pkg/models"
)

// Registry maps step action names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with every built-in action registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}

	r.Register("navigate", newNavigate)
	r.Register("open", newNavigate)
	r.Register("click", newClick)
	r.Register("fill", newFill)
	r.Register("press", newPress)
	r.Register("check", newSetChecked(true))
	r.Register("uncheck", newSetChecked(false))
	r.Register("select", newSelect)
	r.Register("waitForSelector", newWaitForSelector)
	r.Register("wait", newWait)
	r.Register("screenshot", newScreenshot)
	r.Register("copy", newCopy)
	r.Register("upload", newUpload)
	r.Register("eval", newEval)
	r.Register("focus", newPointer)
	r.Register("hover", newPointer)

	return r
}

func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

func (r *Registry) Supports(name string) bool {
	_, ok := r.factories[name]

	return ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Parse decodes a resolved step. Unknown actions yield an UnsupportedActionError.
func (r *Registry) Parse(step models.Step) (Action, error) {
	name := step.Action()

	factory, ok := r.factories[name]
	if !ok {
		return nil, &UnsupportedActionError{Action: name}
	}

	return factory(step)
}
