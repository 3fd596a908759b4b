package attrs

// Dep identifies a property whose changes re-run a computed observable.
// A nil Source means the property lives on the owning model; a non-nil
// Source declares a cross-model dependency.
type Dep struct {
	Name   string
	Source *Model
}

// On declares a dependency on a property of the owning model.
func On(name string) Dep {
	return Dep{Name: name}
}

// OnModel declares a dependency on a property of another model.
func OnModel(name string, m *Model) Dep {
	return Dep{Name: name, Source: m}
}

// resolve returns the model the dependency targets, substituting the owner
// for local dependencies.
func (d Dep) resolve(owner *Model) *Model {
	if d.Source != nil {
		return d.Source
	}
	return owner
}
