package catalog

import "fmt"

const (
	KindCategory    = "category"
	KindSubCategory = "subcategory"
	KindProduct     = "product"
	KindUser        = "user"
)

// ValidationError reports malformed or missing input on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Invalid builds a ValidationError for callers outside the package.
func Invalid(field, format string, args ...any) error {
	return invalid(field, format, args...)
}

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// NotFound builds a NotFoundError.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// DuplicateNameError reports a name collision inside a uniqueness scope.
// Conflict is the stored spelling of the colliding record when known.
type DuplicateNameError struct {
	Kind     string
	Name     string
	Conflict string
	ScopeID  string
}

func (e *DuplicateNameError) Error() string {
	existing := e.Conflict
	if existing == "" {
		existing = e.Name
	}
	if e.Kind == KindSubCategory {
		return fmt.Sprintf("sub category %q already exists in this category (as %q)", e.Name, existing)
	}
	return fmt.Sprintf("%s %q already exists (as %q)", e.Kind, e.Name, existing)
}

// DependencyBlockedError reports an operation refused because other active
// records still depend on the target.
type DependencyBlockedError struct {
	Resource  string
	ID        string
	Dependent string
	Count     int
}

func (e *DependencyBlockedError) Error() string {
	return fmt.Sprintf("cannot delete %s: it still has %d active %s", e.Resource, e.Count, e.Dependent)
}
