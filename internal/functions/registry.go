package functions

import "go.mongodb.org/mongo-driver/bson"

// Family names a function-mapper family, matching spec §4.F's nine groups.
type Family int

const (
	FamilyAggregate Family = iota
	FamilyString
	FamilyMath
	FamilyDateTime
	FamilyConditional
	FamilyJSON
	FamilyExtendedString
	FamilyRegexp
	FamilyWindow
)

// Handler maps a function's raw argument strings to a MongoDB aggregation
// expression fragment.
type Handler func(args []string) (interface{}, error)

// entry pairs a handler with the family it was registered under, so the
// master Index can report both the expression builder and is_aggregate.
type entry struct {
	family  Family
	handler Handler
}

// index is the read-only, once-built registry spec §3's "Lifecycles"
// paragraph calls the only permitted global state.
var index = map[string]entry{}

func register(family Family, names []string, h Handler) {
	for _, n := range names {
		index[n] = entry{family: family, handler: h}
	}
}

func init() {
	registerAggregate()
	registerString()
	registerMath()
	registerDateTime()
	registerConditional()
	registerJSON()
	registerExtendedString()
	registerWindow()
}

// Lookup resolves name (already upper-cased by the caller) to its handler
// and family. ok is false for an unrecognised function name.
func Lookup(name string) (Handler, Family, bool) {
	e, ok := index[name]
	return e.handler, e.family, ok
}

// IsAggregate is authoritative per spec §4.F: enhanced aggregate functions
// (GROUP_CONCAT, STDDEV*, VAR_*, BIT_*) take precedence over a plain
// aggregate of the same name, but since both are registered under
// FamilyAggregate here there is no name collision to resolve.
func IsAggregate(name string) bool {
	e, ok := index[name]
	return ok && e.family == FamilyAggregate
}

// Build resolves and invokes name's handler, returning an
// *UnknownFunctionError if the name is not registered.
func Build(name string, args []string) (interface{}, error) {
	h, _, ok := Lookup(name)
	if !ok {
		return nil, &UnknownFunctionError{Name: name}
	}
	return h(args)
}

// UnknownFunctionError is returned for any name absent from the registry;
// the translator surfaces this as a TranslationError per spec §7.
type UnknownFunctionError struct{ Name string }

func (e *UnknownFunctionError) Error() string {
	return "unknown function: " + e.Name
}

// M is a tiny alias so family files read a little closer to the teacher's
// own `bson.M{...}` literal style without repeating the package prefix.
type M = bson.M
type D = bson.D
type A = bson.A
