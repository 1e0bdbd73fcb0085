package minipy

import (
	"fmt"
	"strconv"
)

// Kind tags the variant carried by a Value.
type Kind int

const (
	KindNone Kind = iota
	KindInteger
	KindBool
	KindString
	KindClass
	KindInstance
)

// Value is the holder used everywhere in the evaluator: a tagged union over
// the six runtime types. The zero Value (Kind == KindNone) is the empty
// holder, i.e. None. Class and ClassInstance are held by pointer, so
// aliased holders share the same live object for as long as anything
// reaches it.
type Value struct {
	Kind     Kind
	Int      int64
	Bool     bool
	Str      string
	Class    *Class
	Instance *ClassInstance
}

// None is the canonical empty holder.
var None = Value{}

func IntegerValue(v int64) Value { return Value{Kind: KindInteger, Int: v} }
func BoolValue(v bool) Value     { return Value{Kind: KindBool, Bool: v} }
func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }
func ClassValue(c *Class) Value  { return Value{Kind: KindClass, Class: c} }
func InstanceValue(i *ClassInstance) Value {
	return Value{Kind: KindInstance, Instance: i}
}

// IsNone reports whether v is the empty holder.
func (v Value) IsNone() bool { return v.Kind == KindNone }

// Method describes a named, parameterized body owned by a Class.
type Method struct {
	Name   string
	Params []string
	Body   Statement
}

// Class is a user-defined class: an ordered/indexed method table plus an
// optional non-owning pointer to a single parent class.
type Class struct {
	Name    string
	Parent  *Class
	methods []*Method
	byName  map[string]*Method
}

// NewClass builds a Class from an ordered method list, indexing it by name
// for lookup.
func NewClass(name string, parent *Class, methods []*Method) *Class {
	c := &Class{
		Name:    name,
		Parent:  parent,
		methods: methods,
		byName:  make(map[string]*Method, len(methods)),
	}
	for _, m := range methods {
		c.byName[m.Name] = m
	}
	return c
}

// Method looks up name in this class's own table, falling back to the
// parent chain. An override in a subclass shadows the parent's method of
// the same name since the subclass's table is always consulted first.
func (c *Class) Method(name string) *Method {
	if m, ok := c.byName[name]; ok {
		return m
	}
	if c.Parent != nil {
		return c.Parent.Method(name)
	}
	return nil
}

// HasMethod reports whether Method(name) exists and takes exactly argc
// parameters. Arity mismatch means "method not present" for dispatch
// purposes, per the language's dunder-overload rules.
func (c *Class) HasMethod(name string, argc int) bool {
	m := c.Method(name)
	return m != nil && len(m.Params) == argc
}

// ClassInstance is a live object: a reference to its class plus its own
// field scope.
type ClassInstance struct {
	Class  *Class
	Fields *Scope
}

// NewClassInstance allocates an instance with an empty field scope.
func NewClassInstance(cls *Class) *ClassInstance {
	return &ClassInstance{Class: cls, Fields: NewScope()}
}

// Call dispatches method on this instance with the given evaluated
// arguments. The call scope is pre-filled with "self" bound to this
// instance and the positional arguments bound by the method's formal
// parameter names.
//
// If, after the body runs, "self" in the call scope no longer refers to
// this instance (the method body reassigned self), Call returns the
// current self binding instead of the body's result.
func (ci *ClassInstance) Call(method string, args []Value, ctx *Context) (Value, error) {
	if !ci.Class.HasMethod(method, len(args)) {
		return None, runtimeErrorf("method %q does not exist with %d argument(s)", method, len(args))
	}
	m := ci.Class.Method(method)

	call := NewScope()
	call.Set("self", InstanceValue(ci))
	for i, param := range m.Params {
		call.Set(param, args[i])
	}

	result, err := m.Body.Eval(call, ctx)
	if err != nil {
		return None, err
	}

	if cur, _ := call.Get("self"); cur.Kind != KindInstance || cur.Instance != ci {
		return cur, nil
	}
	return result, nil
}

// IsTrue implements the language's truthiness rule: None is false, Bool is
// itself, Integer is non-zero, String is non-empty, and everything else
// (Class, ClassInstance) is false.
func IsTrue(v Value) bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInteger:
		return v.Int != 0
	case KindString:
		return v.Str != ""
	default:
		return false
	}
}

// Str renders v's textual form, dispatching to a zero-arity __str__
// override on class instances first.
func Str(v Value, ctx *Context) (string, error) {
	if v.IsNone() {
		return "None", nil
	}
	if v.Kind == KindInstance && v.Instance.Class.HasMethod("__str__", 0) {
		res, err := v.Instance.Call("__str__", nil, ctx)
		if err != nil {
			return "", err
		}
		return Str(res, ctx)
	}
	return defaultStr(v), nil
}

// defaultStr is the textual form used when no __str__ override applies.
func defaultStr(v Value) string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindString:
		return v.Str
	case KindClass:
		return "Class " + v.Class.Name
	case KindInstance:
		// Opaque address-like handle, from pointer identity.
		return fmt.Sprintf("<%s instance at %p>", v.Instance.Class.Name, v.Instance)
	default:
		return "None"
	}
}
