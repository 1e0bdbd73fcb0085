package minipy

import (
	"fmt"
	"strings"
)

// evalArgs evaluates a call's argument expressions in order, stopping at
// the first error.
func evalArgs(args []Statement, scope *Scope, ctx *Context) ([]Value, error) {
	vals := make([]Value, len(args))
	for i, a := range args {
		v, err := a.Eval(scope, ctx)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (n *NumericConst) Eval(scope *Scope, ctx *Context) (Value, error) {
	return IntegerValue(n.Value), nil
}

func (s *StringConst) Eval(scope *Scope, ctx *Context) (Value, error) {
	return StringValue(s.Value), nil
}

func (b *BoolConst) Eval(scope *Scope, ctx *Context) (Value, error) {
	return BoolValue(b.Value), nil
}

func (n *NoneLiteral) Eval(scope *Scope, ctx *Context) (Value, error) {
	return None, nil
}

// Eval resolves the chain's first identifier against scope, then walks
// each subsequent segment as a field lookup on the instance produced so
// far. A lookup that lands on a non-instance, or a field that doesn't
// exist, is a RuntimeError.
func (v *VariableValue) Eval(scope *Scope, ctx *Context) (Value, error) {
	val, ok := scope.Get(v.Ids[0])
	if !ok {
		return None, runtimeErrorf("name %q is not defined", v.Ids[0])
	}
	for _, field := range v.Ids[1:] {
		if val.Kind != KindInstance {
			return None, runtimeErrorf("cannot access field %q on a non-object value", field)
		}
		fv, ok := val.Instance.Fields.Get(field)
		if !ok {
			return None, runtimeErrorf("object has no field %q", field)
		}
		val = fv
	}
	return val, nil
}

func (a *Assignment) Eval(scope *Scope, ctx *Context) (Value, error) {
	v, err := a.Rhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	scope.Set(a.Name, v)
	return v, nil
}

// Eval resolves Object to an instance, then writes Rhs into its field
// scope. Object's own chain resolution (VariableValue.Eval) already
// reports a RuntimeError for an unbound name or an intermediate
// non-instance segment; this method additionally rejects assigning a
// field onto a value that resolved but isn't an instance at all.
func (f *FieldAssignment) Eval(scope *Scope, ctx *Context) (Value, error) {
	objVal, err := f.Object.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	if objVal.Kind != KindInstance {
		return None, runtimeErrorf("cannot assign field %q on a non-object value", f.Field)
	}
	v, err := f.Rhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	objVal.Instance.Fields.Set(f.Field, v)
	return v, nil
}

func (p *Print) Eval(scope *Scope, ctx *Context) (Value, error) {
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		v, err := a.Eval(scope, ctx)
		if err != nil {
			return None, err
		}
		s, err := Str(v, ctx)
		if err != nil {
			return None, err
		}
		parts[i] = s
	}
	fmt.Fprintln(ctx.Out, strings.Join(parts, " "))
	return None, nil
}

func (m *MethodCall) Eval(scope *Scope, ctx *Context) (Value, error) {
	objVal, err := m.Object.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	if objVal.Kind != KindInstance {
		return None, runtimeErrorf("cannot call method %q on a non-object value", m.Method)
	}
	args, err := evalArgs(m.Args, scope, ctx)
	if err != nil {
		return None, err
	}
	return objVal.Instance.Call(m.Method, args, ctx)
}

// Eval resolves Object to an instance and reads Field off it, the same way
// VariableValue.Eval walks a chain of plain identifiers, but Object here
// may be any expression, so this covers field reads on a call or
// instantiation result that a bare identifier chain can't represent.
func (f *FieldAccess) Eval(scope *Scope, ctx *Context) (Value, error) {
	objVal, err := f.Object.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	if objVal.Kind != KindInstance {
		return None, runtimeErrorf("cannot access field %q on a non-object value", f.Field)
	}
	fv, ok := objVal.Instance.Fields.Get(f.Field)
	if !ok {
		return None, runtimeErrorf("object has no field %q", f.Field)
	}
	return fv, nil
}

// Eval allocates a fresh instance and, if the class defines an __init__
// whose arity matches the syntactic argument count, evaluates the
// arguments and calls it. Without a matching __init__ the fresh instance
// is returned directly and the argument expressions are never evaluated.
// A non-None result of the __init__ call (because __init__ itself
// returned a value, or because its body reassigned self, see
// ClassInstance.Call) replaces the fresh instance rather than being
// discarded.
func (n *NewInstance) Eval(scope *Scope, ctx *Context) (Value, error) {
	inst := NewClassInstance(n.Class)
	if !inst.Class.HasMethod("__init__", len(n.Args)) {
		return InstanceValue(inst), nil
	}
	args, err := evalArgs(n.Args, scope, ctx)
	if err != nil {
		return None, err
	}
	result, err := inst.Call("__init__", args, ctx)
	if err != nil {
		return None, err
	}
	if !result.IsNone() {
		return result, nil
	}
	return InstanceValue(inst), nil
}

func (s *Stringify) Eval(scope *Scope, ctx *Context) (Value, error) {
	v, err := s.Arg.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	str, err := Str(v, ctx)
	if err != nil {
		return None, err
	}
	return StringValue(str), nil
}

func (a *Add) Eval(scope *Scope, ctx *Context) (Value, error) {
	lv, err := a.Lhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	rv, err := a.Rhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	return addValues(lv, rv, ctx)
}

func (s *Sub) Eval(scope *Scope, ctx *Context) (Value, error) {
	lv, err := s.Lhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	rv, err := s.Rhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	return subValues(lv, rv)
}

func (m *Mult) Eval(scope *Scope, ctx *Context) (Value, error) {
	lv, err := m.Lhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	rv, err := m.Rhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	return multValues(lv, rv)
}

func (d *Div) Eval(scope *Scope, ctx *Context) (Value, error) {
	lv, err := d.Lhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	rv, err := d.Rhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	return divValues(lv, rv)
}

// Eval implements short-circuiting or: Rhs is only evaluated when Lhs is
// falsy, and the result is always normalized to a Bool.
func (o *Or) Eval(scope *Scope, ctx *Context) (Value, error) {
	lv, err := o.Lhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	if IsTrue(lv) {
		return BoolValue(true), nil
	}
	rv, err := o.Rhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	return BoolValue(IsTrue(rv)), nil
}

// Eval implements short-circuiting and: Rhs is only evaluated when Lhs is
// truthy, and the result is always normalized to a Bool.
func (a *And) Eval(scope *Scope, ctx *Context) (Value, error) {
	lv, err := a.Lhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	if !IsTrue(lv) {
		return BoolValue(false), nil
	}
	rv, err := a.Rhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	return BoolValue(IsTrue(rv)), nil
}

func (n *Not) Eval(scope *Scope, ctx *Context) (Value, error) {
	v, err := n.Arg.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	return BoolValue(!IsTrue(v)), nil
}

func (c *Comparison) Eval(scope *Scope, ctx *Context) (Value, error) {
	lv, err := c.Lhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	rv, err := c.Rhs.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	res, err := compare(c.Op, lv, rv, ctx)
	if err != nil {
		return None, err
	}
	return BoolValue(res), nil
}

// Eval runs each statement in turn, stopping as soon as a Return has
// recorded a value in scope rather than executing the statements that
// would have followed it. Compound itself always evaluates to None; the
// recorded return value is picked up by the enclosing MethodBody.
func (c *Compound) Eval(scope *Scope, ctx *Context) (Value, error) {
	for _, st := range c.Statements {
		if scope.hasReturned() {
			break
		}
		if _, err := st.Eval(scope, ctx); err != nil {
			return None, err
		}
	}
	return None, nil
}

func (m *MethodBody) Eval(scope *Scope, ctx *Context) (Value, error) {
	if _, err := m.Body.Eval(scope, ctx); err != nil {
		return None, err
	}
	return scope.takeReturned(), nil
}

func (r *Return) Eval(scope *Scope, ctx *Context) (Value, error) {
	v, err := r.Value.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	scope.Set(returnedValueKey, v)
	return None, nil
}

func (c *ClassDefinition) Eval(scope *Scope, ctx *Context) (Value, error) {
	scope.Set(c.Class.Name, ClassValue(c.Class))
	return None, nil
}

func (i *IfElse) Eval(scope *Scope, ctx *Context) (Value, error) {
	cond, err := i.Cond.Eval(scope, ctx)
	if err != nil {
		return None, err
	}
	if IsTrue(cond) {
		_, err := i.Then.Eval(scope, ctx)
		return None, err
	}
	if i.Else != nil {
		_, err := i.Else.Eval(scope, ctx)
		return None, err
	}
	return None, nil
}
