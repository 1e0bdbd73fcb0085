package minipy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// run parses and evaluates src, returning whatever the program wrote to
// its output stream.
func run(t *testing.T, src string) (string, error) {
	t.Helper()
	prog, err := parse(t, src)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	ctx := NewContext(&out)
	_, err = prog.Eval(NewScope(), ctx)
	return out.String(), err
}

func TestEvalArithmetic(t *testing.T) {
	out, err := run(t, "print 1 + 2 * 3\nprint 10 / 3\nprint 10 - 20\n")
	assert.NoError(t, err)
	assert.Equal(t, "7\n3\n-10\n", out)
}

func TestEvalDivisionByZero(t *testing.T) {
	_, err := run(t, "print 1 / 0\n")
	assert.Error(t, err)
	var re *RuntimeError
	assert.ErrorAs(t, err, &re)
}

func TestEvalStringConcat(t *testing.T) {
	out, err := run(t, "print \"foo\" + \"bar\"\n")
	assert.NoError(t, err)
	assert.Equal(t, "foobar\n", out)
}

func TestEvalTruthiness(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"zero is falsy", "if 0:\n  print 1\nelse:\n  print 2\n", "2\n"},
		{"nonzero is truthy", "if 5:\n  print 1\nelse:\n  print 2\n", "1\n"},
		{"empty string is falsy", "if \"\":\n  print 1\nelse:\n  print 2\n", "2\n"},
		{"nonempty string is truthy", "if \"x\":\n  print 1\nelse:\n  print 2\n", "1\n"},
		{"None is falsy", "if None:\n  print 1\nelse:\n  print 2\n", "2\n"},
		{"True is truthy", "if True:\n  print 1\nelse:\n  print 2\n", "1\n"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			out, err := run(t, c.src)
			assert.NoError(t, err)
			assert.Equal(t, c.want, out)
		})
	}
}

func TestEvalComparisons(t *testing.T) {
	out, err := run(t, "print 1 < 2\nprint 1 > 2\nprint 1 <= 1\nprint 1 >= 2\nprint 1 == 1\nprint 1 != 1\n")
	assert.NoError(t, err)
	assert.Equal(t, "True\nFalse\nTrue\nFalse\nTrue\nFalse\n", out)
}

func TestEvalLogicalShortCircuit(t *testing.T) {
	out, err := run(t, "print True or 1/0\nprint False and 1/0\n")
	assert.NoError(t, err)
	assert.Equal(t, "True\nFalse\n", out)
}

func TestEvalClassAndDunderStr(t *testing.T) {
	src := "class Point:\n" +
		"  def __init__(self, x, y):\n" +
		"    self.x = x\n" +
		"    self.y = y\n" +
		"  def __str__(self):\n" +
		"    return str(self.x) + \",\" + str(self.y)\n" +
		"p = Point(1, 2)\n" +
		"print p\n"
	out, err := run(t, src)
	assert.NoError(t, err)
	assert.Equal(t, "1,2\n", out)
}

func TestEvalInheritanceOverride(t *testing.T) {
	src := "class Animal:\n" +
		"  def __init__(self, name):\n" +
		"    self.name = name\n" +
		"  def speak(self):\n" +
		"    return \"...\"\n" +
		"class Dog(Animal):\n" +
		"  def speak(self):\n" +
		"    return \"Woof\"\n" +
		"a = Animal(\"Rex\")\n" +
		"d = Dog(\"Fido\")\n" +
		"print a.speak()\n" +
		"print d.speak()\n" +
		"print d.name\n"
	out, err := run(t, src)
	assert.NoError(t, err)
	assert.Equal(t, "...\nWoof\nFido\n", out)
}

func TestEvalDunderEqAndLt(t *testing.T) {
	src := "class Box:\n" +
		"  def __init__(self, v):\n" +
		"    self.v = v\n" +
		"  def __eq__(self, other):\n" +
		"    return self.v == other.v\n" +
		"  def __lt__(self, other):\n" +
		"    return self.v < other.v\n" +
		"a = Box(1)\n" +
		"b = Box(2)\n" +
		"c = Box(1)\n" +
		"print a == c\n" +
		"print a == b\n" +
		"print a < b\n" +
		"print a > b\n" +
		"print a <= c\n"
	out, err := run(t, src)
	assert.NoError(t, err)
	assert.Equal(t, "True\nFalse\nTrue\nFalse\nTrue\n", out)
}

func TestEvalAddOverload(t *testing.T) {
	src := "class Vec:\n" +
		"  def __init__(self, v):\n" +
		"    self.v = v\n" +
		"  def __add__(self, other):\n" +
		"    return Vec(self.v + other.v)\n" +
		"  def __str__(self):\n" +
		"    return str(self.v)\n" +
		"a = Vec(1)\n" +
		"b = Vec(2)\n" +
		"print a + b\n"
	out, err := run(t, src)
	assert.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

// TestEvalSelfRebindingQuirk: if a method body reassigns its own "self"
// binding, the call returns that new binding instead of whatever the
// method body returned.
func TestEvalSelfRebindingQuirk(t *testing.T) {
	src := "class Counter:\n" +
		"  def __init__(self, n):\n" +
		"    self.n = n\n" +
		"  def replace(self, other):\n" +
		"    self = other\n" +
		"    return 999\n" +
		"  def n_of(self):\n" +
		"    return self.n\n" +
		"a = Counter(1)\n" +
		"b = Counter(2)\n" +
		"r = a.replace(b)\n" +
		"print r.n_of()\n"
	out, err := run(t, src)
	assert.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestEvalReturnStopsCompoundEarly(t *testing.T) {
	src := "class Early:\n" +
		"  def go(self):\n" +
		"    return 1\n" +
		"    return 2\n" +
		"e = Early()\n" +
		"print e.go()\n"
	out, err := run(t, src)
	assert.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestEvalMethodMissingArity(t *testing.T) {
	src := "class Foo:\n" +
		"  def bar(self):\n" +
		"    return None\n" +
		"f = Foo()\n" +
		"f.bar(1)\n"
	_, err := run(t, src)
	assert.Error(t, err)
}

func TestEvalInstantiationWithoutInitIgnoresArgs(t *testing.T) {
	src := "class Foo:\n" +
		"  def bar(self):\n" +
		"    return 1\n" +
		"x = Foo(undefined_var)\n" +
		"print x.bar()\n"
	out, err := run(t, src)
	assert.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestEvalUndefinedName(t *testing.T) {
	_, err := run(t, "print x\n")
	assert.Error(t, err)
}

func TestEvalScopeIsolationBetweenCalls(t *testing.T) {
	src := "class Counter:\n" +
		"  def __init__(self, n):\n" +
		"    self.n = n\n" +
		"  def bump(self, by):\n" +
		"    self.n = self.n + by\n" +
		"    return self.n\n" +
		"a = Counter(0)\n" +
		"b = Counter(100)\n" +
		"print a.bump(1)\n" +
		"print b.bump(1)\n" +
		"print a.bump(1)\n"
	out, err := run(t, src)
	assert.NoError(t, err)
	assert.Equal(t, "1\n101\n2\n", out)
}
