package minipy

// Parser consumes a Lexer and produces a single root Compound AST for the
// whole program. It owns an environment mapping class names declared so
// far to the Class objects they resolved to, which resolves the
// instantiation-vs-method-call ambiguity in the grammar at parse time.
type Parser struct {
	lex     *Lexer
	classes map[string]*Class
}

// NewParser wraps lex. The lexer's first token must already be primed
// (NewLexer does this).
func NewParser(lex *Lexer) *Parser {
	return &Parser{lex: lex, classes: make(map[string]*Class)}
}

// Parse runs the whole token stream and returns the root Compound.
func (p *Parser) Parse() (*Compound, error) {
	if err := p.lex.Err(); err != nil {
		return nil, err
	}
	return p.program()
}

func (p *Parser) peek() Token { return p.lex.Current() }

// advance returns the current token and moves the lexer forward by one.
func (p *Parser) advance() (Token, error) {
	tok := p.lex.Current()
	if _, err := p.lex.Next(); err != nil {
		return tok, err
	}
	return tok, nil
}

func (p *Parser) isChar(c byte) bool {
	t := p.peek()
	return t.Type == TokenChar && t.Char == c
}

// expect consumes the current token if it matches typ, otherwise returns a
// ParseError naming the offending token.
func (p *Parser) expect(typ TokenType) (Token, error) {
	if p.peek().Type != typ {
		return Token{}, parseErrorf("expected %s, got %s", tokenNames[typ], p.peek())
	}
	return p.advance()
}

// expectEnd consumes the current token if it matches typ, but also accepts
// the end of the stream in its place. A trailing comment that runs to the
// end of the input suppresses the final Newline and any pending Dedents,
// so statement and block terminators may legitimately be missing there.
func (p *Parser) expectEnd(typ TokenType) error {
	if p.peek().Type == TokenEOF {
		return nil
	}
	_, err := p.expect(typ)
	return err
}

// expectChar consumes a Char(c) token or returns a ParseError.
func (p *Parser) expectChar(c byte) error {
	if !p.isChar(c) {
		return parseErrorf("expected %q, got %s", c, p.peek())
	}
	_, err := p.advance()
	return err
}

func (p *Parser) program() (*Compound, error) {
	var stmts []Statement
	for p.peek().Type != TokenEOF {
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	return &Compound{Statements: stmts}, nil
}

// statement parses one top-level or suite-level statement. class_def and
// if_stmt embed their own terminating NEWLINE (as part of their suite);
// every other statement form is a simple_stmt and must be followed by an
// explicit NEWLINE.
func (p *Parser) statement() (Statement, error) {
	switch p.peek().Type {
	case TokenClass:
		return p.classDef()
	case TokenIf:
		return p.ifStmt()
	default:
		st, err := p.simpleStatement()
		if err != nil {
			return nil, err
		}
		if err := p.expectEnd(TokenNewline); err != nil {
			return nil, err
		}
		return st, nil
	}
}

func (p *Parser) simpleStatement() (Statement, error) {
	switch p.peek().Type {
	case TokenPrint:
		return p.printStmt()
	case TokenReturn:
		return p.returnStmt()
	default:
		return p.assignmentOrExpr()
	}
}

func (p *Parser) printStmt() (Statement, error) {
	if _, err := p.advance(); err != nil {
		return nil, err
	}
	first, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	args := []Statement{first}
	for p.isChar(',') {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		arg, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return &Print{Args: args}, nil
}

func (p *Parser) returnStmt() (Statement, error) {
	if _, err := p.advance(); err != nil {
		return nil, err
	}
	val, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	return &Return{Value: val}, nil
}

// assignmentOrExpr parses a full expression and then, if it turned out to
// be a bare VariableValue immediately followed by '=', reinterprets it as
// an Assignment or FieldAssignment depending on the identifier chain's
// length. This mirrors the "parse greedily, then check the trailing
// token" tie-break the grammar describes for assignment recognition.
func (p *Parser) assignmentOrExpr() (Statement, error) {
	expr, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	vv, ok := expr.(*VariableValue)
	if !ok || !p.isChar('=') {
		return expr, nil
	}
	if _, err := p.advance(); err != nil {
		return nil, err
	}
	rhs, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if len(vv.Ids) == 1 {
		return &Assignment{Name: vv.Ids[0], Rhs: rhs}, nil
	}
	return &FieldAssignment{
		Object: &VariableValue{Ids: vv.Ids[:len(vv.Ids)-1]},
		Field:  vv.Ids[len(vv.Ids)-1],
		Rhs:    rhs,
	}, nil
}

func (p *Parser) classDef() (Statement, error) {
	if _, err := p.advance(); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}

	var parent *Class
	if p.isChar('(') {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		baseTok, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		base, ok := p.classes[baseTok.Str]
		if !ok {
			return nil, parseErrorf("unknown base class %q", baseTok.Str)
		}
		parent = base
		if err := p.expectChar(')'); err != nil {
			return nil, err
		}
	}

	// Register the class before its methods are parsed, so a method body can
	// instantiate its own class (e.g. an __add__ returning a new instance);
	// the method table is filled in once the body has been read.
	cls := NewClass(nameTok.Str, parent, nil)
	p.classes[cls.Name] = cls

	if err := p.expectChar(':'); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenNewline); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenIndent); err != nil {
		return nil, err
	}

	var methods []*Method
	for p.peek().Type == TokenDef {
		m, err := p.methodDef()
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	if len(methods) == 0 {
		return nil, parseErrorf("class %q must declare at least one method", nameTok.Str)
	}
	if err := p.expectEnd(TokenDedent); err != nil {
		return nil, err
	}

	*cls = *NewClass(nameTok.Str, parent, methods)
	return &ClassDefinition{Class: cls}, nil
}

func (p *Parser) methodDef() (*Method, error) {
	if _, err := p.advance(); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if err := p.expectChar('('); err != nil {
		return nil, err
	}

	var params []string
	for p.peek().Type == TokenIdentifier {
		idTok, err := p.advance()
		if err != nil {
			return nil, err
		}
		params = append(params, idTok.Str)
		if p.isChar(',') {
			if _, err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectChar(')'); err != nil {
		return nil, err
	}
	if err := p.expectChar(':'); err != nil {
		return nil, err
	}

	body, err := p.suite()
	if err != nil {
		return nil, err
	}
	// "self" is written as an ordinary leading parameter in source, but the
	// runtime binds it separately from the positional argument list (see
	// ClassInstance.Call), so strip it here to keep Params lined up
	// one-to-one with a call's actual arguments.
	if len(params) > 0 && params[0] == "self" {
		params = params[1:]
	}
	return &Method{Name: nameTok.Str, Params: params, Body: &MethodBody{Body: body}}, nil
}

// suite parses "NEWLINE INDENT statement+ DEDENT".
func (p *Parser) suite() (*Compound, error) {
	if _, err := p.expect(TokenNewline); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenIndent); err != nil {
		return nil, err
	}
	var stmts []Statement
	for p.peek().Type != TokenDedent && p.peek().Type != TokenEOF {
		st, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	if err := p.expectEnd(TokenDedent); err != nil {
		return nil, err
	}
	return &Compound{Statements: stmts}, nil
}

func (p *Parser) ifStmt() (Statement, error) {
	if _, err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectChar(':'); err != nil {
		return nil, err
	}
	thenBody, err := p.suite()
	if err != nil {
		return nil, err
	}

	var elseBody Statement
	if p.peek().Type == TokenElse {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectChar(':'); err != nil {
			return nil, err
		}
		elseBody, err = p.suite()
		if err != nil {
			return nil, err
		}
	}

	return &IfElse{Cond: cond, Then: thenBody, Else: elseBody}, nil
}

// --- expression grammar: precedence climbing, loosest to tightest ---

func (p *Parser) orExpr() (Statement, error) {
	lhs, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenOr {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		lhs = &Or{Lhs: lhs, Rhs: rhs}
	}
	return lhs, nil
}

func (p *Parser) andExpr() (Statement, error) {
	lhs, err := p.notExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenAnd {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		lhs = &And{Lhs: lhs, Rhs: rhs}
	}
	return lhs, nil
}

func (p *Parser) notExpr() (Statement, error) {
	if p.peek().Type == TokenNot {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		return &Not{Arg: operand}, nil
	}
	return p.cmpExpr()
}

var compareOps = map[TokenType]CompareOp{
	TokenEq:          CmpEq,
	TokenNotEq:       CmpNotEq,
	TokenLessOrEq:    CmpLtEq,
	TokenGreaterOrEq: CmpGtEq,
}

// cmpExpr is non-associative: at most one comparison operator at this
// level, binding tighter than and/or/not but looser than + - * /.
func (p *Parser) cmpExpr() (Statement, error) {
	lhs, err := p.addExpr()
	if err != nil {
		return nil, err
	}

	if op, ok := compareOps[p.peek().Type]; ok {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.addExpr()
		if err != nil {
			return nil, err
		}
		return &Comparison{Op: op, Lhs: lhs, Rhs: rhs}, nil
	}
	if p.isChar('<') {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.addExpr()
		if err != nil {
			return nil, err
		}
		return &Comparison{Op: CmpLt, Lhs: lhs, Rhs: rhs}, nil
	}
	if p.isChar('>') {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.addExpr()
		if err != nil {
			return nil, err
		}
		return &Comparison{Op: CmpGt, Lhs: lhs, Rhs: rhs}, nil
	}
	return lhs, nil
}

func (p *Parser) addExpr() (Statement, error) {
	lhs, err := p.mulExpr()
	if err != nil {
		return nil, err
	}
	for p.isChar('+') || p.isChar('-') {
		opTok, err := p.advance()
		if err != nil {
			return nil, err
		}
		rhs, err := p.mulExpr()
		if err != nil {
			return nil, err
		}
		if opTok.Char == '+' {
			lhs = &Add{Lhs: lhs, Rhs: rhs}
		} else {
			lhs = &Sub{Lhs: lhs, Rhs: rhs}
		}
	}
	return lhs, nil
}

func (p *Parser) mulExpr() (Statement, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isChar('*') || p.isChar('/') {
		opTok, err := p.advance()
		if err != nil {
			return nil, err
		}
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		if opTok.Char == '*' {
			lhs = &Mult{Lhs: lhs, Rhs: rhs}
		} else {
			lhs = &Div{Lhs: lhs, Rhs: rhs}
		}
	}
	return lhs, nil
}

// unary handles the grammar's two tight-binding forms that aren't plain
// primaries: a leading unary minus, rewritten as Sub(0, operand) since the
// AST has no dedicated negation node, and the "str(expr)" stringify form
// (str is not a reserved word, so it's recognized here by identifier text
// before falling back to the general dotted-id/call handling in primary).
func (p *Parser) unary() (Statement, error) {
	if p.isChar('-') {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Sub{Lhs: &NumericConst{Value: 0}, Rhs: operand}, nil
	}

	if p.peek().Type == TokenIdentifier && p.peek().Str == "str" {
		first, err := p.advance()
		if err != nil {
			return nil, err
		}
		if p.isChar('(') {
			if _, err := p.advance(); err != nil {
				return nil, err
			}
			inner, err := p.orExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectChar(')'); err != nil {
				return nil, err
			}
			return &Stringify{Arg: inner}, nil
		}
		expr, err := p.identifierChainFrom(first)
		if err != nil {
			return nil, err
		}
		return p.postfix(expr)
	}

	return p.primary()
}

// primary parses one atom and then folds any further postfix ".Id" /
// ".Id(arglist)" segments onto it, so a method call or field read can
// apply to the result of a prior call or instantiation, e.g. the second
// call in "B().f()" applies to the instance the first call just built.
func (p *Parser) primary() (Statement, error) {
	expr, err := p.atom()
	if err != nil {
		return nil, err
	}
	return p.postfix(expr)
}

func (p *Parser) atom() (Statement, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenInteger:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &NumericConst{Value: tok.Int}, nil
	case TokenString:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &StringConst{Value: tok.Str}, nil
	case TokenTrue:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &BoolConst{Value: true}, nil
	case TokenFalse:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &BoolConst{Value: false}, nil
	case TokenNone:
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		return &NoneLiteral{}, nil
	case TokenIdentifier:
		first, err := p.advance()
		if err != nil {
			return nil, err
		}
		return p.identifierChainFrom(first)
	case TokenChar:
		if tok.Char == '(' {
			if _, err := p.advance(); err != nil {
				return nil, err
			}
			inner, err := p.orExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectChar(')'); err != nil {
				return nil, err
			}
			return inner, nil
		}
	}
	return nil, parseErrorf("unexpected token %s", tok)
}

// postfix folds zero or more ".Id" / ".Id(arglist)" segments onto expr. A
// segment followed by '(' becomes a MethodCall on the expression built so
// far; otherwise it's a field read, appended to a VariableValue's chain if
// expr still is one (keeping plain identifier chains as VariableValue), or
// wrapped as a FieldAccess when expr is already a call or instantiation
// result that VariableValue can't represent.
func (p *Parser) postfix(expr Statement) (Statement, error) {
	for p.isChar('.') {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		idTok, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		if p.isChar('(') {
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			expr = &MethodCall{Object: expr, Method: idTok.Str, Args: args}
			continue
		}
		if vv, ok := expr.(*VariableValue); ok {
			ids := make([]string, len(vv.Ids)+1)
			copy(ids, vv.Ids)
			ids[len(vv.Ids)] = idTok.Str
			expr = &VariableValue{Ids: ids}
			continue
		}
		expr = &FieldAccess{Object: expr, Field: idTok.Str}
	}
	return expr, nil
}

// identifierChainFrom parses the dotted-identifier tail starting after an
// already-consumed first identifier, then resolves the tie-break: a
// trailing '(' makes it a MethodCall (chain length >= 2, last segment is
// the method name) or a NewInstance (chain length 1 naming a known
// class); otherwise it's a plain VariableValue.
func (p *Parser) identifierChainFrom(first Token) (Statement, error) {
	ids := []string{first.Str}
	for p.isChar('.') {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		idTok, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		ids = append(ids, idTok.Str)
	}

	if !p.isChar('(') {
		return &VariableValue{Ids: ids}, nil
	}

	args, err := p.argList()
	if err != nil {
		return nil, err
	}
	if len(ids) >= 2 {
		return &MethodCall{
			Object: &VariableValue{Ids: ids[:len(ids)-1]},
			Method: ids[len(ids)-1],
			Args:   args,
		}, nil
	}
	cls, ok := p.classes[ids[0]]
	if !ok {
		return nil, parseErrorf("%q is not a known class", ids[0])
	}
	return &NewInstance{Class: cls, Args: args}, nil
}

func (p *Parser) argList() ([]Statement, error) {
	if err := p.expectChar('('); err != nil {
		return nil, err
	}
	var args []Statement
	if !p.isChar(')') {
		for {
			arg, err := p.orExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.isChar(',') {
				if _, err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if err := p.expectChar(')'); err != nil {
		return nil, err
	}
	return args, nil
}
