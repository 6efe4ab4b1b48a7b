package parser

import (
	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/token"
)

// modifiers accumulates the leading access/storage keywords that can precede
// a var/let/func/class/struct/enum/protocol/extension declaration.
type modifiers struct {
	access      ast.AccessLevel
	isStatic    bool
	isLazy      bool
	isWeak      bool
	isUnowned   bool
	isMutating  bool
	isOverride  bool
}

func (p *Parser) parseModifiers() modifiers {
	m := modifiers{access: ast.AccessInternal}
	for {
		switch p.curToken.Type {
		case token.PRIVATE:
			m.access = ast.AccessPrivate
		case token.PUBLIC:
			m.access = ast.AccessPublic
		case token.FILEPRIVATE:
			m.access = ast.AccessFileprivate
		case token.INTERNAL:
			m.access = ast.AccessInternal
		case token.STATIC:
			m.isStatic = true
		case token.LAZY:
			m.isLazy = true
		case token.WEAK:
			m.isWeak = true
		case token.UNOWNED:
			m.isUnowned = true
		case token.MUTATING:
			m.isMutating = true
		case token.OVERRIDE:
			m.isOverride = true
		default:
			return m
		}
		p.nextToken()
	}
}

// parseStatement parses one statement in block or top-level position.
// curToken is on the statement's first token on entry; on return curToken
// is the statement's last token (the driving loop advances past it).
func (p *Parser) parseStatement() ast.Statement {
	mods := p.parseModifiers()
	switch p.curToken.Type {
	case token.VAR, token.LET:
		return p.parseVarDeclStatement(mods)
	case token.FUNC:
		return p.parseFuncDeclStatement(mods)
	case token.INIT:
		return p.parseInitDeclStatement(mods)
	case token.CLASS:
		return p.parseClassDeclStatement(mods)
	case token.STRUCT:
		return p.parseStructDeclStatement(mods)
	case token.ENUM:
		return p.parseEnumDeclStatement(mods)
	case token.PROTOCOL:
		return p.parseProtocolDeclStatement(mods)
	case token.EXTENSION:
		return p.parseExtensionDeclStatement(mods)
	case token.IMPORT:
		return p.parseImportStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.GUARD:
		return p.parseGuardStatement()
	case token.SWITCH:
		return p.parseSwitchStatement()
	case token.FOR:
		return p.parseForInStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.REPEAT:
		return p.parseRepeatWhileStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		return &ast.BreakStatement{Base: ast.NewBase(p.curToken)}
	case token.CONTINUE:
		return &ast.ContinueStatement{Base: ast.NewBase(p.curToken)}
	case token.THROW:
		return p.parseThrowStatement()
	case token.LBRACE:
		return p.parseBlockStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	tok := p.curToken // LBRACE
	block := &ast.BlockStatement{Base: ast.NewBase(tok)}
	p.nextToken()
	p.skipNewlines()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
		p.skipNewlines()
	}
	return block
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	tok := p.curToken
	expr := p.parseExpression(precAssignment - 1)
	return &ast.ExpressionStatement{Base: ast.NewBase(tok), Expr: expr}
}

// parseParams parses a parenthesized parameter list. curToken must be LPAREN
// on entry; curToken is RPAREN on return.
func (p *Parser) parseParams() []ast.Param {
	p.nextToken()
	var params []ast.Param
	for !p.curTokenIs(token.RPAREN) {
		extLabel := ""
		var name string
		if p.curTokenIs(token.UNDERSCORE) {
			extLabel = "_"
			p.nextToken()
			name = p.curToken.Lexeme
			p.nextToken()
		} else {
			first := p.curToken.Lexeme
			if p.peekTokenIs(token.IDENT) {
				extLabel = first
				p.nextToken()
				name = p.curToken.Lexeme
				p.nextToken()
			} else {
				name = first
				p.nextToken()
			}
		}
		var typ ast.Type
		if p.curTokenIs(token.COLON) {
			p.nextToken()
			typ = p.parseType()
			p.nextToken()
		}
		variadic := false
		if p.curTokenIs(token.ELLIPSIS) {
			variadic = true
			p.nextToken()
		}
		var def ast.Expression
		if p.curTokenIs(token.ASSIGN) {
			p.nextToken()
			def = p.parseExpression(precAssignment)
			p.nextToken()
		}
		params = append(params, ast.Param{ExternalLabel: extLabel, Name: name, Type: typ, Default: def, IsVariadic: variadic})
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	return params
}

func (p *Parser) parseVarDeclStatement(mods modifiers) ast.Statement {
	tok := p.curToken
	isLet := tok.Type == token.LET
	p.nextToken()
	var pattern ast.Pattern
	var name string
	if p.curTokenIs(token.LPAREN) {
		pattern = p.parseTuplePattern()
	} else {
		name = p.curToken.Lexeme
	}
	var typeAnn ast.Type
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		typeAnn = p.parseType()
	}
	var value ast.Expression
	var computed *ast.ComputedPropertyDecl
	var observers *ast.PropertyObserverDecl2
	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		value = p.parseExpression(precAssignment)
	}
	if p.peekTokenIs(token.LBRACE) {
		p.nextToken()
		computed, observers = p.parsePropertyBody()
	}
	return &ast.VarDeclStatement{
		Base: ast.NewBase(tok), IsLet: isLet, Name: name, Pattern: pattern,
		TypeAnnotation: typeAnn, Value: value, Computed: computed, Observers: observers,
		IsLazy: mods.isLazy, IsStatic: mods.isStatic, IsWeak: mods.isWeak, IsUnowned: mods.isUnowned,
		Access: mods.access,
	}
}

// parsePropertyBody parses the `{ ... }` following a var declaration's type,
// name or initializer: either a get/set computed-property body, a willSet/didSet
// observer pair, or (bare) a getter-only shorthand. curToken is LBRACE on
// entry; curToken is RBRACE on return.
func (p *Parser) parsePropertyBody() (*ast.ComputedPropertyDecl, *ast.PropertyObserverDecl2) {
	p.nextToken()
	p.skipNewlines()
	switch p.curToken.Type {
	case token.GET:
		getter := p.parseAccessorBlock()
		p.nextToken()
		p.skipNewlines()
		var setter *ast.BlockStatement
		setterParam := "newValue"
		if p.curTokenIs(token.SET) {
			sp, body := p.parseSetAccessor()
			setter = body
			if sp != "" {
				setterParam = sp
			}
			p.nextToken()
			p.skipNewlines()
		}
		return &ast.ComputedPropertyDecl{Getter: getter, Setter: setter, SetterParamName: setterParam}, nil
	case token.SET:
		sp, setterBody := p.parseSetAccessor()
		p.nextToken()
		p.skipNewlines()
		var getter *ast.BlockStatement
		if p.curTokenIs(token.GET) {
			getter = p.parseAccessorBlock()
			p.nextToken()
			p.skipNewlines()
		}
		return &ast.ComputedPropertyDecl{Getter: getter, Setter: setterBody, SetterParamName: sp}, nil
	case token.WILLSET, token.DIDSET:
		obs := &ast.PropertyObserverDecl2{}
		for p.curTokenIs(token.WILLSET) || p.curTokenIs(token.DIDSET) {
			isWill := p.curTokenIs(token.WILLSET)
			paramName := ""
			if p.peekTokenIs(token.LPAREN) {
				p.nextToken()
				if p.expectPeek(token.IDENT) {
					paramName = p.curToken.Lexeme
				}
				p.expectPeek(token.RPAREN)
			}
			if !p.expectPeek(token.LBRACE) {
				return nil, nil
			}
			body := p.parseBlockStatement()
			decl := &ast.PropertyObserverDecl{ParamName: paramName, Body: body}
			if isWill {
				obs.WillSet = decl
			} else {
				obs.DidSet = decl
			}
			p.nextToken()
			p.skipNewlines()
		}
		return nil, obs
	default:
		tok := p.curToken
		block := &ast.BlockStatement{Base: ast.NewBase(tok)}
		for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
			stmt := p.parseStatement()
			if stmt != nil {
				block.Statements = append(block.Statements, stmt)
			}
			p.nextToken()
			p.skipNewlines()
		}
		return &ast.ComputedPropertyDecl{Getter: block}, nil
	}
}

func (p *Parser) parseAccessorBlock() *ast.BlockStatement {
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	return p.parseBlockStatement()
}

func (p *Parser) parseSetAccessor() (string, *ast.BlockStatement) {
	paramName := ""
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		if p.expectPeek(token.IDENT) {
			paramName = p.curToken.Lexeme
		}
		p.expectPeek(token.RPAREN)
	}
	if !p.expectPeek(token.LBRACE) {
		return paramName, nil
	}
	return paramName, p.parseBlockStatement()
}

func (p *Parser) parseFuncDeclStatement(mods modifiers) ast.Statement {
	tok := p.curToken
	p.nextToken()
	name := p.curToken.Lexeme
	generics := p.parseGenericParams()
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params := p.parseParams()
	var retType ast.Type
	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		p.nextToken()
		retType = p.parseType()
	}
	var expectedErr ast.Type
	if p.peekTokenIs(token.EXPECTED) {
		p.nextToken()
		p.nextToken()
		expectedErr = p.parseType()
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStatement()
	return &ast.FuncDeclStatement{
		Base: ast.NewBase(tok), Name: name, GenericParams: generics, Params: params,
		ReturnType: retType, ExpectedError: expectedErr, Body: body,
		IsMutating: mods.isMutating, IsStatic: mods.isStatic, IsOverride: mods.isOverride,
		Access: mods.access,
	}
}

func (p *Parser) parseInitDeclStatement(mods modifiers) ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params := p.parseParams()
	var expectedErr ast.Type
	if p.peekTokenIs(token.EXPECTED) {
		p.nextToken()
		p.nextToken()
		expectedErr = p.parseType()
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStatement()
	return &ast.FuncDeclStatement{
		Base: ast.NewBase(tok), Name: "init", Params: params, ExpectedError: expectedErr,
		Body: body, IsInitializer: true, IsStatic: mods.isStatic, IsOverride: mods.isOverride,
		Access: mods.access,
	}
}

func (p *Parser) parseClassDeclStatement(mods modifiers) ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	generics := p.parseGenericParams()
	var superclass string
	var protocols []string
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		superclass = p.curToken.Lexeme
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			protocols = append(protocols, p.curToken.Lexeme)
		}
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()
	var props []*ast.VarDeclStatement
	var methods []*ast.FuncDeclStatement
	var deinitBody *ast.BlockStatement
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		memberMods := p.parseModifiers()
		switch p.curToken.Type {
		case token.VAR, token.LET:
			if vd, ok := p.parseVarDeclStatement(memberMods).(*ast.VarDeclStatement); ok {
				props = append(props, vd)
			}
		case token.FUNC:
			if fd, ok := p.parseFuncDeclStatement(memberMods).(*ast.FuncDeclStatement); ok {
				methods = append(methods, fd)
			}
		case token.INIT:
			if fd, ok := p.parseInitDeclStatement(memberMods).(*ast.FuncDeclStatement); ok {
				methods = append(methods, fd)
			}
		case token.DEINIT:
			if p.expectPeek(token.LBRACE) {
				deinitBody = p.parseBlockStatement()
			}
		default:
			p.addErrorAtCur("unexpected token in class body: " + p.curToken.Lexeme)
		}
		p.nextToken()
		p.skipNewlines()
	}
	return &ast.ClassDeclStatement{
		Base: ast.NewBase(tok), Name: name, GenericParams: generics, Superclass: superclass,
		Protocols: protocols, Properties: props, Methods: methods, DeinitBody: deinitBody,
		Access: mods.access,
	}
}

func (p *Parser) parseStructDeclStatement(mods modifiers) ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	generics := p.parseGenericParams()
	var protocols []string
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		protocols = append(protocols, p.curToken.Lexeme)
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			protocols = append(protocols, p.curToken.Lexeme)
		}
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()
	var props []*ast.VarDeclStatement
	var methods []*ast.FuncDeclStatement
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		memberMods := p.parseModifiers()
		switch p.curToken.Type {
		case token.VAR, token.LET:
			if vd, ok := p.parseVarDeclStatement(memberMods).(*ast.VarDeclStatement); ok {
				props = append(props, vd)
			}
		case token.FUNC:
			if fd, ok := p.parseFuncDeclStatement(memberMods).(*ast.FuncDeclStatement); ok {
				methods = append(methods, fd)
			}
		case token.INIT:
			if fd, ok := p.parseInitDeclStatement(memberMods).(*ast.FuncDeclStatement); ok {
				methods = append(methods, fd)
			}
		default:
			p.addErrorAtCur("unexpected token in struct body: " + p.curToken.Lexeme)
		}
		p.nextToken()
		p.skipNewlines()
	}
	return &ast.StructDeclStatement{
		Base: ast.NewBase(tok), Name: name, GenericParams: generics, Protocols: protocols,
		Properties: props, Methods: methods, Access: mods.access,
	}
}

func (p *Parser) parseEnumDeclStatement(mods modifiers) ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	var rawType ast.Type
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		rawType = p.parseType()
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()
	var cases []ast.EnumCaseDecl
	var methods []*ast.FuncDeclStatement
	var props []*ast.VarDeclStatement
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		memberMods := p.parseModifiers()
		switch p.curToken.Type {
		case token.CASE:
			p.nextToken()
			for {
				cases = append(cases, p.parseEnumCaseDecl())
				if p.peekTokenIs(token.COMMA) {
					p.nextToken()
					p.nextToken()
					continue
				}
				break
			}
		case token.FUNC:
			if fd, ok := p.parseFuncDeclStatement(memberMods).(*ast.FuncDeclStatement); ok {
				methods = append(methods, fd)
			}
		case token.VAR, token.LET:
			if vd, ok := p.parseVarDeclStatement(memberMods).(*ast.VarDeclStatement); ok {
				props = append(props, vd)
			}
		default:
			p.addErrorAtCur("unexpected token in enum body: " + p.curToken.Lexeme)
		}
		p.nextToken()
		p.skipNewlines()
	}
	return &ast.EnumDeclStatement{
		Base: ast.NewBase(tok), Name: name, RawType: rawType, Cases: cases,
		Methods: methods, Properties: props, Access: mods.access,
	}
}

func (p *Parser) parseEnumCaseDecl() ast.EnumCaseDecl {
	name := p.curToken.Lexeme
	var params []ast.Param
	var raw ast.Expression
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		params = p.parseParams()
	} else if p.peekTokenIs(token.ASSIGN) {
		p.nextToken()
		p.nextToken()
		raw = p.parseExpression(precAssignment)
	}
	return ast.EnumCaseDecl{Name: name, RawValue: raw, Params: params}
}

func (p *Parser) parseProtocolDeclStatement(mods modifiers) ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	var inherited []string
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		inherited = append(inherited, p.curToken.Lexeme)
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			inherited = append(inherited, p.curToken.Lexeme)
		}
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()
	var methodReqs []ast.ProtocolMethodReq
	var propReqs []ast.ProtocolPropertyReq
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		isMutating := false
		if p.curTokenIs(token.MUTATING) {
			isMutating = true
			p.nextToken()
		}
		switch p.curToken.Type {
		case token.FUNC:
			p.nextToken()
			mname := p.curToken.Lexeme
			var paramNames []string
			if p.expectPeek(token.LPAREN) {
				p.nextToken()
				for !p.curTokenIs(token.RPAREN) && !p.curTokenIs(token.EOF) {
					if p.curTokenIs(token.IDENT) {
						paramNames = append(paramNames, p.curToken.Lexeme)
					}
					for !p.curTokenIs(token.COMMA) && !p.curTokenIs(token.RPAREN) && !p.curTokenIs(token.EOF) {
						p.nextToken()
					}
					if p.curTokenIs(token.COMMA) {
						p.nextToken()
					}
				}
			}
			if p.peekTokenIs(token.ARROW) {
				p.nextToken()
				p.nextToken()
				p.parseType()
			}
			methodReqs = append(methodReqs, ast.ProtocolMethodReq{Name: mname, ParamNames: paramNames, IsMutating: isMutating})
		case token.VAR, token.LET:
			p.nextToken()
			pname := p.curToken.Lexeme
			hasGetter, hasSetter := false, false
			if p.peekTokenIs(token.COLON) {
				p.nextToken()
				p.nextToken()
				p.parseType()
			}
			if p.peekTokenIs(token.LBRACE) {
				p.nextToken()
				p.nextToken()
				for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
					if p.curTokenIs(token.GET) {
						hasGetter = true
					}
					if p.curTokenIs(token.SET) {
						hasSetter = true
					}
					p.nextToken()
				}
			}
			propReqs = append(propReqs, ast.ProtocolPropertyReq{Name: pname, HasGetter: hasGetter, HasSetter: hasSetter})
		default:
			p.addErrorAtCur("unexpected token in protocol body: " + p.curToken.Lexeme)
		}
		p.nextToken()
		p.skipNewlines()
	}
	return &ast.ProtocolDeclStatement{
		Base: ast.NewBase(tok), Name: name, InheritedProtocols: inherited,
		MethodRequirements: methodReqs, PropertyRequirements: propReqs,
	}
}

func (p *Parser) parseExtensionDeclStatement(mods modifiers) ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	typeName := p.curToken.Lexeme
	var protocols []string
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		protocols = append(protocols, p.curToken.Lexeme)
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			protocols = append(protocols, p.curToken.Lexeme)
		}
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()
	var methods []*ast.FuncDeclStatement
	var props []*ast.VarDeclStatement
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		memberMods := p.parseModifiers()
		switch p.curToken.Type {
		case token.FUNC:
			if fd, ok := p.parseFuncDeclStatement(memberMods).(*ast.FuncDeclStatement); ok {
				methods = append(methods, fd)
			}
		case token.INIT:
			if fd, ok := p.parseInitDeclStatement(memberMods).(*ast.FuncDeclStatement); ok {
				methods = append(methods, fd)
			}
		case token.VAR, token.LET:
			if vd, ok := p.parseVarDeclStatement(memberMods).(*ast.VarDeclStatement); ok {
				props = append(props, vd)
			}
		default:
			p.addErrorAtCur("unexpected token in extension body: " + p.curToken.Lexeme)
		}
		p.nextToken()
		p.skipNewlines()
	}
	return &ast.ExtensionDeclStatement{
		Base: ast.NewBase(tok), TypeName: typeName, Protocols: protocols,
		Methods: methods, Properties: props,
	}
}

func (p *Parser) parseImportStatement() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	alias := ""
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		p.nextToken()
		alias = p.curToken.Lexeme
	}
	return &ast.ImportStatement{Base: ast.NewBase(tok), Name: name, Alias: alias}
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	subject := p.parseExpression(precAssignment)
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()
	var cases []ast.SwitchCase
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		isDefault := false
		var patterns []ast.Pattern
		if p.curTokenIs(token.CASE) {
			p.nextToken()
			patterns = p.parseCasePatternList()
			p.nextToken()
		} else if p.curTokenIs(token.DEFAULT) {
			isDefault = true
			p.nextToken()
		} else {
			p.addErrorAtCur("expected 'case' or 'default'")
			break
		}
		var guardExpr ast.Expression
		if p.curTokenIs(token.WHERE) {
			p.nextToken()
			guardExpr = p.parseExpression(precAssignment)
			p.nextToken()
		}
		if p.curTokenIs(token.COLON) {
			p.nextToken()
		} else {
			p.addErrorAtCur("expected ':' in switch case")
		}
		p.skipNewlines()
		var body []ast.Statement
		for !p.curTokenIs(token.CASE) && !p.curTokenIs(token.DEFAULT) && !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
			stmt := p.parseStatement()
			if stmt != nil {
				body = append(body, stmt)
			}
			p.nextToken()
			p.skipNewlines()
		}
		cases = append(cases, ast.SwitchCase{Patterns: patterns, Guard: guardExpr, Body: body, IsDefault: isDefault})
	}
	return &ast.SwitchStatement{Base: ast.NewBase(tok), Subject: subject, Cases: cases}
}

func (p *Parser) parseCasePatternList() []ast.Pattern {
	var list []ast.Pattern
	list = append(list, p.parseSinglePattern())
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseSinglePattern())
	}
	return list
}

func (p *Parser) parseForInStatement() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	varName := p.curToken.Lexeme
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	iterable := p.parseExpression(precAssignment)
	var whereExpr ast.Expression
	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
		p.nextToken()
		whereExpr = p.parseExpression(precAssignment)
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStatement()
	return &ast.ForInStatement{Base: ast.NewBase(tok), VarName: varName, Iterable: iterable, Where: whereExpr, Body: body}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression(precAssignment)
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStatement()
	return &ast.WhileStatement{Base: ast.NewBase(tok), Cond: cond, Body: body}
}

func (p *Parser) parseRepeatWhileStatement() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStatement()
	if !p.expectPeek(token.WHILE) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(precAssignment)
	return &ast.RepeatWhileStatement{Base: ast.NewBase(tok), Body: body, Cond: cond}
}

func (p *Parser) parseOptionalBinding() (bool, string, ast.Expression) {
	if p.curTokenIs(token.LET) {
		p.nextToken()
		name := p.curToken.Lexeme
		if !p.expectPeek(token.ASSIGN) {
			return true, name, nil
		}
		p.nextToken()
		return true, name, p.parseExpression(precAssignment)
	}
	return false, "", p.parseExpression(precAssignment)
}

func (p *Parser) parseIfStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	bindLet, bindName, cond := p.parseOptionalBinding()
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	then := p.parseBlockStatement()
	var elseStmt ast.Statement
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			elseStmt = p.parseIfStatement()
		} else if p.expectPeek(token.LBRACE) {
			elseStmt = p.parseBlockStatement()
		}
	}
	return &ast.IfStatement{
		Base: ast.NewBase(tok), Cond: cond, OptBindingLet: bindLet, OptBindingName: bindName,
		Then: then, Else: elseStmt,
	}
}

func (p *Parser) parseGuardStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	bindLet, bindName, cond := p.parseOptionalBinding()
	if !p.expectPeek(token.ELSE) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	elseBody := p.parseBlockStatement()
	return &ast.GuardStatement{
		Base: ast.NewBase(tok), Cond: cond, OptBindingLet: bindLet, OptBindingName: bindName,
		ElseBody: elseBody,
	}
}

func (p *Parser) parseReturnStatement() ast.Statement {
	tok := p.curToken
	var value ast.Expression
	if !p.peekTokenIs(token.NEWLINE) && !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		p.nextToken()
		value = p.parseExpression(precAssignment)
	}
	return &ast.ReturnStatement{Base: ast.NewBase(tok), Value: value}
}

func (p *Parser) parseThrowStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	value := p.parseExpression(precAssignment)
	return &ast.ThrowStatement{Base: ast.NewBase(tok), Value: value}
}
