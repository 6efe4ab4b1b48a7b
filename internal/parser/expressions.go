package parser

import (
	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}

	for !p.peekTokenIs(token.NEWLINE) && precedence < p.peekPrecedence() {
		switch p.peekToken.Type {
		case token.LPAREN:
			p.nextToken()
			left = p.parseCallExpression(left)
		case token.DOT:
			p.nextToken()
			left = p.parseMemberOrTupleIndex(left)
		case token.QUESTION_DOT:
			p.nextToken()
			left = p.parseOptionalMember(left)
		case token.LBRACKET:
			p.nextToken()
			left = p.parseSubscript(left)
		case token.BANG:
			p.nextToken()
			left = &ast.ForceUnwrapExpr{Base: ast.NewBase(left.GetToken()), Target: left}
		case token.QUESTION:
			p.nextToken()
			left = p.parseTernary(left)
		case token.QUESTION_QUESTION:
			tok := p.peekToken
			p.nextToken()
			p.nextToken()
			right := p.parseExpression(precTernary)
			left = &ast.NilCoalesceExpr{Base: ast.NewBase(tok), Left: left, Right: right}
		case token.ELLIPSIS, token.HALF_OPEN_RANGE:
			inclusive := p.peekToken.Type == token.ELLIPSIS
			tok := p.peekToken
			p.nextToken()
			p.nextToken()
			high := p.parseExpression(precRange)
			left = &ast.RangeExpr{Base: ast.NewBase(tok), Low: left, High: high, Inclusive: inclusive}
		case token.IS:
			tok := p.peekToken
			p.nextToken()
			p.nextToken()
			typ := p.parseType()
			left = &ast.TypeCheckExpr{Base: ast.NewBase(tok), Value: left, Type: typ}
		case token.AS:
			tok := p.peekToken
			p.nextToken()
			kind := ast.CastPlain
			if p.peekTokenIs(token.QUESTION) {
				p.nextToken()
				kind = ast.CastOptional
			} else if p.peekTokenIs(token.BANG) {
				p.nextToken()
				kind = ast.CastForced
			}
			p.nextToken()
			typ := p.parseType()
			left = &ast.TypeCastExpr{Base: ast.NewBase(tok), Value: left, Type: typ, Kind: kind}
		case token.ASSIGN, token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN:
			op := p.peekToken
			p.nextToken()
			p.nextToken()
			p.skipNewlines()
			value := p.parseExpression(precAssignment - 1) // right-associative
			left = &ast.AssignExpr{Base: ast.NewBase(op), Target: left, Operator: op.Lexeme, Value: value}
		default:
			left = p.parseInfix(left)
		}
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expression {
	switch p.curToken.Type {
	case token.IDENT:
		return &ast.Identifier{Base: ast.NewBase(p.curToken), Name: p.curToken.Lexeme}
	case token.INT:
		v, err := parseIntLiteral(p.curToken.Lexeme)
		if err != nil {
			p.addErrorAtCur("invalid integer literal: " + p.curToken.Lexeme)
			return nil
		}
		return &ast.IntegerLiteral{Base: ast.NewBase(p.curToken), Value: v}
	case token.FLOAT:
		v, err := parseFloatLiteral(p.curToken.Lexeme)
		if err != nil {
			p.addErrorAtCur("invalid float literal: " + p.curToken.Lexeme)
			return nil
		}
		return &ast.FloatLiteral{Base: ast.NewBase(p.curToken), Value: v}
	case token.STRING:
		return &ast.StringLiteral{Base: ast.NewBase(p.curToken), Value: p.curToken.Literal}
	case token.INTERP_STRING_START:
		return p.parseInterpolatedString()
	case token.TRUE:
		return &ast.BoolLiteral{Base: ast.NewBase(p.curToken), Value: true}
	case token.FALSE:
		return &ast.BoolLiteral{Base: ast.NewBase(p.curToken), Value: false}
	case token.NIL:
		return &ast.NilLiteral{Base: ast.NewBase(p.curToken)}
	case token.SELF:
		return &ast.SelfExpr{Base: ast.NewBase(p.curToken)}
	case token.SUPER:
		return &ast.SuperExpr{Base: ast.NewBase(p.curToken)}
	case token.MINUS, token.BANG, token.TILDE:
		return p.parsePrefixOp()
	case token.LPAREN:
		return p.parseParenOrTuple()
	case token.LBRACKET:
		return p.parseArrayOrDict()
	case token.DOT:
		return p.parseLeadingDotCase()
	case token.FUNC:
		return p.parseClosureLiteral()
	case token.LBRACE:
		return p.parseBraceClosureLiteral()
	default:
		p.addErrorAtCur("unexpected token in expression: " + p.curToken.Lexeme)
		return nil
	}
}

func (p *Parser) parsePrefixOp() ast.Expression {
	tok := p.curToken
	op := p.curToken.Lexeme
	p.nextToken()
	right := p.parseExpression(precUnary)
	return &ast.PrefixExpr{Base: ast.NewBase(tok), Operator: op, Right: right}
}

func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	tok := p.peekToken
	op := p.peekToken.Lexeme
	precedence := p.peekPrecedence()
	p.nextToken()
	p.nextToken()
	p.skipNewlines()
	right := p.parseExpression(precedence)
	return &ast.InfixExpr{Base: ast.NewBase(tok), Left: left, Operator: op, Right: right}
}

func (p *Parser) parseTernary(cond ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	then := p.parseExpression(precTernary)
	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	els := p.parseExpression(precTernary)
	return &ast.TernaryExpr{Base: ast.NewBase(tok), Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseInterpolatedString() ast.Expression {
	tok := p.curToken
	var segments []ast.Expression
	if p.curToken.Literal != "" {
		segments = append(segments, &ast.StringLiteral{Base: ast.NewBase(p.curToken), Value: p.curToken.Literal})
	}
	for {
		p.nextToken()
		expr := p.parseExpression(precAssignment)
		segments = append(segments, expr)
		if !p.expectPeek(token.INTERP_STRING_MID) {
			if p.curTokenIs(token.INTERP_STRING_END) || p.peekTokenIs(token.INTERP_STRING_END) {
				if !p.curTokenIs(token.INTERP_STRING_END) {
					p.nextToken()
				}
				if p.curToken.Literal != "" {
					segments = append(segments, &ast.StringLiteral{Base: ast.NewBase(p.curToken), Value: p.curToken.Literal})
				}
				break
			}
			p.addErrorAtCur("malformed interpolated string")
			break
		}
		if p.curToken.Literal != "" {
			segments = append(segments, &ast.StringLiteral{Base: ast.NewBase(p.curToken), Value: p.curToken.Literal})
		}
	}
	return &ast.InterpolatedStringExpr{Base: ast.NewBase(tok), Segments: segments}
}

func (p *Parser) parseParenOrTuple() ast.Expression {
	tok := p.curToken
	p.nextToken()
	if p.curTokenIs(token.RPAREN) {
		return &ast.TupleExpr{Base: ast.NewBase(tok)}
	}
	var elems []ast.Expression
	var labels []string
	for {
		label := ""
		if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.COLON) {
			label = p.curToken.Lexeme
			p.nextToken()
			p.nextToken()
		}
		elems = append(elems, p.parseExpression(precAssignment))
		labels = append(labels, label)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if len(elems) == 1 && labels[0] == "" {
		return elems[0] // single-paren grouping, not a tuple
	}
	return &ast.TupleExpr{Base: ast.NewBase(tok), Elements: elems, Labels: labels}
}

func (p *Parser) parseArrayOrDict() ast.Expression {
	tok := p.curToken
	p.nextToken()
	if p.curTokenIs(token.RBRACKET) {
		return &ast.ArrayLiteral{Base: ast.NewBase(tok)}
	}
	if p.curTokenIs(token.COLON) && p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return &ast.DictLiteral{Base: ast.NewBase(tok)}
	}
	first := p.parseExpression(precAssignment)
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		val := p.parseExpression(precAssignment)
		entries := []ast.DictEntry{{Key: first, Value: val}}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			k := p.parseExpression(precAssignment)
			if !p.expectPeek(token.COLON) {
				return nil
			}
			p.nextToken()
			v := p.parseExpression(precAssignment)
			entries = append(entries, ast.DictEntry{Key: k, Value: v})
		}
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return &ast.DictLiteral{Base: ast.NewBase(tok), Entries: entries}
	}
	elems := []ast.Expression{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		elems = append(elems, p.parseExpression(precAssignment))
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return &ast.ArrayLiteral{Base: ast.NewBase(tok), Elements: elems}
}

func (p *Parser) parseLeadingDotCase() ast.Expression {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	return &ast.EnumCaseConstructorExpr{Base: ast.NewBase(tok), CaseName: p.curToken.Lexeme}
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	tok := p.curToken
	var args []ast.Argument
	p.nextToken()
	for !p.curTokenIs(token.RPAREN) {
		label := ""
		if (p.curTokenIs(token.IDENT) || p.curTokenIs(token.UNDERSCORE)) && p.peekTokenIs(token.COLON) {
			label = p.curToken.Lexeme
			p.nextToken()
			p.nextToken()
		}
		val := p.parseExpression(precAssignment)
		args = append(args, ast.Argument{Label: label, Value: val})
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		break
	}
	return &ast.CallExpr{Base: ast.NewBase(tok), Callee: callee, Args: args}
}

func (p *Parser) parseMemberOrTupleIndex(target ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	if p.curTokenIs(token.INT) {
		idx, err := parseIntLiteral(p.curToken.Lexeme)
		if err != nil {
			p.addErrorAtCur("invalid tuple index")
			return nil
		}
		return &ast.TupleIndexExpr{Base: ast.NewBase(tok), Target: target, Index: int(idx)}
	}
	if !p.curTokenIs(token.IDENT) && !p.curTokenIs(token.INIT) {
		p.addErrorAtCur("expected member name after '.'")
		return nil
	}
	return &ast.MemberExpr{Base: ast.NewBase(tok), Target: target, Name: p.curToken.Lexeme}
}

func (p *Parser) parseOptionalMember(target ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	return &ast.MemberExpr{Base: ast.NewBase(tok), Target: target, Name: p.curToken.Lexeme, Optional: true}
}

func (p *Parser) parseSubscript(target ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	idx := p.parseExpression(precAssignment)
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return &ast.SubscriptExpr{Base: ast.NewBase(tok), Target: target, Index: idx}
}

func (p *Parser) parseClosureLiteral() ast.Expression {
	tok := p.curToken
	var params []ast.ClosureParam
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		p.nextToken()
		for !p.curTokenIs(token.RPAREN) {
			name := p.curToken.Lexeme
			p.nextToken()
			var typ ast.Type
			if p.curTokenIs(token.COLON) {
				p.nextToken()
				typ = p.parseType()
				p.nextToken()
			}
			params = append(params, ast.ClosureParam{Name: name, Type: typ})
			if p.curTokenIs(token.COMMA) {
				p.nextToken()
			}
		}
	}
	var ret ast.Type
	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		p.nextToken()
		ret = p.parseType()
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	body := p.parseBlockStatement()
	return &ast.ClosureExpr{Base: ast.NewBase(tok), Params: params, ReturnType: ret, Body: body}
}

// parseBraceClosureLiteral handles Swift's trailing-closure shorthand
// `{ x, y in x + y }` — a brace block whose first line is `params in`.
func (p *Parser) parseBraceClosureLiteral() ast.Expression {
	tok := p.curToken
	body := p.parseBlockStatement()
	var params []ast.ClosureParam
	if len(body.Statements) > 0 {
		if es, ok := body.Statements[0].(*ast.ExpressionStatement); ok {
			if id, ok := es.Expr.(*ast.Identifier); ok && id.Name == "in" {
				body.Statements = body.Statements[1:]
			}
		}
	}
	return &ast.ClosureExpr{Base: ast.NewBase(tok), Params: params, Body: body}
}
