package parser

import (
	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/token"
)

// parsePattern parses one switch/case pattern. curToken is on its first
// token on entry; on return curToken is the pattern's last token.
func (p *Parser) parsePattern() ast.Pattern {
	first := p.parseSinglePattern()
	if !p.peekTokenIs(token.COMMA) {
		return first
	}
	patterns := []ast.Pattern{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		patterns = append(patterns, p.parseSinglePattern())
	}
	return &ast.MultiPattern{Base: ast.NewBase(first.GetToken()), Patterns: patterns}
}

func (p *Parser) parseSinglePattern() ast.Pattern {
	tok := p.curToken
	switch p.curToken.Type {
	case token.UNDERSCORE:
		return &ast.WildcardPattern{Base: ast.NewBase(tok)}
	case token.DEFAULT:
		return &ast.DefaultPattern{Base: ast.NewBase(tok)}
	case token.LET:
		p.nextToken()
		name := p.curToken.Lexeme
		return &ast.IdentifierPattern{Base: ast.NewBase(tok), Name: name, IsLet: true}
	case token.DOT:
		return p.parseEnumCasePattern()
	case token.LPAREN:
		return p.parseTuplePattern()
	default:
		expr := p.parseExpression(precRange)
		if p.peekTokenIs(token.ELLIPSIS) || p.peekTokenIs(token.HALF_OPEN_RANGE) {
			inclusive := p.peekToken.Type == token.ELLIPSIS
			p.nextToken()
			p.nextToken()
			high := p.parseExpression(precRange)
			return &ast.RangePattern{Base: ast.NewBase(tok), Low: expr, High: high, Inclusive: inclusive}
		}
		if id, ok := expr.(*ast.Identifier); ok {
			return &ast.IdentifierPattern{Base: ast.NewBase(tok), Name: id.Name}
		}
		return &ast.LiteralPattern{Base: ast.NewBase(tok), Value: expr}
	}
}

// parseEnumCasePattern handles `.caseName`, `.caseName(let a, b: let c)`.
func (p *Parser) parseEnumCasePattern() ast.Pattern {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	caseName := p.curToken.Lexeme
	var bindings []ast.EnumCaseBinding
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		p.nextToken()
		for !p.curTokenIs(token.RPAREN) {
			bindings = append(bindings, p.parseEnumCaseBinding())
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
				p.nextToken()
				continue
			}
			p.nextToken()
			break
		}
	}
	return &ast.EnumCasePattern{Base: ast.NewBase(tok), CaseName: caseName, Bindings: bindings}
}

func (p *Parser) parseEnumCaseBinding() ast.EnumCaseBinding {
	label := ""
	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.COLON) {
		label = p.curToken.Lexeme
		p.nextToken()
		p.nextToken()
	}
	isLet := false
	if p.curTokenIs(token.LET) {
		isLet = true
		p.nextToken()
	}
	name := ""
	if p.curTokenIs(token.UNDERSCORE) {
		name = ""
	} else {
		name = p.curToken.Lexeme
	}
	return ast.EnumCaseBinding{Label: label, Name: name, IsLet: isLet}
}

func (p *Parser) parseTuplePattern() ast.Pattern {
	tok := p.curToken
	p.nextToken()
	var elems []ast.Pattern
	for !p.curTokenIs(token.RPAREN) {
		elems = append(elems, p.parseSinglePattern())
		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	return &ast.TuplePattern{Base: ast.NewBase(tok), Elements: elems}
}
