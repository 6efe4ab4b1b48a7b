package parser

import (
	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/token"
)

// parseType parses a type annotation with curToken on its first token.
func (p *Parser) parseType() ast.Type {
	var t ast.Type
	switch p.curToken.Type {
	case token.LPAREN:
		t = p.parseTupleOrFunctionType()
	case token.LBRACKET:
		t = p.parseArrayOrDictType()
	case token.IDENT:
		t = p.parseNamedType()
	default:
		p.addErrorAtCur("expected type, got " + p.curToken.Lexeme)
		return nil
	}
	for p.peekTokenIs(token.ARROW) {
		tok := p.peekToken
		p.nextToken()
		p.nextToken()
		ret := p.parseType()
		t = &ast.FunctionType{Base: ast.NewBase(tok), Params: []ast.Type{t}, Return: ret}
	}
	if p.peekTokenIs(token.QUESTION) {
		p.nextToken()
		if nt, ok := t.(*ast.NamedType); ok {
			nt.IsOptional = true
		}
	}
	return t
}

func (p *Parser) parseNamedType() ast.Type {
	tok := p.curToken
	name := p.curToken.Lexeme
	var args []ast.Type
	if p.peekTokenIs(token.LT) {
		p.nextToken()
		p.nextToken()
		for !p.curTokenIs(token.GT) {
			args = append(args, p.parseType())
			p.nextToken()
			if p.curTokenIs(token.COMMA) {
				p.nextToken()
			}
		}
	}
	return &ast.NamedType{Base: ast.NewBase(tok), Name: name, Args: args}
}

func (p *Parser) parseArrayOrDictType() ast.Type {
	tok := p.curToken
	p.nextToken()
	elem := p.parseType()
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		val := p.parseType()
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return &ast.NamedType{Base: ast.NewBase(tok), Name: "Map", Args: []ast.Type{elem, val}}
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return &ast.NamedType{Base: ast.NewBase(tok), Name: "List", Args: []ast.Type{elem}}
}

func (p *Parser) parseTupleOrFunctionType() ast.Type {
	tok := p.curToken
	p.nextToken()
	var elems []ast.Type
	var labels []string
	for !p.curTokenIs(token.RPAREN) {
		label := ""
		if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.COLON) {
			label = p.curToken.Lexeme
			p.nextToken()
			p.nextToken()
		}
		elems = append(elems, p.parseType())
		labels = append(labels, label)
		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		p.nextToken()
		ret := p.parseType()
		return &ast.FunctionType{Base: ast.NewBase(tok), Params: elems, Return: ret}
	}
	return &ast.TupleType{Base: ast.NewBase(tok), Elements: elems, Labels: labels}
}

// parseGenericParams parses `<T: Proto, U>` following a type/func name.
func (p *Parser) parseGenericParams() []ast.GenericParam {
	if !p.peekTokenIs(token.LT) {
		return nil
	}
	p.nextToken()
	p.nextToken()
	var params []ast.GenericParam
	for !p.curTokenIs(token.GT) {
		name := p.curToken.Lexeme
		constraint := ""
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			constraint = p.curToken.Lexeme
		}
		params = append(params, ast.GenericParam{Name: name, Constraint: constraint})
		p.nextToken()
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	return params
}
