// Package parser implements a recursive-descent, precedence-climbing parser
// over the SwiftScript surface grammar (spec.md §4.2).
package parser

import (
	"fmt"
	"strconv"

	"github.com/29thnight/SwiftScript/internal/ast"
	"github.com/29thnight/SwiftScript/internal/lexer"
	"github.com/29thnight/SwiftScript/internal/sserr"
	"github.com/29thnight/SwiftScript/internal/token"
)

// Precedence levels, low to high, per spec.md §4.2.
const (
	_ int = iota
	precAssignment
	precTernary
	precLogicalOr
	precLogicalAnd
	precBitwiseOr
	precBitwiseXor
	precBitwiseAnd
	precEquality
	precComparison
	precRange
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

var precedences = map[token.Type]int{
	token.ASSIGN:            precAssignment,
	token.PLUS_ASSIGN:       precAssignment,
	token.MINUS_ASSIGN:      precAssignment,
	token.STAR_ASSIGN:       precAssignment,
	token.SLASH_ASSIGN:      precAssignment,
	token.QUESTION:          precTernary,
	token.OR:                precLogicalOr,
	token.AND:               precLogicalAnd,
	token.PIPE:              precBitwiseOr,
	token.CARET:             precBitwiseXor,
	token.AMP:               precBitwiseAnd,
	token.EQ:                precEquality,
	token.NOT_EQ:             precEquality,
	token.LT:                precComparison,
	token.GT:                precComparison,
	token.LTE:               precComparison,
	token.GTE:               precComparison,
	token.ELLIPSIS:          precRange,
	token.HALF_OPEN_RANGE:   precRange,
	token.LSHIFT:            precShift,
	token.RSHIFT:            precShift,
	token.PLUS:              precAdditive,
	token.MINUS:             precAdditive,
	token.STAR:              precMultiplicative,
	token.SLASH:             precMultiplicative,
	token.PERCENT:           precMultiplicative,
	token.QUESTION_QUESTION: precTernary,
	token.LPAREN:            precPostfix,
	token.DOT:               precPostfix,
	token.QUESTION_DOT:      precPostfix,
	token.LBRACKET:          precPostfix,
	token.BANG:              precPostfix,
	token.IS:                precComparison,
	token.AS:                precComparison,
}

// Parser drives the recursive-descent grammar over a token stream produced
// by internal/lexer. Errors are collected rather than panicking so diagnostic
// mode (spec.md §7) can continue past the first bad top-level declaration.
type Parser struct {
	l      *lexer.Lexer
	file   string
	errors []*sserr.ParseError

	curToken  token.Token
	peekToken token.Token

	// recover, when true, makes the parser skip to the next plausible
	// top-level statement boundary after an error instead of aborting.
	recover bool
}

// New creates a Parser over src. When recoverMode is true, parse errors are
// collected and parsing continues (diagnostics mode); otherwise the first
// error aborts and is returned from Parse.
func New(src, file string, recoverMode bool) *Parser {
	p := &Parser{l: lexer.New(src), file: file, recover: recoverMode}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) Errors() []*sserr.ParseError { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	for p.peekToken.Type == token.NEWLINE {
		p.peekToken = p.l.NextToken()
	}
}

func (p *Parser) skipNewlines() {
	for p.curToken.Type == token.NEWLINE {
		p.nextToken()
	}
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected next token to be %s, got %s instead", t, p.peekToken.Type))
	return false
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &sserr.ParseError{
		Line: p.peekToken.Line, Column: p.peekToken.Column,
		Message: msg, Token: p.peekToken.Lexeme,
	})
}

func (p *Parser) addErrorAtCur(msg string) {
	p.errors = append(p.errors, &sserr.ParseError{
		Line: p.curToken.Line, Column: p.curToken.Column,
		Message: msg, Token: p.curToken.Lexeme,
	})
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return 0
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return 0
}

// Parse parses an entire source file into a Program. When not in recover
// mode, the first parse error aborts and is returned; in recover mode all
// collected errors are available via Errors() and Program may be partial.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{File: p.file}
	for !p.curTokenIs(token.EOF) {
		p.skipNewlines()
		if p.curTokenIs(token.EOF) {
			break
		}
		stmt := p.parseTopLevelStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		if !p.recover && len(p.errors) > 0 {
			return prog, p.errors[0]
		}
		if stmt == nil && len(p.errors) > 0 && !p.recover {
			return prog, p.errors[0]
		}
		p.nextToken()
		p.skipNewlines()
	}
	if len(p.errors) > 0 {
		return prog, p.errors[0]
	}
	return prog, nil
}

func (p *Parser) parseTopLevelStatement() ast.Statement {
	switch p.curToken.Type {
	case token.IMPORT:
		return p.parseImportStatement()
	default:
		return p.parseStatement()
	}
}

func parseIntLiteral(lit string) (int64, error) {
	return strconv.ParseInt(lit, 10, 64)
}

func parseFloatLiteral(lit string) (float64, error) {
	return strconv.ParseFloat(lit, 64)
}
