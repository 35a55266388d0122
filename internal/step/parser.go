// Package step implements the STEP / ISO-10303-21 lexer, entity parser, and
// reference resolver that turn IFC source text into a flat entity table.
package step

import (
	"io"
	"os"
	"strconv"
	"strings"
)

// Parser consumes a STEP source and produces a Table. It tokenizes the
// entire input up front; streaming or partial parsing of files too large
// for memory is out of scope, so there is no benefit to interleaving
// lexing and parsing here.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser over already-lexed tokens. Most callers want
// Parse instead, which lexes and parses in one call.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse lexes and parses r into a Table. Syntax errors are fatal: no
// partial entity table is retained on error.
func Parse(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NewInvalidStepError("reading source: "+err.Error(), 0, 0)
	}
	tokens, err := lexAll(data)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).parseDocument()
}

// ParseFile opens path, reads it fully, and parses it. The file is closed
// before parsing begins. I/O
// failures are reported as a FileRead ParseError; syntax failures as
// InvalidStep.
func ParseFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewFileReadError(path, err)
	}
	data, err := io.ReadAll(f)
	closeErr := f.Close()
	if err != nil {
		return nil, NewFileReadError(path, err)
	}
	if closeErr != nil {
		return nil, NewFileReadError(path, closeErr)
	}
	tokens, err := lexAll(data)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).parseDocument()
}

func lexAll(data []byte) ([]Token, error) {
	lexer := NewLexer(data)
	var tokens []Token
	for {
		tok, err := lexer.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			return tokens, nil
		}
	}
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: TokEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind TokenKind, what string) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return Token{}, NewInvalidStepError("expected "+what, tok.Offset, tok.Line)
	}
	return p.next(), nil
}

func (p *Parser) expectKeyword(name string) error {
	tok := p.peek()
	if tok.Kind != TokKeyword || tok.Text != name {
		return NewInvalidStepError("expected keyword "+name, tok.Offset, tok.Line)
	}
	p.next()
	return nil
}

func (p *Parser) isKeyword(name string) bool {
	tok := p.peek()
	return tok.Kind == TokKeyword && tok.Text == name
}

// parseDocument implements the document shape:
//
//	ISO-10303-21 ; HEADER ; header-entities ENDSEC ;
//	              DATA ;  #id = TYPE ( fields ) ;  …  ENDSEC ;
//	END-ISO-10303-21 ;
func (p *Parser) parseDocument() (*Table, error) {
	if err := p.expectKeyword("ISO-10303-21"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemi, "';'"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("HEADER"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemi, "';'"); err != nil {
		return nil, err
	}

	schema := "UNKNOWN"
	for !p.isKeyword("ENDSEC") {
		if p.peek().Kind == TokEOF {
			return nil, NewInvalidStepError("unexpected end of file in HEADER section", p.peek().Offset, p.peek().Line)
		}
		name, fields, err := p.parseHeaderStatement()
		if err != nil {
			return nil, err
		}
		if strings.ToUpper(name) == "FILE_SCHEMA" {
			if s, ok := firstSchemaString(fields); ok {
				schema = strings.ToUpper(s)
			}
		}
	}
	p.next() // ENDSEC
	if _, err := p.expect(TokSemi, "';'"); err != nil {
		return nil, err
	}

	if err := p.expectKeyword("DATA"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemi, "';'"); err != nil {
		return nil, err
	}

	table := NewTable(schema)
	for !p.isKeyword("ENDSEC") {
		if p.peek().Kind == TokEOF {
			return nil, NewInvalidStepError("unexpected end of file in DATA section", p.peek().Offset, p.peek().Line)
		}
		startTok := p.peek()
		entity, err := p.parseEntityStatement()
		if err != nil {
			return nil, err
		}
		if table.Has(entity.ID) {
			return nil, NewInvalidStepError("duplicate entity id #"+strconv.FormatUint(entity.ID, 10), startTok.Offset, startTok.Line)
		}
		table.Add(entity)
	}
	p.next() // ENDSEC
	if _, err := p.expect(TokSemi, "';'"); err != nil {
		return nil, err
	}

	// Permissive: the closing END-ISO-10303-21 is expected but its absence
	// at EOF does not discard an otherwise complete table.
	if p.isKeyword("END-ISO-10303-21") {
		p.next()
		if p.peek().Kind == TokSemi {
			p.next()
		}
	}

	return table, nil
}

// parseHeaderStatement parses one "NAME(fields);" header entity (no leading
// "#id =" — header entities are anonymous).
func (p *Parser) parseHeaderStatement() (string, []Value, error) {
	nameTok, err := p.expect(TokIdent, "header entity name")
	if err != nil {
		return "", nil, err
	}
	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return "", nil, err
	}
	fields, err := p.parseFieldList()
	if err != nil {
		return "", nil, err
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return "", nil, err
	}
	if _, err := p.expect(TokSemi, "';'"); err != nil {
		return "", nil, err
	}
	return nameTok.Text, fields, nil
}

// parseEntityStatement parses one "#id = TYPE(fields);" data entity.
func (p *Parser) parseEntityStatement() (*Entity, error) {
	hashTok, err := p.expect(TokHash, "entity id")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokEquals, "'='"); err != nil {
		return nil, err
	}
	typeTok, err := p.expect(TokIdent, "entity type name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return nil, err
	}
	fields, err := p.parseFieldList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemi, "';'"); err != nil {
		return nil, err
	}
	return &Entity{ID: hashTok.Hash, Type: strings.ToUpper(typeTok.Text), Fields: fields}, nil
}

func (p *Parser) parseFieldList() ([]Value, error) {
	var values []Value
	if p.peek().Kind == TokRParen {
		return values, nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.peek().Kind == TokComma {
			p.next()
			continue
		}
		break
	}
	return values, nil
}

// parseValue parses one field value: a primitive, a punctuator form ($, *,
// #N, (...)), or a typed wrapper (IFCLABEL('x')) which is unwrapped to its
// single inner value.
func (p *Parser) parseValue() (Value, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokDollar:
		p.next()
		return Null(), nil
	case TokStar:
		p.next()
		return Derived(), nil
	case TokHash:
		p.next()
		return ReferenceValue(tok.Hash), nil
	case TokLParen:
		p.next()
		items, err := p.parseFieldList()
		if err != nil {
			return Value{}, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return Value{}, err
		}
		return ListValue(items), nil
	case TokString:
		p.next()
		return StringValue(tok.Text), nil
	case TokInt:
		p.next()
		return IntegerValue(tok.Int), nil
	case TokReal:
		p.next()
		return RealValue(tok.Real), nil
	case TokIdent:
		return p.parseIdentValue(tok)
	default:
		return Value{}, NewInvalidStepError("unexpected token in field list", tok.Offset, tok.Line)
	}
}

func (p *Parser) parseIdentValue(tok Token) (Value, error) {
	p.next()
	if strings.HasPrefix(tok.Text, ".") && strings.HasSuffix(tok.Text, ".") {
		inner := strings.Trim(tok.Text, ".")
		switch inner {
		case "T":
			return BooleanValue(true), nil
		case "F":
			return BooleanValue(false), nil
		case "U":
			return Null(), nil
		default:
			return EnumValue(inner), nil
		}
	}

	if p.peek().Kind != TokLParen {
		// A bare identifier with no argument list is not valid STEP, but
		// the parser is permissive with unrecognised forms outside DATA;
		// inside a field list, treat it as an enumeration-like token.
		return EnumValue(tok.Text), nil
	}
	p.next() // '('
	var inner Value = Null()
	if p.peek().Kind != TokRParen {
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		inner = v
		if p.peek().Kind == TokComma {
			items := []Value{inner}
			for p.peek().Kind == TokComma {
				p.next()
				next, err := p.parseValue()
				if err != nil {
					return Value{}, err
				}
				items = append(items, next)
			}
			inner = ListValue(items)
		}
	}
	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return Value{}, err
	}
	return inner.withWrapper(tok.Text), nil
}

// firstSchemaString extracts the first string from the first list argument
// of a FILE_SCHEMA header entity.
func firstSchemaString(fields []Value) (string, bool) {
	if len(fields) == 0 {
		return "", false
	}
	list := fields[0]
	if list.Kind != KindList || len(list.List) == 0 {
		return "", false
	}
	first := list.List[0]
	if first.Kind != KindString {
		return "", false
	}
	return first.Str, true
}
