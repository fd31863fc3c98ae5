package directive

import (
	"fmt"
	"go/scanner"
	"go/token"
	"strconv"
)

// Recognized argument keys.
const (
	KeyPath      = "path"
	KeyPathGroup = "path_group"
	KeyLayers    = "layers"
	KeyGroup     = "group"
	KeyAPI       = "api"
	KeyOpen      = "open"
)

// Args is the argument list of a directive. Keys other than the recognized
// ones are accepted and dropped.
type Args struct {
	Path      string
	PathGroup string
	Layers    []string
	Group     string
	API       string
	Open      bool

	set map[string]bool
}

// Has reports whether key was given explicitly.
func (a Args) Has(key string) bool { return a.set[key] }

type valueKind int

const (
	stringValue valueKind = iota
	boolValue
	listValue
	numberValue
)

type value struct {
	kind valueKind
	str  string
	b    bool
	list []string
}

// ParseArgs parses `key=value` pairs separated by spaces or commas. Values
// are Go string literals, true/false, or bracketed lists of string literals.
func ParseArgs(src string) (Args, error) {
	var args Args
	p, err := newArgParser(src)
	if err != nil {
		return args, err
	}
	args.set = make(map[string]bool)
	for {
		tok, lit := p.peek()
		if tok == token.EOF {
			break
		}
		if tok == token.COMMA {
			p.next()
			continue
		}
		if tok != token.IDENT {
			return args, p.errorf("expected key, found %s", describe(tok, lit))
		}
		key := lit
		p.next()
		if tok, lit := p.next(); tok != token.ASSIGN {
			return args, p.errorf("expected = after %s, found %s", key, describe(tok, lit))
		}
		v, err := p.value()
		if err != nil {
			return args, fmt.Errorf("%s: %w", key, err)
		}
		if args.set[key] {
			return args, fmt.Errorf("duplicate key %q", key)
		}
		args.set[key] = true
		if err := args.assign(key, v); err != nil {
			return args, err
		}
	}
	return args, nil
}

func (a *Args) assign(key string, v value) error {
	want := stringValue
	switch key {
	case KeyOpen:
		want = boolValue
	case KeyLayers:
		want = listValue
	case KeyPath, KeyPathGroup, KeyGroup, KeyAPI:
	default:
		return nil
	}
	if v.kind != want {
		return fmt.Errorf("%s: expected %s", key, [...]string{"string", "true or false", "list of strings"}[want])
	}
	switch key {
	case KeyPath:
		a.Path = v.str
	case KeyPathGroup:
		a.PathGroup = v.str
	case KeyGroup:
		a.Group = v.str
	case KeyAPI:
		a.API = v.str
	case KeyOpen:
		a.Open = v.b
	case KeyLayers:
		a.Layers = v.list
	}
	return nil
}

type argParser struct {
	s    scanner.Scanner
	errs scanner.ErrorList
	tok  token.Token
	lit  string
	off  int
}

func newArgParser(src string) (*argParser, error) {
	p := &argParser{}
	file := token.NewFileSet().AddFile("", -1, len(src))
	p.s.Init(file, []byte(src), func(pos token.Position, msg string) {
		p.errs.Add(pos, msg)
	}, 0)
	p.advance()
	if err := p.errs.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *argParser) advance() {
	for {
		pos, tok, lit := p.s.Scan()
		// The scanner inserts semicolons at line ends and EOF.
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		p.tok, p.lit, p.off = tok, lit, int(pos)-1
		return
	}
}

func (p *argParser) peek() (token.Token, string) { return p.tok, p.lit }

func (p *argParser) next() (token.Token, string) {
	tok, lit := p.tok, p.lit
	p.advance()
	return tok, lit
}

func (p *argParser) errorf(format string, args ...any) error {
	if err := p.errs.Err(); err != nil {
		return err
	}
	return fmt.Errorf("offset %d: %s", p.off, fmt.Sprintf(format, args...))
}

func (p *argParser) value() (value, error) {
	tok, lit := p.next()
	if err := p.errs.Err(); err != nil {
		return value{}, err
	}
	switch tok {
	case token.STRING:
		s, err := strconv.Unquote(lit)
		if err != nil {
			return value{}, err
		}
		return value{kind: stringValue, str: s}, nil
	case token.IDENT:
		switch lit {
		case "true":
			return value{kind: boolValue, b: true}, nil
		case "false":
			return value{kind: boolValue}, nil
		}
	case token.INT, token.FLOAT:
		return value{kind: numberValue, str: lit}, nil
	case token.LBRACK:
		list := []string{}
		for {
			tok, lit := p.next()
			switch tok {
			case token.RBRACK:
				return value{kind: listValue, list: list}, nil
			case token.COMMA:
				continue
			case token.STRING:
				s, err := strconv.Unquote(lit)
				if err != nil {
					return value{}, err
				}
				list = append(list, s)
			default:
				return value{}, p.errorf("expected string or ], found %s", describe(tok, lit))
			}
		}
	}
	return value{}, p.errorf("unexpected %s", describe(tok, lit))
}

func describe(tok token.Token, lit string) string {
	switch {
	case tok == token.EOF:
		return "end of directive"
	case lit != "":
		return strconv.Quote(lit)
	}
	return tok.String()
}
