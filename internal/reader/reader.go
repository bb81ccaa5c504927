package reader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clj-lang/clj/internal/lexer"
	"github.com/clj-lang/clj/internal/token"
)

// Error is a Reader-stage failure: unmatched delimiter, EOF inside a
// collection, malformed number, malformed string escape, odd-length map
// literal (spec §4.2's explicit error list).
type Error struct {
	Message  string
	Position token.Position
}

func (e *Error) Error() string { return e.Position.String() + ": " + e.Message }

// Reader consumes a token stream and produces Forms, one top-level Form per
// call to Read.
type Reader struct {
	toks []token.Token
	pos  int
	errs []*Error
}

// New tokenizes input and returns a Reader positioned at the first token.
func New(input, file string) (*Reader, []*lexer.Error) {
	toks, lexErrs := lexer.Tokenize(input, file)
	return &Reader{toks: toks}, lexErrs
}

// Errors returns every Reader-stage error accumulated so far.
func (r *Reader) Errors() []*Error { return r.errs }

func (r *Reader) cur() token.Token  { return r.toks[r.pos] }
func (r *Reader) atEOF() bool       { return r.cur().Kind == token.EOF }
func (r *Reader) advance() token.Token {
	t := r.toks[r.pos]
	if r.pos < len(r.toks)-1 {
		r.pos++
	}
	return t
}

func (r *Reader) errorf(pos token.Position, format string, args ...any) {
	r.errs = append(r.errs, &Error{Message: fmt.Sprintf(format, args...), Position: pos})
}

// ReadAll reads every top-level Form until EOF.
func ReadAll(input, file string) ([]*Form, []error) {
	rd, lexErrs := New(input, file)
	var errs []error
	for _, e := range lexErrs {
		errs = append(errs, e)
	}
	var forms []*Form
	for !rd.atEOF() {
		f, err := rd.Read()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if f != nil {
			forms = append(forms, f)
		}
	}
	for _, e := range rd.Errors() {
		errs = append(errs, e)
	}
	return forms, errs
}

// Read reads a single top-level Form, or returns (nil, nil) at EOF.
func (r *Reader) Read() (*Form, error) {
	if r.atEOF() {
		return nil, nil
	}
	return r.readForm()
}

// readForm dispatches on the current token, expanding reader macros to
// their canonical desugared shape (spec §4.2 item 3).
func (r *Reader) readForm() (*Form, error) {
	t := r.cur()
	switch t.Kind {
	case token.EOF:
		return nil, fmt.Errorf("%s: unexpected EOF", t.Position)

	case token.LPAREN:
		return r.readDelimited(token.RPAREN, KindList)
	case token.LBRACKET:
		return r.readDelimited(token.RBRACKET, KindVector)
	case token.LBRACE:
		f, err := r.readDelimited(token.RBRACE, KindMap)
		if err != nil {
			return nil, err
		}
		if len(f.Children)%2 != 0 {
			return nil, &Error{Message: "invalid-token: odd number of forms in map literal", Position: t.Position}
		}
		return f, nil
	case token.RPAREN, token.RBRACKET, token.RBRACE:
		return nil, &Error{Message: "unmatched delimiter " + t.Literal, Position: t.Position}

	case token.QUOTE:
		r.advance()
		inner, err := r.mustRead(t.Position)
		if err != nil {
			return nil, err
		}
		return List(sym("", "quote", t.Position), inner), nil

	case token.BACKTICK:
		r.advance()
		inner, err := r.mustRead(t.Position)
		if err != nil {
			return nil, err
		}
		return List(sym("", "syntax-quote", t.Position), inner), nil

	case token.TILDE:
		r.advance()
		inner, err := r.mustRead(t.Position)
		if err != nil {
			return nil, err
		}
		return List(sym("", "unquote", t.Position), inner), nil

	case token.TILDE_AT:
		r.advance()
		inner, err := r.mustRead(t.Position)
		if err != nil {
			return nil, err
		}
		return List(sym("", "unquote-splicing", t.Position), inner), nil

	case token.AT:
		r.advance()
		inner, err := r.mustRead(t.Position)
		if err != nil {
			return nil, err
		}
		return List(sym("", "deref", t.Position), inner), nil

	case token.HASH_QUOTE:
		r.advance()
		inner, err := r.mustRead(t.Position)
		if err != nil {
			return nil, err
		}
		return List(sym("", "var", t.Position), inner), nil

	case token.HASH_UNDER:
		r.advance()
		if _, err := r.mustRead(t.Position); err != nil { // discard
			return nil, err
		}
		return r.readForm() // return the following form instead
	case token.HASH_LPAREN:
		return r.readAnonFn(t.Position)
	case token.HASH_LBRACE:
		return r.readDelimited(token.RBRACE, KindSet)
	case token.HASH_HASH:
		r.advance()
		return r.readSpecialDouble(t.Position)
	case token.HASH_QMARK:
		r.advance()
		return r.readReaderConditional(t.Position, false)
	case token.HASH_QMARK_AT:
		r.advance()
		return nil, &Error{Message: "#?@ is not supported", Position: t.Position}
	case token.CARET:
		return r.readMeta(t.Position)

	case token.NIL:
		r.advance()
		return &Form{Kind: KindNil, Pos: t.Position}, nil
	case token.TRUE:
		r.advance()
		return &Form{Kind: KindBool, Bool: true, Pos: t.Position}, nil
	case token.FALSE:
		r.advance()
		return &Form{Kind: KindBool, Bool: false, Pos: t.Position}, nil
	case token.INT:
		return r.readInt(t)
	case token.FLOAT:
		return r.readFloat(t)
	case token.RATIO:
		return r.readRatio(t)
	case token.STRING:
		return r.readString(t)
	case token.CHAR:
		return r.readCharLit(t)
	case token.SYMBOL:
		r.advance()
		ns, name := splitNamespaced(t.Literal)
		return &Form{Kind: KindSymbol, Namespace: ns, Name: name, Pos: t.Position}, nil
	case token.KEYWORD:
		r.advance()
		lit := strings.TrimPrefix(t.Literal, ":")
		auto := strings.HasPrefix(lit, ":")
		lit = strings.TrimPrefix(lit, ":")
		ns, name := splitNamespaced(lit)
		_ = auto // auto-resolved (::kw) namespace resolution happens in the analyzer
		return &Form{Kind: KindKeyword, Namespace: ns, Name: name, Pos: t.Position}, nil
	case token.REGEX:
		r.advance()
		return &Form{Kind: KindRegex, Str: t.Literal, Pos: t.Position}, nil
	}

	r.advance()
	return nil, &Error{Message: "unexpected token " + t.Kind.String(), Position: t.Position}
}

func (r *Reader) mustRead(pos token.Position) (*Form, error) {
	if r.atEOF() {
		return nil, &Error{Message: "EOF while reading", Position: pos}
	}
	return r.readForm()
}

// readDelimited reads Forms until the matching closer, per spec §4.2 item 2.
func (r *Reader) readDelimited(closer token.Kind, kind Kind) (*Form, error) {
	open := r.advance()
	var children []*Form
	for {
		if r.atEOF() {
			return nil, &Error{Message: "EOF inside collection starting at " + open.Position.String(), Position: open.Position}
		}
		if r.cur().Kind == closer {
			r.advance()
			return &Form{Kind: kind, Children: children, Pos: open.Position}, nil
		}
		f, err := r.readForm()
		if err != nil {
			return nil, err
		}
		if f != nil {
			children = append(children, f)
		}
	}
}

// readAnonFn rewrites #(body) to (fn* [%1 %2 ... %&?] body), discovering
// implicit parameters by scanning the body, per spec §4.2.
func (r *Reader) readAnonFn(pos token.Position) (*Form, error) {
	body, err := r.readDelimited(token.RPAREN, KindList)
	if err != nil {
		return nil, err
	}
	maxArg := 0
	variadic := false
	var scan func(*Form)
	scan = func(f *Form) {
		if f == nil {
			return
		}
		if f.Kind == KindSymbol && f.Namespace == "" {
			if f.Name == "%" {
				if maxArg < 1 {
					maxArg = 1
				}
				return
			}
			if f.Name == "%&" {
				variadic = true
				return
			}
			if len(f.Name) >= 2 && f.Name[0] == '%' {
				if n, convErr := strconv.Atoi(f.Name[1:]); convErr == nil && n > maxArg {
					maxArg = n
				}
			}
		}
		for _, c := range f.Children {
			scan(c)
		}
	}
	scan(body)

	// rename bare % to %1 within the body
	var rename func(*Form) *Form
	rename = func(f *Form) *Form {
		if f == nil {
			return nil
		}
		if f.Kind == KindSymbol && f.Namespace == "" && f.Name == "%" {
			return sym("", "%1", f.Pos)
		}
		if len(f.Children) == 0 {
			return f
		}
		children := make([]*Form, len(f.Children))
		for i, c := range f.Children {
			children[i] = rename(c)
		}
		return &Form{Kind: f.Kind, Children: children, Pos: f.Pos}
	}
	body = rename(body)

	params := make([]*Form, 0, maxArg+2)
	for i := 1; i <= maxArg; i++ {
		params = append(params, sym("", fmt.Sprintf("%%%d", i), pos))
	}
	if variadic {
		params = append(params, sym("", "&", pos), sym("", "%&", pos))
	}
	return List(sym("", "fn*", pos), Vector(params...), body), nil
}

// readMeta rewrites ^meta form to (with-meta form meta-map), canonicalising
// meta-map per spec §4.2.
func (r *Reader) readMeta(pos token.Position) (*Form, error) {
	r.advance() // consume '^'
	metaForm, err := r.mustRead(pos)
	if err != nil {
		return nil, err
	}
	target, err := r.mustRead(pos)
	if err != nil {
		return nil, err
	}
	var metaMap *Form
	switch metaForm.Kind {
	case KindKeyword:
		metaMap = &Form{Kind: KindMap, Children: []*Form{metaForm, &Form{Kind: KindBool, Bool: true}}, Pos: pos}
	case KindSymbol:
		metaMap = &Form{Kind: KindMap, Children: []*Form{
			{Kind: KindKeyword, Name: "tag", Pos: pos}, metaForm,
		}, Pos: pos}
	default:
		metaMap = metaForm
	}
	return List(sym("", "with-meta", pos), target, metaMap), nil
}

// readReaderConditional keeps the :clj branch if present, else :default,
// else nil, per spec §4.2; :cljs and other platform branches are read and
// discarded.
func (r *Reader) readReaderConditional(pos token.Position, splicing bool) (*Form, error) {
	list, err := r.readDelimited(token.RPAREN, KindList)
	if err != nil {
		return nil, err
	}
	var chosen *Form
	var defaultBranch *Form
	for i := 0; i+1 < len(list.Children); i += 2 {
		key := list.Children[i]
		val := list.Children[i+1]
		if key.Kind != KindKeyword {
			continue
		}
		switch key.Name {
		case "clj":
			chosen = val
		case "default":
			defaultBranch = val
		}
	}
	if chosen == nil {
		chosen = defaultBranch
	}
	if chosen == nil {
		return &Form{Kind: KindNil, Pos: pos}, nil
	}
	return chosen, nil
}

// readSpecialDouble handles ##Inf, ##-Inf and ##NaN.
func (r *Reader) readSpecialDouble(pos token.Position) (*Form, error) {
	f, err := r.mustRead(pos)
	if err != nil {
		return nil, err
	}
	if f.Kind != KindSymbol {
		return nil, &Error{Message: "invalid ## literal", Position: pos}
	}
	switch f.Name {
	case "Inf":
		return &Form{Kind: KindFloat, Float: posInf, Pos: pos}, nil
	case "-Inf":
		return &Form{Kind: KindFloat, Float: negInf, Pos: pos}, nil
	case "NaN":
		return &Form{Kind: KindFloat, Float: nan, Pos: pos}, nil
	}
	return nil, &Error{Message: "unknown ## literal: " + f.Name, Position: pos}
}

func (r *Reader) readInt(t token.Token) (*Form, error) {
	r.advance()
	lit := strings.TrimSuffix(t.Literal, "N")
	v, err := parseInt(lit)
	if err != nil {
		return nil, &Error{Message: "malformed number: " + t.Literal, Position: t.Position}
	}
	return &Form{Kind: KindInt, Int: v, Pos: t.Position}, nil
}

func (r *Reader) readFloat(t token.Token) (*Form, error) {
	r.advance()
	lit := strings.TrimSuffix(t.Literal, "M")
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, &Error{Message: "malformed number: " + t.Literal, Position: t.Position}
	}
	return &Form{Kind: KindFloat, Float: v, Pos: t.Position}, nil
}

func (r *Reader) readRatio(t token.Token) (*Form, error) {
	r.advance()
	parts := strings.SplitN(t.Literal, "/", 2)
	n, err1 := strconv.ParseInt(parts[0], 10, 64)
	d, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return nil, &Error{Message: "malformed ratio: " + t.Literal, Position: t.Position}
	}
	return &Form{Kind: KindRatio, RatioN: n, RatioD: d, Pos: t.Position}, nil
}

func (r *Reader) readString(t token.Token) (*Form, error) {
	r.advance()
	decoded, err := decodeStringLiteral(t.Literal)
	if err != nil {
		return nil, &Error{Message: err.Error(), Position: t.Position}
	}
	return &Form{Kind: KindString, Str: decoded, Pos: t.Position}, nil
}

func (r *Reader) readCharLit(t token.Token) (*Form, error) {
	r.advance()
	v, err := decodeCharLiteral(t.Literal)
	if err != nil {
		return nil, &Error{Message: err.Error(), Position: t.Position}
	}
	return &Form{Kind: KindChar, Char: v, Pos: t.Position}, nil
}

func splitNamespaced(s string) (ns, name string) {
	i := strings.LastIndex(s, "/")
	if i <= 0 || i == len(s)-1 {
		return "", s
	}
	return s[:i], s[i+1:]
}
