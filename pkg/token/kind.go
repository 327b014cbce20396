package token

// Kind is the lexical token kind of the analyzed dialect.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF
	NEWLINE
	INDENT
	DEDENT

	NAME
	NUMBER
	STRING

	// Keywords
	DEF
	CLASS
	RETURN
	YIELD
	PASS
	IF
	ELIF
	ELSE
	WHILE
	TRUE
	FALSE
	NONE
	NOT
	AND
	OR
	LAMBDA
	GLOBAL
	NONLOCAL

	// Operators and delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACK   // [
	RBRACK   // ]
	LBRACE   // {
	RBRACE   // }
	COMMA    // ,
	COLON    // :
	DOT      // .
	AT       // @
	ASSIGN   // =
	ARROW    // ->
	STAR     // *
	DBLSTAR  // **
	ADD      // +
	SUB      // -
	QUO      // /
	REM      // %
	EQL      // ==
	NEQ      // !=
	LSS      // <
	GTR      // >
	LEQ      // <=
	GEQ      // >=
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", NEWLINE: "NEWLINE", INDENT: "INDENT", DEDENT: "DEDENT",
	NAME: "NAME", NUMBER: "NUMBER", STRING: "STRING",
	DEF: "def", CLASS: "class", RETURN: "return", YIELD: "yield", PASS: "pass",
	IF: "if", ELIF: "elif", ELSE: "else", WHILE: "while",
	TRUE: "True", FALSE: "False", NONE: "None", NOT: "not", AND: "and", OR: "or",
	LAMBDA: "lambda", GLOBAL: "global", NONLOCAL: "nonlocal",
	LPAREN: "(", RPAREN: ")", LBRACK: "[", RBRACK: "]", LBRACE: "{", RBRACE: "}",
	COMMA: ",", COLON: ":", DOT: ".", AT: "@", ASSIGN: "=", ARROW: "->",
	STAR: "*", DBLSTAR: "**", ADD: "+", SUB: "-", QUO: "/", REM: "%",
	EQL: "==", NEQ: "!=", LSS: "<", GTR: ">", LEQ: "<=", GEQ: ">=",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

var keywords = map[string]Kind{
	"def": DEF, "class": CLASS, "return": RETURN, "yield": YIELD, "pass": PASS,
	"if": IF, "elif": ELIF, "else": ELSE, "while": WHILE,
	"True": TRUE, "False": FALSE, "None": NONE, "not": NOT, "and": AND, "or": OR,
	"lambda": LAMBDA, "global": GLOBAL, "nonlocal": NONLOCAL,
}

// Lookup maps an identifier to its keyword kind, or NAME.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return NAME
}
