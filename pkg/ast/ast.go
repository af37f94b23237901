// Package ast defines the dscript AST node types.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpAdd  BinaryOp = "+"
	OpSub  BinaryOp = "-"
	OpMul  BinaryOp = "*"
	OpDiv  BinaryOp = "/"
	OpMod  BinaryOp = "%"
	OpGt   BinaryOp = ">"
	OpLt   BinaryOp = "<"
	OpGtEq BinaryOp = ">="
	OpLtEq BinaryOp = "<="
	OpEqEq BinaryOp = "=="
	OpNeq  BinaryOp = "!="
)

// LogicalOp represents a short-circuiting operator.
type LogicalOp string

const (
	OpAnd      LogicalOp = "&&"
	OpOr       LogicalOp = "||"
	OpCoalesce LogicalOp = "??"
)

// UnaryOp represents a unary operator.
type UnaryOp string

const (
	OpNeg UnaryOp = "-"
	OpNot UnaryOp = "!"
)

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Literals ---

// LiteralKind tags the constant held by a Literal.
type LiteralKind int

const (
	LitNull LiteralKind = iota
	LitNumber
	LitString
	LitBool
)

type Literal struct {
	Span   Span
	Lit    LiteralKind
	Number float64
	Str    string
	Bool   bool
}

func (n *Literal) Kind() string   { return "Literal" }
func (n *Literal) NodeSpan() Span { return n.Span }
func (n *Literal) exprNode()      {}

// MapEntry is one key/value pair of a map literal. Keys are string literals
// or bare identifiers.
type MapEntry struct {
	Span  Span
	Key   string
	Value Expr
}

type MapLiteral struct {
	Span    Span
	Entries []MapEntry
}

func (n *MapLiteral) Kind() string   { return "MapLiteral" }
func (n *MapLiteral) NodeSpan() Span { return n.Span }
func (n *MapLiteral) exprNode()      {}

type ArrayLiteral struct {
	Span     Span
	Elements []Expr
}

func (n *ArrayLiteral) Kind() string   { return "ArrayLiteral" }
func (n *ArrayLiteral) NodeSpan() Span { return n.Span }
func (n *ArrayLiteral) exprNode()      {}

// --- Names and assignment ---

type Variable struct {
	Span Span
	Name string
}

func (n *Variable) Kind() string   { return "Variable" }
func (n *Variable) NodeSpan() Span { return n.Span }
func (n *Variable) exprNode()      {}

type Assign struct {
	Span  Span
	Name  string
	Value Expr
}

func (n *Assign) Kind() string   { return "Assign" }
func (n *Assign) NodeSpan() Span { return n.Span }
func (n *Assign) exprNode()      {}

// --- Operators ---

type Binary struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *Binary) Kind() string   { return "Binary" }
func (n *Binary) NodeSpan() Span { return n.Span }
func (n *Binary) exprNode()      {}

type Logical struct {
	Span  Span
	Op    LogicalOp
	Left  Expr
	Right Expr
}

func (n *Logical) Kind() string   { return "Logical" }
func (n *Logical) NodeSpan() Span { return n.Span }
func (n *Logical) exprNode()      {}

type Unary struct {
	Span    Span
	Op      UnaryOp
	Operand Expr
}

func (n *Unary) Kind() string   { return "Unary" }
func (n *Unary) NodeSpan() Span { return n.Span }
func (n *Unary) exprNode()      {}

// --- Calls ---

// Arg is a call argument. Spread arguments (`**expr`) expand an array into
// positional arguments at evaluation time.
type Arg struct {
	Expr   Expr
	Spread bool
}

type Call struct {
	Span   Span
	Callee string
	Args   []Arg
}

func (n *Call) Kind() string   { return "Call" }
func (n *Call) NodeSpan() Span { return n.Span }
func (n *Call) exprNode()      {}

type MethodCall struct {
	Span   Span
	Object Expr
	Method string
	Args   []Arg
}

func (n *MethodCall) Kind() string   { return "MethodCall" }
func (n *MethodCall) NodeSpan() Span { return n.Span }
func (n *MethodCall) exprNode()      {}

type New struct {
	Span  Span
	Class string
	Args  []Arg
}

func (n *New) Kind() string   { return "New" }
func (n *New) NodeSpan() Span { return n.Span }
func (n *New) exprNode()      {}

// --- Indexing ---

type Index struct {
	Span   Span
	Object Expr
	Index  Expr
}

func (n *Index) Kind() string   { return "Index" }
func (n *Index) NodeSpan() Span { return n.Span }
func (n *Index) exprNode()      {}

type SetIndex struct {
	Span   Span
	Object Expr
	Index  Expr
	Value  Expr
}

func (n *SetIndex) Kind() string   { return "SetIndex" }
func (n *SetIndex) NodeSpan() Span { return n.Span }
func (n *SetIndex) exprNode()      {}

// --- Statements ---

type ExprStmt struct {
	Span Span
	Expr Expr
}

func (n *ExprStmt) Kind() string   { return "ExprStmt" }
func (n *ExprStmt) NodeSpan() Span { return n.Span }
func (n *ExprStmt) stmtNode()      {}

// VarStmt declares a variable in the current scope. Init is nil for `let x;`.
type VarStmt struct {
	Span Span
	Name string
	Init Expr
}

func (n *VarStmt) Kind() string   { return "VarStmt" }
func (n *VarStmt) NodeSpan() Span { return n.Span }
func (n *VarStmt) stmtNode()      {}

type Block struct {
	Span       Span
	Statements []Stmt
}

func (n *Block) Kind() string   { return "Block" }
func (n *Block) NodeSpan() Span { return n.Span }
func (n *Block) stmtNode()      {}

type If struct {
	Span Span
	Cond Expr
	Then Stmt
	Else Stmt
}

func (n *If) Kind() string   { return "If" }
func (n *If) NodeSpan() Span { return n.Span }
func (n *If) stmtNode()      {}

type While struct {
	Span Span
	Cond Expr
	Body Stmt
}

func (n *While) Kind() string   { return "While" }
func (n *While) NodeSpan() Span { return n.Span }
func (n *While) stmtNode()      {}

// Param is a declared function parameter. Name still carries a trailing
// `??` when present in source; the evaluator strips it before binding.
type Param struct {
	Span Span
	Name string
}

type FunctionStmt struct {
	Span   Span
	Name   string
	Params []Param
	Body   []Stmt
}

func (n *FunctionStmt) Kind() string   { return "FunctionStmt" }
func (n *FunctionStmt) NodeSpan() Span { return n.Span }
func (n *FunctionStmt) stmtNode()      {}

// ClassStmt holds the class methods in declaration order. Method names are
// already reduced to their simple (undotted) form.
type ClassStmt struct {
	Span    Span
	Name    string
	Methods []*FunctionStmt
}

func (n *ClassStmt) Kind() string   { return "ClassStmt" }
func (n *ClassStmt) NodeSpan() Span { return n.Span }
func (n *ClassStmt) stmtNode()      {}

type ReturnStmt struct {
	Span  Span
	Value Expr
}

func (n *ReturnStmt) Kind() string   { return "ReturnStmt" }
func (n *ReturnStmt) NodeSpan() Span { return n.Span }
func (n *ReturnStmt) stmtNode()      {}

type BreakStmt struct {
	Span Span
}

func (n *BreakStmt) Kind() string   { return "BreakStmt" }
func (n *BreakStmt) NodeSpan() Span { return n.Span }
func (n *BreakStmt) stmtNode()      {}

// --- Program ---

type Program struct {
	Span       Span
	Statements []Stmt
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }

// Functions returns the top-level function declarations in source order.
func (n *Program) Functions() []*FunctionStmt {
	var fns []*FunctionStmt
	for _, s := range n.Statements {
		if fn, ok := s.(*FunctionStmt); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}
