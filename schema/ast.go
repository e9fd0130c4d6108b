package schema

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// File is the raw parse tree of a descriptor file.
type File struct {
	Pos      lexer.Position
	Entities []*EntityDecl `Newline* (@@ Newline*)*`
}

// EntityDecl declares one entity. The header up to "{" sits on one line.
//
//	entity Customer table Customers connection main softdelete { ... }
type EntityDecl struct {
	Pos     lexer.Position
	Name    string          `"entity" @Ident`
	Options []*EntityOption `@@*`
	Columns []*ColumnDecl   `"{" Newline* (@@ Newline*)* "}"`
}

// EntityOption is one entity-level option.
type EntityOption struct {
	Pos        lexer.Position
	Table      *string `  "table" @Ident`
	Connection *string `| "connection" @Ident`
	SoftDelete bool    `| @"softdelete"`
}

// ColumnDecl declares one column: name, kind, optional size and nullability,
// then role options. Options end at the end of the line, so a column may be
// named like an option keyword.
//
//	Name string(50)? readonly
type ColumnDecl struct {
	Pos      lexer.Position
	Name     string          `@Ident`
	Kind     string          `@Ident`
	Size     *int            `("(" @Number ")")?`
	Nullable bool            `@"?"?`
	Options  []*ColumnOption `@@*`
}

// ColumnOption is one column-level option.
type ColumnOption struct {
	Pos        lexer.Position
	PrimaryKey bool     `  @"pk"`
	Identity   bool     `| @"identity"`
	ReadOnly   bool     `| @"readonly"`
	Converter  *string  `| "converter" "(" @Ident ")"`
	Field      *string  `| "field" "(" @Ident ")"`
	SoftDelete *Literal `| "softdelete" "(" @@ ")"`
}

// Literal is a soft-delete value as written.
type Literal struct {
	Pos   lexer.Position
	Value string `@(String | Number | Ident)`
}
