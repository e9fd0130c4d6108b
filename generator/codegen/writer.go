package codegen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/satishbabariya/normgo/internal/debug"
)

const mappingImport = "github.com/satishbabariya/normgo/mapping"

// AST helper functions for building Go AST nodes

// newFile creates a new AST file with package declaration
func newFile(packageName string) *ast.File {
	return &ast.File{
		Name:  ast.NewIdent(packageName),
		Decls: []ast.Decl{},
	}
}

// parseType parses a Go type string into an AST expression
func parseType(typeStr string) ast.Expr {
	// Handle pointer types
	if strings.HasPrefix(typeStr, "*") {
		return &ast.StarExpr{
			X: parseType(typeStr[1:]),
		}
	}
	// Handle slice types
	if strings.HasPrefix(typeStr, "[]") {
		return &ast.ArrayType{
			Elt: parseType(typeStr[2:]),
		}
	}
	// Handle qualified types (e.g., "time.Time", "decimal.Decimal")
	if pkg, name, ok := strings.Cut(typeStr, "."); ok {
		return &ast.SelectorExpr{
			X:   ast.NewIdent(pkg),
			Sel: ast.NewIdent(name),
		}
	}
	// Simple identifier
	return ast.NewIdent(typeStr)
}

// newImportSpec creates a new import spec
func newImportSpec(path string) *ast.ImportSpec {
	return &ast.ImportSpec{
		Path: &ast.BasicLit{
			Kind:  token.STRING,
			Value: fmt.Sprintf("%q", path),
		},
	}
}

// addImports adds a deduplicated, sorted import declaration to the file
func addImports(file *ast.File, imports []string) {
	if len(imports) == 0 {
		return
	}
	seen := make(map[string]bool)
	var paths []string
	for _, imp := range imports {
		if !seen[imp] {
			seen[imp] = true
			paths = append(paths, imp)
		}
	}
	sort.Strings(paths)

	specs := make([]ast.Spec, len(paths))
	for i, imp := range paths {
		spec := newImportSpec(imp)
		file.Imports = append(file.Imports, spec)
		specs[i] = spec
	}
	file.Decls = append(file.Decls, &ast.GenDecl{
		Tok:    token.IMPORT,
		Lparen: 1,
		Specs:  specs,
	})
}

// newStructType creates a new struct type
func newStructType(fields []*ast.Field) *ast.StructType {
	return &ast.StructType{
		Fields: &ast.FieldList{
			List: fields,
		},
	}
}

// newField creates a new struct field. An empty name embeds the type.
func newField(name string, typeExpr ast.Expr, tag string) *ast.Field {
	field := &ast.Field{
		Type: typeExpr,
	}
	if name != "" {
		field.Names = []*ast.Ident{ast.NewIdent(name)}
	}
	if tag != "" {
		field.Tag = &ast.BasicLit{
			Kind:  token.STRING,
			Value: tag,
		}
	}
	return field
}

// newTypeDecl creates a new type declaration
func newTypeDecl(name string, doc string, typeExpr ast.Expr) *ast.GenDecl {
	decl := &ast.GenDecl{
		Tok: token.TYPE,
		Specs: []ast.Spec{
			&ast.TypeSpec{
				Name: ast.NewIdent(name),
				Type: typeExpr,
			},
		},
	}
	if doc != "" {
		decl.Doc = &ast.CommentGroup{
			List: []*ast.Comment{
				{Text: "// " + doc},
			},
		}
	}
	return decl
}

// BuildModelsFile builds the AST of a file declaring one struct per model
func BuildModelsFile(packageName string, models []ModelInfo) *ast.File {
	file := newFile(packageName)

	imports := []string{mappingImport}
	for _, model := range models {
		imports = append(imports, model.Imports()...)
	}
	addImports(file, imports)

	for _, model := range models {
		fields := []*ast.Field{
			newField("", newSelectorExpr("mapping", "Entity"), model.EntityTag()),
		}
		for _, f := range model.Fields {
			fields = append(fields, newField(f.GoName, parseType(f.GoType), f.Tag))
		}
		doc := fmt.Sprintf("%s maps table %s.", model.Name, model.TableName)
		file.Decls = append(file.Decls, newTypeDecl(model.Name, doc, newStructType(fields)))
	}
	return file
}

// newSelectorExpr creates a selector expression (e.g., a.B)
func newSelectorExpr(x string, sel string) *ast.SelectorExpr {
	return &ast.SelectorExpr{
		X:   ast.NewIdent(x),
		Sel: ast.NewIdent(sel),
	}
}

// Render formats file as Go source, prefixed with the generated-code header.
func Render(file *ast.File) ([]byte, error) {
	debug.Debug("Formatting AST", "decl_count", len(file.Decls))
	formatStart := time.Now()

	var buf bytes.Buffer
	buf.WriteString("// Code generated by norm. DO NOT EDIT.\n\n")
	if err := format.Node(&buf, token.NewFileSet(), file); err != nil {
		return nil, fmt.Errorf("failed to format file: %w", err)
	}
	// Positionless nodes print unaligned; a second pass aligns fields and tags.
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format file: %w", err)
	}
	debug.Debug("AST formatted successfully", "elapsed", time.Since(formatStart))
	return out, nil
}

// WriteASTFile writes an AST file to fs with proper formatting
func WriteASTFile(fs afero.Fs, file *ast.File, filePath string) error {
	src, err := Render(file)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := afero.WriteFile(fs, filePath, src, 0644); err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}
