package handler

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every exported handler method carries an API doc block with a route.
func TestHandlersHaveAPIAnnotations(t *testing.T) {
	fset := token.NewFileSet()

	for _, file := range []string{"bot.go", "summary.go", "embedding.go"} {
		f, err := parser.ParseFile(fset, file, nil, parser.ParseComments)
		require.NoError(t, err)

		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || !fn.Name.IsExported() || !takesEchoContext(fn) {
				continue
			}

			require.NotNil(t, fn.Doc, "%s: %s has no doc comment", file, fn.Name.Name)
			doc := fn.Doc.Text()
			for _, tag := range []string{"@Summary", "@Tags", "@Produce", "@Router"} {
				assert.Contains(t, doc, tag, "%s: %s", file, fn.Name.Name)
			}
			if strings.Contains(doc, "[post]") {
				for _, tag := range []string{"@Accept", "@Security", "@Param", "@Success", "@Failure"} {
					assert.Contains(t, doc, tag, "%s: %s", file, fn.Name.Name)
				}
			}
		}
	}
}

func takesEchoContext(fn *ast.FuncDecl) bool {
	params := fn.Type.Params.List
	if len(params) != 1 {
		return false
	}
	sel, ok := params[0].Type.(*ast.SelectorExpr)
	return ok && sel.Sel.Name == "Context"
}
