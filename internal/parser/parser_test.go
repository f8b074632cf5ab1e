package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New()
	require.NoError(t, err)
	return p
}

func TestParse_SingleRecipe(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte(`build:
    go build ./...
`))
	require.NoError(t, err)
	assert.False(t, tree.HasErrors())
	assert.Equal(t, KindSourceFile, tree.Root().Kind())

	recipes := tree.Root().ChildrenByKind(KindRecipe)
	require.Len(t, recipes, 1)

	header, ok := recipes[0].ChildByKind(KindRecipeHeader)
	require.True(t, ok)
	name, ok := header.ChildByKind(KindIdentifier)
	require.True(t, ok)
	assert.Equal(t, "build", name.Text())
	assert.Equal(t, 1, header.StartLine())
}

func TestParse_HeaderWithParametersAndDependencies(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte("deploy env region: build test\n"))
	require.NoError(t, err)

	recipes := tree.Root().ChildrenByKind(KindRecipe)
	require.Len(t, recipes, 1)
	header, ok := recipes[0].ChildByKind(KindRecipeHeader)
	require.True(t, ok)

	params, ok := header.ChildByKind(KindParameters)
	require.True(t, ok)
	assert.Equal(t, 2, params.ChildCount())

	deps, ok := header.ChildByKind(KindDependencies)
	require.True(t, ok)
	depNodes := deps.ChildrenByKind(KindDependency)
	require.Len(t, depNodes, 2)
	first, ok := depNodes[0].ChildByKind(KindIdentifier)
	require.True(t, ok)
	assert.Equal(t, "build", first.Text())
}

func TestParse_CommentNode(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte("# release tooling\n"))
	require.NoError(t, err)

	comments := tree.Root().ChildrenByKind(KindComment)
	require.Len(t, comments, 1)
	assert.Equal(t, "# release tooling", comments[0].Text())
}

func TestParse_AssignmentSettingAlias(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte(`version := "1.0"
set shell := ["bash", "-c"]
alias b := build
`))
	require.NoError(t, err)
	assert.False(t, tree.HasErrors())
	assert.Len(t, tree.Root().ChildrenByKind(KindAssignment), 1)
	assert.Len(t, tree.Root().ChildrenByKind(KindSetting), 1)
	assert.Len(t, tree.Root().ChildrenByKind(KindAlias), 1)
	assert.Empty(t, tree.Root().ChildrenByKind(KindRecipe))
}

func TestParse_IndentedLineOutsideBodyIsError(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte("    stray indented line\n"))
	require.NoError(t, err)
	assert.True(t, tree.HasErrors())
	require.Len(t, tree.ErrorNodes(), 1)
	assert.Equal(t, "stray indented line", tree.ErrorNodes()[0].Text())
}

func TestParse_MalformedLineBecomesErrorNode(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte("this line has no colon\n"))
	require.NoError(t, err)
	assert.True(t, tree.HasErrors())
	assert.Empty(t, tree.Root().ChildrenByKind(KindRecipe))
}

func TestParse_InvalidRecipeName(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte("1bad:\n    echo hi\n"))
	require.NoError(t, err)
	assert.True(t, tree.HasErrors())
}

func TestParse_ErrorNodeDoesNotAbortSiblings(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte(`garbage line without colon
build:
    go build
`))
	require.NoError(t, err)
	assert.True(t, tree.HasErrors())

	recipes, err := p.ExtractRecipes(tree)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "build", recipes[0].Name)
}

func TestParse_BodyKeepsInteriorBlankLines(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte(`build:
    step one

    step two

check:
    ok
`))
	require.NoError(t, err)
	recipes := tree.Root().ChildrenByKind(KindRecipe)
	require.Len(t, recipes, 2)

	body, ok := recipes[0].ChildByKind(KindBody)
	require.True(t, ok)
	lines := body.ChildrenByKind(KindRecipeLine)
	require.Len(t, lines, 3)
	assert.Equal(t, "", lines[1].Text())
}

func TestParse_QuietPrefixOnRecipeName(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte("@build:\n\techo quiet\n"))
	require.NoError(t, err)

	recipes, err := p.ExtractRecipes(tree)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "build", recipes[0].Name)
}

func TestParse_CRLFInput(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte("build:\r\n\tgo build\r\n"))
	require.NoError(t, err)
	assert.False(t, tree.HasErrors())

	recipes, err := p.ExtractRecipes(tree)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "go build", recipes[0].Body)
}

func TestParse_AttributeAttachesToRecipe(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte(`[private]
secret:
    hush
`))
	require.NoError(t, err)
	assert.False(t, tree.HasErrors())

	recipes := tree.Root().ChildrenByKind(KindRecipe)
	require.Len(t, recipes, 1)
	attrs := recipes[0].ChildrenByKind(KindAttribute)
	require.Len(t, attrs, 1)
	name, ok := attrs[0].ChildByKind(KindIdentifier)
	require.True(t, ok)
	assert.Equal(t, "private", name.Text())
}

func TestParse_TrailingAttributeWithoutRecipeIsError(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte("build:\n    go build\n\n[private]\n"))
	require.NoError(t, err)
	assert.True(t, tree.HasErrors())
	require.Len(t, tree.ErrorNodes(), 1)
	assert.Equal(t, "private", tree.ErrorNodes()[0].Text())
}

func TestParse_UnbalancedAttributeLineIsError(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte("[private\nsecret:\n    hush\n"))
	require.NoError(t, err)
	assert.True(t, tree.HasErrors())
}

func TestParse_EmptyInput(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte(""))
	require.NoError(t, err)
	assert.False(t, tree.HasErrors())
	assert.Equal(t, 0, tree.Root().ChildCount())
}

func TestParse_ColonInsideQuotesIsNotAHeaderColon(t *testing.T) {
	p := newParser(t)
	tree, err := p.Parse([]byte(`serve port="8080":
    echo hello
`))
	require.NoError(t, err)
	assert.False(t, tree.HasErrors())

	recipes, err := p.ExtractRecipes(tree)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	require.Len(t, recipes[0].Parameters, 1)
	assert.Equal(t, "port", recipes[0].Parameters[0].Name)
}

func TestParse_DeterministicAcrossCalls(t *testing.T) {
	content := []byte(`# docs
[group('ci')]
test filter="all": build
    go test ./...

build:
    go build ./...
`)
	p := newParser(t)
	tree1, err := p.Parse(content)
	require.NoError(t, err)
	tree2, err := p.Parse(content)
	require.NoError(t, err)

	r1, err := p.ExtractRecipes(tree1)
	require.NoError(t, err)
	r2, err := p.ExtractRecipes(tree2)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
