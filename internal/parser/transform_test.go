package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, p *Parser, source string) []RecipeInfo {
	t.Helper()
	tree, err := p.Parse([]byte(source))
	require.NoError(t, err)
	recipes, err := p.ExtractRecipes(tree)
	require.NoError(t, err)
	return recipes
}

func TestExtract_ParameterWithDefault(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `deploy env="prod" region:
    ship
`)
	require.Len(t, recipes, 1)
	params := recipes[0].Parameters
	require.Len(t, params, 2)

	assert.Equal(t, "env", params[0].Name)
	require.NotNil(t, params[0].DefaultValue)
	assert.Equal(t, "prod", *params[0].DefaultValue)
	require.NotNil(t, params[0].RawDefault)
	assert.Equal(t, `"prod"`, *params[0].RawDefault)
	assert.False(t, params[0].IsRequired)
	assert.Equal(t, 0, params[0].Position)

	assert.Equal(t, "region", params[1].Name)
	assert.Nil(t, params[1].DefaultValue)
	assert.True(t, params[1].IsRequired)
	assert.Equal(t, 1, params[1].Position)
}

func TestExtract_VariadicParameter(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, "bundle +files:\n    tar cf out.tar {{files}}\n")
	require.Len(t, recipes, 1)
	require.Len(t, recipes[0].Parameters, 1)

	param := recipes[0].Parameters[0]
	assert.Equal(t, "files", param.Name)
	assert.True(t, param.IsVariadic)
	assert.False(t, param.IsRequired)
	assert.Equal(t, TypeArray, param.Type)
}

func TestExtract_DoubleQuotedDefaultProcessesEscapes(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `greet msg="hi\nthere":
    echo {{msg}}
`)
	require.Len(t, recipes, 1)
	require.Len(t, recipes[0].Parameters, 1)
	require.NotNil(t, recipes[0].Parameters[0].DefaultValue)
	assert.Equal(t, "hi\nthere", *recipes[0].Parameters[0].DefaultValue)
}

func TestExtract_SingleQuotedDefaultIsLiteral(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `greet msg='hi\nthere':
    echo {{msg}}
`)
	require.Len(t, recipes, 1)
	require.NotNil(t, recipes[0].Parameters[0].DefaultValue)
	assert.Equal(t, `hi\nthere`, *recipes[0].Parameters[0].DefaultValue)
}

func TestExtract_SimpleDependencies(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `build:
    go build

test:
    go test

deploy: build test
`)
	require.Len(t, recipes, 3)
	deps := recipes[2].Dependencies
	require.Len(t, deps, 2)
	assert.Equal(t, "build", deps[0].Name)
	assert.Equal(t, DepSimple, deps[0].Type)
	assert.Equal(t, "test", deps[1].Name)
	assert.Equal(t, 1, deps[1].Position)
}

func TestExtract_ParameterizedDependency(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, "release: (build 'prod')\n    publish\n")
	require.Len(t, recipes, 1)
	deps := recipes[0].Dependencies
	require.Len(t, deps, 1)
	assert.Equal(t, "build", deps[0].Name)
	assert.Equal(t, []string{"prod"}, deps[0].Arguments)
	assert.Equal(t, DepParameterized, deps[0].Type)
}

func TestExtract_ConditionalDependency(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `deploy: check if env == "prod"
    ship
`)
	require.Len(t, recipes, 1)
	deps := recipes[0].Dependencies
	require.Len(t, deps, 1)
	assert.Equal(t, "check", deps[0].Name)
	assert.True(t, deps[0].IsConditional)
	require.NotNil(t, deps[0].Condition)
	assert.Equal(t, `env == "prod"`, *deps[0].Condition)
	assert.Equal(t, DepConditional, deps[0].Type)
}

func TestExtract_ComplexDependency(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, "deploy: build('prod') if ci\n    ship\n")
	require.Len(t, recipes, 1)
	deps := recipes[0].Dependencies
	require.Len(t, deps, 1)
	assert.Equal(t, "build", deps[0].Name)
	assert.Equal(t, []string{"prod"}, deps[0].Arguments)
	require.NotNil(t, deps[0].Condition)
	assert.Equal(t, "ci", *deps[0].Condition)
	assert.Equal(t, DepComplex, deps[0].Type)
}

func TestExtract_AttributesAndGroup(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `[group('ci'), no-cd]
test:
    go test ./...
`)
	require.Len(t, recipes, 1)
	r := recipes[0]
	require.Len(t, r.Attributes, 2)
	assert.Equal(t, "group", r.Attributes[0].Name)
	require.NotNil(t, r.Attributes[0].Value)
	assert.Equal(t, "ci", *r.Attributes[0].Value)
	assert.False(t, r.Attributes[0].IsBoolean)
	assert.Equal(t, "no-cd", r.Attributes[1].Name)
	assert.True(t, r.Attributes[1].IsBoolean)
	assert.Equal(t, "ci", r.Group)
}

func TestExtract_ConfirmMessage(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `[confirm('really deploy?')]
deploy:
    ship
`)
	require.Len(t, recipes, 1)
	assert.Equal(t, "really deploy?", recipes[0].ConfirmMessage)
}

func TestExtract_ColonFormAttribute(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `[group: 'tools']
fmt:
    gofmt -w .
`)
	require.Len(t, recipes, 1)
	assert.Equal(t, "tools", recipes[0].Group)
}

func TestExtract_PrivateByAttributeAndUnderscore(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `[private]
setup:
    prepare

_helper:
    assist

build:
    go build
`)
	require.Len(t, recipes, 3)
	assert.True(t, recipes[0].IsPrivate)
	assert.True(t, recipes[1].IsPrivate)
	assert.False(t, recipes[2].IsPrivate)
}

func TestExtract_DocFromCommentsAbove(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `# unrelated header comment

# Deploy the application
# {{env}}: target environment
deploy env:
    ship {{env}}
`)
	require.Len(t, recipes, 1)
	r := recipes[0]
	assert.Equal(t, "Deploy the application", r.Doc)
	assert.Equal(t, []string{"Deploy the application", "{{env}}: target environment"}, r.Comments)
	require.Len(t, r.Parameters, 1)
	assert.Equal(t, "target environment", r.Parameters[0].Description)
}

func TestExtract_DocSurvivesAttributeLines(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `# Deploy the application
[group('ci')]
deploy:
    ship
`)
	require.Len(t, recipes, 1)
	r := recipes[0]
	assert.Equal(t, "Deploy the application", r.Doc)
	assert.Equal(t, []string{"Deploy the application"}, r.Comments)
	assert.Equal(t, "ci", r.Group)
	assert.Equal(t, 3, r.LineNumber)
}

func TestExtract_CommentBlockAboveStackedAttributes(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `# Release tooling
# Ship the build
[group('ops')]
[no-cd]
release:
    ship
`)
	require.Len(t, recipes, 1)
	r := recipes[0]
	assert.Equal(t, "Ship the build", r.Doc)
	assert.Equal(t, []string{"Release tooling", "Ship the build"}, r.Comments)
	require.Len(t, r.Attributes, 2)
}

func TestExtract_BodyIsDedented(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, "build:\n    echo one\n      echo nested\n    echo two\n")
	require.Len(t, recipes, 1)
	assert.Equal(t, "echo one\n  echo nested\necho two", recipes[0].Body)
}

func TestExtract_LineNumbers(t *testing.T) {
	p := newParser(t)
	recipes := extract(t, p, `build:
    go build

test:
    go test
`)
	require.Len(t, recipes, 2)
	assert.Equal(t, 1, recipes[0].LineNumber)
	assert.Equal(t, 4, recipes[1].LineNumber)
}

func TestExtract_TypeInferenceDisabled(t *testing.T) {
	p, err := NewWithOptions(Options{TypeInference: false})
	require.NoError(t, err)
	recipes := extract(t, p, `serve port="8080":
    run
`)
	require.Len(t, recipes, 1)
	assert.Equal(t, TypeUnknown, recipes[0].Parameters[0].Type)
}

func TestExtract_NilTree(t *testing.T) {
	p := newParser(t)
	_, err := p.ExtractRecipes(nil)
	require.Error(t, err)
}

func TestDedent_MixedIndentation(t *testing.T) {
	out := Dedent([]string{"    a", "      b", "", "    c"})
	assert.Equal(t, "a\n  b\n\nc", out)
}

func TestDedent_NoCommonIndent(t *testing.T) {
	out := Dedent([]string{"a", "  b"})
	assert.Equal(t, "a\n  b", out)
}

func TestDedent_TabsDoNotCancelAgainstSpaces(t *testing.T) {
	out := Dedent([]string{"    a", "\tb"})
	assert.Equal(t, "    a\n\tb", out)
}

func TestDedent_CommonTabPrefix(t *testing.T) {
	out := Dedent([]string{"\t\ta", "\tb"})
	assert.Equal(t, "\ta\nb", out)
}
