package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	signLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		// 数值可带单位后缀，单位换算在构建阶段完成。
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)(?:pt|mm|cm|in)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `[][,.;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(signLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document 是模板文件的根节点：`doc <name> <version> { ... }`。
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'doc' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section 是顶层段落之一。
type Section struct {
	Meta      *MetaSection      `parser:"  @@"`
	Resources *ResourcesSection `parser:"| @@"`
	Template  *TemplateSection  `parser:"| @@"`
}

// Kind 返回段落类型名。
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Meta != nil:
		return "meta"
	case s.Resources != nil:
		return "resources"
	case s.Template != nil:
		return "template"
	default:
		return "unknown"
	}
}

// MetaSection 为输出文件的文档信息（title、author、keywords 等）。
type MetaSection struct {
	Entries []*Assignment `parser:"'meta' '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// ResourcesSection 声明字体、字体组与图片。
type ResourcesSection struct {
	Decls []*Resource `parser:"'resources' '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Resource 是 resources 中的一条声明。
type Resource struct {
	Font    *SourceDecl  `parser:"  'font' @@"`
	FontSet *FontSetDecl `parser:"| 'fontset' @@"`
	Image   *SourceDecl  `parser:"| 'image' @@"`
}

// SourceDecl 形如 `font Body { src: "builtin:gobold" }`，省略属性块时以名称为来源。
type SourceDecl struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Props []*Assignment  `parser:"( '{' Newline* ( @@ ( ';' | Newline )* )* '}' )?"`
}

// Prop 返回属性块中 key 的取值。
func (d *SourceDecl) Prop(key string) (*Value, bool) {
	for _, a := range d.Props {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

// FontSetDecl 形如 `fontset Headline [Poster, Mono]`，成员按优先顺序排列。
type FontSetDecl struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    string         `parser:"@Ident"`
	Members []string       `parser:"'[' Newline* @Ident ( ( ',' | Newline+ ) Newline* @Ident )* Newline* ']'"`
}

// TemplateSection 描述一张招牌模板：页面级属性与 `field <id> { ... }` 字段声明。
type TemplateSection struct {
	Pos  lexer.Position  `parser:"" json:"-"`
	Name StringLiteral   `parser:"'template' @String"`
	Body []*TemplateItem `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// TemplateItem 是模板体中的字段声明或页面级属性。
type TemplateItem struct {
	Field      *FieldDecl  `parser:"  'field' @@"`
	Assignment *Assignment `parser:"| @@"`
}

// FieldDecl 声明一个字段。ID 可以是标识符，也可以是带引号的字符串（例如 "FIELD01.1"）。
type FieldDecl struct {
	Pos  lexer.Position `parser:"" json:"-"`
	ID   Identifier     `parser:"@( Ident | String )"`
	Body []*FieldItem   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// FieldItem 是字段属性，或作为静态文本的字符串字面量。
type FieldItem struct {
	Assignment *Assignment    `parser:"  @@"`
	Text       *StringLiteral `parser:"| @String"`
}

// Assignment 使用冒号语法（key: value）。
type Assignment struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"':' Newline* @@"`
}

// Value 是属性取值。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Array  *ArrayValue    `parser:"| @@"`
	Ref    *Reference     `parser:"| @@"`
}

// Text 返回取值的文本形式：字符串去掉引号，引用以点号连接，数组返回空串。
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Ref != nil:
		return v.Ref.String()
	default:
		return ""
	}
}

// ArrayValue 捕获 `[ ... ]`，元素以逗号、分号或换行分隔。
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// Reference 是未加引号的名称或点分路径，例如 width、FIELD03.separator、true。
type Reference struct {
	Parts []string `parser:"@Ident ( '.' @Ident )*"`
}

func (r *Reference) String() string { return strings.Join(r.Parts, ".") }

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Identifier 接受标识符或带引号的字符串。
type Identifier string

// Capture implements participle.Capture.
func (i *Identifier) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("identifier capture requires value")
	}
	val := values[0]
	if strings.HasPrefix(val, `"`) {
		unquoted, err := strconv.Unquote(val)
		if err != nil {
			return err
		}
		val = unquoted
	}
	*i = Identifier(val)
	return nil
}

// Parse parses DSL content from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}
