package parser

import (
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/thomasaiwilcox/strictswift/pkg/symbol"
)

// Producer extracts declarations, references, and conformance records from
// parsed Swift files. One Producer is safe for concurrent use; it carries no
// state beyond the module name.
type Producer struct {
	module string
}

// NewProducer creates a producer that stamps symbols with the given module name.
func NewProducer(module string) *Producer {
	return &Producer{module: module}
}

// ProduceFile parses path with p and extracts its symbol input.
func (pr *Producer) ProduceFile(p *Parser, path string) (*symbol.FileInput, error) {
	result, err := p.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return pr.Produce(result), nil
}

// Produce extracts a FileInput from an already-parsed file.
func (pr *Producer) Produce(result *ParseResult) *symbol.FileInput {
	ex := &extractor{
		module: pr.module,
		path:   result.Path,
		source: result.Source,
		input: &symbol.FileInput{
			Path:   result.Path,
			Module: pr.module,
		},
	}
	ex.walk(result.Tree.RootNode(), walkState{})
	return ex.input
}

// walkState carries the lexical context down the tree: the enclosing
// declaration (for scope attribution), the nearest nominal type name (for
// resolving `self`), and local bindings with inferred types.
type walkState struct {
	enclosing *symbol.Symbol
	typeName  string
	locals    map[string]string
}

func (w walkState) scope() string {
	if w.enclosing == nil {
		return ""
	}
	return w.enclosing.QualifiedName
}

type extractor struct {
	module string
	path   string
	source []byte
	input  *symbol.FileInput
}

// Common standard library types that carry no project declaration. References
// to them would only inflate the unresolved list.
var builtinTypes = map[string]struct{}{
	"Int": {}, "Int8": {}, "Int16": {}, "Int32": {}, "Int64": {},
	"UInt": {}, "UInt8": {}, "UInt16": {}, "UInt32": {}, "UInt64": {},
	"Float": {}, "Double": {}, "Bool": {}, "String": {}, "Character": {},
	"Array": {}, "Dictionary": {}, "Set": {}, "Optional": {}, "Result": {},
	"Void": {}, "Any": {}, "AnyObject": {}, "Never": {}, "Error": {},
	"Data": {}, "Date": {}, "URL": {}, "UUID": {},
}

func (ex *extractor) walk(node *sitter.Node, st walkState) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "class_declaration":
		ex.typeDeclaration(node, st)
		return
	case "protocol_declaration":
		ex.protocolDeclaration(node, st)
		return
	case "function_declaration", "protocol_function_declaration":
		ex.functionDeclaration(node, st)
		return
	case "init_declaration":
		ex.initDeclaration(node, st)
		return
	case "deinit_declaration":
		ex.deinitDeclaration(node, st)
		return
	case "property_declaration", "protocol_property_declaration":
		ex.propertyDeclaration(node, st)
		return
	case "typealias_declaration":
		ex.typealiasDeclaration(node, st)
		return
	case "enum_entry":
		ex.enumEntry(node, st)
		return
	case "call_expression":
		ex.callExpression(node, st)
		return
	case "navigation_expression":
		ex.navigationExpression(node, st)
		return
	case "user_type":
		ex.typeReference(node, st)
		return
	}

	for i := range int(node.ChildCount()) {
		ex.walk(node.Child(i), st)
	}
}

// typeDeclaration handles class, struct, enum, actor, and extension nodes,
// which the grammar folds into one node type distinguished by keyword.
func (ex *extractor) typeDeclaration(node *sitter.Node, st walkState) {
	kind := symbol.KindClass
	for i := range int(node.ChildCount()) {
		switch node.Child(i).Type() {
		case "struct":
			kind = symbol.KindStruct
		case "enum":
			kind = symbol.KindEnum
		case "extension":
			kind = symbol.KindExtension
		}
	}

	name := GetNodeText(node.ChildByFieldName("name"), ex.source)
	if name == "" {
		return
	}
	// Extended type names can be qualified (extension Foo.Bar); the member
	// relinking pass matches extensions against the base type by name.
	if kind == symbol.KindExtension {
		if idx := strings.LastIndex(name, "."); idx >= 0 {
			name = name[idx+1:]
		}
	}

	sym := ex.declare(node, name, ex.qualify(st, name), kind, st)

	for _, proto := range ex.inheritedNames(node) {
		ex.input.Conformances = append(ex.input.Conformances, symbol.ConformanceRecord{
			TypeName:     name,
			ProtocolName: proto,
			Location:     nodeLocation(node, ex.path),
		})
		ex.input.References = append(ex.input.References, symbol.Reference{
			ReferencedName: proto,
			Kind:           symbol.RefInheritance,
			Location:       nodeLocation(node, ex.path),
			ScopeContext:   sym.QualifiedName,
		})
	}

	inner := walkState{enclosing: sym, typeName: name}
	if kind == symbol.KindExtension {
		// Members of an extension belong to the extended type's namespace.
		inner.typeName = name
	}
	if body := node.ChildByFieldName("body"); body != nil {
		ex.walk(body, inner)
	}
}

func (ex *extractor) protocolDeclaration(node *sitter.Node, st walkState) {
	name := GetNodeText(node.ChildByFieldName("name"), ex.source)
	if name == "" {
		return
	}
	sym := ex.declare(node, name, ex.qualify(st, name), symbol.KindProtocol, st)

	for _, proto := range ex.inheritedNames(node) {
		ex.input.Conformances = append(ex.input.Conformances, symbol.ConformanceRecord{
			TypeName:     name,
			ProtocolName: proto,
			Location:     nodeLocation(node, ex.path),
		})
	}

	if body := node.ChildByFieldName("body"); body != nil {
		ex.walk(body, walkState{enclosing: sym, typeName: name})
	}
}

func (ex *extractor) functionDeclaration(node *sitter.Node, st walkState) {
	name := GetNodeText(node.ChildByFieldName("name"), ex.source)
	if name == "" {
		return
	}
	qualified := ex.qualify(st, name) + ex.parameterSignature(node)
	sym := ex.declare(node, name, qualified, symbol.KindFunction, st)

	inner := walkState{enclosing: sym, typeName: st.typeName, locals: map[string]string{}}
	ex.parameterTypes(node, inner)
	if body := node.ChildByFieldName("body"); body != nil {
		ex.walk(body, inner)
	}
}

func (ex *extractor) initDeclaration(node *sitter.Node, st walkState) {
	qualified := ex.qualify(st, "init") + ex.parameterSignature(node)
	sym := ex.declare(node, "init", qualified, symbol.KindInitializer, st)

	inner := walkState{enclosing: sym, typeName: st.typeName, locals: map[string]string{}}
	ex.parameterTypes(node, inner)
	if body := node.ChildByFieldName("body"); body != nil {
		ex.walk(body, inner)
	}
}

func (ex *extractor) deinitDeclaration(node *sitter.Node, st walkState) {
	sym := ex.declare(node, "deinit", ex.qualify(st, "deinit"), symbol.KindDeinitializer, st)
	if body := node.ChildByFieldName("body"); body != nil {
		ex.walk(body, walkState{enclosing: sym, typeName: st.typeName, locals: map[string]string{}})
	}
}

// propertyDeclaration declares stored properties at type and file scope. The
// grammar uses the same node for local let/var bindings; those only feed the
// local type table used for base type inference.
func (ex *extractor) propertyDeclaration(node *sitter.Node, st walkState) {
	names := ex.boundNames(node)

	isLocal := st.enclosing != nil &&
		(st.enclosing.Kind == symbol.KindFunction ||
			st.enclosing.Kind == symbol.KindInitializer ||
			st.enclosing.Kind == symbol.KindDeinitializer)

	if isLocal {
		if bound := ex.boundType(node); bound != "" {
			for _, n := range names {
				st.locals[n] = bound
			}
		}
	} else {
		for _, n := range names {
			ex.declare(node, n, ex.qualify(st, n), symbol.KindVariable, st)
		}
	}

	// Type annotations and initializer expressions still contain references.
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() == "pattern" || child.Type() == "value_binding_pattern" {
			continue
		}
		ex.walk(child, st)
	}
}

func (ex *extractor) typealiasDeclaration(node *sitter.Node, st walkState) {
	name := GetNodeText(node.ChildByFieldName("name"), ex.source)
	if name == "" {
		return
	}
	ex.declare(node, name, ex.qualify(st, name), symbol.KindTypealias, st)

	if value := node.ChildByFieldName("value"); value != nil {
		ex.walk(value, st)
	}
}

func (ex *extractor) enumEntry(node *sitter.Node, st walkState) {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() != "simple_identifier" {
			continue
		}
		name := GetNodeText(child, ex.source)
		ex.declare(child, name, ex.qualify(st, name), symbol.KindEnumCase, st)
	}
}

// callExpression emits a call or constructor reference for the callee and
// walks the arguments.
func (ex *extractor) callExpression(node *sitter.Node, st walkState) {
	callee := node.Child(0)
	if callee == nil {
		return
	}

	switch callee.Type() {
	case "simple_identifier":
		name := GetNodeText(callee, ex.source)
		if isTypeName(name) {
			// Constructor call: the reference targets the type itself.
			ex.addReference(symbol.Reference{
				ReferencedName: name,
				FullExpression: GetNodeText(node, ex.source),
				Kind:           symbol.RefTypeReference,
				Location:       nodeLocation(node, ex.path),
				ScopeContext:   st.scope(),
			})
		} else {
			ex.addReference(symbol.Reference{
				ReferencedName: name,
				FullExpression: GetNodeText(node, ex.source),
				Kind:           symbol.RefFunctionCall,
				Location:       nodeLocation(node, ex.path),
				ScopeContext:   st.scope(),
			})
		}
	case "navigation_expression":
		target := callee.ChildByFieldName("target")
		name := ex.navigationSuffixName(callee)
		if name != "" {
			kind := symbol.RefFunctionCall
			if target == nil {
				// Implicit member call like .success(value).
				kind = symbol.RefEnumCase
			}
			ex.addReference(symbol.Reference{
				ReferencedName:   name,
				FullExpression:   GetNodeText(node, ex.source),
				Kind:             kind,
				Location:         nodeLocation(node, ex.path),
				ScopeContext:     st.scope(),
				InferredBaseType: ex.inferBase(target, st),
			})
		}
		ex.walk(target, st)
	default:
		ex.walk(callee, st)
	}

	for i := 1; i < int(node.ChildCount()); i++ {
		ex.walk(node.Child(i), st)
	}
}

// navigationExpression emits property access, metatype, or implicit enum case
// references for dotted expressions outside call position.
func (ex *extractor) navigationExpression(node *sitter.Node, st walkState) {
	target := node.ChildByFieldName("target")
	name := ex.navigationSuffixName(node)
	if name == "" {
		ex.walk(target, st)
		return
	}

	switch {
	case target == nil:
		// Implicit member: .caseName in a switch pattern or assignment.
		ex.addReference(symbol.Reference{
			ReferencedName: name,
			FullExpression: GetNodeText(node, ex.source),
			Kind:           symbol.RefEnumCase,
			Location:       nodeLocation(node, ex.path),
			ScopeContext:   st.scope(),
		})
	case name == "self":
		// Metatype access: Type.self references the type.
		base := GetNodeText(target, ex.source)
		if isTypeName(base) {
			ex.addReference(symbol.Reference{
				ReferencedName: base,
				FullExpression: GetNodeText(node, ex.source),
				Kind:           symbol.RefMetatype,
				Location:       nodeLocation(node, ex.path),
				ScopeContext:   st.scope(),
			})
		}
	default:
		ex.addReference(symbol.Reference{
			ReferencedName:   name,
			FullExpression:   GetNodeText(node, ex.source),
			Kind:             symbol.RefPropertyAccess,
			Location:         nodeLocation(node, ex.path),
			ScopeContext:     st.scope(),
			InferredBaseType: ex.inferBase(target, st),
		})
	}

	ex.walk(target, st)
}

func (ex *extractor) typeReference(node *sitter.Node, st walkState) {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() != "type_identifier" {
			continue
		}
		name := GetNodeText(child, ex.source)
		if _, builtin := builtinTypes[name]; builtin || name == "" {
			continue
		}
		ex.addReference(symbol.Reference{
			ReferencedName: name,
			FullExpression: GetNodeText(node, ex.source),
			Kind:           symbol.RefTypeReference,
			Location:       nodeLocation(node, ex.path),
			ScopeContext:   st.scope(),
		})
	}
}

// declare registers a symbol with accessibility and attributes read from the
// declaration's modifier list.
func (ex *extractor) declare(node *sitter.Node, name, qualified string, kind symbol.Kind, st walkState) *symbol.Symbol {
	loc := nodeLocation(node, ex.path)
	sym := symbol.Symbol{
		ID:            symbol.DeriveID(ex.module, qualified, kind, ex.path, loc.Line),
		Name:          name,
		QualifiedName: qualified,
		Kind:          kind,
		Location:      loc,
		Accessibility: symbol.AccessInternal,
	}
	if st.enclosing != nil {
		sym.ParentID = st.enclosing.ID
	}

	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch child.Type() {
		case "modifiers":
			ex.applyModifiers(child, &sym)
		case "attribute":
			sym.AddAttribute(attributeName(GetNodeText(child, ex.source)))
		}
	}

	ex.input.Symbols = append(ex.input.Symbols, sym)
	return &ex.input.Symbols[len(ex.input.Symbols)-1]
}

func (ex *extractor) applyModifiers(node *sitter.Node, sym *symbol.Symbol) {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch child.Type() {
		case "visibility_modifier":
			text := GetNodeText(child, ex.source)
			switch {
			case strings.HasPrefix(text, "open"):
				sym.Accessibility = symbol.AccessOpen
			case strings.HasPrefix(text, "public"):
				sym.Accessibility = symbol.AccessPublic
			case strings.HasPrefix(text, "fileprivate"):
				sym.Accessibility = symbol.AccessFileprivate
			case strings.HasPrefix(text, "private"):
				sym.Accessibility = symbol.AccessPrivate
			case strings.HasPrefix(text, "internal"):
				sym.Accessibility = symbol.AccessInternal
			}
		case "attribute":
			sym.AddAttribute(attributeName(GetNodeText(child, ex.source)))
		}
	}
}

// inheritedNames returns protocol and superclass names from the declaration's
// inheritance clause. Only direct children are inspected so nothing from the
// body leaks in.
func (ex *extractor) inheritedNames(node *sitter.Node) []string {
	var names []string
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() != "inheritance_specifier" {
			continue
		}
		text := GetNodeText(child, ex.source)
		// Drop generic arguments: Collection<Int> inherits Collection.
		if idx := strings.IndexByte(text, '<'); idx >= 0 {
			text = text[:idx]
		}
		if text != "" {
			names = append(names, text)
		}
	}
	return names
}

// parameterSignature builds the Swift-style argument label suffix,
// e.g. "(name:count:)" or "()".
func (ex *extractor) parameterSignature(node *sitter.Node) string {
	var labels []string
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() != "parameter" {
			continue
		}
		label := "_"
		for j := range int(child.ChildCount()) {
			if child.Child(j).Type() == "simple_identifier" {
				label = GetNodeText(child.Child(j), ex.source)
				break
			}
		}
		labels = append(labels, label+":")
	}
	return "(" + strings.Join(labels, "") + ")"
}

// parameterTypes records parameter names and their declared types as locals.
func (ex *extractor) parameterTypes(node *sitter.Node, st walkState) {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() != "parameter" {
			continue
		}
		var name, typeName string
		for j := range int(child.ChildCount()) {
			sub := child.Child(j)
			switch sub.Type() {
			case "simple_identifier":
				// The last identifier before the type is the binding name.
				name = GetNodeText(sub, ex.source)
			case "user_type":
				typeName = ex.firstTypeIdentifier(sub)
			}
		}
		if name != "" && typeName != "" {
			st.locals[name] = typeName
		}
	}
}

// boundNames extracts the identifiers bound by a property declaration's
// pattern, skipping the initializer expression.
func (ex *extractor) boundNames(node *sitter.Node) []string {
	var names []string
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch child.Type() {
		case "pattern", "value_binding_pattern":
			for _, ident := range FindNodesByType(child, ex.source, "simple_identifier") {
				names = append(names, GetNodeText(ident, ex.source))
			}
		}
	}
	return names
}

// boundType infers the declared or constructed type of a binding: an explicit
// annotation wins, otherwise a constructor call on the right-hand side.
func (ex *extractor) boundType(node *sitter.Node) string {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if child.Type() != "type_annotation" {
			continue
		}
		for _, ut := range FindNodesByType(child, ex.source, "user_type") {
			if name := ex.firstTypeIdentifier(ut); name != "" {
				return name
			}
		}
	}
	for _, call := range FindNodesByType(node, ex.source, "call_expression") {
		callee := call.Child(0)
		if callee != nil && callee.Type() == "simple_identifier" {
			name := GetNodeText(callee, ex.source)
			if isTypeName(name) {
				return name
			}
		}
	}
	return ""
}

func (ex *extractor) firstTypeIdentifier(node *sitter.Node) string {
	for i := range int(node.ChildCount()) {
		if node.Child(i).Type() == "type_identifier" {
			return GetNodeText(node.Child(i), ex.source)
		}
	}
	return ""
}

// navigationSuffixName returns the member name in a dotted expression.
func (ex *extractor) navigationSuffixName(node *sitter.Node) string {
	suffix := node.ChildByFieldName("suffix")
	if suffix == nil {
		return ""
	}
	for i := range int(suffix.ChildCount()) {
		child := suffix.Child(i)
		if child.Type() == "simple_identifier" || child.Type() == "self" {
			return GetNodeText(child, ex.source)
		}
	}
	name := strings.TrimPrefix(GetNodeText(suffix, ex.source), ".")
	return name
}

// inferBase narrows a dotted reference to a base type when the target is a
// type name, self, or a local with a known binding. Unknown targets return
// empty, which leaves resolution to the name-wide candidate set.
func (ex *extractor) inferBase(target *sitter.Node, st walkState) string {
	if target == nil {
		return ""
	}
	text := GetNodeText(target, ex.source)
	switch {
	case text == "self":
		return st.typeName
	case isTypeName(text):
		return text
	default:
		if st.locals != nil {
			if bound, ok := st.locals[text]; ok {
				return bound
			}
		}
	}
	return ""
}

func (ex *extractor) addReference(ref symbol.Reference) {
	if ref.ReferencedName == "" {
		return
	}
	// References outside any declaration have no source to draw an edge from.
	ex.input.References = append(ex.input.References, ref)
}

func attributeName(text string) string {
	text = strings.TrimPrefix(text, "@")
	if idx := strings.IndexByte(text, '('); idx >= 0 {
		text = text[:idx]
	}
	return text
}

func (ex *extractor) qualify(st walkState, name string) string {
	if st.enclosing == nil {
		return name
	}
	return st.enclosing.QualifiedName + "." + name
}

// isTypeName applies the Swift convention that type names are capitalized.
func isTypeName(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper(rune(name[0]))
}

func nodeLocation(node *sitter.Node, path string) symbol.Location {
	return symbol.Location{
		File:   path,
		Line:   node.StartPoint().Row + 1,
		Column: node.StartPoint().Column + 1,
	}
}
