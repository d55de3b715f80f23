package semantic

import (
	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/types"
)

// declareInterface declares or additively merges an interface. Two
// declarations with the same name in one module merge member lists; a
// conflicting member type is a diagnostic.
func (a *Analyzer) declareInterface(decl *ast.InterfaceDeclaration) {
	var iface *types.InterfaceType
	if existing, ok := a.scope.lookupType(decl.Name.Value); ok {
		if prior, isIface := existing.(*types.InterfaceType); isIface {
			iface = prior
		} else {
			a.errorAt(decl, "TS2300", "duplicate identifier %q", decl.Name.Value)
			return
		}
	}
	if iface == nil {
		iface = types.NewInterface(decl.Name.Value, a.currentModule)
		a.scope.defineType(decl.Name.Value, iface)
	}

	// Type parameters scope over member annotations.
	inner := newScope(a.scope)
	prev := a.scope
	a.scope = inner
	defer func() { a.scope = prev }()

	if len(decl.TypeParams) > 0 && len(iface.TypeParams) == 0 {
		iface.TypeParams = a.declareTypeParams(decl.TypeParams)
	} else if len(decl.TypeParams) > 0 {
		for i, p := range decl.TypeParams {
			if i < len(iface.TypeParams) {
				a.scope.defineType(p.Name.Value, iface.TypeParams[i])
			}
		}
	}

	for _, ext := range decl.Extends {
		base := a.resolveTypeNode(ext)
		if bi, ok := base.(*types.InterfaceType); ok {
			iface.Extends = append(iface.Extends, bi)
		} else if inst, ok := base.(*types.InstantiatedType); ok {
			if bi, ok := inst.Definition.(*types.InterfaceType); ok {
				iface.Extends = append(iface.Extends, bi)
			}
		} else {
			a.errorAt(ext, "TS2312", "an interface can only extend interfaces")
		}
	}

	for _, m := range decl.Members {
		if m.Name == nil {
			key := a.resolveTypeNode(m.KeyType)
			val := a.resolveTypeNode(m.Type)
			if key == types.NUMBER {
				iface.NumberIndex = val
			} else {
				iface.StringIndex = val
			}
			continue
		}
		if ftNode, ok := m.Type.(*ast.FunctionTypeNode); ok {
			sig := a.signatureOf(ftNode.TypeParams, ftNode.Params, ftNode.ReturnType, false, false)
			sig.IsMethod = true
			if prior, exists := iface.Methods[m.Name.Value]; exists && !types.Equals(prior, sig) {
				a.errorAt(m.Name, "TS2717", "subsequent declarations of %q must have the same type", m.Name.Value)
			}
			iface.Methods[m.Name.Value] = sig
			continue
		}
		t := a.resolveTypeNode(m.Type)
		merged := false
		for i, f := range iface.Members {
			if f.Name == m.Name.Value {
				if !types.Equals(f.Type, t) {
					a.errorAt(m.Name, "TS2717", "subsequent declarations of %q must have the same type", m.Name.Value)
				}
				iface.Members[i] = types.Field{Name: f.Name, Type: t, Optional: m.Optional, Readonly: m.Readonly}
				merged = true
				break
			}
		}
		if !merged {
			iface.Members = append(iface.Members, types.Field{
				Name: m.Name.Value, Type: t, Optional: m.Optional, Readonly: m.Readonly,
			})
		}
	}
}

// declareTypeAlias declares a type alias; generic aliases defer body
// resolution into a GenericAlias definition.
func (a *Analyzer) declareTypeAlias(decl *ast.TypeAliasDeclaration) {
	if len(decl.TypeParams) == 0 {
		a.scope.defineType(decl.Name.Value, a.resolveTypeNode(decl.Type))
		return
	}

	inner := newScope(a.scope)
	prev := a.scope
	a.scope = inner
	tps := a.declareTypeParams(decl.TypeParams)
	body := a.resolveTypeNode(decl.Type)
	a.scope = prev

	a.scope.defineType(decl.Name.Value, types.NewGenericAlias(decl.Name.Value, a.currentModule, tps, body))
}

// declareEnum declares an enum: a nominal type whose members are literal
// types, plus a value binding for member access.
func (a *Analyzer) declareEnum(decl *ast.EnumDeclaration) {
	enum := types.NewEnum(decl.Name.Value, a.currentModule)

	next := 0.0
	for _, m := range decl.Members {
		var lit *types.LiteralType
		if m.Init != nil {
			switch init := m.Init.(type) {
			case *ast.NumberLiteral:
				lit = types.NewNumberLiteral(init.Value)
				next = init.Value + 1
			case *ast.StringLiteral:
				lit = types.NewStringLiteral(init.Value)
			case *ast.UnaryExpression:
				if num, ok := init.Operand.(*ast.NumberLiteral); ok && init.Operator == "-" {
					lit = types.NewNumberLiteral(-num.Value)
					next = -num.Value + 1
				}
			}
			if lit == nil {
				a.errorAt(m.Init, "TS2474", "enum member initializers must be number or string literals")
				lit = types.NewNumberLiteral(next)
				next++
			}
		} else {
			lit = types.NewNumberLiteral(next)
			next++
		}
		enum.Members = append(enum.Members, types.Field{Name: m.Name.Value, Type: lit})
	}

	a.scope.defineType(decl.Name.Value, enum)

	// The enum value is an object of member bindings plus the reverse
	// numeric mapping (Color[0] yields the member name).
	fields := make([]types.Field, len(enum.Members))
	for i, m := range enum.Members {
		fields[i] = types.Field{Name: m.Name, Type: m.Type, Readonly: true}
	}
	rec := types.NewRecord(fields)
	rec.NumberIndex = types.STRING
	a.scope.defineValue(decl.Name.Value, rec, true, decl.Pos())
	a.setType(decl, enum)
}

// declareClassShell creates the nominal class type and binds its name so
// mutually recursive references resolve before bodies are populated.
func (a *Analyzer) declareClassShell(decl *ast.ClassDeclaration) {
	cls := types.NewClass(decl.Name.Value, a.currentModule)
	cls.Abstract = decl.IsAbstract
	a.scope.defineType(decl.Name.Value, cls)
	a.scope.defineValue(decl.Name.Value, cls, true, decl.Pos())
	a.setType(decl, cls)
}

// populateClass fills a class shell's member tables from its declaration.
func (a *Analyzer) populateClass(decl *ast.ClassDeclaration) {
	t, ok := a.scope.lookupType(decl.Name.Value)
	if !ok {
		return
	}
	cls, ok := t.(*types.ClassType)
	if !ok {
		return
	}

	inner := newScope(a.scope)
	prev := a.scope
	a.scope = inner
	defer func() { a.scope = prev }()

	if len(decl.TypeParams) > 0 {
		cls.TypeParams = a.declareTypeParams(decl.TypeParams)
	}

	if decl.SuperClass != nil {
		if ident, ok := decl.SuperClass.(*ast.Identifier); ok {
			if st, found := a.scope.lookupType(ident.Value); found {
				if superCls, isClass := st.(*types.ClassType); isClass {
					cls.Super = superCls
				} else {
					a.errorAt(decl.SuperClass, "TS2311", "a class can only extend another class")
				}
			} else {
				a.errorAt(decl.SuperClass, "TS2304", "cannot find name %q", ident.Value)
			}
		}
	}

	for _, impl := range decl.Implements {
		it := a.resolveTypeNode(impl)
		switch iv := it.(type) {
		case *types.InterfaceType:
			cls.Implements = append(cls.Implements, iv)
		case *types.InstantiatedType:
			if def, ok := iv.Definition.(*types.InterfaceType); ok {
				cls.Implements = append(cls.Implements, def)
			}
		default:
			a.errorAt(impl, "TS2422", "a class can only implement interfaces")
		}
	}

	for _, member := range decl.Members {
		switch m := member.(type) {
		case *ast.FieldMember:
			ft := types.Type(types.ANY)
			if m.Type != nil {
				ft = a.resolveTypeNode(m.Type)
			}
			info := &types.ClassMemberInfo{
				Name:     m.Name.Value,
				Type:     ft,
				Access:   accessLevel(m.Modifiers.Access),
				Readonly: m.Modifiers.Readonly,
				Static:   m.Modifiers.Static,
			}
			if m.Modifiers.Static {
				cls.Static = append(cls.Static, info)
			} else {
				cls.Instance = append(cls.Instance, info)
			}

		case *ast.MethodMember:
			sig := a.signatureOf(m.Function.TypeParams, m.Function.Params, m.Function.ReturnType, m.Modifiers.Async, m.Function.IsGenerator)
			sig.IsMethod = true

			if m.Kind == ast.MethodConstructor {
				cls.Constructor = sig
				// Parameter properties become instance fields.
				for _, p := range m.Function.Params {
					if p.Access != ast.AccessNone || p.Readonly {
						pt := types.Type(types.ANY)
						if p.Type != nil {
							pt = a.resolveTypeNode(p.Type)
						}
						cls.Instance = append(cls.Instance, &types.ClassMemberInfo{
							Name:     p.Name.Value,
							Type:     pt,
							Access:   accessLevel(p.Access),
							Readonly: p.Readonly,
						})
					}
				}
				continue
			}

			if m.Modifiers.Abstract && !decl.IsAbstract {
				a.errorAt(m, "TS1244", "abstract methods can only appear within an abstract class")
			}
			if m.Modifiers.Abstract && m.Function.Body != nil {
				a.errorAt(m, "TS1245", "method %q cannot have an implementation because it is marked abstract", m.Name.Value)
			}
			if !m.Modifiers.Abstract && m.Function.Body == nil {
				a.errorAt(m, "TS2391", "function implementation is missing for %q", m.Name.Value)
			}

			switch m.Kind {
			case ast.MethodGet:
				info := a.findOrAddMember(cls, m.Name.Value, m.Modifiers)
				info.Getter = sig
				info.Type = sig.Return
			case ast.MethodSet:
				info := a.findOrAddMember(cls, m.Name.Value, m.Modifiers)
				info.Setter = sig
				if info.Getter == nil && len(sig.Params) == 1 {
					info.Type = sig.Params[0].Type
				}
			default:
				if m.Modifiers.Override {
					if cls.Super == nil {
						a.errorAt(m, "TS4112", "member %q cannot be marked override because its class has no base class", m.Name.Value)
					} else if _, found := cls.Super.LookupInstance(m.Name.Value); !found {
						a.errorAt(m, "TS4113", "member %q is marked override but no base class declares it", m.Name.Value)
					}
				}
				info := &types.ClassMemberInfo{
					Name:     m.Name.Value,
					Type:     sig,
					Access:   accessLevel(m.Modifiers.Access),
					Static:   m.Modifiers.Static,
					Abstract: m.Modifiers.Abstract,
					IsMethod: true,
				}
				if m.Modifiers.Static {
					cls.Static = append(cls.Static, info)
				} else {
					cls.Instance = append(cls.Instance, info)
				}
			}

		case *ast.IndexSignatureMember:
			// Only the key type is validated; the signature is not recorded
			// on the class type.
			kt := a.resolveTypeNode(m.KeyType)
			if kt != types.STRING && kt != types.NUMBER && kt != types.SYMBOL {
				a.errorAt(m, "TS1268", "index signature key must be string, number or symbol")
			}
		}
	}

	// implements is structural: the class instance shape must satisfy each
	// interface.
	instance := types.NewInstance(cls)
	for _, iface := range cls.Implements {
		if !a.compat.Assignable(instance, iface) {
			a.errorAt(decl, "TS2420", "class %q incorrectly implements interface %q", cls.Name, iface.Name)
		}
	}
}

func (a *Analyzer) findOrAddMember(cls *types.ClassType, name string, mods ast.MemberModifiers) *types.ClassMemberInfo {
	list := &cls.Instance
	if mods.Static {
		list = &cls.Static
	}
	for _, m := range *list {
		if m.Name == name {
			return m
		}
	}
	info := &types.ClassMemberInfo{Name: name, Access: accessLevel(mods.Access)}
	*list = append(*list, info)
	return info
}

func accessLevel(am ast.AccessModifier) int {
	switch am {
	case ast.AccessPrivate:
		return types.AccessPrivate
	case ast.AccessProtected:
		return types.AccessProtected
	}
	return types.AccessPublic
}

// analyzeClassBodies checks method and initializer bodies of a class
// declaration after its shape is established.
func (a *Analyzer) analyzeClassBodies(decl *ast.ClassDeclaration) {
	t, ok := a.scope.lookupType(decl.Name.Value)
	if !ok {
		return
	}
	cls, ok := t.(*types.ClassType)
	if !ok {
		return
	}

	prevClass := a.currentClass
	a.currentClass = cls
	defer func() { a.currentClass = prevClass }()

	inner := newScope(a.scope)
	prev := a.scope
	a.scope = inner
	defer func() { a.scope = prev }()

	for i, p := range decl.TypeParams {
		if i < len(cls.TypeParams) {
			a.scope.defineType(p.Name.Value, cls.TypeParams[i])
		}
	}

	for _, d := range decl.Decorators {
		a.analyzeExpression(d.Expression)
	}

	for _, member := range decl.Members {
		switch m := member.(type) {
		case *ast.FieldMember:
			for _, d := range m.Decorators {
				a.analyzeExpression(d.Expression)
			}
			if m.Init == nil {
				continue
			}
			got := a.analyzeExpression(m.Init)
			if m.Type != nil {
				want := a.resolveTypeNode(m.Type)
				a.checkAssignment(m.Init, got, want)
			}
		case *ast.MethodMember:
			for _, d := range m.Decorators {
				a.analyzeExpression(d.Expression)
			}
			if m.Function.Body == nil {
				continue
			}
			a.analyzeFunctionBody(m.Function, types.NewInstance(cls), m.Kind == ast.MethodConstructor)
		}
	}
}

// checkAbstractInstantiation reports construction of an abstract class.
func (a *Analyzer) checkAbstractInstantiation(node ast.Node, cls *types.ClassType) {
	if cls.Abstract {
		a.errorAt(node, "TS2511", "cannot create an instance of abstract class %q", cls.Name)
	}
}
