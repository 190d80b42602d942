// Lowering from the parsed AST to ir.Program (spec §12). Grounded on
// Front/IRGenerator.cpp in the original implementation: one pass builds
// the type table, one pass registers every callable's signature so
// forward references resolve, one pass synthesizes a dispatcher
// procedure per virtual slot, and a final pass lowers every function
// and method body, running errcheck.Check on each as it's produced.
package frontend

import (
	"fmt"
	"strings"

	"rmcc/internal/diag"
	"rmcc/internal/errcheck"
	"rmcc/internal/ir"
)

const wordSize = 4

// funcSig is what lowering knows about one callable: a free function or
// a method, keyed by its link-time symbol.
type funcSig struct {
	Symbol   string
	Params   []*Type
	Return   *Type
	Receiver *Type // non-nil for methods; Params excludes the receiver
}

type lowerer struct {
	types      *Table
	funcs      map[string]*funcSig            // free functions, by name
	methodSigs map[string]map[string]*funcSig // class name -> method name -> sig
	imports    map[string]bool
}

// Lower builds an ir.Program from a parsed Program. The returned
// diagnostics may be non-empty even when prog is non-nil: callers
// should check diag-level errors before handing the program to the
// optimizer.
func Lower(prog *Program) (*ir.Program, []*diag.Diagnostic) {
	l := &lowerer{
		types:      NewTable(),
		funcs:      map[string]*funcSig{},
		methodSigs: map[string]map[string]*funcSig{},
		imports:    map[string]bool{},
	}
	var diags []*diag.Diagnostic
	fail := func(err error) {
		diags = append(diags, &diag.Diagnostic{Level: diag.LevelError, Message: err.Error()})
	}

	// Pass 1: type declarations, in source order. A class's Extends must
	// already be declared (no forward references between types).
	for _, d := range prog.Decls {
		switch {
		case d.Struct != nil:
			ty, err := layoutStruct(d.Struct.Name, d.Struct.Fields, l.types)
			if err != nil {
				fail(err)
				continue
			}
			if err := l.types.Declare(ty); err != nil {
				fail(err)
			}
		case d.Class != nil:
			ty, err := layoutClass(d.Class, l.types)
			if err != nil {
				fail(err)
				continue
			}
			if err := l.types.Declare(ty); err != nil {
				fail(err)
			}
		}
	}

	// Pass 2: callable signatures, so any function may call one declared
	// later in the file.
	for _, d := range prog.Decls {
		switch {
		case d.Func != nil:
			if err := l.declareFunc(d.Func, nil); err != nil {
				fail(err)
			}
		case d.Class != nil:
			class, _ := l.types.Lookup(d.Class.Name)
			for _, m := range d.Class.Methods {
				if err := l.declareFunc(m, class); err != nil {
					fail(err)
				}
			}
		}
	}

	program := ir.NewProgram()

	// Pass 3: one dispatcher procedure per virtual slot, at the class
	// that first declares it virtual.
	for _, class := range l.types.Classes() {
		for _, m := range class.VTable {
			if m.Owner != class.Name {
				continue
			}
			sig := l.methodSigs[class.Name][m.Name]
			program.AddProcedure(l.buildDispatcher(class, m, sig))
		}
	}

	// Pass 4: lower every body.
	for _, d := range prog.Decls {
		switch {
		case d.Func != nil:
			proc, err := l.lowerFunction(d.Func, nil)
			if err != nil {
				fail(err)
				continue
			}
			program.AddProcedure(proc)
			diags = append(diags, errcheck.Check(proc)...)
		case d.Class != nil:
			class, _ := l.types.Lookup(d.Class.Name)
			for _, m := range d.Class.Methods {
				proc, err := l.lowerFunction(m, class)
				if err != nil {
					fail(err)
					continue
				}
				program.AddProcedure(proc)
				diags = append(diags, errcheck.Check(proc)...)
			}
		}
	}

	for name := range l.imports {
		program.Imports = append(program.Imports, name)
	}

	return program, diags
}

func (l *lowerer) declareFunc(fn *FuncDecl, receiver *Type) error {
	var params []*Type
	for _, p := range fn.Params {
		ty, err := resolveTypeRef(p.Type, l.types)
		if err != nil {
			return err
		}
		params = append(params, ty)
	}
	ret := TypeVoid
	if fn.Return != nil {
		var err error
		ret, err = resolveTypeRef(fn.Return, l.types)
		if err != nil {
			return err
		}
	}

	if receiver == nil {
		if _, exists := l.funcs[fn.Name]; exists {
			return fmt.Errorf("frontend: function %q declared more than once", fn.Name)
		}
		l.funcs[fn.Name] = &funcSig{Symbol: fn.Name, Params: params, Return: ret}
		return nil
	}

	if l.methodSigs[receiver.Name] == nil {
		l.methodSigs[receiver.Name] = map[string]*funcSig{}
	}
	if _, exists := l.methodSigs[receiver.Name][fn.Name]; exists {
		return fmt.Errorf("frontend: method %q.%q declared more than once", receiver.Name, fn.Name)
	}
	l.methodSigs[receiver.Name][fn.Name] = &funcSig{
		Symbol:   receiver.Name + "." + fn.Name,
		Params:   params,
		Return:   ret,
		Receiver: receiver,
	}
	return nil
}

// findNonVirtualMethod walks ty's ancestor chain for a declared method
// signature (virtual or not) under that name; used for direct calls to
// a slot that FindMethod reports no vtable entry for.
func (l *lowerer) findNonVirtualMethod(ty *Type, name string) *funcSig {
	for cur := ty; cur != nil; cur = cur.Parent {
		if sig, ok := l.methodSigs[cur.Name][name]; ok {
			return sig
		}
	}
	return nil
}

// funcCtx is the per-procedure lowering state.
type funcCtx struct {
	l            *lowerer
	proc         *ir.Procedure
	symType      map[*ir.Symbol]*Type
	scopes       []map[string]*ir.Symbol
	epilogue     *ir.Entry
	returnType   *Type
}

func (c *funcCtx) pushScope() { c.scopes = append(c.scopes, map[string]*ir.Symbol{}) }
func (c *funcCtx) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *funcCtx) declareLocal(name string, ty *Type) *ir.Symbol {
	sym := c.proc.AddSymbol(name, wordSize)
	c.symType[sym] = ty
	c.scopes[len(c.scopes)-1][name] = sym
	return sym
}

func (c *funcCtx) lookup(name string) (*ir.Symbol, *Type, error) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if sym, ok := c.scopes[i][name]; ok {
			return sym, c.symType[sym], nil
		}
	}
	return nil, nil, fmt.Errorf("frontend: undefined identifier %q", name)
}

// lowerFunction lowers one free function or method body to a
// Procedure. Every control path ends by jumping to a single shared
// epilogue label, satisfying invariant 4 (exactly one Prologue/Epilogue
// per procedure) regardless of how many return statements the source
// has.
func (l *lowerer) lowerFunction(fn *FuncDecl, receiver *Type) (*ir.Procedure, error) {
	var sig *funcSig
	var name string
	if receiver == nil {
		sig = l.funcs[fn.Name]
		name = fn.Name
	} else {
		sig = l.methodSigs[receiver.Name][fn.Name]
		name = receiver.Name + "." + fn.Name
	}

	proc := ir.NewProcedure(name)
	proc.Emit(&ir.Entry{Op: ir.OpPrologue})

	ctx := &funcCtx{l: l, proc: proc, symType: map[*ir.Symbol]*Type{}, returnType: sig.Return}
	ctx.pushScope()

	argIdx := 0
	if receiver != nil {
		this := ctx.declareLocal("this", receiver)
		proc.Emit(&ir.Entry{Op: ir.OpLoadArg, Lhs: this, ArgIndex: argIdx})
		argIdx++
	}
	for i, p := range fn.Params {
		sym := ctx.declareLocal(p.Name, sig.Params[i])
		proc.Emit(&ir.Entry{Op: ir.OpLoadArg, Lhs: sym, ArgIndex: argIdx})
		argIdx++
	}

	ctx.epilogue = proc.NewLabel()
	if err := ctx.lowerBlock(fn.Body); err != nil {
		return nil, err
	}
	ctx.popScope()

	proc.Emit(ctx.epilogue)
	proc.Emit(&ir.Entry{Op: ir.OpEpilogue})
	return proc, nil
}

func (c *funcCtx) lowerBlock(b *Block) error {
	c.pushScope()
	defer c.popScope()
	for _, s := range b.Statements {
		if err := c.lowerStatement(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *funcCtx) lowerStatement(s *Statement) error {
	switch {
	case s.Let != nil:
		val, ty, err := c.lowerExpr(s.Let.Expr)
		if err != nil {
			return err
		}
		sym := c.declareLocal(s.Let.Name, ty)
		c.proc.Emit(&ir.Entry{Op: ir.OpMove, Lhs: sym, Rhs1: val})
		return nil
	case s.If != nil:
		return c.lowerIf(s.If)
	case s.While != nil:
		return c.lowerWhile(s.While)
	case s.Return != nil:
		if s.Return.Expr != nil {
			val, _, err := c.lowerExpr(s.Return.Expr)
			if err != nil {
				return err
			}
			c.proc.Emit(&ir.Entry{Op: ir.OpStoreRet, Rhs1: val})
		}
		c.proc.Emit(&ir.Entry{Op: ir.OpJump, Target: c.epilogue})
		return nil
	case s.Print != nil:
		val, ty, err := c.lowerExpr(s.Print.Expr)
		if err != nil {
			return err
		}
		symbol := c.printSymbolFor(ty)
		c.l.imports[symbol] = true
		c.proc.Emit(&ir.Entry{Op: ir.OpStoreArg, Rhs1: val, ArgIndex: 0})
		c.proc.Emit(&ir.Entry{Op: ir.OpCall, CallSymbol: symbol})
		return nil
	case s.Assign != nil:
		val, _, err := c.lowerExpr(s.Assign.Expr)
		if err != nil {
			return err
		}
		return c.lowerAssign(s.Assign.Target, val)
	case s.Expr != nil:
		_, _, err := c.lowerExpr(s.Expr.Expr)
		return err
	}
	return nil
}

func (c *funcCtx) printSymbolFor(ty *Type) string {
	switch ty {
	case TypeString:
		return "__print_string"
	case TypeBool:
		return "__print_bool"
	default:
		return "__print_int"
	}
}

func (c *funcCtx) lowerIf(s *IfStmt) error {
	cond, _, err := c.lowerExpr(s.Cond)
	if err != nil {
		return err
	}
	thenLabel := c.proc.NewLabel()
	elseLabel := c.proc.NewLabel()
	endLabel := c.proc.NewLabel()

	c.proc.Emit(&ir.Entry{Op: ir.OpCJump, Pred: cond, TrueTarget: thenLabel, FalseTarget: elseLabel})
	c.proc.Emit(thenLabel)
	if err := c.lowerBlock(s.Then); err != nil {
		return err
	}
	c.proc.Emit(&ir.Entry{Op: ir.OpJump, Target: endLabel})

	c.proc.Emit(elseLabel)
	if s.Else != nil {
		if err := c.lowerBlock(s.Else); err != nil {
			return err
		}
	}
	c.proc.Emit(&ir.Entry{Op: ir.OpJump, Target: endLabel})

	c.proc.Emit(endLabel)
	return nil
}

func (c *funcCtx) lowerWhile(s *WhileStmt) error {
	condLabel := c.proc.NewLabel()
	bodyLabel := c.proc.NewLabel()
	endLabel := c.proc.NewLabel()

	c.proc.Emit(condLabel)
	cond, _, err := c.lowerExpr(s.Cond)
	if err != nil {
		return err
	}
	c.proc.Emit(&ir.Entry{Op: ir.OpCJump, Pred: cond, TrueTarget: bodyLabel, FalseTarget: endLabel})
	c.proc.Emit(bodyLabel)
	if err := c.lowerBlock(s.Body); err != nil {
		return err
	}
	c.proc.Emit(&ir.Entry{Op: ir.OpJump, Target: condLabel})
	c.proc.Emit(endLabel)
	return nil
}

// lowerAssign resolves target as an lvalue (a bare name, a field
// access, or an array index — never a call or a parenthesized
// subexpression) and emits the matching write.
func (c *funcCtx) lowerAssign(target *Expr, value *ir.Symbol) error {
	post, err := drillToPostfix(target)
	if err != nil {
		return err
	}
	if len(post.Suffix) == 0 {
		if post.Primary.Ident == nil {
			return fmt.Errorf("frontend: left side of assignment is not assignable")
		}
		sym, _, err := c.lookup(*post.Primary.Ident)
		if err != nil {
			return err
		}
		c.proc.Emit(&ir.Entry{Op: ir.OpMove, Lhs: sym, Rhs1: value})
		return nil
	}

	base, baseTy, err := c.lowerPrimary(post.Primary)
	if err != nil {
		return err
	}
	for _, suf := range post.Suffix[:len(post.Suffix)-1] {
		base, baseTy, err = c.applySuffix(base, baseTy, suf)
		if err != nil {
			return err
		}
	}

	last := post.Suffix[len(post.Suffix)-1]
	switch {
	case last.Field != nil:
		if last.Field.Call != nil {
			return fmt.Errorf("frontend: cannot assign to the result of a method call")
		}
		field, ok := baseTy.FindMember(last.Field.Name)
		if !ok {
			return fmt.Errorf("frontend: type %q has no field %q", baseTy.Name, last.Field.Name)
		}
		c.proc.Emit(&ir.Entry{Op: ir.OpStoreMem, Lhs: base, Rhs1: value, Imm: field.Offset})
		return nil
	case last.Index != nil:
		idx, _, err := c.lowerExpr(last.Index.Expr)
		if err != nil {
			return err
		}
		c.proc.Emit(&ir.Entry{Op: ir.OpStoreMem, Lhs: base, Rhs1: value, Rhs2: idx})
		return nil
	}
	return fmt.Errorf("frontend: left side of assignment is not assignable")
}

// drillToPostfix asserts e carries no binary/unary operator above
// PostfixExpr — the shape every lvalue must have — and returns it.
func drillToPostfix(e *Expr) (*PostfixExpr, error) {
	invalid := fmt.Errorf("frontend: left side of assignment is not a variable, field, or index expression")
	or := e.Or
	if len(or.Ops) != 0 {
		return nil, invalid
	}
	and := or.Left
	if len(and.Ops) != 0 {
		return nil, invalid
	}
	eq := and.Left
	if len(eq.Ops) != 0 {
		return nil, invalid
	}
	rel := eq.Left
	if len(rel.Ops) != 0 {
		return nil, invalid
	}
	add := rel.Left
	if len(add.Ops) != 0 {
		return nil, invalid
	}
	mul := add.Left
	if len(mul.Ops) != 0 {
		return nil, invalid
	}
	unary := mul.Left
	if unary.Value != nil {
		return nil, invalid
	}
	return unary.Atom, nil
}

func resultTypeOf(op ir.Op) *Type {
	switch op {
	case ir.OpAdd, ir.OpSubtract, ir.OpMult, ir.OpDivide, ir.OpModulo:
		return TypeInt
	default:
		return TypeBool
	}
}

func (c *funcCtx) emitBinary(op ir.Op, left, right *ir.Symbol) *ir.Symbol {
	dest := c.proc.NewTemp(wordSize)
	c.proc.Emit(&ir.Entry{Op: op, Lhs: dest, Rhs1: left, Rhs2: right})
	c.symType[dest] = resultTypeOf(op)
	return dest
}

func (c *funcCtx) lowerExpr(e *Expr) (*ir.Symbol, *Type, error) {
	return c.lowerOr(e.Or)
}

func (c *funcCtx) lowerOr(e *OrExpr) (*ir.Symbol, *Type, error) {
	left, leftTy, err := c.lowerAnd(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, tail := range e.Ops {
		right, _, err := c.lowerAnd(tail.Right)
		if err != nil {
			return nil, nil, err
		}
		left, leftTy = c.emitBinary(ir.OpOr, left, right), TypeBool
	}
	return left, leftTy, nil
}

func (c *funcCtx) lowerAnd(e *AndExpr) (*ir.Symbol, *Type, error) {
	left, leftTy, err := c.lowerEquality(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, tail := range e.Ops {
		right, _, err := c.lowerEquality(tail.Right)
		if err != nil {
			return nil, nil, err
		}
		left, leftTy = c.emitBinary(ir.OpAnd, left, right), TypeBool
	}
	return left, leftTy, nil
}

func (c *funcCtx) lowerEquality(e *EqualityExpr) (*ir.Symbol, *Type, error) {
	left, leftTy, err := c.lowerRelational(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, tail := range e.Ops {
		right, _, err := c.lowerRelational(tail.Right)
		if err != nil {
			return nil, nil, err
		}
		op := ir.OpEqual
		if tail.Operator == "!=" {
			op = ir.OpNequal
		}
		left, leftTy = c.emitBinary(op, left, right), TypeBool
	}
	return left, leftTy, nil
}

func (c *funcCtx) lowerRelational(e *RelationalExpr) (*ir.Symbol, *Type, error) {
	left, leftTy, err := c.lowerAdditive(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, tail := range e.Ops {
		right, _, err := c.lowerAdditive(tail.Right)
		if err != nil {
			return nil, nil, err
		}
		var op ir.Op
		switch tail.Operator {
		case "<":
			op = ir.OpLessThan
		case "<=":
			op = ir.OpLessThanE
		case ">":
			op = ir.OpGreaterThan
		default:
			op = ir.OpGreaterThanE
		}
		left, leftTy = c.emitBinary(op, left, right), TypeBool
	}
	return left, leftTy, nil
}

func (c *funcCtx) lowerAdditive(e *AdditiveExpr) (*ir.Symbol, *Type, error) {
	left, leftTy, err := c.lowerMultiplicative(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, tail := range e.Ops {
		right, rightTy, err := c.lowerMultiplicative(tail.Right)
		if err != nil {
			return nil, nil, err
		}
		if tail.Operator == "+" && (leftTy == TypeString || rightTy == TypeString) {
			left, leftTy = c.lowerStringConcat(left, right), TypeString
			continue
		}
		op := ir.OpAdd
		if tail.Operator == "-" {
			op = ir.OpSubtract
		}
		left, leftTy = c.emitBinary(op, left, right), TypeInt
	}
	return left, leftTy, nil
}

// lowerStringConcat lowers "+" between two strings (or a string and
// anything else the runtime knows how to stringify) to a call against
// a runtime helper, rather than a dedicated IR op: the core's constant
// folder (internal/transform.ConstantProp) never folds string values,
// so there is no benefit to a dedicated StringConcat entry the way
// spec §4.E's design note for constant folding considered one.
func (c *funcCtx) lowerStringConcat(left, right *ir.Symbol) *ir.Symbol {
	c.l.imports["__string_concat"] = true
	c.proc.Emit(&ir.Entry{Op: ir.OpStoreArg, Rhs1: left, ArgIndex: 0})
	c.proc.Emit(&ir.Entry{Op: ir.OpStoreArg, Rhs1: right, ArgIndex: 1})
	c.proc.Emit(&ir.Entry{Op: ir.OpCall, CallSymbol: "__string_concat"})
	dest := c.proc.NewTemp(wordSize)
	c.proc.Emit(&ir.Entry{Op: ir.OpLoadRet, Lhs: dest})
	c.symType[dest] = TypeString
	return dest
}

func (c *funcCtx) lowerMultiplicative(e *MultiplicativeExpr) (*ir.Symbol, *Type, error) {
	left, leftTy, err := c.lowerUnary(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, tail := range e.Ops {
		right, _, err := c.lowerUnary(tail.Right)
		if err != nil {
			return nil, nil, err
		}
		var op ir.Op
		switch tail.Operator {
		case "*":
			op = ir.OpMult
		case "/":
			op = ir.OpDivide
		default:
			op = ir.OpModulo
		}
		left, leftTy = c.emitBinary(op, left, right), TypeInt
	}
	return left, leftTy, nil
}

func (c *funcCtx) lowerUnary(e *UnaryExpr) (*ir.Symbol, *Type, error) {
	if e.Value != nil {
		operand, _, err := c.lowerUnary(e.Value)
		if err != nil {
			return nil, nil, err
		}
		dest := c.proc.NewTemp(wordSize)
		switch e.Op {
		case "!":
			c.proc.Emit(&ir.Entry{Op: ir.OpEqual, Lhs: dest, Rhs1: operand, HasImm: true, Imm: 0})
			c.symType[dest] = TypeBool
		default: // "-"
			c.proc.Emit(&ir.Entry{Op: ir.OpMult, Lhs: dest, Rhs1: operand, HasImm: true, Imm: -1})
			c.symType[dest] = TypeInt
		}
		return dest, c.symType[dest], nil
	}
	return c.lowerPostfix(e.Atom)
}

func (c *funcCtx) lowerPostfix(e *PostfixExpr) (*ir.Symbol, *Type, error) {
	cur, curTy, err := c.lowerPrimary(e.Primary)
	if err != nil {
		return nil, nil, err
	}
	for _, suf := range e.Suffix {
		cur, curTy, err = c.applySuffix(cur, curTy, suf)
		if err != nil {
			return nil, nil, err
		}
	}
	return cur, curTy, nil
}

func (c *funcCtx) applySuffix(base *ir.Symbol, baseTy *Type, suf *Suffix) (*ir.Symbol, *Type, error) {
	switch {
	case suf.Field != nil && suf.Field.Call != nil:
		return c.lowerMethodCall(base, baseTy, suf.Field.Name, suf.Field.Call.Values)
	case suf.Field != nil:
		field, ok := baseTy.FindMember(suf.Field.Name)
		if !ok {
			return nil, nil, fmt.Errorf("frontend: type %q has no field %q", baseTy.Name, suf.Field.Name)
		}
		dest := c.proc.NewTemp(wordSize)
		c.proc.Emit(&ir.Entry{Op: ir.OpLoadMem, Lhs: dest, Rhs1: base, Imm: field.Offset})
		c.symType[dest] = field.Type
		return dest, field.Type, nil
	case suf.Index != nil:
		idx, _, err := c.lowerExpr(suf.Index.Expr)
		if err != nil {
			return nil, nil, err
		}
		if baseTy.Kind != KindArray {
			return nil, nil, fmt.Errorf("frontend: cannot index non-array type %q", baseTy.Name)
		}
		dest := c.proc.NewTemp(wordSize)
		c.proc.Emit(&ir.Entry{Op: ir.OpLoadMem, Lhs: dest, Rhs1: base, Rhs2: idx})
		c.symType[dest] = baseTy.BaseType
		return dest, baseTy.BaseType, nil
	}
	return base, baseTy, nil
}

func (c *funcCtx) lowerMethodCall(base *ir.Symbol, baseTy *Type, name string, argExprs []*Expr) (*ir.Symbol, *Type, error) {
	if baseTy == nil || baseTy.Kind != KindClass {
		return nil, nil, fmt.Errorf("frontend: %q is not a class type", name)
	}
	var symbol string
	var sig *funcSig
	if method, ok := baseTy.FindMethod(name); ok {
		symbol = method.Owner + "." + name + "$dispatch"
		sig = c.l.methodSigs[method.Owner][name]
	} else {
		sig = c.l.findNonVirtualMethod(baseTy, name)
		if sig == nil {
			return nil, nil, fmt.Errorf("frontend: type %q has no method %q", baseTy.Name, name)
		}
		symbol = sig.Symbol
	}

	c.proc.Emit(&ir.Entry{Op: ir.OpStoreArg, Rhs1: base, ArgIndex: 0})
	for i, argExpr := range argExprs {
		val, _, err := c.lowerExpr(argExpr)
		if err != nil {
			return nil, nil, err
		}
		c.proc.Emit(&ir.Entry{Op: ir.OpStoreArg, Rhs1: val, ArgIndex: i + 1})
	}
	c.proc.Emit(&ir.Entry{Op: ir.OpCall, CallSymbol: symbol})

	if sig.Return == nil || sig.Return == TypeVoid {
		return nil, TypeVoid, nil
	}
	dest := c.proc.NewTemp(wordSize)
	c.proc.Emit(&ir.Entry{Op: ir.OpLoadRet, Lhs: dest})
	c.symType[dest] = sig.Return
	return dest, sig.Return, nil
}

func (c *funcCtx) lowerCall(call *CallExpr) (*ir.Symbol, *Type, error) {
	sig, ok := c.l.funcs[call.Name]
	if !ok {
		return nil, nil, fmt.Errorf("frontend: undefined function %q", call.Name)
	}
	for i, argExpr := range call.Args {
		val, _, err := c.lowerExpr(argExpr)
		if err != nil {
			return nil, nil, err
		}
		c.proc.Emit(&ir.Entry{Op: ir.OpStoreArg, Rhs1: val, ArgIndex: i})
	}
	c.proc.Emit(&ir.Entry{Op: ir.OpCall, CallSymbol: sig.Symbol})

	if sig.Return == nil || sig.Return == TypeVoid {
		return nil, TypeVoid, nil
	}
	dest := c.proc.NewTemp(wordSize)
	c.proc.Emit(&ir.Entry{Op: ir.OpLoadRet, Lhs: dest})
	c.symType[dest] = sig.Return
	return dest, sig.Return, nil
}

func (c *funcCtx) lowerPrimary(e *PrimaryExpr) (*ir.Symbol, *Type, error) {
	switch {
	case e.New != nil:
		return c.lowerNew(e.New)
	case e.Struct != nil:
		return c.lowerStructLiteral(e.Struct)
	case e.Number != nil:
		dest := c.proc.NewTemp(wordSize)
		c.proc.Emit(&ir.Entry{Op: ir.OpMove, Lhs: dest, HasImm: true, Imm: *e.Number})
		c.symType[dest] = TypeInt
		return dest, TypeInt, nil
	case e.Str != nil:
		dest := c.proc.NewTemp(wordSize)
		c.proc.Emit(&ir.Entry{Op: ir.OpLoadString, Lhs: dest, StringValue: unquoteString(*e.Str)})
		c.symType[dest] = TypeString
		return dest, TypeString, nil
	case e.True:
		dest := c.proc.NewTemp(wordSize)
		c.proc.Emit(&ir.Entry{Op: ir.OpMove, Lhs: dest, HasImm: true, Imm: 1})
		c.symType[dest] = TypeBool
		return dest, TypeBool, nil
	case e.False:
		dest := c.proc.NewTemp(wordSize)
		c.proc.Emit(&ir.Entry{Op: ir.OpMove, Lhs: dest, HasImm: true, Imm: 0})
		c.symType[dest] = TypeBool
		return dest, TypeBool, nil
	case e.Call != nil:
		return c.lowerCall(e.Call)
	case e.Ident != nil:
		return c.lookup(*e.Ident)
	case e.Paren != nil:
		return c.lowerExpr(e.Paren)
	}
	return nil, nil, fmt.Errorf("frontend: empty expression")
}

// lowerNew allocates a struct/class instance, or a fixed-size array.
// The array length (like every array length in this language) must be
// a compile-time constant: OpNew's one-address encoding (spec §6)
// carries a 20-bit immediate byte count, not a register operand, so a
// runtime-computed length has nowhere to go.
func (c *funcCtx) lowerNew(e *NewExpr) (*ir.Symbol, *Type, error) {
	elemTy, ok := c.l.types.Lookup(e.Type)
	if !ok {
		return nil, nil, fmt.Errorf("frontend: undeclared type %q", e.Type)
	}

	if e.Count != nil {
		n, ok := constIntOf(e.Count)
		if !ok {
			return nil, nil, fmt.Errorf("frontend: new %s[...]: array length must be a constant integer", e.Type)
		}
		arrTy := c.l.types.NewArrayType(elemTy, n)
		dest := c.proc.NewTemp(wordSize)
		c.proc.Emit(&ir.Entry{Op: ir.OpNew, Lhs: dest, HasImm: true, Imm: arrTy.Size})
		c.symType[dest] = arrTy
		return dest, arrTy, nil
	}

	dest := c.proc.NewTemp(wordSize)
	c.proc.Emit(&ir.Entry{Op: ir.OpNew, Lhs: dest, HasImm: true, Imm: elemTy.Size})
	if elemTy.Kind == KindClass {
		c.proc.Emit(&ir.Entry{Op: ir.OpStoreMem, Lhs: dest, Rhs1: c.constInt(elemTy.TypeID)})
	}
	c.symType[dest] = elemTy
	return dest, elemTy, nil
}

func (c *funcCtx) constInt(v int) *ir.Symbol {
	dest := c.proc.NewTemp(wordSize)
	c.proc.Emit(&ir.Entry{Op: ir.OpMove, Lhs: dest, HasImm: true, Imm: v})
	c.symType[dest] = TypeInt
	return dest
}

func (c *funcCtx) lowerStructLiteral(sl *StructLiteral) (*ir.Symbol, *Type, error) {
	ty, ok := c.l.types.Lookup(sl.Name)
	if !ok {
		return nil, nil, fmt.Errorf("frontend: undeclared type %q", sl.Name)
	}
	dest := c.proc.NewTemp(wordSize)
	c.proc.Emit(&ir.Entry{Op: ir.OpNew, Lhs: dest, HasImm: true, Imm: ty.Size})
	for _, f := range sl.Fields {
		field, ok := ty.FindMember(f.Name)
		if !ok {
			return nil, nil, fmt.Errorf("frontend: type %q has no field %q", ty.Name, f.Name)
		}
		val, _, err := c.lowerExpr(f.Value)
		if err != nil {
			return nil, nil, err
		}
		c.proc.Emit(&ir.Entry{Op: ir.OpStoreMem, Lhs: dest, Rhs1: val, Imm: field.Offset})
	}
	c.symType[dest] = ty
	return dest, ty, nil
}

// buildDispatcher synthesizes the one procedure a virtual slot needs:
// load the hidden type tag from the receiver, compare it against every
// concrete class that participates in this slot, and forward the call
// to whichever one matches (spec §12's virtual-dispatch supplement).
func (l *lowerer) buildDispatcher(owner *Type, slot *Method, sig *funcSig) *ir.Procedure {
	proc := ir.NewProcedure(owner.Name + "." + slot.Name + "$dispatch")
	proc.Emit(&ir.Entry{Op: ir.OpPrologue})

	this := proc.AddSymbol("this", wordSize)
	proc.Emit(&ir.Entry{Op: ir.OpLoadArg, Lhs: this, ArgIndex: 0})

	var args []*ir.Symbol
	for i := range sig.Params {
		s := proc.AddSymbol(fmt.Sprintf("arg%d", i+1), wordSize)
		proc.Emit(&ir.Entry{Op: ir.OpLoadArg, Lhs: s, ArgIndex: i + 1})
		args = append(args, s)
	}

	tag := proc.AddSymbol("tag", wordSize)
	proc.Emit(&ir.Entry{Op: ir.OpLoadMem, Lhs: tag, Rhs1: this, Imm: 0})

	epilogue := proc.NewLabel()
	for _, class := range l.types.Classes() {
		method, ok := class.FindMethod(slot.Name)
		if !ok || method.Owner != owner.Name {
			continue
		}
		matchLabel := proc.NewLabel()
		nextLabel := proc.NewLabel()

		eq := proc.AddSymbol("eq", wordSize)
		proc.Emit(&ir.Entry{Op: ir.OpEqual, Lhs: eq, Rhs1: tag, HasImm: true, Imm: class.TypeID})
		proc.Emit(&ir.Entry{Op: ir.OpCJump, Pred: eq, TrueTarget: matchLabel, FalseTarget: nextLabel})

		proc.Emit(matchLabel)
		proc.Emit(&ir.Entry{Op: ir.OpStoreArg, Rhs1: this, ArgIndex: 0})
		for i, a := range args {
			proc.Emit(&ir.Entry{Op: ir.OpStoreArg, Rhs1: a, ArgIndex: i + 1})
		}
		proc.Emit(&ir.Entry{Op: ir.OpCall, CallSymbol: method.Symbol})
		if sig.Return != nil && sig.Return != TypeVoid {
			ret := proc.AddSymbol("ret", wordSize)
			proc.Emit(&ir.Entry{Op: ir.OpLoadRet, Lhs: ret})
			proc.Emit(&ir.Entry{Op: ir.OpStoreRet, Rhs1: ret})
		}
		proc.Emit(&ir.Entry{Op: ir.OpJump, Target: epilogue})
		proc.Emit(nextLabel)
	}

	proc.Emit(epilogue)
	proc.Emit(&ir.Entry{Op: ir.OpEpilogue})
	return proc
}

// constIntOf reports whether e is, with no operators anywhere, a bare
// integer literal, and if so its value.
func constIntOf(e *Expr) (int, bool) {
	post, err := drillToPostfix(e)
	if err != nil || len(post.Suffix) != 0 || post.Primary.Number == nil {
		return 0, false
	}
	return *post.Primary.Number, true
}

// unquoteString strips the surrounding quotes the lexer's String token
// includes and resolves the handful of backslash escapes the grammar's
// String pattern recognizes.
func unquoteString(raw string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(raw, `"`), `"`)
	var out strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] != '\\' || i+1 >= len(inner) {
			out.WriteByte(inner[i])
			continue
		}
		i++
		switch inner[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case '"':
			out.WriteByte('"')
		case '\\':
			out.WriteByte('\\')
		default:
			out.WriteByte(inner[i])
		}
	}
	return out.String()
}
