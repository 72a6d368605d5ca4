package ast

// Visitor has one method per node kind.
type Visitor interface {
	VisitNop(*Nop) error
	VisitNilLiteral(*NilLiteral) error
	VisitBoolLiteral(*BoolLiteral) error
	VisitIntLiteral(*IntLiteral) error
	VisitFloatLiteral(*FloatLiteral) error
	VisitCharLiteral(*CharLiteral) error
	VisitStringLiteral(*StringLiteral) error
	VisitSymbolLiteral(*SymbolLiteral) error
	VisitArrayLiteral(*ArrayLiteral) error
	VisitVar(*Var) error
	VisitInstanceVar(*InstanceVar) error
	VisitClassVar(*ClassVar) error
	VisitGlobal(*Global) error
	VisitSelf(*Self) error
	VisitPath(*Path) error
	VisitAssign(*Assign) error
	VisitExpressions(*Expressions) error
	VisitIf(*If) error
	VisitUnless(*Unless) error
	VisitCase(*Case) error
	VisitWhile(*While) error
	VisitCall(*Call) error
	VisitBlock(*Block) error
	VisitYield(*Yield) error
	VisitReturn(*Return) error
	VisitBreak(*Break) error
	VisitDef(*Def) error
	VisitClassDef(*ClassDef) error
	VisitModuleDef(*ModuleDef) error
	VisitInclude(*Include) error
	VisitIsA(*IsA) error
	VisitRespondsTo(*RespondsTo) error
	VisitPointerOf(*PointerOf) error
	VisitLibDef(*LibDef) error
	VisitFunDef(*FunDef) error
	VisitStructDef(*StructDef) error
	VisitTypeDef(*TypeDef) error
	VisitMacroDef(*MacroDef) error
	VisitPrimitive(*Primitive) error
}

func (*Nop) Kind() Kind { return KindNop }
func (n *Nop) Accept(v Visitor) error { return v.VisitNop(n) }

func (*NilLiteral) Kind() Kind { return KindNilLiteral }
func (n *NilLiteral) Accept(v Visitor) error { return v.VisitNilLiteral(n) }

func (*BoolLiteral) Kind() Kind { return KindBoolLiteral }
func (n *BoolLiteral) Accept(v Visitor) error { return v.VisitBoolLiteral(n) }

func (*IntLiteral) Kind() Kind { return KindIntLiteral }
func (n *IntLiteral) Accept(v Visitor) error { return v.VisitIntLiteral(n) }

func (*FloatLiteral) Kind() Kind { return KindFloatLiteral }
func (n *FloatLiteral) Accept(v Visitor) error { return v.VisitFloatLiteral(n) }

func (*CharLiteral) Kind() Kind { return KindCharLiteral }
func (n *CharLiteral) Accept(v Visitor) error { return v.VisitCharLiteral(n) }

func (*StringLiteral) Kind() Kind { return KindStringLiteral }
func (n *StringLiteral) Accept(v Visitor) error { return v.VisitStringLiteral(n) }

func (*SymbolLiteral) Kind() Kind { return KindSymbolLiteral }
func (n *SymbolLiteral) Accept(v Visitor) error { return v.VisitSymbolLiteral(n) }

func (*ArrayLiteral) Kind() Kind { return KindArrayLiteral }
func (n *ArrayLiteral) Accept(v Visitor) error { return v.VisitArrayLiteral(n) }

func (*Var) Kind() Kind { return KindVar }
func (n *Var) Accept(v Visitor) error { return v.VisitVar(n) }

func (*InstanceVar) Kind() Kind { return KindInstanceVar }
func (n *InstanceVar) Accept(v Visitor) error { return v.VisitInstanceVar(n) }

func (*ClassVar) Kind() Kind { return KindClassVar }
func (n *ClassVar) Accept(v Visitor) error { return v.VisitClassVar(n) }

func (*Global) Kind() Kind { return KindGlobal }
func (n *Global) Accept(v Visitor) error { return v.VisitGlobal(n) }

func (*Self) Kind() Kind { return KindSelf }
func (n *Self) Accept(v Visitor) error { return v.VisitSelf(n) }

func (*Path) Kind() Kind { return KindPath }
func (n *Path) Accept(v Visitor) error { return v.VisitPath(n) }

func (*Assign) Kind() Kind { return KindAssign }
func (n *Assign) Accept(v Visitor) error { return v.VisitAssign(n) }

func (*Expressions) Kind() Kind { return KindExpressions }
func (n *Expressions) Accept(v Visitor) error { return v.VisitExpressions(n) }

func (*If) Kind() Kind { return KindIf }
func (n *If) Accept(v Visitor) error { return v.VisitIf(n) }

func (*Unless) Kind() Kind { return KindUnless }
func (n *Unless) Accept(v Visitor) error { return v.VisitUnless(n) }

func (*Case) Kind() Kind { return KindCase }
func (n *Case) Accept(v Visitor) error { return v.VisitCase(n) }

func (*While) Kind() Kind { return KindWhile }
func (n *While) Accept(v Visitor) error { return v.VisitWhile(n) }

func (*Call) Kind() Kind { return KindCall }
func (n *Call) Accept(v Visitor) error { return v.VisitCall(n) }

func (*Block) Kind() Kind { return KindBlock }
func (n *Block) Accept(v Visitor) error { return v.VisitBlock(n) }

func (*Yield) Kind() Kind { return KindYield }
func (n *Yield) Accept(v Visitor) error { return v.VisitYield(n) }

func (*Return) Kind() Kind { return KindReturn }
func (n *Return) Accept(v Visitor) error { return v.VisitReturn(n) }

func (*Break) Kind() Kind { return KindBreak }
func (n *Break) Accept(v Visitor) error { return v.VisitBreak(n) }

func (*Def) Kind() Kind { return KindDef }
func (n *Def) Accept(v Visitor) error { return v.VisitDef(n) }

func (*ClassDef) Kind() Kind { return KindClassDef }
func (n *ClassDef) Accept(v Visitor) error { return v.VisitClassDef(n) }

func (*ModuleDef) Kind() Kind { return KindModuleDef }
func (n *ModuleDef) Accept(v Visitor) error { return v.VisitModuleDef(n) }

func (*Include) Kind() Kind { return KindInclude }
func (n *Include) Accept(v Visitor) error { return v.VisitInclude(n) }

func (*IsA) Kind() Kind { return KindIsA }
func (n *IsA) Accept(v Visitor) error { return v.VisitIsA(n) }

func (*RespondsTo) Kind() Kind { return KindRespondsTo }
func (n *RespondsTo) Accept(v Visitor) error { return v.VisitRespondsTo(n) }

func (*PointerOf) Kind() Kind { return KindPointerOf }
func (n *PointerOf) Accept(v Visitor) error { return v.VisitPointerOf(n) }

func (*LibDef) Kind() Kind { return KindLibDef }
func (n *LibDef) Accept(v Visitor) error { return v.VisitLibDef(n) }

func (*FunDef) Kind() Kind { return KindFunDef }
func (n *FunDef) Accept(v Visitor) error { return v.VisitFunDef(n) }

func (*StructDef) Kind() Kind { return KindStructDef }
func (n *StructDef) Accept(v Visitor) error { return v.VisitStructDef(n) }

func (*TypeDef) Kind() Kind { return KindTypeDef }
func (n *TypeDef) Accept(v Visitor) error { return v.VisitTypeDef(n) }

func (*MacroDef) Kind() Kind { return KindMacroDef }
func (n *MacroDef) Accept(v Visitor) error { return v.VisitMacroDef(n) }

func (*Primitive) Kind() Kind { return KindPrimitive }
func (n *Primitive) Accept(v Visitor) error { return v.VisitPrimitive(n) }

// New returns an empty node of the given kind.
func New(k Kind) Node {
	switch k {
	case KindNop:
		return &Nop{}
	case KindNilLiteral:
		return &NilLiteral{}
	case KindBoolLiteral:
		return &BoolLiteral{}
	case KindIntLiteral:
		return &IntLiteral{}
	case KindFloatLiteral:
		return &FloatLiteral{}
	case KindCharLiteral:
		return &CharLiteral{}
	case KindStringLiteral:
		return &StringLiteral{}
	case KindSymbolLiteral:
		return &SymbolLiteral{}
	case KindArrayLiteral:
		return &ArrayLiteral{}
	case KindVar:
		return &Var{}
	case KindInstanceVar:
		return &InstanceVar{}
	case KindClassVar:
		return &ClassVar{}
	case KindGlobal:
		return &Global{}
	case KindSelf:
		return &Self{}
	case KindPath:
		return &Path{}
	case KindAssign:
		return &Assign{}
	case KindExpressions:
		return &Expressions{}
	case KindIf:
		return &If{}
	case KindUnless:
		return &Unless{}
	case KindCase:
		return &Case{}
	case KindWhile:
		return &While{}
	case KindCall:
		return &Call{}
	case KindBlock:
		return &Block{}
	case KindYield:
		return &Yield{}
	case KindReturn:
		return &Return{}
	case KindBreak:
		return &Break{}
	case KindDef:
		return &Def{}
	case KindClassDef:
		return &ClassDef{}
	case KindModuleDef:
		return &ModuleDef{}
	case KindInclude:
		return &Include{}
	case KindIsA:
		return &IsA{}
	case KindRespondsTo:
		return &RespondsTo{}
	case KindPointerOf:
		return &PointerOf{}
	case KindLibDef:
		return &LibDef{}
	case KindFunDef:
		return &FunDef{}
	case KindStructDef:
		return &StructDef{}
	case KindTypeDef:
		return &TypeDef{}
	case KindMacroDef:
		return &MacroDef{}
	case KindPrimitive:
		return &Primitive{}
	}
	return nil
}
