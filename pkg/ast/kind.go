package ast

import (
	"fmt"

	"github.com/iancoleman/strcase"
)

// Kind enumerates every node variant. Adding a kind means adding a Visitor
// method, which the compiler then demands from every visitor.
type Kind uint8

const (
	KindNop Kind = iota + 1
	KindNilLiteral
	KindBoolLiteral
	KindIntLiteral
	KindFloatLiteral
	KindCharLiteral
	KindStringLiteral
	KindSymbolLiteral
	KindArrayLiteral
	KindVar
	KindInstanceVar
	KindClassVar
	KindGlobal
	KindSelf
	KindPath
	KindAssign
	KindExpressions
	KindIf
	KindUnless
	KindCase
	KindWhile
	KindCall
	KindBlock
	KindYield
	KindReturn
	KindBreak
	KindDef
	KindClassDef
	KindModuleDef
	KindInclude
	KindIsA
	KindRespondsTo
	KindPointerOf
	KindLibDef
	KindFunDef
	KindStructDef
	KindTypeDef
	KindMacroDef
	KindPrimitive

	kindCount
)

var kindNames = [...]string{
	KindNop:           "Nop",
	KindNilLiteral:    "NilLiteral",
	KindBoolLiteral:   "BoolLiteral",
	KindIntLiteral:    "IntLiteral",
	KindFloatLiteral:  "FloatLiteral",
	KindCharLiteral:   "CharLiteral",
	KindStringLiteral: "StringLiteral",
	KindSymbolLiteral: "SymbolLiteral",
	KindArrayLiteral:  "ArrayLiteral",
	KindVar:           "Var",
	KindInstanceVar:   "InstanceVar",
	KindClassVar:      "ClassVar",
	KindGlobal:        "Global",
	KindSelf:          "Self",
	KindPath:          "Path",
	KindAssign:        "Assign",
	KindExpressions:   "Expressions",
	KindIf:            "If",
	KindUnless:        "Unless",
	KindCase:          "Case",
	KindWhile:         "While",
	KindCall:          "Call",
	KindBlock:         "Block",
	KindYield:         "Yield",
	KindReturn:        "Return",
	KindBreak:         "Break",
	KindDef:           "Def",
	KindClassDef:      "ClassDef",
	KindModuleDef:     "ModuleDef",
	KindInclude:       "Include",
	KindIsA:           "IsA",
	KindRespondsTo:    "RespondsTo",
	KindPointerOf:     "PointerOf",
	KindLibDef:        "LibDef",
	KindFunDef:        "FunDef",
	KindStructDef:     "StructDef",
	KindTypeDef:       "TypeDef",
	KindMacroDef:      "MacroDef",
	KindPrimitive:     "Primitive",
}

func (k Kind) String() string {
	if k > 0 && k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Tag is the snake_case name used for the kind in serialized trees.
func (k Kind) Tag() string {
	return strcase.ToSnake(k.String())
}

var kindsByTag = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k := KindNop; k < kindCount; k++ {
		m[k.Tag()] = k
	}
	return m
}()

// KindForTag looks a kind up by its serialized name.
func KindForTag(tag string) (Kind, bool) {
	k, ok := kindsByTag[tag]
	return k, ok
}
