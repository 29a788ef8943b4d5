// Copyright the predicatejit contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package ir

import "fmt"

// ValueKind discriminates the handful of operand shapes an instruction can
// reference.
type ValueKind int

// The complete set of value kinds.
const (
	ValueReg    ValueKind = iota // result of a prior instruction in this function
	ValueParam                   // one of the function's own parameters
	ValueBool                    // an inline boolean constant
	ValueInt64                   // an inline integer constant (e.g. a field index)
	ValueGlobal                  // a reference to a module-level Global by name
	ValueFunc                    // a function pointer, referencing a Function by name
)

// Value is an IR operand: either a previously computed register, a function
// parameter, an inline constant, or a reference to a Global.
type Value struct {
	Kind   ValueKind
	Reg    int
	Param  int
	Bool   bool
	Int64  int64
	Global string
	Func   string
}

// Reg builds a reference to the result of a prior instruction.
func Reg(id int) Value { return Value{Kind: ValueReg, Reg: id} }

// Param builds a reference to the function's nth parameter.
func Param(n int) Value { return Value{Kind: ValueParam, Param: n} }

// BoolConst builds an inline boolean constant.
func BoolConst(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// Int64Const builds an inline integer constant, used for the field index
// baked into each user_get_field_<name> accessor body.
func Int64Const(n int64) Value { return Value{Kind: ValueInt64, Int64: n} }

// GlobalRef builds a reference to a module Global by name.
func GlobalRef(name string) Value { return Value{Kind: ValueGlobal, Global: name} }

// FuncRef builds a function-pointer reference to a module Function by name,
// used to pass "filter" to run_filter the way execute() does.
func FuncRef(name string) Value { return Value{Kind: ValueFunc, Func: name} }

func (v Value) String() string {
	switch v.Kind {
	case ValueReg:
		return fmt.Sprintf("%%%d", v.Reg)
	case ValueParam:
		return fmt.Sprintf("%%arg%d", v.Param)
	case ValueBool:
		return fmt.Sprintf("%v", v.Bool)
	case ValueInt64:
		return fmt.Sprintf("%d", v.Int64)
	case ValueGlobal:
		return "@" + v.Global
	case ValueFunc:
		return "&" + v.Func
	default:
		return "?"
	}
}
