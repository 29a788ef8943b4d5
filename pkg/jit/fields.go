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
package jit

import (
	"unsafe"

	"github.com/corejit/predicatejit/pkg/record"
)

// fieldOffset is the byte offset of a record.Field's backing string within
// record.Record, taken directly rather than through rt_record_field: a Go
// string header is a {ptr, len} pair at that offset, the same shape as
// record.StringABI, so reading a field natively is two plain loads rather
// than a call back into Go. See compileFilter's treatment of
// primitives.SymRecordField.
var fieldOffset = [record.FieldCount]uintptr{
	record.FieldEmail:          unsafe.Offsetof(record.Record{}.Email),
	record.FieldGender:         unsafe.Offsetof(record.Record{}.Gender),
	record.FieldPhoneNumber:    unsafe.Offsetof(record.Record{}.PhoneNumber),
	record.FieldLocationStreet: unsafe.Offsetof(record.Record{}.Location) + unsafe.Offsetof(record.Location{}.Street),
	record.FieldLocationCity:   unsafe.Offsetof(record.Record{}.Location) + unsafe.Offsetof(record.Location{}.City),
	record.FieldLocationState:  unsafe.Offsetof(record.Record{}.Location) + unsafe.Offsetof(record.Location{}.State),
	record.FieldUsername:       unsafe.Offsetof(record.Record{}.Username),
	record.FieldPassword:       unsafe.Offsetof(record.Record{}.Password),
	record.FieldFirstName:      unsafe.Offsetof(record.Record{}.FirstName),
	record.FieldLastName:       unsafe.Offsetof(record.Record{}.LastName),
	record.FieldTitle:          unsafe.Offsetof(record.Record{}.Title),
	record.FieldPicture:        unsafe.Offsetof(record.Record{}.Picture),
}
