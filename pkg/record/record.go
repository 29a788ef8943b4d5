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

// Package record defines the fixed-schema value the rest of this module
// filters, plus the predicate tree used to describe a filter.  The schema is
// fixed at library-compile time: adding a field means regenerating the
// primitive artifact (see pkg/primitives), not just editing this file.
package record

// Location is the nested address component of a Record.
type Location struct {
	Street   string
	City     string
	State    string
	Postcode uint32
}

// Record is the fixed-schema value streamed through a compiled filter.
type Record struct {
	Email       string
	Gender      string
	PhoneNumber string
	Birthdate   uint64
	Location    Location
	Username    string
	Password    string
	FirstName   string
	LastName    string
	Title       string
	Picture     string
}

// Field is a closed enumeration naming each string-typed accessible field.
// Each value binds 1:1 to a primitive accessor symbol "user_get_field_<name>"
// (see pkg/primitives).
type Field int

// The complete set of accessible fields, in accessor-symbol order.
const (
	FieldEmail Field = iota
	FieldGender
	FieldPhoneNumber
	FieldLocationStreet
	FieldLocationCity
	FieldLocationState
	FieldUsername
	FieldPassword
	FieldFirstName
	FieldLastName
	FieldTitle
	FieldPicture

	// fieldCount must stay last; it is used to size lookup tables.
	fieldCount
)

// FieldCount is the number of accessible fields in the fixed schema.
const FieldCount = int(fieldCount)

// fieldSymbols maps a Field to its primitive accessor symbol name.  Order
// must track the Field constants above.
var fieldSymbols = [fieldCount]string{
	"user_get_field_email",
	"user_get_field_gender",
	"user_get_field_phone_number",
	"user_get_field_location_street",
	"user_get_field_location_city",
	"user_get_field_location_state",
	"user_get_field_username",
	"user_get_field_password",
	"user_get_field_first_name",
	"user_get_field_last_name",
	"user_get_field_title",
	"user_get_field_picture",
}

// Symbol returns the primitive accessor symbol this field is bound to.
func (f Field) Symbol() string {
	return fieldSymbols[f]
}

// String renders the field as the lowercase name used in diagnostics.
func (f Field) String() string {
	switch f {
	case FieldEmail:
		return "email"
	case FieldGender:
		return "gender"
	case FieldPhoneNumber:
		return "phone_number"
	case FieldLocationStreet:
		return "location.street"
	case FieldLocationCity:
		return "location.city"
	case FieldLocationState:
		return "location.state"
	case FieldUsername:
		return "username"
	case FieldPassword:
		return "password"
	case FieldFirstName:
		return "first_name"
	case FieldLastName:
		return "last_name"
	case FieldTitle:
		return "title"
	case FieldPicture:
		return "picture"
	default:
		return "field(?)"
	}
}

// Get reads the named field out of r.  This is the pure-Go equivalent of the
// IR-synthesized accessor call; the interpreter (pkg/interp) uses it
// directly, and pkg/primitives' native leaf implementation is this same
// switch.
func (f Field) Get(r *Record) string {
	switch f {
	case FieldEmail:
		return r.Email
	case FieldGender:
		return r.Gender
	case FieldPhoneNumber:
		return r.PhoneNumber
	case FieldLocationStreet:
		return r.Location.Street
	case FieldLocationCity:
		return r.Location.City
	case FieldLocationState:
		return r.Location.State
	case FieldUsername:
		return r.Username
	case FieldPassword:
		return r.Password
	case FieldFirstName:
		return r.FirstName
	case FieldLastName:
		return r.LastName
	case FieldTitle:
		return r.Title
	case FieldPicture:
		return r.Picture
	default:
		panic("record: unknown field")
	}
}

// FilterKind is a closed enumeration of comparator kinds.  Each value binds
// 1:1 to a primitive comparator symbol.
type FilterKind int

// The complete set of comparator kinds.
const (
	StrContains FilterKind = iota
	StrEquals
	StrStartsWith
	StrEndsWith
)

// filterSymbols maps a FilterKind to its primitive comparator symbol name.
var filterSymbols = [...]string{
	"filter_str_contains",
	"filter_str_equals",
	"filter_str_starts_with",
	"filter_str_ends_with",
}

// Symbol returns the primitive comparator symbol this kind is bound to.
func (k FilterKind) Symbol() string {
	return filterSymbols[k]
}

func (k FilterKind) String() string {
	switch k {
	case StrContains:
		return "contains"
	case StrEquals:
		return "equals"
	case StrStartsWith:
		return "starts_with"
	case StrEndsWith:
		return "ends_with"
	default:
		return "kind(?)"
	}
}
