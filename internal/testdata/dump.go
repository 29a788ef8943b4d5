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
package testdata

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"

	"github.com/corejit/predicatejit/pkg/record"
)

// namedRecord is the on-disk shape WriteJSON emits: a record plus its
// stable synthetic id, mirroring the field layout of the original's
// data.json fixture closely enough to diff against by eye.
type namedRecord struct {
	ID uuid.UUID `json:"id"`
	record.Record
}

// WriteJSON dumps a generated dataset to path in the original's data.json
// shape (one JSON array), for the rare case a caller wants to inspect or
// replay a specific run of the generator rather than regenerate it. Not on
// cmd/filterjit's hot path — Generate is cheap enough to call fresh on
// every invocation — but kept for parity with the original's checked-in
// static fixture.
func WriteJSON(path string, ids []uuid.UUID, records []record.Record) error {
	named := make([]namedRecord, len(records))
	for i := range records {
		named[i] = namedRecord{ID: ids[i], Record: records[i]}
	}
	data, err := json.MarshalIndent(named, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
