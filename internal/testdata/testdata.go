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

// Package testdata generates the bundled demo dataset cmd/filterjit runs its
// filters over. It stands in for the original's static data.json fixture
// (runner/src/lib.rs's read_data) with a small deterministic generator: same
// seed, same record count, same records every run, so a demo invocation and
// its benchmark counterpart see identical input.
package testdata

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/corejit/predicatejit/pkg/record"
)

// DefaultSize is how many records cmd/filterjit's bundled demo run generates.
const DefaultSize = 4096

var (
	firstNames = []string{"John", "Ada", "Grace", "Alan", "Linus", "Margaret", "Dennis", "Barbara"}
	lastNames  = []string{"Doe", "Lovelace", "Hopper", "Turing", "Torvalds", "Hamilton", "Ritchie", "Liskov"}
	genders    = []string{"male", "female"}
	cities     = []string{"New York", "London", "Paris", "Berlin", "Nairobi", "Austin"}
	states     = []string{"Yorkshire", "Hampshire", "California", "Bavaria", "Texas"}
	titles     = []string{"Mr", "Mrs", "Dr", "Prof", "Ms"}
	domains    = []string{"example.com", "example.net", "mail.example.org", "corp.test"}
)

// namespace seeds the deterministic per-record UUIDs (NewSHA1 is a pure
// function of namespace+name, unlike uuid.New which draws from crypto/rand),
// so regenerating the dataset assigns every record the same identity.
var namespace = uuid.MustParse("4d8a8c0a-7b1a-4c9b-9e0e-7a6f0a2f6b0a")

// Generate returns n deterministic records plus their stable synthetic IDs,
// index-aligned with the records slice.
func Generate(n int) ([]uuid.UUID, []record.Record) {
	ids := make([]uuid.UUID, n)
	records := make([]record.Record, n)

	for i := 0; i < n; i++ {
		ids[i] = uuid.NewSHA1(namespace, []byte(fmt.Sprintf("predicatejit-demo-record-%d", i)))
		records[i] = generateOne(i)
	}

	return ids, records
}

func generateOne(i int) record.Record {
	first := firstNames[i%len(firstNames)]
	last := lastNames[(i/len(firstNames))%len(lastNames)]
	gender := genders[i%len(genders)]
	city := cities[(i/3)%len(cities)]
	state := states[(i/5)%len(states)]
	title := titles[(i/7)%len(titles)]
	domain := domains[i%len(domains)]

	username := fmt.Sprintf("user_%04d", i)
	if i%4 != 0 {
		// Only a quarter of usernames keep the "user_" prefix the demo
		// filters probe for; the rest exercise the non-matching path.
		username = fmt.Sprintf("account%04d", i)
	}

	return record.Record{
		Email:       fmt.Sprintf("%s.%s%d@%s", lower(first), lower(last), i, domain),
		Gender:      gender,
		PhoneNumber: fmt.Sprintf("+1%03d5550%03d", i%900+100, i%1000),
		Birthdate:   uint64(946684800 + i*86400),
		Location: record.Location{
			Street:   fmt.Sprintf("%d Example Street", i+1),
			City:     city,
			State:    state,
			Postcode: uint32(10000 + i%89999),
		},
		Username:  username,
		Password:  fmt.Sprintf("pw-%08d", i),
		FirstName: first,
		LastName:  last,
		Title:     title,
		Picture:   fmt.Sprintf("https://example.com/avatar/%d.png", i),
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
