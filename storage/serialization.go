// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

var (
	vectorSer   = ord.NewSliceSer[float32](varint.Float32)
	metadataSer = ord.NewMapSer[string, string](ord.String, ord.String)
)

// MarshalRecord serializes a Record to bytes.
func MarshalRecord(record *Record) []byte {
	size := ord.String.Size(record.ID) +
		ord.String.Size(record.Content) +
		vectorSer.Size(record.Vector) +
		metadataSer.Size(record.Metadata)

	buf := make([]byte, size)
	n := ord.String.Marshal(record.ID, buf)
	n += ord.String.Marshal(record.Content, buf[n:])
	n += vectorSer.Marshal(record.Vector, buf[n:])
	metadataSer.Marshal(record.Metadata, buf[n:])
	return buf
}

// UnmarshalRecord deserializes a Record from bytes.
func UnmarshalRecord(data []byte) (*Record, error) {
	var (
		record Record
		n      int
		err    error
	)

	record.ID, n, err = ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	data = data[n:]

	record.Content, n, err = ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: content: %w", ErrSerializationFailed, err)
	}
	data = data[n:]

	record.Vector, n, err = vectorSer.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: vector: %w", ErrSerializationFailed, err)
	}
	data = data[n:]

	record.Metadata, _, err = metadataSer.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata: %w", ErrSerializationFailed, err)
	}

	return &record, nil
}
