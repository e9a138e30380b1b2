/*
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package gcx

import (
	"fmt"

	"github.com/gocql/gocql"

	"github.com/mendonk/gcx/lz4"
	"github.com/mendonk/gcx/snappy"
)

// newCompressor returns nil when frames should travel uncompressed.
func newCompressor(name string) (gocql.Compressor, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "snappy":
		return snappy.SnappyCompressor{}, nil
	case "lz4":
		return lz4.LZ4Compressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}
