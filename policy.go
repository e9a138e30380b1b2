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
	"github.com/hailocab/go-hostpool"
)

const (
	HostSelectionRoundRobin = "round-robin"
	HostSelectionTokenAware = "token-aware"
	HostSelectionDCAware    = "dc-aware"
	HostSelectionHostPool   = "hostpool"
)

// newHostSelectionPolicy returns nil for an empty name, leaving the choice
// to the driver.
func newHostSelectionPolicy(name, localDC string) (gocql.HostSelectionPolicy, error) {
	switch name {
	case "":
		return nil, nil
	case HostSelectionRoundRobin:
		return gocql.RoundRobinHostPolicy(), nil
	case HostSelectionTokenAware:
		fallback := gocql.RoundRobinHostPolicy()
		if localDC != "" {
			fallback = gocql.DCAwareRoundRobinPolicy(localDC)
		}
		return gocql.TokenAwareHostPolicy(fallback), nil
	case HostSelectionDCAware:
		if localDC == "" {
			return nil, fmt.Errorf("host selection %q requires a local datacenter", name)
		}
		return gocql.DCAwareRoundRobinPolicy(localDC), nil
	case HostSelectionHostPool:
		// The pool is populated by the driver once hosts are known.
		return gocql.HostPoolHostPolicy(
			hostpool.NewEpsilonGreedy(nil, 0, &hostpool.LinearEpsilonValueCalculator{}),
		), nil
	default:
		return nil, fmt.Errorf("unknown host selection %q", name)
	}
}
