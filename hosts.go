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
	"sync"

	"github.com/gocql/gocql"
)

// hostRecorder is installed as the cluster's HostFilter. It remembers every
// host the driver discovers and defers the accept decision to next.
type hostRecorder struct {
	next gocql.HostFilter

	mu    sync.Mutex
	seen  map[string]struct{}
	hosts []*gocql.HostInfo
}

func newHostRecorder(next gocql.HostFilter) *hostRecorder {
	return &hostRecorder{
		next: next,
		seen: make(map[string]struct{}),
	}
}

func (r *hostRecorder) Accept(host *gocql.HostInfo) bool {
	accept := r.next == nil || r.next.Accept(host)
	if !accept {
		return false
	}

	key := host.HostID()
	if key == "" {
		key = host.ConnectAddressAndPort()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[key]; !ok {
		r.seen[key] = struct{}{}
		r.hosts = append(r.hosts, host)
	}
	return true
}

func (r *hostRecorder) snapshot() []*gocql.HostInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*gocql.HostInfo(nil), r.hosts...)
}
