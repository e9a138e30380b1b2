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
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gocql/gocql"
)

// driverSession is the part of *gocql.Session a Session relies on.
type driverSession interface {
	Query(stmt string, values ...interface{}) *gocql.Query
	Bind(stmt string, b func(q *gocql.QueryInfo) ([]interface{}, error)) *gocql.Query
	AwaitSchemaAgreement(ctx context.Context) error
	Close()
	Closed() bool
}

// Session is an open connection to a cluster, scoped to one keyspace. It is
// created by Connect and must be released with Close.
type Session struct {
	cfg     ConnectionConfig
	session driverSession
	hosts   *hostRecorder
	logger  StdLogger

	mu     sync.Mutex
	closed bool
}

// Connect opens a session using cfg and logs the hosts the driver discovers.
// Every failure is returned as a *ConnectionError and no Session is created.
func Connect(ctx context.Context, cfg ConnectionConfig) (*Session, error) {
	cfg = cfg.clone()
	fail := func(err error) (*Session, error) {
		return nil, &ConnectionError{
			Bundle:   cfg.BundlePath,
			Hosts:    cfg.Hosts,
			Keyspace: cfg.Keyspace,
			Err:      err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return fail(err)
	}
	cluster, err := cfg.clusterConfig()
	if err != nil {
		return fail(err)
	}

	// CreateSession can't be cancelled, so the context deadline is the
	// longest any single connection attempt may take.
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fail(context.DeadlineExceeded)
		}
		if cluster.ConnectTimeout > remaining {
			cluster.ConnectTimeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	recorder := newHostRecorder(cluster.HostFilter)
	cluster.HostFilter = recorder

	session, err := cluster.CreateSession()
	if err != nil {
		return fail(err)
	}

	s := &Session{
		cfg:     cfg,
		session: session,
		hosts:   recorder,
		logger:  cfg.Logger,
	}
	for _, host := range recorder.snapshot() {
		s.logger.Printf("gcx: discovered host %s datacenter=%s rack=%s host_id=%s",
			host.ConnectAddressAndPort(), host.DataCenter(), host.Rack(), host.HostID())
	}
	return s, nil
}

// Config returns a copy of the configuration the session was opened with.
func (s *Session) Config() ConnectionConfig {
	return s.cfg.clone()
}

// Hosts returns the hosts discovered so far, in discovery order.
func (s *Session) Hosts() []*gocql.HostInfo {
	return s.hosts.snapshot()
}

// Closed reports whether Close was called or the driver gave up on the session.
func (s *Session) Closed() bool {
	return s.checkOpen() != nil
}

func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.session.Closed() {
		return ErrSessionClosed
	}
	return nil
}

// Close releases the connection. Closing a closed session does nothing.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.session.Close()
	s.logger.Printf("gcx: session for keyspace %q closed", s.cfg.Keyspace)
}

// ExecuteSchema runs the schema statements in order, each bounded by the
// configured schema timeout, and waits for the cluster to agree on the new
// schema. The first failing statement stops the run. Blank and comment-only
// statements are skipped.
func (s *Session) ExecuteSchema(ctx context.Context, statements ...string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	ran := 0
	for i, stmt := range statements {
		info, err := parseStatement(stmt)
		if errors.Is(err, ErrEmptyStatement) {
			continue
		}
		if err != nil {
			return &SchemaError{Index: i, Statement: stmt, Err: err}
		}
		if !ddlKeywords[info.keyword] {
			return &SchemaError{Index: i, Statement: stmt, Err: fmt.Errorf("%s is not a schema statement", info.keyword)}
		}
		if info.markers > 0 {
			return &SchemaError{Index: i, Statement: stmt, Err: errors.New("bind markers are not allowed in schema statements")}
		}

		if err := s.execSchema(ctx, stmt); err != nil {
			return &SchemaError{Index: i, Statement: stmt, Err: err}
		}
		ran++
		s.logger.Printf("gcx: applied schema statement %d: %s", i, abbreviate(stmt))
	}

	if ran == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SchemaTimeout)
	defer cancel()
	if err := s.session.AwaitSchemaAgreement(ctx); err != nil {
		return &SchemaError{Index: -1, Err: fmt.Errorf("awaiting schema agreement: %w", err)}
	}
	return nil
}

func (s *Session) execSchema(ctx context.Context, stmt string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SchemaTimeout)
	defer cancel()
	return s.session.Query(strings.TrimSpace(stmt)).
		WithContext(ctx).
		RetryPolicy(nil).
		Exec()
}
