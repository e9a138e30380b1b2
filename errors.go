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
	"errors"
	"fmt"
)

var (
	ErrSessionClosed    = errors.New("gcx: session is closed")
	ErrForeignStatement = errors.New("gcx: prepared statement belongs to another session")
	ErrNoContactPoints  = errors.New("gcx: neither a bundle path nor hosts were provided")
	ErrEmptyStatement   = errors.New("gcx: empty statement")
)

// ConnectionError is returned by Connect when the bundle can't be used or the
// cluster refuses the session.
type ConnectionError struct {
	Bundle   string
	Hosts    []string
	Keyspace string
	Err      error
}

func (e *ConnectionError) Error() string {
	target := e.Bundle
	if target == "" {
		target = fmt.Sprint(e.Hosts)
	}
	return fmt.Sprintf("gcx: can't connect to %s (keyspace %q): %v", target, e.Keyspace, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// SchemaError reports the schema statement which stopped ExecuteSchema.
// Index is -1 when every statement ran but the cluster did not agree on the
// resulting schema.
type SchemaError struct {
	Index     int
	Statement string
	Err       error
}

func (e *SchemaError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("gcx: schema: %v", e.Err)
	}
	return fmt.Sprintf("gcx: schema statement %d failed: %v", e.Index, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// QueryError is returned when a statement template can't be prepared or a
// bound statement fails on the server.
type QueryError struct {
	Statement string
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("gcx: query %q: %v", abbreviate(e.Statement), e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// BindError is returned when values don't match the markers of a prepared
// statement. Column is set when a single value has the wrong type.
type BindError struct {
	Statement string
	Expected  int
	Got       int
	Column    string
	Err       error
}

func (e *BindError) Error() string {
	switch {
	case e.Column != "":
		return fmt.Sprintf("gcx: can't bind column %q of %q: %v", e.Column, abbreviate(e.Statement), e.Err)
	case e.Err != nil:
		return fmt.Sprintf("gcx: can't bind %q: %v", abbreviate(e.Statement), e.Err)
	default:
		return fmt.Sprintf("gcx: %q expects %d values, got %d", abbreviate(e.Statement), e.Expected, e.Got)
	}
}

func (e *BindError) Unwrap() error {
	return e.Err
}

const maxStatementInError = 64

func abbreviate(stmt string) string {
	stmt = collapseSpace(stmt)
	if len(stmt) <= maxStatementInError {
		return stmt
	}
	return stmt[:maxStatementInError-3] + "..."
}
