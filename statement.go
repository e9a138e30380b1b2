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
	"sync/atomic"
	"unicode"

	"github.com/gocql/gocql"
)

// PreparedStatement is a statement template prepared on the server. It may be
// executed any number of times, but only through the Session that prepared it.
type PreparedStatement struct {
	session  *Session
	template string
	keyword  string
	markers  int
	columns  []gocql.ColumnInfo
	id       []byte
}

// Template returns the statement text as given to Prepare.
func (p *PreparedStatement) Template() string {
	return p.template
}

// Arity is the number of values the statement must be bound with.
func (p *PreparedStatement) Arity() int {
	return p.markers
}

// Columns returns the names of the columns the bind markers refer to, in
// marker order.
func (p *PreparedStatement) Columns() []string {
	names := make([]string, len(p.columns))
	for i, c := range p.columns {
		names[i] = c.Name
	}
	return names
}

func (p *PreparedStatement) String() string {
	return fmt.Sprintf("[prepared_statement id=%x markers=%d stmt=%q]", p.id, p.markers, abbreviate(p.template))
}

// Prepare validates template and prepares it on the server without
// executing it. An invalid template is reported as a *QueryError.
func (s *Session) Prepare(ctx context.Context, template string) (*PreparedStatement, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	info, err := parseStatement(template)
	if err != nil {
		return nil, &QueryError{Statement: template, Err: err}
	}
	if !dmlKeywords[info.keyword] {
		return nil, &QueryError{Statement: template, Err: fmt.Errorf("%s statements can't be prepared", info.keyword)}
	}
	// The driver decides whether to prepare by looking at the first word.
	if !strings.EqualFold(leadingWord(template), info.keyword) {
		return nil, &QueryError{Statement: template, Err: fmt.Errorf("statement must start with %s", info.keyword)}
	}

	prep := newPrepareOnly(ctx)
	defer prep.cancel()
	err = s.session.Bind(template, prep.bind).
		WithContext(prep.ctx).
		RetryPolicy(nil).
		Exec()
	meta := prep.meta.Load()
	if meta == nil {
		if err == nil {
			err = errors.New("statement was executed instead of prepared")
		}
		return nil, &QueryError{Statement: template, Err: err}
	}
	if len(meta.Args) != info.markers {
		return nil, &QueryError{
			Statement: template,
			Err:       fmt.Errorf("template has %d bind markers, server expects %d values", info.markers, len(meta.Args)),
		}
	}

	return &PreparedStatement{
		session:  s,
		template: template,
		keyword:  info.keyword,
		markers:  info.markers,
		columns:  append([]gocql.ColumnInfo(nil), meta.Args...),
		id:       append([]byte(nil), meta.Id...),
	}, nil
}

// ExecuteBound binds values to the markers of stmt, in order, and executes
// it. Values that don't fit the markers are reported as a *BindError before
// anything is sent; failures on the server as a *QueryError.
func (s *Session) ExecuteBound(ctx context.Context, stmt *PreparedStatement, values ...interface{}) error {
	rows, err := s.QueryBound(ctx, stmt, values...)
	if err != nil {
		return err
	}
	return rows.Close()
}

// QueryBound is ExecuteBound for statements returning rows.
func (s *Session) QueryBound(ctx context.Context, stmt *PreparedStatement, values ...interface{}) (*Rows, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := s.checkBind(stmt, values); err != nil {
		return nil, err
	}

	b := newBoundValues(ctx, stmt, values)
	iter := s.session.Bind(stmt.template, b.bind).WithContext(b.ctx).Iter()
	if bindErr := b.mismatch.Load(); bindErr != nil {
		_ = iter.Close()
		b.cancel()
		return nil, bindErr
	}

	return &Rows{stmt: stmt, scanner: iter.Scanner(), cancel: b.cancel}, nil
}

// ScanBound runs a bound SELECT and scans its first row into dest. It
// returns gocql.ErrNotFound when there is no row.
func (s *Session) ScanBound(ctx context.Context, stmt *PreparedStatement, dest []interface{}, values ...interface{}) error {
	rows, err := s.QueryBound(ctx, stmt, values...)
	if err != nil {
		return err
	}
	if !rows.Next() {
		if err := rows.Close(); err != nil {
			return err
		}
		return gocql.ErrNotFound
	}
	if err := rows.Scan(dest...); err != nil {
		_ = rows.Close()
		return &QueryError{Statement: stmt.template, Err: err}
	}
	return rows.Close()
}

func (s *Session) checkBind(stmt *PreparedStatement, values []interface{}) error {
	if stmt == nil {
		return &BindError{Err: errors.New("nil prepared statement")}
	}
	if stmt.session != s {
		return &BindError{Statement: stmt.template, Err: ErrForeignStatement}
	}
	if len(values) != stmt.markers {
		return &BindError{Statement: stmt.template, Expected: stmt.markers, Got: len(values)}
	}
	return checkValues(stmt.template, stmt.columns, values)
}

// checkValues marshals each value against the type of its column.
func checkValues(template string, columns []gocql.ColumnInfo, values []interface{}) error {
	if len(values) != len(columns) {
		return &BindError{Statement: template, Expected: len(columns), Got: len(values)}
	}
	for i, col := range columns {
		if _, err := gocql.Marshal(col.TypeInfo, values[i]); err != nil {
			return &BindError{
				Statement: template,
				Expected:  len(columns),
				Got:       len(values),
				Column:    col.Name,
				Err:       err,
			}
		}
	}
	return nil
}

// prepareOnly stops a query once the server has prepared it, before
// anything is executed, and keeps the statement metadata.
//
// The driver marks the host that served a query as failed for every error
// except a canceled or expired context, so a binding function that stops a
// query cancels the query's context and returns ctx.Err().
type prepareOnly struct {
	ctx    context.Context
	cancel context.CancelFunc
	meta   atomic.Pointer[gocql.QueryInfo]
}

func newPrepareOnly(ctx context.Context) *prepareOnly {
	p := &prepareOnly{}
	p.ctx, p.cancel = context.WithCancel(ctx)
	return p
}

func (p *prepareOnly) bind(qi *gocql.QueryInfo) ([]interface{}, error) {
	p.meta.Store(qi)
	p.cancel()
	return nil, p.ctx.Err()
}

// boundValues binds values to a statement the driver may have re-prepared
// after a schema change, so the metadata is checked again.
type boundValues struct {
	stmt     *PreparedStatement
	values   []interface{}
	ctx      context.Context
	cancel   context.CancelFunc
	mismatch atomic.Pointer[BindError]
}

func newBoundValues(ctx context.Context, stmt *PreparedStatement, values []interface{}) *boundValues {
	b := &boundValues{stmt: stmt, values: values}
	b.ctx, b.cancel = context.WithCancel(ctx)
	return b
}

func (b *boundValues) bind(qi *gocql.QueryInfo) ([]interface{}, error) {
	if err := checkValues(b.stmt.template, qi.Args, b.values); err != nil {
		var bindErr *BindError
		errors.As(err, &bindErr)
		b.mismatch.Store(bindErr)
		b.cancel()
		return nil, b.ctx.Err()
	}
	return b.values, nil
}

// classify maps an execution error of stmt to the error taxonomy.
func classify(stmt *PreparedStatement, err error) error {
	if err == nil {
		return nil
	}
	var bindErr *BindError
	if errors.As(err, &bindErr) {
		return bindErr
	}
	var marshalErr gocql.MarshalError
	if errors.As(err, &marshalErr) || errors.Is(err, gocql.ErrQueryArgLength) {
		return &BindError{Statement: stmt.template, Err: err}
	}
	return &QueryError{Statement: stmt.template, Err: err}
}

// Rows iterates the result of a bound statement. Close must be called and
// reports the execution error, if any.
type Rows struct {
	stmt    *PreparedStatement
	scanner gocql.Scanner
	cancel  context.CancelFunc
	closed  bool
	err     error
}

func (r *Rows) Next() bool {
	if r.closed {
		return false
	}
	return r.scanner.Next()
}

func (r *Rows) Scan(dest ...interface{}) error {
	return r.scanner.Scan(dest...)
}

func (r *Rows) Close() error {
	if r.closed {
		return r.err
	}
	r.closed = true
	r.err = classify(r.stmt, r.scanner.Err())
	if r.cancel != nil {
		r.cancel()
	}
	return r.err
}

func leadingWord(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if n := strings.IndexFunc(s, unicode.IsSpace); n >= 0 {
		return s[:n]
	}
	return s
}
