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
	"reflect"
	"strings"
	"testing"
)

func TestParseStatement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		stmt    string
		keyword string
		markers int
		err     string
	}{
		{name: "insert", stmt: "INSERT INTO demo.songs (id, title) VALUES (?, ?)", keyword: "INSERT", markers: 2},
		{name: "lower case", stmt: "select * from demo.songs where id = ?", keyword: "SELECT", markers: 1},
		{name: "marker in literal", stmt: "SELECT * FROM t WHERE a = ? AND b = 'x?y'", keyword: "SELECT", markers: 1},
		{name: "marker in quoted identifier", stmt: `SELECT "weird?col" FROM t`, keyword: "SELECT"},
		{name: "escaped quote", stmt: "INSERT INTO t (a) VALUES ('it''s')", keyword: "INSERT"},
		{name: "terminated", stmt: "SELECT * FROM t WHERE a = ?;", keyword: "SELECT", markers: 1},
		{name: "comment after terminator", stmt: "SELECT * FROM t; -- done", keyword: "SELECT"},
		{name: "marker in comment", stmt: "UPDATE t SET a = ? /* and b = ? */ WHERE k = ?", keyword: "UPDATE", markers: 2},
		{name: "keyword glued to paren", stmt: "CREATE TABLE demo.songs(id uuid PRIMARY KEY)", keyword: "CREATE"},
		{name: "dollar string", stmt: "CREATE FUNCTION f(a int) RETURNS NULL ON NULL INPUT RETURNS int LANGUAGE java AS $$ return a > 0 ? a : 0; $$", keyword: "CREATE"},
		{name: "empty", stmt: "  \n\t", err: ErrEmptyStatement.Error()},
		{name: "comment only", stmt: "-- nothing to see\n", err: ErrEmptyStatement.Error()},
		{name: "two statements", stmt: "SELECT * FROM t; SELECT * FROM u", err: "more than one statement"},
		{name: "marker after terminator", stmt: "SELECT * FROM t; ?", err: "more than one statement"},
		{name: "unterminated literal", stmt: "SELECT * FROM t WHERE a = 'x", err: "unterminated string literal at offset 26"},
		{name: "unterminated identifier", stmt: `SELECT "a FROM t`, err: "unterminated quoted identifier"},
		{name: "unterminated comment", stmt: "SELECT * /* FROM t", err: "unterminated comment"},
		{name: "unterminated dollar string", stmt: "CREATE FUNCTION f() AS $$ x", err: "unterminated $$ string"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			info, err := parseStatement(test.stmt)
			if test.err != "" {
				if err == nil || !strings.Contains(err.Error(), test.err) {
					t.Fatalf("expected error %q, got %v", test.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.keyword != test.keyword {
				t.Errorf("expected keyword %q, got %q", test.keyword, info.keyword)
			}
			if info.markers != test.markers {
				t.Errorf("expected %d markers, got %d", test.markers, info.markers)
			}
		})
	}
}

func TestParseStatementEmptyIsSentinel(t *testing.T) {
	_, err := parseStatement("/* */")
	if !errors.Is(err, ErrEmptyStatement) {
		t.Fatalf("expected ErrEmptyStatement, got %v", err)
	}
}

func TestSplitStatements(t *testing.T) {
	script := `
DROP TABLE IF EXISTS demo.songs;
CREATE TABLE demo.songs (id uuid PRIMARY KEY, title text); -- songs
/* block ; comment */
INSERT INTO demo.songs (id, title) VALUES (?, 'a;b');
;;
`
	got, err := SplitStatements(script)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"DROP TABLE IF EXISTS demo.songs",
		"CREATE TABLE demo.songs (id uuid PRIMARY KEY, title text)",
		"-- songs\n/* block ; comment */\nINSERT INTO demo.songs (id, title) VALUES (?, 'a;b')",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestSplitStatementsWithoutTerminator(t *testing.T) {
	got, err := SplitStatements("SELECT * FROM t")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "SELECT * FROM t" {
		t.Fatalf("unexpected statements %q", got)
	}
}

func TestSplitStatementsUnterminatedLiteral(t *testing.T) {
	if _, err := SplitStatements("INSERT INTO t (a) VALUES ('x);"); err == nil {
		t.Fatal("expected error")
	}
}
