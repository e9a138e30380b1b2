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
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenCode tokenKind = iota
	tokenMarker
	tokenTerminator
	tokenLiteral
	tokenComment
)

// lex walks src and reports each lexical unit to fn. Quoted literals,
// quoted identifiers, dollar strings and comments are reported as a whole so
// that markers and terminators inside them are never seen.
func lex(src string, fn func(kind tokenKind, start, end int)) error {
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\'' || c == '"':
			end, ok := closeQuote(src, i+1, c)
			if !ok {
				if c == '"' {
					return fmt.Errorf("unterminated quoted identifier at offset %d", i)
				}
				return fmt.Errorf("unterminated string literal at offset %d", i)
			}
			fn(tokenLiteral, i, end)
			i = end
		case strings.HasPrefix(src[i:], "$$"):
			j := strings.Index(src[i+2:], "$$")
			if j < 0 {
				return fmt.Errorf("unterminated $$ string at offset %d", i)
			}
			end := i + 2 + j + 2
			fn(tokenLiteral, i, end)
			i = end
		case strings.HasPrefix(src[i:], "--"), strings.HasPrefix(src[i:], "//"):
			end := len(src)
			if j := strings.IndexByte(src[i:], '\n'); j >= 0 {
				end = i + j + 1
			}
			fn(tokenComment, i, end)
			i = end
		case strings.HasPrefix(src[i:], "/*"):
			j := strings.Index(src[i+2:], "*/")
			if j < 0 {
				return fmt.Errorf("unterminated comment at offset %d", i)
			}
			end := i + 2 + j + 2
			fn(tokenComment, i, end)
			i = end
		case c == '?':
			fn(tokenMarker, i, i+1)
			i++
		case c == ';':
			fn(tokenTerminator, i, i+1)
			i++
		default:
			fn(tokenCode, i, i+1)
			i++
		}
	}
	return nil
}

// closeQuote returns the offset just past the quote closing a literal that
// started before from. A doubled quote is an escaped quote.
func closeQuote(src string, from int, q byte) (int, bool) {
	for j := from; j < len(src); j++ {
		if src[j] != q {
			continue
		}
		if j+1 < len(src) && src[j+1] == q {
			j++
			continue
		}
		return j + 1, true
	}
	return 0, false
}

type statementInfo struct {
	keyword string
	markers int
}

var (
	dmlKeywords = map[string]bool{"INSERT": true, "UPDATE": true, "DELETE": true, "SELECT": true}
	ddlKeywords = map[string]bool{"CREATE": true, "DROP": true, "ALTER": true, "TRUNCATE": true}
)

// parseStatement checks that stmt is a single lexically complete statement
// and returns its leading keyword and number of positional bind markers.
func parseStatement(stmt string) (statementInfo, error) {
	var (
		info       statementInfo
		code       strings.Builder
		terminated bool
		trailing   bool
	)

	err := lex(stmt, func(kind tokenKind, start, end int) {
		switch kind {
		case tokenCode:
			if terminated && !isSpace(stmt[start]) {
				trailing = true
			}
			code.WriteString(stmt[start:end])
		case tokenMarker:
			if terminated {
				trailing = true
			}
			info.markers++
			code.WriteByte('?')
		case tokenTerminator:
			if terminated {
				trailing = true
			}
			terminated = true
		case tokenLiteral:
			if terminated {
				trailing = true
			}
			code.WriteByte(' ')
		case tokenComment:
			code.WriteByte(' ')
		}
	})
	if err != nil {
		return statementInfo{}, err
	}
	if trailing {
		return statementInfo{}, fmt.Errorf("more than one statement")
	}

	fields := strings.FieldsFunc(code.String(), func(r rune) bool {
		return unicode.IsSpace(r) || r == '('
	})
	if len(fields) == 0 {
		return statementInfo{}, ErrEmptyStatement
	}
	info.keyword = strings.ToUpper(fields[0])
	return info, nil
}

// SplitStatements splits a CQL script into statements on the semicolons that
// are outside literals and comments. Segments holding only whitespace or
// comments are dropped.
func SplitStatements(script string) ([]string, error) {
	var (
		stmts   []string
		start   int
		hasCode bool
	)

	cut := func(end int) {
		if hasCode {
			stmts = append(stmts, strings.TrimSpace(script[start:end]))
		}
		start = end
		hasCode = false
	}

	err := lex(script, func(kind tokenKind, s, end int) {
		switch kind {
		case tokenTerminator:
			cut(s)
			start = end
		case tokenCode:
			if !isSpace(script[s]) {
				hasCode = true
			}
		case tokenMarker, tokenLiteral:
			hasCode = true
		}
	})
	if err != nil {
		return nil, err
	}
	cut(len(script))
	return stmts, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
