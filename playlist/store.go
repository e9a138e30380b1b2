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

package playlist

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"text/template"

	"github.com/gocql/gocql"

	"github.com/mendonk/gcx"
)

//go:embed schema.cql
var schemaSource string

var schemaTemplate = template.Must(template.New("schema.cql").Parse(schemaSource))

// keyspacePattern matches the unquoted keyspace names the server accepts.
var keyspacePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,48}$`)

// ErrUnknownSong is returned by Store.Song when no song has the given id.
var ErrUnknownSong = errors.New("playlist: unknown song")

const (
	insertSongCQL     = "INSERT INTO %s.songs (id, title, album, artist, tags) VALUES (?, ?, ?, ?, ?)"
	insertPlaylistCQL = "INSERT INTO %s.playlists (id, song_id, title, album, artist) VALUES (?, ?, ?, ?, ?)"
	selectSongCQL     = "SELECT id, title, album, artist, tags, data FROM %s.songs WHERE id = ?"
	selectPlaylistCQL = "SELECT id, song_id, title, album, artist FROM %s.playlists WHERE id = ?"
)

// Store reads and writes the catalogue in the keyspace of a session.
type Store struct {
	session  *gcx.Session
	keyspace string

	mu       sync.Mutex
	prepared map[string]*gcx.PreparedStatement
}

// NewStore returns a Store using the keyspace session was opened with.
func NewStore(session *gcx.Session) (*Store, error) {
	keyspace := session.Config().Keyspace
	if !keyspacePattern.MatchString(keyspace) {
		return nil, fmt.Errorf("invalid keyspace name %q", keyspace)
	}
	return &Store{
		session:  session,
		keyspace: keyspace,
		prepared: make(map[string]*gcx.PreparedStatement),
	}, nil
}

// Keyspace returns the keyspace holding the tables.
func (s *Store) Keyspace() string {
	return s.keyspace
}

// SchemaStatements returns the statements recreating the songs and playlists
// tables in keyspace, in execution order.
func SchemaStatements(keyspace string) ([]string, error) {
	if !keyspacePattern.MatchString(keyspace) {
		return nil, fmt.Errorf("invalid keyspace name %q", keyspace)
	}

	var buf bytes.Buffer
	if err := schemaTemplate.Execute(&buf, struct{ Keyspace string }{keyspace}); err != nil {
		return nil, fmt.Errorf("render schema: %w", err)
	}
	return gcx.SplitStatements(buf.String())
}

// CreateSchema drops and recreates the tables. Existing rows are lost.
func (s *Store) CreateSchema(ctx context.Context) error {
	stmts, err := SchemaStatements(s.keyspace)
	if err != nil {
		return err
	}
	return s.session.ExecuteSchema(ctx, stmts...)
}

// LoadData inserts songs and then playlist entries. The first failing row
// stops the load.
func (s *Store) LoadData(ctx context.Context, songs []Song, entries []PlaylistEntry) error {
	if len(songs) > 0 {
		insertSong, err := s.prepare(ctx, insertSongCQL)
		if err != nil {
			return err
		}
		for _, song := range songs {
			if err := s.session.ExecuteBound(ctx, insertSong, song.ID, song.Title, song.Album, song.Artist, song.Tags); err != nil {
				return fmt.Errorf("insert song %s: %w", song.ID, err)
			}
		}
	}

	if len(entries) > 0 {
		insertEntry, err := s.prepare(ctx, insertPlaylistCQL)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.session.ExecuteBound(ctx, insertEntry, e.ID, e.SongID, e.Title, e.Album, e.Artist); err != nil {
				return fmt.Errorf("insert playlist %s entry %q: %w", e.ID, e.Title, err)
			}
		}
	}
	return nil
}

// Song reads the song with the given id.
func (s *Store) Song(ctx context.Context, id gocql.UUID) (*Song, error) {
	stmt, err := s.prepare(ctx, selectSongCQL)
	if err != nil {
		return nil, err
	}

	song := &Song{}
	err = s.session.ScanBound(ctx, stmt,
		[]interface{}{&song.ID, &song.Title, &song.Album, &song.Artist, &song.Tags, &song.Data},
		id)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSong, id)
	}
	if err != nil {
		return nil, err
	}
	return song, nil
}

// Playlist reads the entries of a playlist ordered by title, album and
// artist. An unknown playlist has no entries.
func (s *Store) Playlist(ctx context.Context, id gocql.UUID) ([]PlaylistEntry, error) {
	stmt, err := s.prepare(ctx, selectPlaylistCQL)
	if err != nil {
		return nil, err
	}

	rows, err := s.session.QueryBound(ctx, stmt, id)
	if err != nil {
		return nil, err
	}

	var entries []PlaylistEntry
	for rows.Next() {
		var e PlaylistEntry
		if err := rows.Scan(&e.ID, &e.SongID, &e.Title, &e.Album, &e.Artist); err != nil {
			_ = rows.Close()
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	return entries, nil
}

// prepare returns the statement for the keyspace-qualified form of format,
// preparing it on first use.
func (s *Store) prepare(ctx context.Context, format string) (*gcx.PreparedStatement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.prepared[format]; ok {
		return stmt, nil
	}
	stmt, err := s.session.Prepare(ctx, fmt.Sprintf(format, s.keyspace))
	if err != nil {
		return nil, err
	}
	s.prepared[format] = stmt
	return stmt, nil
}
