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

// Package playlist is the music catalogue loaded by the gcx sample: songs
// and the playlists that reference them.
package playlist

import (
	"fmt"

	"github.com/gocql/gocql"
)

// Song is a row of the songs table.
type Song struct {
	ID     gocql.UUID
	Title  string
	Album  string
	Artist string
	Tags   []string
	Data   []byte
}

func (s Song) String() string {
	return fmt.Sprintf("[song id=%s title=%q album=%q artist=%q tags=%q]", s.ID, s.Title, s.Album, s.Artist, s.Tags)
}

// PlaylistEntry is a row of the playlists table. SongID refers to a Song but
// nothing checks that the song exists.
type PlaylistEntry struct {
	ID     gocql.UUID
	SongID gocql.UUID
	Title  string
	Album  string
	Artist string
}

func (e PlaylistEntry) String() string {
	return fmt.Sprintf("[playlist id=%s song_id=%s title=%q album=%q artist=%q]", e.ID, e.SongID, e.Title, e.Album, e.Artist)
}
