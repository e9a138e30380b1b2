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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaStatements(t *testing.T) {
	t.Parallel()

	stmts, err := SchemaStatements("demo")
	require.NoError(t, err)
	require.Len(t, stmts, 4)

	require.Equal(t, "DROP TABLE IF EXISTS demo.songs", stmts[0])
	require.Equal(t, "DROP TABLE IF EXISTS demo.playlists", stmts[1])
	require.True(t, strings.HasPrefix(stmts[2], "CREATE TABLE demo.songs ("))
	require.Contains(t, stmts[2], "tags set<text>")
	require.True(t, strings.HasPrefix(stmts[3], "CREATE TABLE demo.playlists ("))
	require.Contains(t, stmts[3], "PRIMARY KEY (id, title, album, artist)")
}

func TestSchemaStatementsRejectsKeyspace(t *testing.T) {
	t.Parallel()

	for _, ks := range []string{"", "demo; DROP KEYSPACE system", "demo.songs", strings.Repeat("k", 49)} {
		_, err := SchemaStatements(ks)
		require.Error(t, err, ks)
	}
}

func TestSampleData(t *testing.T) {
	t.Parallel()

	songs := SampleSongs()
	require.Len(t, songs, 3)

	ids := make(map[string]Song, len(songs))
	for _, s := range songs {
		require.NotEmpty(t, s.Title)
		require.Len(t, s.Tags, 2)
		ids[s.ID.String()] = s
	}
	require.Len(t, ids, 3, "song ids must be distinct")

	entries := SamplePlaylist()
	require.Len(t, entries, 3)
	for _, e := range entries {
		song, ok := ids[e.SongID.String()]
		require.True(t, ok, "entry %s refers to an unknown song", e)
		require.Equal(t, song.Title, e.Title)
		require.Equal(t, song.Artist, e.Artist)
	}

	require.Equal(t, "Joséphine Baker", ids["756716f7-2e54-4715-9f00-91dcbea6cf50"].Artist)
	require.Equal(t, "3fd2bedf-a8c8-455a-a462-0cd3a4353c54", entries[2].ID.String())
}

func TestSampleDataIsFresh(t *testing.T) {
	t.Parallel()

	songs := SampleSongs()
	songs[0].Tags[0] = "changed"
	require.NotEqual(t, "changed", SampleSongs()[0].Tags[0])
}
