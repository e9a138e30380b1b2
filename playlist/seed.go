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

import "github.com/gocql/gocql"

var (
	SongPetiteTonkinoise = mustUUID("756716f7-2e54-4715-9f00-91dcbea6cf50")
	SongDieMosch         = mustUUID("f6071e72-48ec-4fcb-bf3e-379c8a696488")
	SongMemoFromTurner   = mustUUID("fbdf82ed-0063-4796-9c7c-a3d4f47b4b25")

	PlaylistJazzAndMore = mustUUID("2cc9ccb7-6221-4ccb-8387-f22b6a1b354d")
	PlaylistSoundtracks = mustUUID("3fd2bedf-a8c8-455a-a462-0cd3a4353c54")
)

// SampleSongs returns the songs loaded by the sample.
func SampleSongs() []Song {
	return []Song{
		{
			ID:     SongPetiteTonkinoise,
			Title:  "La Petite Tonkinoise",
			Album:  "Bye Bye Blackbird",
			Artist: "Joséphine Baker",
			Tags:   []string{"2013", "jazz"},
		},
		{
			ID:     SongDieMosch,
			Title:  "Die Mösch",
			Album:  "In Gold'",
			Artist: "Willi Ostermann",
			Tags:   []string{"1996", "birds"},
		},
		{
			ID:     SongMemoFromTurner,
			Title:  "Memo From Turner",
			Album:  "Performance",
			Artist: "Mick Jager",
			Tags:   []string{"1970", "soundtrack"},
		},
	}
}

// SamplePlaylist returns the playlist rows loaded by the sample.
func SamplePlaylist() []PlaylistEntry {
	return []PlaylistEntry{
		{
			ID:     PlaylistJazzAndMore,
			SongID: SongPetiteTonkinoise,
			Title:  "La Petite Tonkinoise",
			Album:  "Bye Bye Blackbird",
			Artist: "Joséphine Baker",
		},
		{
			ID:     PlaylistJazzAndMore,
			SongID: SongDieMosch,
			Title:  "Die Mösch",
			Album:  "In Gold",
			Artist: "Willi Ostermann",
		},
		{
			ID:     PlaylistSoundtracks,
			SongID: SongMemoFromTurner,
			Title:  "Memo From Turner",
			Album:  "Performance",
			Artist: "Mick Jager",
		},
	}
}

func mustUUID(s string) gocql.UUID {
	u, err := gocql.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}
