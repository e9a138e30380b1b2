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

package gcx_test

import (
	"context"
	"fmt"
	"log"

	"github.com/mendonk/gcx"
	"github.com/mendonk/gcx/playlist"
)

func Example() {
	ctx := context.Background()

	/* The example assumes a bundle at this path with the "demo" keyspace.
	The bundle can be replaced by Hosts when connecting to a local node:
		cfg.Hosts = []string{"127.0.0.1"}
	*/
	cfg := gcx.ConnectionConfig{
		BundlePath:   "/path/to/secure-connect-driver-demo.zip",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Keyspace:     "demo",
	}
	session, err := gcx.Connect(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	for _, host := range session.Hosts() {
		fmt.Println(host.ConnectAddressAndPort())
	}

	err = session.ExecuteSchema(ctx,
		"DROP TABLE IF EXISTS demo.songs",
		"CREATE TABLE demo.songs (id uuid PRIMARY KEY, title text, album text, artist text, tags set<text>, data blob)",
	)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("schema created in demo keyspace")

	insert, err := session.Prepare(ctx, "INSERT INTO demo.songs (id, title, album, artist, tags) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		log.Fatal(err)
	}
	for _, song := range playlist.SampleSongs() {
		if err := session.ExecuteBound(ctx, insert, song.ID, song.Title, song.Album, song.Artist, song.Tags); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println("data loaded into demo schema")
}

func ExampleSplitStatements() {
	stmts, err := gcx.SplitStatements(`
-- recreate the table
DROP TABLE IF EXISTS demo.songs;
CREATE TABLE demo.songs (id uuid PRIMARY KEY, title text);
`)
	if err != nil {
		log.Fatal(err)
	}
	for _, stmt := range stmts {
		fmt.Println(stmt)
	}
	// Output:
	// -- recreate the table
	// DROP TABLE IF EXISTS demo.songs
	// CREATE TABLE demo.songs (id uuid PRIMARY KEY, title text)
}
