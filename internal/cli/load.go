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

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mendonk/gcx/playlist"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Recreate the tables and load the sample data",
		Long: `Connect, print the discovered hosts, drop and recreate the songs and
playlists tables, and load the sample songs and playlists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, true, func(store *playlist.Store) error {
				if err := createSchema(cmd, store); err != nil {
					return err
				}
				return loadData(cmd, store)
			})
		},
	}
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Drop and recreate the songs and playlists tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, false, func(store *playlist.Store) error {
				return createSchema(cmd, store)
			})
		},
	}
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the sample songs and playlists into existing tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, false, func(store *playlist.Store) error {
				return loadData(cmd, store)
			})
		},
	}
}

// withStore runs fn with a store on a fresh session and always closes the
// session.
func (a *app) withStore(cmd *cobra.Command, showHosts bool, fn func(*playlist.Store) error) error {
	session, log, err := a.connect(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer session.Close()

	if showHosts {
		printHosts(cmd.OutOrStdout(), session)
	}

	store, err := playlist.NewStore(session)
	if err != nil {
		return err
	}
	if err := fn(store); err != nil {
		log.Error().Err(err).Str("keyspace", store.Keyspace()).Msg("command failed")
		return err
	}
	return nil
}

func createSchema(cmd *cobra.Command, store *playlist.Store) error {
	if err := store.CreateSchema(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema created in %s keyspace\n", store.Keyspace())
	return nil
}

func loadData(cmd *cobra.Command, store *playlist.Store) error {
	if err := store.LoadData(cmd.Context(), playlist.SampleSongs(), playlist.SamplePlaylist()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "data loaded into %s schema\n", store.Keyspace())
	return nil
}
