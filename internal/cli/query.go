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

	"github.com/gocql/gocql"
	"github.com/spf13/cobra"

	"github.com/mendonk/gcx/playlist"
)

func newHostsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hosts",
		Short: "Print the hosts discovered when connecting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, log, err := a.connect(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			defer session.Close()

			printHosts(cmd.OutOrStdout(), session)
			return nil
		},
	}
}

func newSongCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "song <id>",
		Short: "Print a song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("song", args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd, false, func(store *playlist.Store) error {
				song, err := store.Song(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), song)
				return nil
			})
		},
	}
}

func newPlaylistCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "playlist <id>",
		Short: "Print the entries of a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("playlist", args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd, false, func(store *playlist.Store) error {
				entries, err := store.Playlist(cmd.Context(), id)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Fprintln(cmd.OutOrStdout(), e)
				}
				return nil
			})
		},
	}
}

func parseID(kind, s string) (gocql.UUID, error) {
	id, err := gocql.ParseUUID(s)
	if err != nil {
		return gocql.UUID{}, fmt.Errorf("invalid %s id %q: %w", kind, s, err)
	}
	return id, nil
}
