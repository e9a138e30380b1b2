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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mendonk/gcx"
	"github.com/mendonk/gcx/internal/config"
	"github.com/mendonk/gcx/internal/logger"
)

const version = "0.1.0"

// app is the state shared by the commands of one command tree.
type app struct {
	cfgFile string
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "gcx",
		Short: "gcx - bound statement sample for CQL clusters",
		Long: `gcx connects to a CQL cluster through a connection bundle or a list of
contact points, creates the songs and playlists tables and loads them with
prepared, bound statements.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./gcx.yaml or $HOME/.gcx/gcx.yaml)")
	flags.String("bundle", "", "connection bundle, a YAML file or a zip archive")
	flags.StringSlice("hosts", nil, "contact points used without a bundle")
	flags.Int("port", 0, "port of the contact points")
	flags.String("client-id", "", "client id")
	flags.String("client-secret", "", "client secret")
	flags.String("keyspace", "demo", "keyspace holding the tables")
	flags.String("consistency", "", "default consistency, e.g. LOCAL_QUORUM")
	flags.String("compression", "", "frame compression (none, snappy, lz4)")
	flags.String("host-selection", "", "host selection policy (round-robin, token-aware, dc-aware, hostpool)")
	flags.String("local-dc", "", "local datacenter of dc-aware and token-aware selection")
	flags.Duration("connect-timeout", 0, "timeout of a single connection attempt")
	flags.Duration("timeout", 0, "timeout of a single request")
	flags.Duration("schema-timeout", 0, "timeout of a single schema statement")
	flags.Bool("disable-initial-host-lookup", false, "connect to the contact points only")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("log-backend", "zerolog", "logger used by the session and the driver (zerolog, zap)")

	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	cmd.AddCommand(
		newRunCmd(a),
		newSchemaCmd(a),
		newLoadCmd(a),
		newHostsCmd(a),
		newSongCmd(a),
		newPlaylistCmd(a),
	)
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}

// setup loads the configuration, letting the flags of cmd override it, and
// builds the logger.
func (a *app) setup(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	loader := config.NewLoader(a.cfgFile)
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return nil, nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Backend: cfg.Log.Backend,
		Out:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, err
	}
	if f := loader.ConfigFileUsed(); f != "" {
		log.Debug().Str("file", f).Msg("configuration loaded")
	}
	return cfg, log, nil
}

// connect opens a session. The caller closes the session and syncs the logger.
func (a *app) connect(cmd *cobra.Command) (*gcx.Session, *logger.Logger, error) {
	cfg, log, err := a.setup(cmd)
	if err != nil {
		return nil, nil, err
	}

	session, err := gcx.Connect(cmd.Context(), cfg.ConnectionConfig(log.Driver()))
	if err != nil {
		log.Error().Err(err).Msg("connect failed")
		_ = log.Sync()
		return nil, nil, err
	}
	log.Info().
		Str("keyspace", cfg.Keyspace).
		Int("hosts", len(session.Hosts())).
		Msg("connected")
	return session, log, nil
}

func printHosts(w io.Writer, session *gcx.Session) {
	for _, host := range session.Hosts() {
		fmt.Fprintf(w, "%s datacenter=%s rack=%s host_id=%s\n",
			host.ConnectAddressAndPort(), host.DataCenter(), host.Rack(), host.HostID())
	}
}
