// Copyright 2026 Kyle Keefer
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kwkeefer/hiro/internal/commands/mcpserver"
	"github.com/kwkeefer/hiro/internal/commands/request"
	"github.com/kwkeefer/hiro/internal/commands/serve"
	versioncmd "github.com/kwkeefer/hiro/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:   "hiro",
		Short: "Target tracking dashboard and HTTP request tool",
		Long: `hiro tracks reconnaissance targets and HTTP request history, and exposes
an outbound HTTP request tool to MCP hosts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serve.NewCommand(version),
		mcpserver.NewCommand(version),
		request.NewCommand(),
		versioncmd.NewCommand(versioncmd.Info{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
