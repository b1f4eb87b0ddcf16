// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/spf13/pflag"
)

// bashCompletionTemplate is the bash completion script for kotadb.
const bashCompletionTemplate = `#!/bin/bash

# Bash completion script for KotaDB
# Installation:
#   source <(kotadb completion bash)
#   Or add to ~/.bashrc:
#   echo 'source <(kotadb completion bash)' >> ~/.bashrc

_kotadb_completion() {
    local cur prev commands
    commands="init index status query reset serve-metrics completion"

    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    if [[ ${cur} == -* ]] ; then
        COMPREPLY=( $(compgen -W "--version --config" -- ${cur}) )
        return 0
    fi

    if [ $COMP_CWORD -eq 1 ]; then
        COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
        return 0
    fi

    local cmd="${COMP_WORDS[1]}"
    case "${cmd}" in
        index)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--full --debug -q --no-color" -- ${cur}) )
            fi
            ;;
        status)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--json" -- ${cur}) )
            fi
            ;;
        query)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--terms --tags --limit --timeout --json" -- ${cur}) )
            fi
            ;;
        reset)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--yes" -- ${cur}) )
            fi
            ;;
        serve-metrics)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--addr" -- ${cur}) )
            fi
            ;;
        completion)
            if [ $COMP_CWORD -eq 2 ]; then
                COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            fi
            ;;
    esac
}

complete -F _kotadb_completion kotadb
`

// zshCompletionTemplate is the zsh completion script for kotadb.
const zshCompletionTemplate = `#compdef kotadb

# Zsh completion script for KotaDB
# Installation:
#   1. Ensure compinit is loaded (add to ~/.zshrc if not present):
#      autoload -U compinit; compinit
#   2. Save this script to a directory in your fpath:
#      kotadb completion zsh > "${fpath[1]}/_kotadb"
#   3. Reload completions:
#      rm -f ~/.zcompdump; compinit

_kotadb() {
    local -a commands
    commands=(
        'init:Create .kotadb/project.yaml configuration'
        'index:Index the current repository'
        'status:Show project status'
        'query:Execute a structured query'
        'reset:Reset local project data'
        'serve-metrics:Serve Prometheus metrics over HTTP'
        'completion:Generate shell completion script'
    )

    _arguments -C \
        '(- *)--version[Show version and exit]' \
        '--config[Path to .kotadb/project.yaml]:config file:_files -g "*.yaml"' \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                index)
                    _arguments \
                        '--full[Force full reindex]' \
                        '--debug[Enable debug logging]' \
                        '-q[Disable progress output]' \
                        '--no-color[Disable colored output]'
                    ;;
                status)
                    _arguments \
                        '--json[Output as JSON]'
                    ;;
                query)
                    _arguments \
                        '--terms[Comma-separated search terms]:terms:' \
                        '--tags[Comma-separated tags]:tags:' \
                        '--limit[Maximum number of results]:limit:' \
                        '--json[Output as JSON]'
                    ;;
                reset)
                    _arguments \
                        '--yes[Skip confirmation prompt]'
                    ;;
                serve-metrics)
                    _arguments \
                        '--addr[HTTP listen address]:address:'
                    ;;
                completion)
                    _arguments \
                        '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

_kotadb
`

// fishCompletionTemplate is the fish completion script for kotadb.
const fishCompletionTemplate = `# Fish completion script for KotaDB
# Installation:
#   1. Load completions for current session:
#      kotadb completion fish | source
#   2. Install permanently:
#      kotadb completion fish > ~/.config/fish/completions/kotadb.fish

complete -c kotadb -f -n "__fish_use_subcommand" -a "init" -d "Create .kotadb/project.yaml configuration"
complete -c kotadb -f -n "__fish_use_subcommand" -a "index" -d "Index the current repository"
complete -c kotadb -f -n "__fish_use_subcommand" -a "status" -d "Show project status"
complete -c kotadb -f -n "__fish_use_subcommand" -a "query" -d "Execute a structured query"
complete -c kotadb -f -n "__fish_use_subcommand" -a "reset" -d "Reset local project data (destructive!)"
complete -c kotadb -f -n "__fish_use_subcommand" -a "serve-metrics" -d "Serve Prometheus metrics over HTTP"
complete -c kotadb -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion script"

complete -c kotadb -l version -d "Show version and exit"
complete -c kotadb -l config -d "Path to .kotadb/project.yaml" -r

complete -c kotadb -n "__fish_seen_subcommand_from index" -l full -d "Force full reindex"
complete -c kotadb -n "__fish_seen_subcommand_from index" -l debug -d "Enable debug logging"
complete -c kotadb -n "__fish_seen_subcommand_from index" -s q -d "Disable progress output"
complete -c kotadb -n "__fish_seen_subcommand_from index" -l no-color -d "Disable colored output"

complete -c kotadb -n "__fish_seen_subcommand_from status" -l json -d "Output as JSON"

complete -c kotadb -n "__fish_seen_subcommand_from query" -l terms -d "Comma-separated search terms" -r
complete -c kotadb -n "__fish_seen_subcommand_from query" -l tags -d "Comma-separated tags" -r
complete -c kotadb -n "__fish_seen_subcommand_from query" -l limit -d "Maximum number of results" -r
complete -c kotadb -n "__fish_seen_subcommand_from query" -l json -d "Output as JSON"

complete -c kotadb -n "__fish_seen_subcommand_from reset" -l yes -d "Skip confirmation prompt"

complete -c kotadb -n "__fish_seen_subcommand_from serve-metrics" -l addr -d "HTTP listen address" -r

complete -c kotadb -n "__fish_seen_subcommand_from completion" -f -a "bash" -d "Generate bash completion script"
complete -c kotadb -n "__fish_seen_subcommand_from completion" -f -a "zsh" -d "Generate zsh completion script"
complete -c kotadb -n "__fish_seen_subcommand_from completion" -f -a "fish" -d "Generate fish completion script"
`

// runCompletion executes the 'completion' CLI command, generating
// shell-specific completion scripts for bash, zsh, or fish.
//
// Usage:
//
//	kotadb completion [bash|zsh|fish]
func runCompletion(args []string) {
	fs := pflag.NewFlagSet("completion", pflag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kotadb completion <shell>

Generate shell completion scripts for bash, zsh, or fish.

Arguments:
  shell    Shell type: bash, zsh, or fish (required)

Examples:
  kotadb completion bash
  source <(kotadb completion bash)
  kotadb completion zsh > "${fpath[1]}/_kotadb"
  kotadb completion fish | source
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		kerrors.FatalError(kerrors.New(kerrors.ValidationFailed,
			"the completion command requires exactly one argument: the shell name", "",
			"run 'kotadb completion bash', 'kotadb completion zsh', or 'kotadb completion fish'", nil), false)
	}

	shell := fs.Arg(0)
	switch shell {
	case "bash":
		fmt.Print(bashCompletionTemplate)
	case "zsh":
		fmt.Print(zshCompletionTemplate)
	case "fish":
		fmt.Print(fishCompletionTemplate)
	default:
		kerrors.FatalError(kerrors.New(kerrors.ValidationFailed,
			fmt.Sprintf("shell %q is not supported, valid options: bash, zsh, fish", shell), "",
			"run 'kotadb completion bash', 'kotadb completion zsh', or 'kotadb completion fish'", nil), false)
	}
}
