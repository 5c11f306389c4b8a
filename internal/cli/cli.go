// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdSessions
	CmdSearch
	CmdUpload
	CmdLibrary
	CmdServe
	CmdConfig
	CmdStatus
	CmdVersion
	CmdHelp
	CmdUnknown
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose   bool
	Quiet     bool
	JSON      bool
	ServerURL string

	// Command-specific
	Query      string
	File       string
	Document   string
	Session    string
	NoAI       bool
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `tutor - terminal client for the AI Personal Tutor

Ask questions, upload PDF study material and keep every conversation as a
saved chat you can search and resume.

Usage:
  tutor                           Start the TUI (default)
  tutor ask "question"            Ask one question
  tutor chat                      Interactive line chat
  tutor sessions [subcommand]     Manage saved chats
  tutor search <query>            Search saved chats
  tutor upload <file.pdf>         Upload a document
  tutor library [subcommand]      Manage uploaded documents
  tutor serve                     Run the local development backend
  tutor config [subcommand]       Configuration
  tutor status                    Check the backend and show local counts
  tutor version                   Show version
  tutor help                      Show this help

Ask:
  tutor ask "What is a derivative?"
  tutor ask --file notes.pdf "Summarize chapter 2"
    -f, --file PATH               Upload PATH and attach it first
    -d, --doc NAME                Attach an already uploaded document
    -s, --session ID              Continue a saved chat
    --no-ai                       Ask for document results only

Sessions:
  tutor sessions list             List saved chats (newest first)
  tutor sessions show <id>        Print a chat transcript
  tutor sessions open <id>        Make a chat the active one
  tutor sessions new              Start a new empty chat
  tutor sessions export <id> [--format md|html|json] [--out DIR]
                                  Save a chat as a file
  tutor sessions delete <id>      Delete a chat
  tutor sessions delete-all --confirm
                                  Delete every chat

Library:
  tutor library list              List uploaded documents
  tutor library delete <id|name>  Forget an uploaded document
  tutor library summarize <name>  Ask for a structured summary

Serve:
  tutor serve [--addr HOST:PORT] [--no-watch]
                                  Answer /api/chat and /api/upload locally;
                                  PDFs copied into the upload directory are
                                  indexed as they appear

Config:
  tutor config show               Print the effective configuration
  tutor config path               Print the config file location
  tutor config init [--force]     Write the default config file
  tutor config get <key>          Print one value (e.g. server.url)
  tutor config set <key> <value>  Change one value

Global flags:
  -v, --verbose                   Also log to stderr
  -q, --quiet                     Suppress notifications
  --json                          Machine-readable output
  --server URL                    Override the backend URL

Environment:
  TUTOR_SERVER_URL, TUTOR_DATA_DIR, TUTOR_STORAGE_BACKEND, TUTOR_USE_AI,
  TUTOR_LOG_LEVEL (a .env file in the working directory is also read)
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "tutor %s\n", Version)
	fmt.Fprintf(w, "  commit:  %s\n", GitCommit)
	fmt.Fprintf(w, "  built:   %s\n", BuildDate)
	fmt.Fprintf(w, "  go:      %s\n", runtime.Version())
}

// VersionData is the JSON form of PrintVersion.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses command line arguments (without the program name).
func Parse(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask", "a":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat", "c":
		parsedArgs.Raw = remaining
		return CmdChat, parsedArgs

	case "sessions", "session":
		parsedArgs.Raw = remaining
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdSessions, parsedArgs

	case "search":
		parsedArgs.Query = strings.Join(remaining, " ")
		return CmdSearch, parsedArgs

	case "upload", "u":
		if len(remaining) > 0 {
			parsedArgs.File = strings.Join(remaining, " ")
		}
		return CmdUpload, parsedArgs

	case "library", "lib", "docs":
		parsedArgs.Raw = remaining
		if len(remaining) > 0 {
			parsedArgs.Subcommand = remaining[0]
		}
		return CmdLibrary, parsedArgs

	case "serve":
		parsedArgs.Raw = remaining
		return CmdServe, parsedArgs

	case "config", "cfg":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "status", "s", "info":
		return CmdStatus, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		parsedArgs.Raw = append([]string{cmd}, remaining...)
		return CmdUnknown, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--json":
			parsedArgs.JSON = true
		case "--server":
			if i+1 < len(args) {
				i++
				parsedArgs.ServerURL = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--server=") {
				parsedArgs.ServerURL = strings.TrimPrefix(arg, "--server=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		case "-d", "--doc":
			if i+1 < len(remaining) {
				i++
				args.Document = remaining[i]
			}
		case "-s", "--session":
			if i+1 < len(remaining) {
				i++
				args.Session = remaining[i]
			}
		case "--no-ai":
			args.NoAI = true
		default:
			switch {
			case strings.HasPrefix(arg, "--file="):
				args.File = strings.TrimPrefix(arg, "--file=")
			case strings.HasPrefix(arg, "--doc="):
				args.Document = strings.TrimPrefix(arg, "--doc=")
			case strings.HasPrefix(arg, "--session="):
				args.Session = strings.TrimPrefix(arg, "--session=")
			default:
				query = append(query, arg)
			}
		}
	}

	args.Query = strings.Join(query, " ")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	args.Raw = remaining
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = strings.Join(remaining[2:], " ")
		}
	}
}
