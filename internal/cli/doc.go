// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the line-oriented tutor
// commands.
//
// Parse turns os.Args into a Command and Args. The handlers are methods on
// App, which wires the config, logger, storage, conversation controller and
// backend client together. Handlers write to App.Out and App.Err and return
// errors; ExitCode maps an error to the process exit status.
//
// Commands:
//
//	tutor                         Start the full-screen TUI (default)
//	tutor ask "question"          Ask one question and print the answer
//	tutor chat                    Line-oriented chat with input history
//	tutor sessions [subcommand]   List, show, open, delete or create chats
//	tutor search <query>          Search saved chats
//	tutor upload <file.pdf>       Upload a document to the backend
//	tutor library [subcommand]    List, delete or summarize uploaded documents
//	tutor serve                   Run the local development backend
//	tutor config [subcommand]     Show, locate, initialize, get or set config
//	tutor version                 Print version information
package cli
