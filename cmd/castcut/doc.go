// Package main hosts the castcut CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into pipeline runs
// (multicam, short, cut, enhance), dry runs that print the camera plan or the
// loudness profiles, run history queries, configuration scaffolding, an
// environment check, a log viewer and a notification test. It centralizes
// configuration resolution and structured logging setup so subcommands can
// focus on flags and output.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
