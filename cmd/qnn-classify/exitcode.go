package main

import "github.com/amikos-tech/pure-qnn/qnn"

// Process exit codes, one per failure kind. They exist only here; the qnn
// package reports kinds, never exit statuses.
const (
	exitOK             = 0
	exitUsage          = 1
	exitConfiguration  = 2
	exitLoad           = 3
	exitInitialization = 4
	exitGraph          = 5
	exitExecution      = 6
	exitOutput         = 7
	exitTeardown       = 8
)

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	kind, _, ok := qnn.KindOf(err)
	if !ok {
		return exitUsage
	}
	switch kind {
	case qnn.KindConfiguration:
		return exitConfiguration
	case qnn.KindLoad:
		return exitLoad
	case qnn.KindInitialization:
		return exitInitialization
	case qnn.KindGraph:
		return exitGraph
	case qnn.KindExecution:
		return exitExecution
	case qnn.KindOutput:
		return exitOutput
	case qnn.KindTeardown:
		return exitTeardown
	default:
		return exitUsage
	}
}
