/*
bey is a CLI for interacting with the external task API of a Camunda engine or a bey mem engine.

Usage:

	bey [flags]
	bey [command]

Available Commands:

	completion  Generate the autocompletion script for the specified shell
	help        Help about any command
	process     Start processes
	task        Manage and query external tasks
	version     Show version

Flags:

	    --debug              Log HTTP requests and responses
	-h, --help               help for bey
	    --timeout duration   Time limit for requests made by the HTTP client (default 40s)
	    --url string         Engine REST API URL, e.g. http://localhost:8080/engine-rest
	    --worker-id string   Worker ID (default "bey")

Use "bey [command] --help" for more information about a command.
*/
package main

import (
	"os"

	"github.com/hotelbey/bey/cli"
)

var (
	version = "unknown-version"
)

func main() {
	cli := cli.New(version)
	os.Exit(cli.Execute())
}
