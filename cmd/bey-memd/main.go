/*
bey-memd is a daemon, running an in-memory engine that provides the external task REST API. It is
used to run workers locally, without a Camunda engine.

Usage:

	-env value
		set environment variables
	-env-file value
		read in a file of environment variables
	-list-conf
		list configuration
	-list-conf-opts
		list configuration options
	-version
		show version
*/
package main

import (
	"log"
	"os"

	"github.com/hotelbey/bey/daemon"
)

func main() {
	log.SetOutput(os.Stdout)

	code := daemon.RunMem(os.Args[1:])
	os.Exit(code)
}
