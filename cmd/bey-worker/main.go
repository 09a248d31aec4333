/*
bey-worker is a daemon, running the hotel task handlers as external task worker of a Camunda engine.

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

	code := daemon.RunWorker(os.Args[1:])
	os.Exit(code)
}
