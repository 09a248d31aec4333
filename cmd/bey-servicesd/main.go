/*
bey-servicesd is a daemon, serving the hotel backend services (rooms, clients, booking, payment,
accounting and restaurant) via HTTP.

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

	code := daemon.RunServices(os.Args[1:])
	os.Exit(code)
}
