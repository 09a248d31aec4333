package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
)

// binary is a command of the module, released as part of an archive.
type binary struct {
	name    string
	version string // Package variable, the tag name is linked into.
}

var binaries = []binary{
	{name: "bey", version: "main.version"},
	{name: "bey-memd", version: "github.com/hotelbey/bey/daemon.version"},
	{name: "bey-servicesd", version: "github.com/hotelbey/bey/daemon.version"},
	{name: "bey-worker", version: "github.com/hotelbey/bey/daemon.version"},
}

var platforms = []string{"linux/amd64", "linux/arm64", "windows/amd64"}

func main() {
	log.SetFlags(0)

	flags := flag.NewFlagSet("build", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	var tagName string
	flags.StringVar(&tagName, "tag-name", "", "name of the tag to build")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if tagName == "" {
		log.Fatal("please provide a tag name")
	}

	if err := os.RemoveAll("./build"); err != nil {
		log.Fatalf("failed to delete build directory: %v", err)
	}
	if err := os.MkdirAll("./build", 0700); err != nil {
		log.Fatalf("failed to create build directory: %v", err)
	}

	for _, platform := range platforms {
		goos, goarch, _ := strings.Cut(platform, "/")
		archive := fmt.Sprintf("bey-%s-%s-%s.tar.gz", tagName, goos, goarch)

		env := append(os.Environ(), "CGO_ENABLED=0", "GOOS="+goos, "GOARCH="+goarch)

		files := make([]string, len(binaries))
		for i, b := range binaries {
			files[i] = b.name
			if goos == "windows" {
				files[i] += ".exe"
			}

			run(platform, env, "", "go", "build", "-trimpath",
				"-ldflags", fmt.Sprintf("-s -w -X %s=%s", b.version, tagName),
				"-o", "./"+files[i],
				"./cmd/"+b.name,
			)
		}

		run(platform, nil, "", "tar", append([]string{"cfz", "./build/" + archive}, files...)...)

		checksum := run(platform, nil, "./build", "sha256sum", archive)
		if err := os.WriteFile("./build/"+strings.TrimSuffix(archive, ".tar.gz")+".sha256", checksum, 0600); err != nil {
			log.Fatalf("failed to write checksum file: %v", err)
		}

		for _, file := range files {
			os.Remove(file)
		}
	}
}

// run executes a command and returns its output. The build is aborted, if the command fails.
func run(platform string, env []string, dir string, name string, args ...string) []byte {
	cmd := exec.Command(name, args...)
	cmd.Env = env
	cmd.Dir = dir

	log.Printf("%s: %s", platform, strings.Join(cmd.Args, " "))

	out, err := cmd.Output()
	if err != nil {
		log.Fatalf("%s: failed to run %s: %v", platform, name, err)
	}
	return out
}
