package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const repository = "hotelbey/bey"

// contentTypes maps the suffixes of the build artifacts, see build.go.
var contentTypes = map[string]string{
	".tar.gz": "application/gzip",
	".sha256": "text/plain",
}

func main() {
	log.SetFlags(0)

	flags := flag.NewFlagSet("upload-release-assets", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	var (
		releaseId string
		dir       string
	)
	flags.StringVar(&releaseId, "release-id", "", "ID of the Github release")
	flags.StringVar(&dir, "dir", "./build", "directory, containing the archives and checksums")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if releaseId == "" {
		log.Fatal("please provide a release ID")
	}

	githubToken := os.Getenv("GITHUB_TOKEN")
	if githubToken == "" {
		log.Fatal("please set environment variable GITHUB_TOKEN")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("failed to read directory %s: %v", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()

		contentType := ""
		for suffix, value := range contentTypes {
			if strings.HasSuffix(name, suffix) {
				contentType = value
			}
		}
		if contentType == "" {
			log.Printf("skipping %s", name)
			continue
		}

		url := fmt.Sprintf("https://uploads.github.com/repos/%s/releases/%s/assets?name=%s", repository, releaseId, name)

		cmd := exec.Command("curl", "--fail-with-body", "-sSL",
			"-X", "POST",
			"-H", "Accept: application/vnd.github+json",
			"-H", "Authorization: Bearer "+githubToken,
			"-H", "Content-Type: "+contentType,
			url,
			"--data-binary", "@"+filepath.Join(dir, name),
		)

		log.Printf("uploading %s (%s)", name, contentType)

		if out, err := cmd.CombinedOutput(); err != nil {
			log.Fatalf("failed to upload %s: %v\n%s", name, err, out)
		}
	}
}
