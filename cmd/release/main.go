// Command release cuts semantic releases of npm packages hosted on GitHub.
//
// A run tags the next version, commits the changelog and package manifest on
// a temporary branch opened as a pull request, creates the GitHub release,
// comments on mentioned issues and publishes the package. When any step
// fails, every completed step is undone.
package main

import (
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}
