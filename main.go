package main

import "github.com/lantianz/lantz-tmail/cmd"

// values provided by the build chain
var (
	version = "0.1.0-dev"
	commit  = ""
	date    = ""
	builtBy = ""
)

func main() {
	cmd.Execute(version, commit, date, builtBy)
}
