package cmd

import "github.com/lantianz/lantz-tmail/cfg"

type GlobalFlags struct {
	configFile string
	quiet      bool
	verbose    bool
	account    string
}

var (
	global GlobalFlags
	config *cfg.Config
)
