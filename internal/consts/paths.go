package consts

import (
	"os"
	"path/filepath"
)

const (
	OmnigateDirName = ".omnigate"
	ConfigFileName  = "config.yaml"
	RulesFileName   = "rules.yaml"
	RunDirName      = "run"
)

func OmnigateHomeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, OmnigateDirName)
}

func DefaultConfigPath() string {
	return filepath.Join(OmnigateHomeDir(), ConfigFileName)
}

func DefaultRulesPath() string {
	return filepath.Join(OmnigateHomeDir(), RulesFileName)
}

// RunDir holds per-instance unix sockets for the command bridge.
func RunDir() string {
	return filepath.Join(OmnigateHomeDir(), RunDirName)
}
