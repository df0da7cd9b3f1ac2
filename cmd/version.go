package cmd

// Version is set at build time:
//
//	go build -ldflags "-X github.com/xkilldash9x/scalpel-e2e/cmd.Version=1.2.0"
var Version = "dev"
