// Command deployer loads component networks from deployment documents and
// runs them until interrupted.
package main

import "deployer/cmd"

// version is set at build time:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
