// Command plug-login logs in to plug.dj and prints the session cookie.
package main

import (
	"os"

	"github.com/joho/godotenv"

	pluglogin "github.com/miniplug/plug-login"
)

func main() {
	_ = godotenv.Load()

	if err := App().Run(os.Args); err != nil {
		PrintError("%v", err)
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes failures callers may script around.
func exitCode(err error) int {
	switch pluglogin.KindOf(err) {
	case pluglogin.KindLogin:
		return 2
	case pluglogin.KindMaintenance:
		return 3
	default:
		return 1
	}
}
