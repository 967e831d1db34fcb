package version

import (
	"fmt"
)

// Version is the application version. Can be overridden at build time via:
//
//	go build -ldflags "-X hwidlock.io/actserver/internal/version.Version=1.2.3"
var Version = "1.0"

// RepoURL is the project repository URL. Can be overridden at build time via:
//
//	go build -ldflags "-X hwidlock.io/actserver/internal/version.RepoURL=https://github.com/yourfork/actserver"
var RepoURL = "https://github.com/hwidlock/actserver"

// Banner prints identifying information about the server.
func Banner() string {
	return fmt.Sprintf("%s\nActserver (v%s)\n%s\n", product(), Version, RepoURL)
}

func product() string {
	// http://patorjk.com/software/taag/#p=display&f=Standard&t=Actserver

	const s = `
     _        _
    / \   ___| |_ ___  ___ _ ____   _____ _ __
   / _ \ / __| __/ __|/ _ \ '__\ \ / / _ \ '__|
  / ___ \ (__| |_\__ \  __/ |   \ V /  __/ |
 /_/   \_\___|\__|___/\___|_|    \_/ \___|_|
`
	return s
}
