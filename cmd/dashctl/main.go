// Command dashctl replays a scripted sequence of dashboard events against a
// ticket export and prints the resulting selection and views.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, time.Now(), sigCh))
}
