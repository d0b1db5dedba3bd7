package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

var nonTTYTickInterval = 30 * time.Second

// Spin shows message while work is in progress and returns the function that
// stops it. Without a TTY it prints the message once and a dot per tick.
func Spin(message string, tty bool, out io.Writer) func() {
	if tty {
		indicator := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(out))
		indicator.Suffix = " " + message
		indicator.Start()
		return indicator.Stop
	}

	ticker := time.NewTicker(nonTTYTickInterval)
	done := make(chan struct{})
	fmt.Fprintln(out, message)
	go func() {
		for {
			select {
			case <-ticker.C:
				fmt.Fprintf(out, ".")
			case <-done:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}
