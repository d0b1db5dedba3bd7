package cli

import (
	"context"
	"fmt"

	"obex-browser/internal/errs"
	"obex-browser/internal/navigator"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Browse connects session, runs the navigator over it and disconnects on
// every path out, including a panic inside the navigator. Disconnect failures
// are logged and do not change the result.
func (s Service) Browse(ctx context.Context, session Session) (result navigator.Result, err error) {
	fmt.Fprintln(s.Stdout, "[+] Connecting OBEX FTP ...")
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("unexpected failure while browsing: %v", r)
		}
		s.disconnect(session)
	}()

	if err := session.Connect(ctx); err != nil {
		return navigator.Result{}, errs.E(errs.KindConnect, "connect", err)
	}
	fmt.Fprintln(s.Stdout, "[+] OBEX FTP connected")

	nav, err := navigator.New(navigator.Config{
		Browser: session,
		Sink:    s.Sink,
		Stdin:   s.stdin,
		Stdout:  s.Stdout,
		Logger:  s.log,
	})
	if err != nil {
		return navigator.Result{}, err
	}

	result, err = nav.Run(ctx)
	if err != nil {
		return result, err
	}

	if result.Outcome == navigator.Downloaded {
		fmt.Fprintf(s.Stdout, "[✓] Saved to %s\n", result.SavedPath)
	}
	return result, nil
}

func (s Service) disconnect(session Session) {
	if err := session.Disconnect(); err != nil {
		s.log.Warn("disconnect failed", zap.Error(err))
		return
	}
	fmt.Fprintln(s.Stdout, "[+] OBEX disconnected")
}
