// Package navigator implements the remote directory browser: it lists the
// current remote folder, shows it as a numbered menu, and applies the user's
// choice by moving to another folder or downloading a file.
//
// A browse session is a small state machine. It starts in Listing(""), moves
// between Listing states on Descend and GoUp, and ends (Terminated) on Quit,
// on a listing failure, or after one download, whether it succeeded or not.
// There is no resume from Terminated.
package navigator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path"

	"obex-browser/internal/errs"
	"obex-browser/internal/listing"
	"obex-browser/internal/storage"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Browser is the part of an OBEX session the navigator needs. The session is
// owned by the caller.
type Browser interface {
	ListDirectory(ctx context.Context, path string) ([]byte, error)
	GetFile(ctx context.Context, path string) ([]byte, error)
}

// RefreshListing fetches and parses the listing of p. Entries that could not
// be parsed are returned in Result.Rejected and never in Result.Entries.
func RefreshListing(ctx context.Context, b Browser, p string) (listing.Result, error) {
	op := "list /" + p
	payload, err := b.ListDirectory(ctx, p)
	if err != nil {
		return listing.Result{}, errs.E(errs.KindListing, op, err)
	}
	res, err := listing.Parse(payload)
	if err != nil {
		return listing.Result{}, errs.E(errs.KindListing, op, err)
	}
	return res, nil
}

// Download fetches remotePath and stores it in sink under its base name.
// It returns the local path written.
func Download(ctx context.Context, b Browser, sink storage.Sink, remotePath string) (string, error) {
	op := "get /" + remotePath
	name := path.Base(remotePath)
	data, err := b.GetFile(ctx, remotePath)
	if err != nil {
		return "", errs.E(errs.KindDownload, op, err)
	}
	saved, err := sink.WriteFile(name, data)
	if err != nil {
		return "", errs.E(errs.KindDownload, op, err)
	}
	return saved, nil
}

// Outcome says how a successful Run ended.
type Outcome int

const (
	Quitted Outcome = iota
	Downloaded
)

// Result describes a browse session that ended without error.
type Result struct {
	Outcome    Outcome
	RemotePath string
	SavedPath  string
}

// Config holds a Navigator's collaborators. Stdin and Stdout carry the
// interactive menu; Logger receives diagnostics only.
type Config struct {
	Browser Browser
	Sink    storage.Sink
	Stdin   io.Reader
	Stdout  io.Writer
	Logger  *zap.Logger
}

func (c Config) Validate() error {
	if c.Browser == nil {
		return errors.New("missing browser")
	}
	if c.Sink == nil {
		return errors.New("missing storage sink")
	}
	if c.Stdin == nil {
		return errors.New("missing stdin")
	}
	if c.Stdout == nil {
		return errors.New("missing stdout")
	}
	return nil
}

// Navigator drives one browse session.
type Navigator struct {
	cfg   Config
	in    *bufio.Scanner
	log   *zap.Logger
	state State
}

func New(cfg Config) (*Navigator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Navigator{
		cfg: cfg,
		in:  bufio.NewScanner(cfg.Stdin),
		log: log.Named("navigator"),
	}, nil
}

// State returns the current position.
func (n *Navigator) State() State { return n.state }

// Run loops until the session terminates. A listing or download failure ends
// the session with a *errs.Error; quitting and end of input end it with
// Outcome Quitted.
func (n *Navigator) Run(ctx context.Context) (Result, error) {
	out := n.cfg.Stdout
	for {
		cwd := n.state.Path
		res, err := RefreshListing(ctx, n.cfg.Browser, cwd)
		if err != nil {
			n.log.Debug("listing failed", zap.String("path", cwd), zap.Error(err))
			return Result{}, err
		}
		for _, r := range res.Rejected {
			n.log.Warn("skipping unusable listing entry",
				zap.String("path", cwd),
				zap.String("tag", r.Tag),
				zap.String("name", r.Name),
				zap.String("reason", r.Reason))
		}

		fmt.Fprintf(out, "\n=== Listing: /%s ===\n", cwd)
		fmt.Fprint(out, Render(res.Entries))

		action, err := n.prompt(res.Entries)
		if err != nil {
			return Result{}, err
		}
		n.log.Debug("choice", zap.Stringer("action", action.Kind), zap.String("target", action.Path))

		switch action.Kind {
		case Quit:
			return Result{Outcome: Quitted}, nil
		case GoUp, Descend:
			n.state = n.state.Apply(action)
		case DownloadFile:
			fmt.Fprintf(out, "[+] Downloading '/%s' ...\n", action.Path)
			saved, err := Download(ctx, n.cfg.Browser, n.cfg.Sink, action.Path)
			if err != nil {
				return Result{}, err
			}
			n.log.Info("download saved", zap.String("remote", action.Path), zap.String("local", saved))
			return Result{Outcome: Downloaded, RemotePath: action.Path, SavedPath: saved}, nil
		}
	}
}

// prompt reads lines until one maps to a valid action. End of input is a
// Quit.
func (n *Navigator) prompt(entries []listing.Entry) (Action, error) {
	out := n.cfg.Stdout
	for {
		fmt.Fprint(out, "Your choice: ")
		if !n.in.Scan() {
			if err := n.in.Err(); err != nil {
				return Action{}, errors.Wrap(err, "navigator: read input")
			}
			fmt.Fprintln(out)
			return Action{Kind: Quit}, nil
		}
		action := n.state.ApplyChoice(entries, n.in.Text())
		if action.Kind != Invalid {
			return action, nil
		}
		fmt.Fprintf(out, "Invalid choice: %s\n", action.Reason)
	}
}
