package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	shellPrompt  = "blogadmin> "
	historyFile  = "shell_history"
	bannerFont   = "cybermedium"
	shellHelpMsg = "Type a command such as 'login', 'posts list' or 'whoami'. 'help' lists commands, 'exit' leaves."
)

// lineReader is the input side of the shell.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// defaultLineReader uses liner on a terminal and plain line reads otherwise, so the shell
// also works with piped input.
func defaultLineReader(a *App) (lineReader, error) {
	if !a.interactive() {
		return &scannerReader{scanner: bufio.NewScanner(a.in), out: a.out}, nil
	}
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	r := &linerReader{State: l, historyPath: filepath.Join(a.cfg.GetDataFolder(), historyFile)}
	if f, err := os.Open(r.historyPath); err == nil {
		if _, err := l.ReadHistory(f); err != nil {
			log.Debug().Err(err).Msg("could not read shell history")
		}
		f.Close()
	}
	return r, nil
}

type linerReader struct {
	*liner.State
	historyPath string
}

func (r *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.historyPath), 0o700); err == nil {
		if f, err := os.OpenFile(r.historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			if _, err := r.WriteHistory(f); err != nil {
				log.Debug().Err(err).Msg("could not write shell history")
			}
			f.Close()
		}
	}
	return r.State.Close()
}

type scannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *scannerReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scannerReader) AppendHistory(string) {}

func (r *scannerReader) Close() error { return nil }

func (a *App) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Long: `Start an interactive shell. A login without --remember stays valid until the
shell exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSetup(); err != nil {
				return err
			}
			return a.runShell(cmd)
		},
	}
}

func (a *App) runShell(cmd *cobra.Command) error {
	reader, err := a.newLineReader(a)
	if err != nil {
		return errors.Wrap(err, "[shell] open input")
	}
	defer reader.Close()

	a.inShell, a.shellJSON = true, a.jsonOutput
	defer func() { a.inShell, a.shellJSON = false, false }()

	if !a.jsonOutput {
		a.displayBanner()
		if s := a.manager.State(); s.IsAuthenticated && s.CurrentUser != nil {
			a.mutedf("Signed in as %s.", s.CurrentUser.DisplayName())
		}
		a.mutedf("%s", shellHelpMsg)
	}

	ctx := cmd.Context()
	for {
		line, err := reader.Prompt(shellPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(a.out)
				return nil
			}
			return errors.Wrap(err, "[shell] read input")
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		reader.AppendHistory(line)

		args, err := splitArgs(line)
		if err != nil {
			a.errorf("%v", err)
			continue
		}
		switch args[0] {
		case "exit", "quit":
			return nil
		case "shell":
			a.mutedf("Already in the shell.")
			continue
		}
		a.Run(ctx, args)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (a *App) displayBanner() {
	banner := figure.NewFigure(a.cfg.GetAppName(), bannerFont, true)
	fmt.Fprintln(a.out, banner.String())
}

// splitArgs splits a shell line on whitespace. Single and double quotes group words.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inWord  bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if inWord {
		args = append(args, current.String())
	}
	return args, nil
}
