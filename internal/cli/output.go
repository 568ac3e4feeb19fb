package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/jrsteele09/go-blog-admin/guard"
	apperrors "github.com/jrsteele09/go-blog-admin/internal/errors"
)

// Exit codes.
const (
	exitError       = 1
	exitUnreachable = 2
	exitNoSession   = 3
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// silentError has already been reported to the user.
type silentError struct {
	err error
}

func (e *silentError) Error() string { return e.err.Error() }
func (e *silentError) Unwrap() error { return e.err }

func (a *App) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}

func (a *App) printTable(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	styled := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
	}
	fmt.Fprintln(tw, strings.Join(styled, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// printFields writes label/value pairs aligned on the label.
func (a *App) printFields(fields [][2]string) error {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s\t%s\n", headerStyle.Render(f[0]+":"), f[1])
	}
	return tw.Flush()
}

func (a *App) successf(format string, args ...any) {
	fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf(format, args...)))
}

func (a *App) warnf(format string, args ...any) {
	fmt.Fprintln(a.errOut, warnStyle.Render(fmt.Sprintf(format, args...)))
}

func (a *App) mutedf(format string, args ...any) {
	fmt.Fprintln(a.out, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// reportError prints err in the form a user can act on.
func (a *App) reportError(err error) {
	var (
		silent   *silentError
		redirect *guard.ErrRedirect
		expired  *apperrors.SessionExpiredError
		authErr  *apperrors.AuthenticationError
		netErr   *apperrors.NetworkError
		apiErr   *apperrors.APIError
	)
	switch {
	case apperrors.As(err, &silent):
		return
	case apperrors.As(err, &redirect):
		if redirect.Reason.Forced() && a.expiryNoticeShown() {
			return
		}
		a.warnf("%s", redirect.Error())
	case apperrors.As(err, &expired):
		if a.expiryNoticeShown() {
			return
		}
		a.warnf("%s", sessionExpiredNotice)
	case apperrors.As(err, &authErr):
		a.errorf("%s", authErr.UserMessage())
	case apperrors.Is(err, apperrors.ErrValidation):
		a.errorf("Invalid input: %v", err)
	case apperrors.As(err, &netErr):
		a.errorf("Cannot reach the admin API at %s: %v", netErr.URL, netErr.Err)
	case apperrors.As(err, &apiErr):
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", apiErr.Status)
		}
		a.errorf("%s", msg)
	case apperrors.Is(err, context.Canceled):
		a.errorf("Canceled.")
	default:
		a.errorf("Error: %v", err)
	}
}

func (a *App) errorf(format string, args ...any) {
	fmt.Fprintln(a.errOut, errorStyle.Render(fmt.Sprintf(format, args...)))
}

func exitCode(err error) int {
	var (
		redirect *guard.ErrRedirect
		expired  *apperrors.SessionExpiredError
	)
	switch {
	case apperrors.Is(err, apperrors.ErrNetwork):
		return exitUnreachable
	case apperrors.As(err, &redirect), apperrors.As(err, &expired):
		return exitNoSession
	default:
		return exitError
	}
}
