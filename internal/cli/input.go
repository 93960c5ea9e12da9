package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olebedev/when"
	whencommon "github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"golang.org/x/term"

	"github.com/dmitrijs2005/zyntracker/internal/common"
	"github.com/dmitrijs2005/zyntracker/internal/models"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var whenParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(whencommon.All...)
	return w
}()

// ParseWhen turns user input into a canonical timestamp. It accepts the
// formats the store accepts and English phrases such as "yesterday 9pm" or
// "2 hours ago", relative to now. Empty input means now.
func ParseWhen(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "now") {
		return models.FormatTimestamp(now), nil
	}
	if ts, err := models.NormalizeTimestamp(s); err == nil {
		return ts, nil
	}

	r, err := whenParser.Parse(s, now)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidTimestamp, err)
	}
	if r == nil {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidTimestamp, s)
	}
	return models.FormatTimestamp(r.Time), nil
}

// GetToken reads an access token from the terminal without echo.
func GetToken(w io.Writer, remoteName string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s token: ", remoteName); err != nil {
		return "", err
	}
	tok, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(tok)), nil
}
