package share

import (
	"context"
	"net/url"
	"os/exec"
	"runtime"

	log "github.com/go-pkgz/lgr"
	"github.com/pkg/errors"
)

// Browser opens links with the platform's url handler
type Browser struct {
	Command string // overrides platform default
	run     func(ctx context.Context, name string, args ...string) error
}

// Open validates link and passes it to the url handler
func (b *Browser) Open(ctx context.Context, link string) error {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.Errorf("refuse to open %q", link)
	}

	name, args := b.command()
	args = append(args, u.String())
	log.Printf("[DEBUG] open %s with %s", u.String(), name)

	run := b.run
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Start()
		}
	}
	return errors.Wrapf(run(ctx, name, args...), "can't run %s", name)
}

func (b *Browser) command() (string, []string) {
	if b.Command != "" {
		return b.Command, nil
	}
	switch runtime.GOOS {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}
