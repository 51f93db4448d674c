package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/parley/app/context"
	"go.hackfix.me/parley/client"
	"go.hackfix.me/parley/codec"
	"go.hackfix.me/parley/header"
)

// Call sends a single HTTP request.
type Call struct {
	Method string `arg:"" help:"HTTP method: GET, POST, PUT, DELETE, PATCH, HEAD or OPTIONS."`
	URL    string `arg:"" help:"Absolute http or https URL."`

	Header      []string `short:"H" help:"Request header in 'Key: value' format. Can be repeated."`
	Data        string   `short:"d" help:"Request body. Use @path to read it from a file."`
	ContentType string   `help:"Content type of the request body. Default: application/json"`
	//nolint:lll // Long struct tags are unavoidable.
	ConnectTimeout time.Duration `type:"timeout" help:"Connection timeout, as milliseconds or a duration (e.g. 500, 2s). Default: 15s"`
	ReadTimeout    time.Duration `type:"timeout" help:"Read timeout, as milliseconds or a duration. Default: 15s"`
	Policy         string        `help:"How response bodies without a declared type are decoded: permissive or typed. Default: permissive"`
	Include        bool          `short:"i" help:"Print the response status line and headers."`
	Unwrap         bool          `help:"Fail with a classified error if the response status is 400 or higher."`
}

// Run the call command.
func (c *Call) Run(appCtx *actx.Context) error {
	policy, err := client.ParseDecodePolicy(c.Policy)
	if err != nil {
		return err
	}

	cl, err := client.New(
		client.WithRegistry(appCtx.Registry),
		client.WithConnectTimeout(c.ConnectTimeout),
		client.WithReadTimeout(c.ReadTimeout),
		client.WithDecodePolicy(policy),
		client.WithLogger(appCtx.Logger),
	)
	if err != nil {
		return err
	}

	req := client.NewRequest(c.Method, c.URL)
	for _, h := range c.Header {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("invalid header %q: expected 'Key: value'", h)
		}
		req = req.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	if c.Data != "" {
		body, ct, err := c.body(appCtx)
		if err != nil {
			return err
		}
		req = req.WithHeader(header.ContentType, ct).WithBody(body)
	}

	resp, err := cl.Execute(appCtx.Ctx, req)
	if err != nil {
		return err
	}

	if c.Include {
		fmt.Fprintf(appCtx.Stdout, "%d\n", resp.StatusCode)
		for _, p := range resp.Header.Pairs() {
			fmt.Fprintf(appCtx.Stdout, "%s: %s\n", p.Key, p.Value)
		}
		fmt.Fprintln(appCtx.Stdout)
	}

	if err = printBody(appCtx.Stdout, resp.Body); err != nil {
		return err
	}

	if c.Unwrap {
		if _, err = client.Unwrap[any](cl, resp); err != nil {
			return err //nolint:wrapcheck // Already descriptive.
		}
	}

	return nil
}

// body decodes the request data in its content type, so that the client
// encodes it again instead of sending it as an opaque string.
func (c *Call) body(appCtx *actx.Context) (any, string, error) {
	data := c.Data
	if path, ok := strings.CutPrefix(data, "@"); ok {
		b, err := vfs.ReadFile(appCtx.FS, path)
		if err != nil {
			return nil, "", fmt.Errorf("failed reading request body file: %w", err)
		}
		data = string(b)
	}

	ct := c.ContentType
	if ct == "" {
		ct = codec.ApplicationJSON
	}

	var body any
	if err := appCtx.Registry.DecodeString(ct, data, &body); err != nil {
		return nil, "", fmt.Errorf("invalid request body for content type %s: %w", ct, err)
	}

	return body, ct, nil
}

func printBody(w io.Writer, body any) error {
	switch v := body.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, v)
		return err //nolint:wrapcheck // This is fine.
	}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Errorf("failed formatting response body: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))

	return err //nolint:wrapcheck // This is fine.
}
