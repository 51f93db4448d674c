package cli

import (
	"fmt"
	"strconv"

	actx "go.hackfix.me/parley/app/context"
	aerrors "go.hackfix.me/parley/app/errors"
	"go.hackfix.me/parley/route"
	"go.hackfix.me/parley/web/server"
)

// Routes lists the configured stub routes.
type Routes struct {
	Root string `help:"Root URI the routes are mounted under. Default: /"`
}

// Run the routes command.
func (c *Routes) Run(appCtx *actx.Context) error {
	stubs, err := resolveStubs(appCtx, c.Root)
	if err != nil {
		return err
	}

	data := make([][]string, 0, len(stubs))
	for _, s := range stubs {
		status := strconv.Itoa(s.StatusCode)
		if s.Body == nil {
			status += " (echo)"
		}
		data = append(data, []string{
			s.Route.Name, string(s.Route.Verb), s.Route.URI, s.Route.ContentType(), status,
		})
	}

	header := []string{"Name", "Verb", "URI", "Response Type", "Status"}
	if err = renderTable(header, data, appCtx.Stdout); err != nil {
		return fmt.Errorf("failed rendering routes table: %w", err)
	}

	return nil
}

// resolveStubs resolves the configured routes into stubs mounted under root.
func resolveStubs(appCtx *actx.Context, root string) ([]server.Stub, error) {
	tbl := route.NewTable(root, appCtx.Logger)

	stubs := make([]server.Stub, 0, len(appCtx.Config.Routes))
	for _, r := range appCtx.Config.Routes {
		verb, err := route.ParseVerb(r.Verb)
		if err != nil {
			return nil, aerrors.NewWithCause("failed resolving route", err, "name", r.Name)
		}

		d, err := tbl.Register(route.On(r.Name, verb, r.URI, r.ResponseType))
		if err != nil {
			return nil, aerrors.NewWithCause("failed resolving route", err, "name", r.Name)
		}

		status := r.Status
		if status == 0 {
			status = 200
		}
		stubs = append(stubs, server.Stub{Route: d, StatusCode: status, Body: r.Body})
	}

	return stubs, nil
}
