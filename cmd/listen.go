package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/steamlink/internal/server"
)

// Listen starts a bare callback listener and prints the first query it captures as JSON.
func (r *Runner) Listen(ctx context.Context, cmd *cli.Command) (err error) {
	if err := r.setup(cmd); err != nil {
		return err
	}

	sink := server.NewChanSink(r.logger)
	manager := r.newManager(sink)

	port, err := manager.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}
	defer func() {
		if stopErr := r.stopListener(manager); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
	}()

	r.logger.Info("listening for callback", "url", fmt.Sprintf("http://%s:%d/", server.DefaultHost, port))

	query, err := r.awaitCapture(ctx, sink.Results())
	if err != nil {
		return err
	}
	return r.writeJSON(query, cmd.Bool("pretty"))
}
