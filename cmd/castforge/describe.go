package main

import (
	"fmt"

	"github.com/castforge-project/castforge/config"
	"github.com/castforge-project/castforge/release"
	"github.com/castforge-project/castforge/server"
	"github.com/go-faster/errors"
	"github.com/urfave/cli/v2"
)

// handleDescribe handles the describe sub-command.
func (ac *appContext) handleDescribe(cCtx *cli.Context) error {
	cfg, err := config.ParseWithDefaults(cCtx.String("config"))
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	req := &release.Request{
		Path: cCtx.Args().First(),
		Name: cCtx.String("name"),
	}
	if req.Path == "" && req.Name == "" {
		return errors.New("either a path argument or the name flag is required")
	}

	s, err := server.NewConfiguredServer(cfg, ac.logger)
	if err != nil {
		return errors.Wrap(err, "failed to configure describer")
	}

	result, err := s.Describer().Describe(cCtx.Context, req)
	if err != nil {
		return errors.Wrap(err, "failed to describe release")
	}

	fmt.Println(result.Description)
	if result.Tags != "" {
		fmt.Println()
		fmt.Println("Tags: " + result.Tags)
	}

	return nil
}
