package main

import (
	"fmt"
	"time"

	"github.com/Sanaki/go-threading/core"
	"github.com/urfave/cli/v2"
)

func pingpongCommand() *cli.Command {
	return &cli.Command{
		Name:    "pingpong",
		Aliases: []string{"pp"},
		Usage:   "Bounce two threads off a semaphore pair and report the rate",

		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "rounds",
				Aliases: []string{"n"},
				Value:   100000,
				Usage:   "Number of ping-pong rounds",
			},
		},

		Action: pingpongAction,
	}
}

func pingpongAction(c *cli.Context) error {
	rounds := c.Int("rounds")
	if rounds <= 0 {
		return cli.Exit("rounds must be positive", 1)
	}

	rt := core.NewRuntime(&core.RuntimeConfig{Logger: core.NewNoOpLogger()})
	defer rt.Shutdown()

	ping, err := core.NewSemaphore(1, 1)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	pong, err := core.NewSemaphore(0, 1)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	bounce := func(in, out *core.Semaphore) core.EntryFunc {
		return func(th *core.Thread) int {
			for i := 0; i < rounds; i++ {
				if err := in.Wait(); err != nil {
					return core.ExitCodeCancelled
				}
				if err := out.Post(); err != nil {
					return core.ExitCodeCancelled
				}
			}
			return 0
		}
	}

	a := core.NewThread(rt, core.ThreadJoinable, bounce(ping, pong))
	a.SetName("ping")
	b := core.NewThread(rt, core.ThreadJoinable, bounce(pong, ping))
	b.SetName("pong")

	start := time.Now()
	if err := a.Run(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := b.Run(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	for _, th := range []*core.Thread{a, b} {
		if code, err := th.Wait(); err != nil || code != 0 {
			return cli.Exit(fmt.Sprintf("%s finished dirty: code=%d err=%v", th.Name(), code, err), 1)
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("✓ %d rounds in %v (%.0f rounds/s)\n",
		rounds, elapsed.Round(time.Millisecond),
		float64(rounds)/elapsed.Seconds())
	return nil
}
