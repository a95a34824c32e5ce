package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/easelhq/easel/event"
	"github.com/easelhq/easel/session"
)

// runHeadless drives the sketch from this goroutine: stdin lines feed
// the typed-input buffer, a ticker fires the frame clock and the
// transcript streams to stdout. Returns once the run retires or ctx is
// canceled.
func runHeadless(ctx context.Context, sess *session.Session, clock *event.HeldClock, interval time.Duration, logger *zap.Logger) error {
	sess.SetOutputListener(func(text string) {
		fmt.Print(text)
	})

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := sess.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	start := time.Now()

	for sess.Running() {
		select {
		case <-ctx.Done():
			logger.Info("interrupted, stopping run")
			return sess.Stop(context.Background())
		case line, ok := <-lines:
			if !ok {
				// Stdin closed; animated sketches keep going.
				lines = nil
				continue
			}
			sess.SubmitInput(line + "\n")
		case t := <-ticker.C:
			clock.Fire(float64(t.Sub(start).Milliseconds()))
		}
	}
	return nil
}
