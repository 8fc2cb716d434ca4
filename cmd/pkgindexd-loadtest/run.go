package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/huyhandes/pkgindexd/internal/brewdata"
)

// TestRun drives the adversarial load test: K concurrent clients, one per
// dataset segment, brute-forcing the index through a full
// remove/index/verify/remove/verify cycle while occasionally injecting
// broken requests.
type TestRun struct {
	Addr        string
	Concurrency int
	Unluckiness int // percent chance of sending a broken message before an operation
	Packages    []*brewdata.Package
}

// Execute runs the five steps against a live server and returns the first
// failure, if any.
func (t *TestRun) Execute() error {
	startedAt := time.Now()
	segments := brewdata.Segment(t.Packages, t.Concurrency)

	log.Info().
		Str("addr", t.Addr).
		Int("packages", len(t.Packages)).
		Int("segments", len(segments)).
		Int("unluckiness", t.Unluckiness).
		Msg("load test starting")

	steps := []struct {
		name string
		fn   func(*Client, []*brewdata.Package, *rand.Rand) error
	}{
		{"remove leftovers", t.bruteforceRemove},
		{"index all", t.bruteforceIndex},
		{"verify indexed", t.verify(OK)},
		{"remove all", t.bruteforceRemove},
		{"verify removed", t.verify(FAIL)},
	}

	for i, step := range steps {
		log.Info().Int("step", i+1).Str("name", step.name).Msg("starting step")

		var g errgroup.Group
		for segIdx, segment := range segments {
			name := fmt.Sprintf("client-%d-%d", i, segIdx)
			seed := int64(i*len(segments) + segIdx)
			g.Go(func() error {
				client, err := Dial(name, t.Addr)
				if err != nil {
					return err
				}
				defer client.Close()
				return step.fn(client, segment, rand.New(rand.NewSource(seed)))
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("step %q: %w", step.name, err)
		}
	}

	log.Info().Dur("took", time.Since(startedAt)).Msg("load test passed")
	return nil
}

// bruteforceIndex keeps sweeping the segment until one pass indexes every
// package. Packages whose dependencies live in other segments come around
// on a later pass once those segments catch up.
func (t *TestRun) bruteforceIndex(client *Client, segment []*brewdata.Package, rng *rand.Rand) error {
	for pass := 1; ; pass++ {
		indexed := 0
		for _, pkg := range segment {
			if err := t.maybeSendBroken(client, rng); err != nil {
				return err
			}
			code, err := client.Send(MakeIndexMessage(pkg))
			if err != nil {
				return err
			}
			switch code {
			case OK:
				indexed++
			case FAIL:
				// Dependencies not there yet, retry next pass.
			default:
				return fmt.Errorf("%s: INDEX %s: unexpected response %s", client.Name(), pkg.Name, code)
			}
		}
		log.Debug().
			Str("client", client.Name()).
			Int("pass", pass).
			Int("indexed", indexed).
			Int("total", len(segment)).
			Msg("index pass finished")
		if indexed == len(segment) {
			return nil
		}
	}
}

// bruteforceRemove is the converse sweep: it finishes once every package in
// the segment is removed (or was never indexed) in a single pass.
func (t *TestRun) bruteforceRemove(client *Client, segment []*brewdata.Package, rng *rand.Rand) error {
	for pass := 1; ; pass++ {
		removed := 0
		for _, pkg := range segment {
			if err := t.maybeSendBroken(client, rng); err != nil {
				return err
			}
			code, err := client.Send(MakeRemoveMessage(pkg.Name))
			if err != nil {
				return err
			}
			switch code {
			case OK:
				removed++
			case FAIL:
				// Still has dependents, retry next pass.
			default:
				return fmt.Errorf("%s: REMOVE %s: unexpected response %s", client.Name(), pkg.Name, code)
			}
		}
		log.Debug().
			Str("client", client.Name()).
			Int("pass", pass).
			Int("removed", removed).
			Int("total", len(segment)).
			Msg("remove pass finished")
		if removed == len(segment) {
			return nil
		}
	}
}

// verify queries every package in the segment and demands the expected code.
func (t *TestRun) verify(expected ResponseCode) func(*Client, []*brewdata.Package, *rand.Rand) error {
	return func(client *Client, segment []*brewdata.Package, rng *rand.Rand) error {
		for _, pkg := range segment {
			if err := t.maybeSendBroken(client, rng); err != nil {
				return err
			}
			code, err := client.Send(MakeQueryMessage(pkg.Name))
			if err != nil {
				return err
			}
			if code != expected {
				return fmt.Errorf("%s: QUERY %s: got %s, want %s", client.Name(), pkg.Name, code, expected)
			}
		}
		return nil
	}
}

// maybeSendBroken injects a malformed request with the configured
// probability and checks the server answers ERROR.
func (t *TestRun) maybeSendBroken(client *Client, rng *rand.Rand) error {
	if t.Unluckiness <= 0 || rng.Intn(100) >= t.Unluckiness {
		return nil
	}
	msg := MakeBrokenMessage(rng)
	code, err := client.Send(msg)
	if err != nil {
		return err
	}
	if code != ERROR {
		return fmt.Errorf("%s: broken message %q: got %s, want ERROR", client.Name(), msg, code)
	}
	return nil
}
