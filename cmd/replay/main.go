// Command replay re-simulates recorded episodes from a run directory and
// verifies the per-step state digests, proving (or disproving) determinism
// of the original run.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"harvest.world/internal/experiment"
	"harvest.world/internal/persistence/runlog"
	"harvest.world/internal/sim/engine"
)

func main() {
	var (
		runDir  = flag.String("run", "", "run directory (contains config.json and episode-*.jsonl.zst)")
		episode = flag.Int("episode", -1, "episode to verify (-1 = all)")
	)
	flag.Parse()

	if *runDir == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}

	raw, err := os.ReadFile(filepath.Join(*runDir, "config.json"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read config:", err)
		os.Exit(1)
	}
	cfg, err := experiment.Parse(raw, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse config:", err)
		os.Exit(1)
	}

	files, err := filepath.Glob(filepath.Join(*runDir, "episode-*.jsonl.zst"))
	if err != nil || len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no episode logs in", *runDir)
		os.Exit(1)
	}
	sort.Strings(files)

	failed := 0
	for _, path := range files {
		hdr, steps, err := runlog.Read(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		if *episode >= 0 && hdr.Episode != *episode {
			continue
		}
		if err := verify(cfg, hdr, steps); err != nil {
			fmt.Printf("episode %d: MISMATCH: %v\n", hdr.Episode, err)
			failed++
			continue
		}
		fmt.Printf("episode %d: ok (%d steps)\n", hdr.Episode, len(steps))
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func verify(cfg experiment.Config, hdr runlog.Header, steps []runlog.StepRecord) error {
	sim, err := engine.New(cfg.Engine)
	if err != nil {
		return err
	}
	if _, err := sim.ResetSeed(hdr.Seed); err != nil {
		return err
	}
	if got := sim.Digest(); got != hdr.Digest {
		return fmt.Errorf("initial digest %s, log has %s", got, hdr.Digest)
	}
	for _, rec := range steps {
		actions := make([]engine.Action, len(rec.Actions))
		for i, name := range rec.Actions {
			a, err := engine.ParseAction(name)
			if err != nil {
				return fmt.Errorf("step %d: %w", rec.Step, err)
			}
			actions[i] = a
		}
		res, err := sim.Step(actions)
		if err != nil {
			return fmt.Errorf("step %d: %w", rec.Step, err)
		}
		if got := sim.Digest(); got != rec.Digest {
			return fmt.Errorf("step %d: digest %s, log has %s", rec.Step, got, rec.Digest)
		}
		if res.Done != rec.Done {
			return fmt.Errorf("step %d: done=%v, log has %v", rec.Step, res.Done, rec.Done)
		}
	}
	return nil
}
