// Command harvest runs episodes of the harvest environment from a config
// file and records everything needed to reproduce them: the resolved config
// (verbatim), per-step zstd JSONL logs and a SQLite summary index.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"harvest.world/internal/experiment"
	"harvest.world/internal/persistence/runindex"
	"harvest.world/internal/persistence/runlog"
	"harvest.world/internal/sim/engine"
)

func main() {
	var (
		configPath = flag.String("config", "", "experiment config (.json or .yaml)")
		outDir     = flag.String("out", "./runs", "output directory")
		episodes   = flag.Int("episodes", 0, "episode count (0 = from config)")
		policy     = flag.String("policy", "", "built-in policy: random|forward|noop (default: from config)")
		obsFlavor  = flag.String("obs", "", "observation flavor to record: ego|rgb (default: from config)")
		seed       = flag.Int64("seed", 0, "seed override (0 = from config)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[harvest] ", log.LstdFlags|log.Lmicroseconds)

	if *configPath == "" {
		logger.Fatal("missing -config")
	}
	cfg, err := experiment.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *episodes > 0 {
		cfg.Episodes = *episodes
	}
	if *policy != "" {
		cfg.Policy = *policy
	}
	if *obsFlavor != "" {
		cfg.Observation = *obsFlavor
	}
	if *seed != 0 {
		cfg.Engine.Seed = *seed
	}
	pick, err := policyFunc(cfg.Policy)
	if err != nil {
		logger.Fatalf("policy: %v", err)
	}
	if cfg.Observation != "ego" && cfg.Observation != "rgb" {
		logger.Fatalf("observation flavor %q: want ego or rgb", cfg.Observation)
	}

	resolved, err := cfg.ResolvedJSON()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	runID := time.Now().UTC().Format("20060102-150405")
	runDir := filepath.Join(*outDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		logger.Fatalf("mkdir %s: %v", runDir, err)
	}
	if err := os.WriteFile(filepath.Join(runDir, "config.json"), resolved, 0o644); err != nil {
		logger.Fatalf("write resolved config: %v", err)
	}

	idx, err := runindex.Open(filepath.Join(runDir, "index.db"))
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	if err := idx.InsertRun(runindex.Run{
		RunID:      runID,
		ConfigJSON: string(resolved),
		Seed:       cfg.Engine.Seed,
		Episodes:   cfg.Episodes,
	}); err != nil {
		logger.Fatalf("index run: %v", err)
	}

	logger.Printf("run %s: %d episode(s), policy=%s obs=%s", runID, cfg.Episodes, cfg.Policy, cfg.Observation)

	for ep := 0; ep < cfg.Episodes; ep++ {
		if err := runEpisode(logger, idx, cfg, runID, runDir, ep, pick); err != nil {
			logger.Fatalf("episode %d: %v", ep, err)
		}
	}
	logger.Printf("run %s done: %s", runID, runDir)
}

func runEpisode(logger *log.Logger, idx *runindex.DB, cfg experiment.Config, runID, runDir string, ep int, pick policy) error {
	sim, err := engine.New(cfg.Engine)
	if err != nil {
		return err
	}
	epSeed := cfg.Engine.Seed + int64(ep)
	if _, err := sim.ResetSeed(epSeed); err != nil {
		return err
	}

	w, err := runlog.NewWriter(filepath.Join(runDir, fmt.Sprintf("episode-%04d.jsonl.zst", ep)))
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Write(runlog.Header{
		Kind:    "header",
		RunID:   runID,
		Episode: ep,
		Seed:    epSeed,
		Digest:  sim.Digest(),
	}); err != nil {
		return err
	}

	// The policy has its own stream: engine draws must not depend on how
	// many samples the action picker burns.
	policyRng := rand.New(rand.NewSource(epSeed ^ 0x7068617276657374))

	n := cfg.Engine.NumAgents
	var totalReward float64
	var apples, zaps, steps int
	var tax float64

	for {
		actions := pick(policyRng, n)
		res, err := sim.Step(actions)
		if err != nil {
			return err
		}
		steps++

		rec := runlog.StepRecord{
			Kind:    "step",
			Episode: ep,
			Step:    res.Info.Step,
			Actions: actionStrings(actions),
			Rewards: res.Rewards,
			Regrown: res.Info.Regrown,
			Tax:     res.Info.Tax,
			Digest:  sim.Digest(),
			Done:    res.Done,
		}
		stepApples := 0
		for _, c := range res.Info.Collected {
			stepApples += c
		}
		if stepApples > 0 {
			rec.Collected = res.Info.Collected
		}
		apples += stepApples
		for _, z := range res.Info.Zaps {
			rec.Zaps = append(rec.Zaps, z.Zapper, z.Target)
			zaps++
		}
		switch cfg.Observation {
		case "rgb":
			frame, err := sim.RenderFrame()
			if err != nil {
				return err
			}
			rec.Frame = base64.StdEncoding.EncodeToString(frame.Pix)
		default:
			rec.Views = make([]string, len(res.Obs))
			for i, o := range res.Obs {
				rec.Views[i] = base64.StdEncoding.EncodeToString(o.Pix)
			}
		}
		for _, r := range res.Rewards {
			totalReward += r
		}
		tax += res.Info.Tax

		if err := w.Write(rec); err != nil {
			return err
		}
		if res.Done {
			break
		}
	}

	if err := w.Close(); err != nil {
		return err
	}
	if err := idx.InsertEpisode(runindex.Episode{
		RunID:       runID,
		Episode:     ep,
		Seed:        epSeed,
		Steps:       steps,
		TotalReward: totalReward,
		Apples:      apples,
		Zaps:        zaps,
		Tax:         tax,
		FinalDigest: sim.Digest(),
	}); err != nil {
		return err
	}
	logger.Printf("episode %d: steps=%d reward=%.1f apples=%d zaps=%d tax=%.1f", ep, steps, totalReward, apples, zaps, tax)
	return nil
}

func actionStrings(actions []engine.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.String()
	}
	return out
}
