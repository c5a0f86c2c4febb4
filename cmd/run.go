package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/flockwork-sim/flockwork-sim/sim"
	"github.com/flockwork-sim/flockwork-sim/sim/ensemble"
	"github.com/flockwork-sim/flockwork-sim/sim/epidemic"
	"github.com/flockwork-sim/flockwork-sim/sim/metrics"
	"github.com/flockwork-sim/flockwork-sim/sim/network"
)

var (
	// Run parameters
	numNodes       int     // Number of nodes
	rewireQ        float64 // Probability of joining the target's group on rewiring
	tRunTotal      float64 // Simulated time limit
	infectionRate  float64 // eta, per S-I edge
	recoveryRate   float64 // rho, per infected node
	rewiringRate   float64 // gamma, per node
	numVaccinated  int     // Initially vaccinated nodes
	numInfected    int     // Initially infected nodes
	randomRewiring bool    // Rewire to random nodes instead of joining groups
	seed           int64   // Seed; 0 derives one from the clock
	samplingDT     float64 // Grid spacing for the recorded series; 0 records every event
	maxEvents      int     // Stop after this many events; 0 is unlimited
	configPath     string  // YAML run file
	edgesPath      string  // Initial edge list
	erP            float64 // Erdos-Renyi edge probability for the initial network
	replicas       int     // Independent runs
	parallelism    int     // Concurrent replicas
	metricsOut     string  // Prometheus textfile output
	outputPath     string  // JSON output; empty is stdout
	tEquilibrate   float64 // Equilibration time (equilibrate only)
	tMeasure       float64 // Averaging window (equilibrate only)
	warmup         int     // Rewiring events applied to the initial network before the run
)

var sisCmd = &cobra.Command{
	Use:   "sis",
	Short: "Run the SIS process until --t-run-total or extinction",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := simulate(cmd, epidemic.ModelSIS); err != nil {
			return fmt.Errorf("sis run failed: %w", err)
		}
		return nil
	},
}

var sirCmd = &cobra.Command{
	Use:   "sir",
	Short: "Run the SIR process until extinction (or --t-run-total if set)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := simulate(cmd, epidemic.ModelSIR); err != nil {
			return fmt.Errorf("sir run failed: %w", err)
		}
		return nil
	},
}

var equilibrateCmd = &cobra.Command{
	Use:   "equilibrate",
	Short: "Estimate the endemic infected fraction i_inf of the SIS process over replicas",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := equilibrate(cmd); err != nil {
			return fmt.Errorf("equilibration failed: %w", err)
		}
		return nil
	},
}

func registerRunFlags(c *cobra.Command) {
	d := epidemic.DefaultConfig(epidemic.ModelSIS)
	f := c.Flags()
	f.IntVar(&numNodes, "n", 0, "Number of nodes (defaults to the size implied by --edges)")
	f.Float64Var(&rewireQ, "q", 0.5, "Probability that a rewiring node joins the target's group")
	f.Float64Var(&tRunTotal, "t-run-total", 0, "Simulated time limit (required for sis; optional for sir)")
	f.Float64Var(&infectionRate, "infection-rate", 0, "Infection rate eta per S-I edge")
	f.Float64Var(&recoveryRate, "recovery-rate", 0, "Recovery rate rho per infected node")
	f.Float64Var(&rewiringRate, "rewiring-rate", d.RewiringRate, "Rewiring rate gamma per node")
	f.IntVar(&numVaccinated, "vaccinated", d.NumberVaccinated, "Number of initially vaccinated nodes")
	f.IntVar(&numInfected, "infected", d.NumberInfected, "Number of initially infected nodes")
	f.BoolVar(&randomRewiring, "random-rewiring", false, "Rewire to random nodes instead of joining the target's group")
	f.Int64Var(&seed, "seed", 0, "Seed for the run (0 derives one from the clock)")
	f.Float64Var(&samplingDT, "sampling-dt", 0, "Record the series on this time grid (0 records every event)")
	f.IntVar(&maxEvents, "max-events", 0, "Stop after this many events (0 is unlimited)")
	f.StringVar(&configPath, "config", "", "YAML run file; explicitly set flags override it")
	f.StringVar(&edgesPath, "edges", "", "Initial network as an edge list of \"i j\" lines")
	f.Float64Var(&erP, "er-p", 0, "Erdos-Renyi edge probability for the initial network when --edges is not given")
	f.IntVar(&replicas, "replicas", 1, "Number of independent replicas")
	f.IntVar(&parallelism, "parallelism", 0, "Replicas run concurrently (0 uses GOMAXPROCS)")
	f.StringVar(&metricsOut, "metrics-out", "", "Write prometheus metrics to this textfile")
	f.StringVar(&outputPath, "output", "", "Write JSON results to this file instead of stdout")
	f.IntVar(&warmup, "warmup-rewirings", 0, "Rewire the initial network this many times before infecting it")
}

// runPlan is the fully resolved input of one CLI invocation.
type runPlan struct {
	Config      epidemic.Config
	Edges       []sim.Edge
	Replicas    int
	Parallelism int
}

// buildPlan merges --config and flags, resolves the seed and builds the initial network.
// Without --config every flag applies; with it only flags set explicitly override the file.
func buildPlan(flags *pflag.FlagSet, model epidemic.Model, now func() time.Time) (runPlan, error) {
	rf := RunFile{Config: epidemic.DefaultConfig(model), Replicas: 1}
	if configPath != "" {
		loaded, err := loadRunFile(configPath)
		if err != nil {
			return runPlan{}, err
		}
		if loaded.Model == "" {
			loaded.Model = model
		}
		if loaded.Model != model {
			return runPlan{}, fmt.Errorf("config model %q does not match command %q: %w", loaded.Model, model, sim.ErrInvalidArgument)
		}
		rf = loaded
	}
	use := func(name string) bool { return configPath == "" || flags.Changed(name) }

	cfg := &rf.Config
	overrideInt := func(name string, dst *int, v int) {
		if use(name) {
			*dst = v
		}
	}
	overrideFloat := func(name string, dst *float64, v float64) {
		if use(name) {
			*dst = v
		}
	}
	overrideInt("n", &cfg.N, numNodes)
	overrideFloat("q", &cfg.Q, rewireQ)
	overrideFloat("t-run-total", &cfg.TRunTotal, tRunTotal)
	overrideFloat("infection-rate", &cfg.InfectionRate, infectionRate)
	overrideFloat("recovery-rate", &cfg.RecoveryRate, recoveryRate)
	overrideFloat("rewiring-rate", &cfg.RewiringRate, rewiringRate)
	overrideInt("vaccinated", &cfg.NumberVaccinated, numVaccinated)
	overrideInt("infected", &cfg.NumberInfected, numInfected)
	overrideFloat("sampling-dt", &cfg.SamplingDT, samplingDT)
	overrideInt("max-events", &cfg.MaxEvents, maxEvents)
	overrideInt("replicas", &rf.Replicas, replicas)
	overrideInt("parallelism", &rf.Parallelism, parallelism)
	overrideFloat("er-p", &rf.ERP, erP)
	if use("random-rewiring") {
		cfg.UseRandomRewiring = randomRewiring
	}
	if use("seed") {
		cfg.Seed = seed
	}
	if use("edges") {
		rf.Edges = edgesPath
	}

	// Resolve once so the initial network and every run derive from the reported seed.
	key := sim.ResolveSeed(cfg.Seed, now)
	cfg.Seed = int64(key)

	rng := sim.NewPartitionedRNG(key)
	plan := runPlan{Replicas: rf.Replicas, Parallelism: rf.Parallelism}
	switch {
	case rf.Edges != "":
		edges, implied, err := readEdgeFile(rf.Edges)
		if err != nil {
			return runPlan{}, fmt.Errorf("read edges: %w", err)
		}
		if cfg.N == 0 {
			cfg.N = implied
		}
		plan.Edges = edges
	case rf.ERP > 0:
		g, err := network.ErdosRenyi(cfg.N, rf.ERP, rng.ForSubsystem(sim.SubsystemNetwork))
		if err != nil {
			return runPlan{}, fmt.Errorf("generate initial network: %w", err)
		}
		plan.Edges = g.Edges()
	}
	plan.Config = rf.Config
	if plan.Replicas < 1 {
		return runPlan{}, fmt.Errorf("replicas = %d: %w", plan.Replicas, sim.ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return runPlan{}, err
	}
	if use("warmup-rewirings") && warmup > 0 {
		edges, err := warmUp(plan, rng.ForSubsystem(sim.SubsystemNetwork))
		if err != nil {
			return runPlan{}, fmt.Errorf("warm up initial network: %w", err)
		}
		plan.Edges = edges
	}
	return plan, nil
}

// warmUp relaxes the initial network towards the flockwork stationary state.
func warmUp(plan runPlan, src sim.Source) ([]sim.Edge, error) {
	g, err := network.FromEdges(plan.Config.N, plan.Edges)
	if err != nil {
		return nil, err
	}
	r, err := network.NewRewirer(plan.Config.Q, plan.Config.UseRandomRewiring)
	if err != nil {
		return nil, err
	}
	if err := network.Equilibrate(g, r, warmup, src); err != nil {
		return nil, err
	}
	logrus.Infof("Warmed up initial network with %d rewirings: m=%d, <k>=%.3f", warmup, g.NumEdges(), g.MeanDegree())
	return g.Edges(), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newMetrics() (*prometheus.Registry, *metrics.Recorder, error) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder("flockwork", reg)
	return reg, rec, err
}

func saveMetrics(reg *prometheus.Registry) error {
	if metricsOut == "" {
		return nil
	}
	return prometheus.WriteToTextfile(metricsOut, reg)
}

func simulate(cmd *cobra.Command, model epidemic.Model) error {
	plan, err := buildPlan(cmd.Flags(), model, time.Now)
	if err != nil {
		return err
	}
	reg, rec, err := newMetrics()
	if err != nil {
		return err
	}

	startTime := time.Now()
	var results any
	if plan.Replicas == 1 {
		res, err := epidemic.Run(plan.Edges, plan.Config, epidemic.WithMetrics(rec))
		if err != nil {
			return err
		}
		results = []*epidemic.Result{res}
	} else {
		summary, err := ensemble.Run(commandContext(cmd), ensemble.Spec{
			Config:      plan.Config,
			Edges:       plan.Edges,
			Replicas:    plan.Replicas,
			Parallelism: plan.Parallelism,
		}, epidemic.WithMetrics(rec))
		if err != nil {
			return err
		}
		results = summary
	}
	logrus.Infof("Simulation complete in %v", time.Since(startTime))

	if err := saveMetrics(reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return saveEnvelope(outputPath, cmd.OutOrStdout(), newEnvelope(string(model), plan.Config.Seed, results))
}

func equilibrate(cmd *cobra.Command) error {
	if tEquilibrate < 0 || tMeasure <= 0 {
		return fmt.Errorf("averaging window (%v, %v): %w", tEquilibrate, tMeasure, sim.ErrInvalidArgument)
	}
	flags := cmd.Flags()
	if !flags.Changed("t-run-total") {
		tRunTotal = tEquilibrate + tMeasure
	}
	plan, err := buildPlan(flags, epidemic.ModelSIS, time.Now)
	if err != nil {
		return err
	}
	reg, rec, err := newMetrics()
	if err != nil {
		return err
	}
	summary, err := ensemble.Run(commandContext(cmd), ensemble.Spec{
		Config:       plan.Config,
		Edges:        plan.Edges,
		Replicas:     plan.Replicas,
		Parallelism:  plan.Parallelism,
		TEquilibrate: tEquilibrate,
		TMeasure:     tMeasure,
	}, epidemic.WithMetrics(rec))
	if err != nil {
		return err
	}
	logrus.Infof("i_inf = %.4f +/- %.4f over %d replicas", summary.MeanIInf, summary.StdIInf, len(summary.Replicas))

	if err := saveMetrics(reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return saveEnvelope(outputPath, cmd.OutOrStdout(), newEnvelope(string(epidemic.ModelSIS), plan.Config.Seed, summary))
}
