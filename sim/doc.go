// Package sim provides the stochastic sampling core of the flockwork epidemic simulator.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - rng.go: SimulationKey, the per-run MT19937 stream and subsystem seed derivation
//   - gillespie.go: one direct-method step (event index and exponential waiting time)
//   - select.go: weighted event selection by inverse-CDF linear scan
//   - pair.go, subset.go: canonical edges, distinct pair choice, sampling without replacement
//
// # Architecture
//
// The sim package holds pure primitives; consumers live in sub-packages:
//   - sim/network/: contact network, flockwork rewiring, initial graphs
//   - sim/epidemic/: SIS and SIR event loops
//   - sim/trace/: time series and equilibrium time averages
//   - sim/ensemble/: independent replicas run in parallel
//   - sim/metrics/: prometheus event counters
//
// Every primitive draws from a caller-owned Source. Nothing in this package holds global
// random state, so independent runs may proceed on separate goroutines as long as each
// owns its own stream.
package sim
