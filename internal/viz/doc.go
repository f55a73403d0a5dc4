// Package viz turns trajectories into display series and renders them.
//
// A [Transform] derives one [Series] from a trajectory: a single
// compartment, a sum of compartments, a ratio, a scaled copy, or one of
// the testing statistics from package metrics. Series are rendered by:
//
//   - [Plot]: asciigraph line plot for the terminal
//   - [WritePNG], [WriteSVG]: go-chart images
//   - [Browser]: Bubble Tea viewer that steps through a trajectory
//
// # Browser Key Bindings
//
//	←/→ h/l - Move one grid point
//	↑/↓ k/j - Select compartment
//	[/]     - Jump ten percent of the grid
//	T       - Cycle color themes
//	Q       - Quit
package viz
