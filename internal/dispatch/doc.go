// Package dispatch owns the middle of the pipeline: it admits promoted files
// exactly once, records them as jobs, and runs a fixed pool of workers that
// call the transformation client and persist results. A worker failure never
// takes down the pool; each job ends in a terminal state with a recorded
// error class.
package dispatch
