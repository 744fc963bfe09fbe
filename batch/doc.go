// SPDX-License-Identifier: MIT

// Package batch runs independent scenarios on a bounded pool of goroutines.
//
// Every scenario owns one slot of the result and nothing else, so slots come
// back in input order whatever order the workers finish in. A scenario that
// fails or panics records its error in its slot and never stops its
// siblings. When ctx is cancelled, scenarios that have not started yet get
// ctx.Err() in their slot; running ones finish normally.
//
// Threads:
//
//	< 0   sequential, on the calling goroutine's schedule (limit 1)
//	  0   one worker per GOMAXPROCS
//	> 0   that many workers
package batch
