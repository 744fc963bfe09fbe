// Package topology turns flat component tables into an indexed, immutable
// network model: bus numbering, resolved branch endpoints and appliance
// attachment, plus connectivity queries.
//
// The Model G = (B, L) is built once per base dataset:
//
//   - Buses B are numbered 0..n-1 in node-table order; that order is the row
//     order of every matrix assembled later.
//   - Branches L keep their per-side status; only branches with both sides
//     closed join two buses for connectivity.
//   - Appliances (source, sym_load, sym_gen, shunt) attach to one bus each.
//   - Sensors are not part of the topology; Build only checks that they point
//     at an object of the right kind.
//
// Why an immutable model?
//
//   - Batch scenarios share one Model across goroutines without locks.
//   - Scenario updates only touch appliance and sensor attributes, never the
//     structure, so the bus numbering stays valid for every scenario.
//
// Core API:
//
//	Build(d *dataset.Dataset) (*Model, error)   // O(N) with N = total rows
//	(*Model).Lookup(id) (ObjectRef, bool)        // O(1)
//	(*Model).Bus(nodeID) (int, bool)             // O(1)
//	(*Model).Islands() [][]int                   // O(B+L)
//	(*Model).Energized(d) []bool                 // O(B+L)
//
// Errors:
//
//	*calcerr.InvalidTopologyError  - duplicate ids, dangling references,
//	                                 self-loop lines, voltage level mismatch,
//	                                 sensor/object kind mismatch.
package topology
